package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/PaulFidika/plankit/adapters/ginutil"
	"github.com/PaulFidika/plankit/audit"
	"github.com/PaulFidika/plankit/decision"
	"github.com/PaulFidika/plankit/loader"
	"github.com/PaulFidika/plankit/plancache"
)

// Deps bundles what the gate endpoints need. Audit may be nil, which
// disables the denials listing.
type Deps struct {
	Engine  *decision.Engine
	Loader  *loader.Loader
	Plans   *plancache.Cache
	Audit   *audit.PGStore
	Limiter ginutil.RateLimiter
}

// Register mounts the gate endpoints on r. Callers are expected to have the
// gategin.CallerRequired and LanguageMiddleware applied upstream.
func Register(r gin.IRouter, d Deps) {
	r.GET("/entitlements/check", HandleEntitlementsCheckGET(d.Engine, d.Limiter))
	r.POST("/widgets/:name/request", HandleWidgetRequestPOST(d.Loader, d.Limiter))
	r.POST("/plan/invalidate", HandlePlanInvalidatePOST(d.Plans, d.Limiter))
	if d.Audit != nil {
		r.GET("/decisions/denials", HandleDenialsGET(d.Audit, d.Limiter))
	}
}
