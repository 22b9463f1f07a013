package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PaulFidika/plankit/adapters/ginutil"
	"github.com/PaulFidika/plankit/plancache"
)

// HandlePlanInvalidatePOST drops the cached plan so the next check refetches.
// Call it on login, logout, and plan change. Callers may only invalidate
// themselves unless they hold the admin role, in which case `?user_id`
// selects the target.
func HandlePlanInvalidatePOST(plans *plancache.Cache, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLPlanInvalidate) {
			ginutil.TooMany(c)
			return
		}
		caller, ok := callerFrom(c)
		if !ok {
			ginutil.Unauthorized(c, "missing_caller")
			return
		}
		target := caller.ID
		if q := strings.TrimSpace(c.Query("user_id")); q != "" && q != caller.ID {
			if !caller.HasRole("admin") {
				ginutil.Forbidden(c, "not_allowed")
				return
			}
			target = q
		}
		if err := plans.Invalidate(c.Request.Context(), target); err != nil {
			ginutil.ServerErr(c, "failed_to_invalidate")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
