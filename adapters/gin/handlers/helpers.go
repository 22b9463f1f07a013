package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/PaulFidika/plankit/entitlements"
)

// callerFrom reads the caller stashed by the gategin middleware.
func callerFrom(c *gin.Context) (entitlements.Caller, bool) {
	v, ok := c.Get("gate.caller")
	if !ok {
		return entitlements.Caller{}, false
	}
	caller, ok := v.(entitlements.Caller)
	return caller, ok && caller.ID != ""
}
