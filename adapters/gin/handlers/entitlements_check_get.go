package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PaulFidika/plankit/adapters/ginutil"
	"github.com/PaulFidika/plankit/decision"
	"github.com/PaulFidika/plankit/messages"
)

// HandleEntitlementsCheckGET answers synchronous can-use / can-download
// checks. `?key` names the feature or resource; `?kind=download` switches to
// the download rules.
func HandleEntitlementsCheckGET(eng *decision.Engine, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLEntitlementsCheck) {
			ginutil.TooMany(c)
			return
		}
		caller, ok := callerFrom(c)
		if !ok {
			ginutil.Unauthorized(c, "missing_caller")
			return
		}
		key := strings.TrimSpace(c.Query("key"))
		if key == "" {
			ginutil.BadRequest(c, "missing_key")
			return
		}

		var d decision.Decision
		if c.Query("kind") == "download" {
			d = eng.CanDownload(c.Request.Context(), key, caller)
		} else {
			d = eng.CanUse(c.Request.Context(), key, caller)
		}

		resp := gin.H{"ok": d.OK}
		if d.Reason != "" {
			resp["reason"] = string(d.Reason)
		}
		if !d.OK {
			resp["message"] = messages.DenyMessage(c.Request.Context(), d.Reason)
		}
		c.JSON(http.StatusOK, resp)
	}
}
