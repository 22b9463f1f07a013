package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PaulFidika/plankit/adapters/ginutil"
	"github.com/PaulFidika/plankit/audit"
)

// HandleDenialsGET lists the caller's recent denied decisions from the audit
// store, newest first.
func HandleDenialsGET(store *audit.PGStore, rl ginutil.RateLimiter) gin.HandlerFunc {
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
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		events, err := store.RecentDenials(c.Request.Context(), caller.ID, limit)
		if err != nil {
			ginutil.ServerErr(c, "failed_to_list_denials")
			return
		}
		out := make([]gin.H, 0, len(events))
		for _, ev := range events {
			out = append(out, gin.H{
				"widget":     ev.Widget,
				"reason":     string(ev.Reason),
				"request_id": ev.RequestID,
				"at":         ev.At,
			})
		}
		c.JSON(http.StatusOK, gin.H{"denials": out})
	}
}
