package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PaulFidika/plankit/adapters/ginutil"
	"github.com/PaulFidika/plankit/loader"
)

// HandleWidgetRequestPOST runs the full capability pipeline for a widget and
// returns the terminal verdict. The request context is the caller's interest
// window: a client disconnect cancels the pipeline.
func HandleWidgetRequestPOST(ld *loader.Loader, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLWidgetRequest) {
			ginutil.TooMany(c)
			return
		}
		caller, ok := callerFrom(c)
		if !ok {
			ginutil.Unauthorized(c, "missing_caller")
			return
		}
		name := strings.TrimSpace(c.Param("name"))
		if name == "" {
			ginutil.BadRequest(c, "missing_widget_name")
			return
		}

		var terminal *loader.Result
		for res := range ld.Request(c.Request.Context(), name, caller) {
			if res.Pending {
				continue
			}
			r := res
			terminal = &r
		}
		if terminal == nil {
			// Interest window closed before a verdict settled.
			c.Status(http.StatusRequestTimeout)
			return
		}
		c.JSON(http.StatusOK, terminal.LoadResult)
	}
}
