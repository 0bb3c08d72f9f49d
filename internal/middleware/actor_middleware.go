package middleware

import (
	"net/http"
	"strings"

	"go-crewperf/internal/shared/contextutil"
	"go-crewperf/internal/shared/response"
	"go-crewperf/internal/tenant"

	"github.com/gin-gonic/gin"
)

const (
	HeaderCompanyID = "X-Company-ID"
	HeaderActorID   = "X-Actor-ID"
)

// ActorContext reads the company and reviewer forwarded by the gateway,
// which has already authenticated the caller. Reads only need a company;
// writes also need an actor.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, err := tenant.ParseCompanyID(c.GetHeader(HeaderCompanyID))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid company", map[string]string{"header": HeaderCompanyID})
			c.Abort()
			return
		}

		actorID := strings.TrimSpace(c.GetHeader(HeaderActorID))
		if actorID == "" && c.Request.Method != http.MethodGet {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing actor", map[string]string{"header": HeaderActorID})
			c.Abort()
			return
		}

		c.Set("company_id", companyID.String())
		c.Set("actor_id", actorID)

		ctx := contextutil.WithCompanyID(c.Request.Context(), companyID.String())
		ctx = contextutil.WithActorID(ctx, actorID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
