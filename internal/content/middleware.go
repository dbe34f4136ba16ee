package content

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mediaverse/internal/identity"
)

const userIDKey = "user_id"

// AuthMiddleware resolves the caller through the users service and aborts
// the request before any handler runs when resolution fails. A missing or
// rejected credential maps to 401; an unreachable users service maps to
// 503 so clients can tell auth failure from platform failure.
func AuthMiddleware(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := resolver.ResolveCaller(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrUnauthenticated):
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
			case errors.Is(err, identity.ErrUpstreamUnavailable):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "identity service unavailable"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// callerID returns the user id stored by AuthMiddleware.
func callerID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
