// Package gateway implements the API gateway: request logging, CORS, and
// routing to backend services discovered through Consul. The gateway does
// no authentication of its own; bearer credentials pass through to the
// backends, which resolve the caller against the users service.
package gateway

import (
	"github.com/gin-gonic/gin"

	"mediaverse/internal/consul"
)

// SetupRouter configures and returns the gateway router.
func SetupRouter(discovery consul.ServiceDiscovery) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())

	proxyHandler := NewProxyHandler(discovery)

	r.GET("/health", proxyHandler.Health)

	// Identity: register/login/profile/follow graph.
	users := r.Group("/users")
	{
		users.Any("", proxyHandler.ProxyRequest("users-service"))
		users.Any("/*path", proxyHandler.ProxyRequest("users-service"))
	}
	r.POST("/forgot-password", proxyHandler.ProxyRequest("users-service"))

	// Content: posts and their interactions.
	posts := r.Group("/posts")
	{
		posts.Any("", proxyHandler.ProxyRequest("content-service"))
		posts.Any("/*path", proxyHandler.ProxyRequest("content-service"))
	}

	// Media: presigned upload/download URLs.
	files := r.Group("/files")
	{
		files.Any("", proxyHandler.ProxyRequest("files-service"))
		files.Any("/*path", proxyHandler.ProxyRequest("files-service"))
	}

	return r
}
