package users

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	handler := NewHandler(s.svc)

	r.GET("/health", handler.Health)

	r.POST("/users/register", handler.Register)
	r.POST("/users/login", handler.Login)
	r.POST("/forgot-password", handler.ForgotPassword)

	authed := r.Group("/users")
	authed.Use(handler.AuthMiddleware())
	{
		authed.GET("/me", handler.Me)
		authed.GET("/:id", handler.GetUser)
		authed.POST("/:id/follow", handler.Follow)
		authed.DELETE("/:id/follow", handler.Unfollow)
		authed.GET("/:id/followers", handler.Followers)
		authed.GET("/:id/following", handler.Following)
	}

	return r
}
