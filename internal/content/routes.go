package content

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

	// Health check endpoint, no auth required.
	r.GET("/health", handler.Health)

	posts := r.Group("/posts")

	// Browse reads are public.
	posts.GET("", handler.ListPosts)
	posts.GET("/trending", handler.TrendingPosts)
	posts.GET("/top-rated", handler.TopRatedByCategory)
	posts.GET("/search", handler.SearchPosts)
	posts.GET("/:id", handler.GetPost)
	posts.GET("/:id/likes", handler.LikesCount)
	posts.GET("/:id/rating", handler.AverageRating)
	posts.GET("/:id/comments", handler.ListComments)
	posts.GET("/:id/comments/count", handler.CommentsCount)

	// Mutations and caller-scoped reads resolve the caller through the
	// users service.
	authed := posts.Group("")
	authed.Use(AuthMiddleware(s.resolver))
	{
		authed.POST("", handler.CreatePost)
		authed.PUT("/:id", handler.UpdatePost)
		authed.DELETE("/:id", handler.DeletePost)

		authed.POST("/:id/like", handler.ToggleLike)
		authed.GET("/:id/liked", handler.HasLiked)

		authed.POST("/:id/rate", handler.RatePost)
		authed.GET("/:id/rating/user", handler.UserRating)

		authed.POST("/:id/comment", handler.AddComment)
	}

	return r
}
