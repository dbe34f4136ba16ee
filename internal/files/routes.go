package files

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mediaverse/internal/identity"
)

// Server holds dependencies for the files service.
type Server struct {
	service  *Service
	resolver identity.Resolver
}

func NewServer(service *Service, resolver identity.Resolver) *Server {
	return &Server{service: service, resolver: resolver}
}

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	handler := NewHandler(s.service)

	r.GET("/health", handler.Health)

	filesGroup := r.Group("/files")
	filesGroup.Use(AuthMiddleware(s.resolver))
	{
		filesGroup.POST("/upload-url", handler.GenerateUploadURL)
		filesGroup.POST("/download-url", handler.GenerateDownloadURL)
		filesGroup.DELETE("/:key", handler.DeleteFile)
	}

	return r
}
