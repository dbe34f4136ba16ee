package files

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mediaverse/internal/identity"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AuthMiddleware resolves the caller through the users service before any
// URL is issued.
func AuthMiddleware(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := resolver.ResolveCaller(c.Request.Context(), c.GetHeader("Authorization"))
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
		c.Next()
	}
}

// POST /files/upload-url
func (h *Handler) GenerateUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return
	}

	response, err := h.service.GenerateUploadURL(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response)
}

// POST /files/download-url
func (h *Handler) GenerateDownloadURL(c *gin.Context) {
	var req DownloadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return
	}

	response, err := h.service.GenerateDownloadURL(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to generate download URL"})
		return
	}
	c.JSON(http.StatusOK, response)
}

// DELETE /files/:key
func (h *Handler) DeleteFile(c *gin.Context) {
	fileKey := c.Param("key")
	if fileKey == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file key is required"})
		return
	}

	if err := h.service.DeleteFile(c.Request.Context(), fileKey); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted", "file_key": fileKey})
}

// GET /health
func (h *Handler) Health(c *gin.Context) {
	if err := h.service.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "files-service",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "files-service",
	})
}
