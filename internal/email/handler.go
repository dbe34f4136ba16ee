package email

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handler serves the email service's health and monitoring endpoints.
type Handler struct {
	redis  *redis.Client
	store  *IdempotencyStore
	logger *slog.Logger
}

func NewHandler(redisClient *redis.Client, store *IdempotencyStore, logger *slog.Logger) *Handler {
	return &Handler{
		redis:  redisClient,
		store:  store,
		logger: logger,
	}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	redisStatus := "connected"
	if err := h.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "disconnected"
		h.logger.Error("Redis health check failed", "error", err)
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if redisStatus != "connected" {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":  status,
		"service": "email-service",
		"redis":   redisStatus,
	})
}

// Stats handles GET /stats.
func (h *Handler) Stats(c *gin.Context) {
	count, err := h.store.CountRecords(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to get stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"idempotency_records": count,
		"ttl_hours":           24,
	})
}
