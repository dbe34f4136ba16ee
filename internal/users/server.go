package users

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"mediaverse/internal/config"
	"mediaverse/internal/database"
)

// Server holds the dependencies for the users service's HTTP server.
type Server struct {
	port int

	svc *Service
}

// NewServer wires storage, token signing and the email event producer into a
// configured HTTP server. events may be nil when Kafka is not available.
func NewServer(events EventPublisher) *http.Server {
	port, _ := strconv.Atoi(getEnv("PORT", "8081"))

	if err := config.ValidateJWTSecret(); err != nil {
		log.Fatalf("[Users] %v", err)
	}
	secret := config.MustGetEnv("JWT_SECRET")
	ttl := getEnvDuration("JWT_TTL", 24*time.Hour)

	dbService := database.New()
	repo := NewPostgresRepository(dbService)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("[Users] Failed to run migrations: %v", err)
	}
	log.Printf("[Users] Database ready")

	appServer := &Server{
		port: port,
		svc: NewService(
			repo,
			NewTokenManager(secret, ttl),
			events,
			getEnv("KAFKA_TOPIC_EMAIL_EVENTS", "email-events"),
		),
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           appServer.RegisterRoutes(),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	log.Printf("[Users] HTTP server configured on port %d", port)
	return server
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
