package content

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"mediaverse/internal/consul"
	"mediaverse/internal/database"
	"mediaverse/internal/identity"
)

// Server holds the dependencies for the content service's HTTP server.
type Server struct {
	port int

	svc      *Service
	resolver identity.Resolver
}

// Config holds server configuration.
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LoadConfigFromEnv loads server configuration from environment variables.
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("PORT", "8082"))

	return &Config{
		Port:         port,
		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
	}
}

// NewServer wires the storage, cache and identity dependencies and returns a
// configured HTTP server.
func NewServer(discovery consul.ServiceDiscovery) *http.Server {
	cfg := LoadConfigFromEnv()

	dbService := database.New()
	store := NewPostgresStore(dbService)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("[Content] Failed to run migrations: %v", err)
	}
	log.Printf("[Content] Database ready")

	cache := NewCache(
		getEnv("REDIS_ADDR", "localhost:6379"),
		getEnv("REDIS_PASSWORD", ""),
		0,
	)

	appServer := &Server{
		port:     cfg.Port,
		svc:      NewService(store, cache),
		resolver: identity.NewHTTPResolver(discovery, getEnv("USERS_SERVICE_NAME", "users-service")),
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           appServer.RegisterRoutes(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	log.Printf("[Content] HTTP server configured on port %d", cfg.Port)
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
