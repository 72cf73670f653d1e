package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds API-level application configuration
type Config struct {
	// API Settings
	APITitle   string
	APIVersion string
	APIPrefix  string
	Port       string

	// CORS
	CORSOrigins []string

	// Vector Search Backend: "pgvector" or "qdrant"
	VectorBackend string
	// Optional alternate backend tried once when the primary is unreachable.
	// Empty disables fallback.
	VectorFallbackBackend string

	// Qdrant settings (used when VectorBackend or the fallback is "qdrant")
	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string
	QdrantUseTLS bool
}

var (
	config *Config
	once   sync.Once
)

// GetConfig returns the singleton configuration instance
func GetConfig() *Config {
	once.Do(func() {
		config = loadConfig()
	})
	return config
}

func loadConfig() *Config {
	return &Config{
		APITitle:    getEnv("API_TITLE", "Genesis Melodies Search API"),
		APIVersion:  getEnv("API_VERSION", "1.0.0"),
		APIPrefix:   getEnv("API_PREFIX", "/api/v1"),
		Port:        getEnv("PORT", "8081"),
		CORSOrigins: splitOrigins(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),

		VectorBackend:         getEnv("VECTOR_BACKEND", "pgvector"),
		VectorFallbackBackend: getEnv("VECTOR_FALLBACK_BACKEND", ""),

		QdrantHost:   getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:   getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),
		QdrantUseTLS: getEnvBool("QDRANT_USE_TLS", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitOrigins(value string) []string {
	parts := strings.Split(value, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
