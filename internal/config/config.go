package config

import "os"

// Config holds server-level configuration
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	HTTPPort  string
	JWTSecret string
}

// Load reads server configuration from the environment
func Load() *Config {
	return &Config{
		MongoURI:  getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnvOrDefault("MONGO_DB", "studentvoice"),
		RedisAddr: getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		HTTPPort:  getEnvOrDefault("PORT", "8080"),
		JWTSecret: getEnvOrDefault("JWT_SECRET", "super-secret-key-change-in-production"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
