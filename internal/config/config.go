// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server Server
	Gemini Gemini
	Serp   Serp
	DBPath string // analysis cache database; empty disables persistence
}

// Server holds HTTP server configuration.
type Server struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// Gemini holds LLM collaborator configuration.
type Gemini struct {
	APIKey       string
	StageTimeout time.Duration
}

// Serp holds price search configuration. An empty APIKey disables the
// price search.
type Serp struct {
	APIKey  string
	Country string
	Lang    string
}

// Load reads configuration from the environment. A local .env file is
// loaded first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Server: Server{
			Host:            getEnv("HOST", "0.0.0.0"),
			Port:            getEnvAsInt("PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 2*time.Minute),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 2*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     getEnvAsSlice("CORS_ORIGINS", []string{"*"}),
		},
		Gemini: Gemini{
			APIKey:       os.Getenv("GEMINI_API_KEY"),
			StageTimeout: getEnvAsDuration("COLLABORATOR_TIMEOUT", 30*time.Second),
		},
		Serp: Serp{
			APIKey:  os.Getenv("SERP_API_KEY"),
			Country: getEnv("SERP_COUNTRY", "uk"),
			Lang:    getEnv("SERP_LANG", "en"),
		},
		DBPath: getEnv("DEALCHECK_DB_PATH", "dealcheck.db"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	return strings.Split(value, ",")
}
