package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the relay service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	LogLevel         string

	AllowAnyOrigin bool

	TokenSecret string
	DatabaseURL string

	StoreTimeout      time.Duration
	HeartbeatInterval time.Duration
	WriteTimeout      time.Duration
	SendBuffer        int
	ReadLimit         int64

	UploadDir      string
	MaxUploadBytes int64
	HistoryLimit   int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "peerline"),
		LogLevel:          envOrDefault("APP_LOG_LEVEL", "info"),
		AllowAnyOrigin:    false,
		TokenSecret:       stringsTrimSpace("APP_TOKEN_SECRET"),
		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),
		UploadDir:         envOrDefault("APP_UPLOAD_DIR", "uploads"),
		ShutdownTimeout:   15 * time.Second,
		StoreTimeout:      5 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		WriteTimeout:      10 * time.Second,
		SendBuffer:        64,
		ReadLimit:         1 << 20,
		MaxUploadBytes:    10 << 20,
		HistoryLimit:      100,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.StoreTimeout, err = durationFromEnv("APP_STORE_TIMEOUT", cfg.StoreTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HeartbeatInterval, err = durationFromEnv("APP_HEARTBEAT_INTERVAL", cfg.HeartbeatInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.WriteTimeout, err = durationFromEnv("APP_WRITE_TIMEOUT", cfg.WriteTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SendBuffer, err = intFromEnv("APP_SEND_BUFFER", cfg.SendBuffer)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryLimit, err = intFromEnv("APP_HISTORY_LIMIT", cfg.HistoryLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.ReadLimit, err = int64FromEnv("APP_READ_LIMIT", cfg.ReadLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxUploadBytes, err = int64FromEnv("APP_MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.TokenSecret == "" {
		return Config{}, fmt.Errorf("APP_TOKEN_SECRET is required")
	}
	if cfg.HeartbeatInterval < time.Second {
		return Config{}, fmt.Errorf("APP_HEARTBEAT_INTERVAL must be at least 1s")
	}
	if cfg.StoreTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_STORE_TIMEOUT must be positive")
	}
	if cfg.SendBuffer <= 0 {
		return Config{}, fmt.Errorf("APP_SEND_BUFFER must be positive")
	}
	if cfg.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("APP_HISTORY_LIMIT must be positive")
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("APP_MAX_UPLOAD_BYTES must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func int64FromEnv(key string, fallback int64) (int64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
