package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_TOKEN_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Fatalf("HeartbeatInterval = %v, want 30s", cfg.HeartbeatInterval)
	}
	if cfg.MetricsNamespace != "peerline" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "peerline")
	}
	if cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin should default to false")
	}
}

func TestLoadRequiresTokenSecret(t *testing.T) {
	setCoreEnvEmpty(t)

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should fail without APP_TOKEN_SECRET")
	}
}

func TestLoadRejectsShortHeartbeat(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_TOKEN_SECRET", "test-secret")
	t.Setenv("APP_HEARTBEAT_INTERVAL", "100ms")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject heartbeat below 1s")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_TOKEN_SECRET", "test-secret")
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("APP_HEARTBEAT_INTERVAL", "10s")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "true")
	t.Setenv("APP_SEND_BUFFER", "128")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.HeartbeatInterval != 10*time.Second {
		t.Fatalf("HeartbeatInterval = %v, want 10s", cfg.HeartbeatInterval)
	}
	if !cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin should be true")
	}
	if cfg.SendBuffer != 128 {
		t.Fatalf("SendBuffer = %d, want 128", cfg.SendBuffer)
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_TOKEN_SECRET", "test-secret")
	t.Setenv("APP_STORE_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject unparseable duration")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_LOG_LEVEL",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_TOKEN_SECRET",
		"DATABASE_URL",
		"APP_STORE_TIMEOUT",
		"APP_HEARTBEAT_INTERVAL",
		"APP_WRITE_TIMEOUT",
		"APP_SEND_BUFFER",
		"APP_READ_LIMIT",
		"APP_UPLOAD_DIR",
		"APP_MAX_UPLOAD_BYTES",
		"APP_HISTORY_LIMIT",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
