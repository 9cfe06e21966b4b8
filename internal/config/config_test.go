package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Storage.Driver != DriverMemory {
		t.Fatalf("unexpected defaults: port=%q driver=%q", cfg.Server.Port, cfg.Storage.Driver)
	}
	if cfg.Storage.DocumentID != "quiz-categories" || cfg.Mongo.Database != "quizapp" || cfg.Mongo.Collection != "categories" {
		t.Fatalf("unexpected storage defaults: %+v %+v", cfg.Storage, cfg.Mongo)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: "9090"
  allowedOrigins: ["http://localhost:3000"]
storage:
  driver: redis
redis:
  addr: localhost:6379
cache:
  ttl: 30s
quiz:
  answerDelay: 500ms
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "7000")
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("SHOW_ADMIN_BUTTON", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Fatalf("expected env port, got %q", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverRedis || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected storage %+v redis %+v", cfg.Storage, cfg.Redis)
	}
	if len(cfg.Server.AllowedOrigins) != 1 {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Client.AdminPassword != "s3cret" || !cfg.Client.HideAdmin {
		t.Fatalf("unexpected client %+v", cfg.Client)
	}
	if got := TTLDuration(cfg.Cache.TTL, time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s cache ttl, got %v", got)
	}
	if got := TTLDuration(cfg.Quiz.AnswerDelay, time.Second); got != 500*time.Millisecond {
		t.Fatalf("expected 500ms answer delay, got %v", got)
	}
}

func TestLoadInfersDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverMongo {
		t.Fatalf("expected mongo driver, got %q", cfg.Storage.Driver)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "LOG_LEVEL", "LOG_FORMAT", "STORAGE_DRIVER", "REDIS_ADDR",
		"DATABASE_URL", "MONGODB_URI", "QUIZ_API_URL", "ADMIN_PASSWORD", "ALLOWED_ORIGINS",
		"SHOW_ADMIN_BUTTON",
	} {
		t.Setenv(key, "")
	}
}
