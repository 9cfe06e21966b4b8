package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers accepted by storage.driver.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		GinMode        string   `yaml:"ginMode"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Storage struct {
		Driver     string `yaml:"driver"`
		DocumentID string `yaml:"documentID"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI        string `yaml:"uri"`
		Database   string `yaml:"database"`
		Collection string `yaml:"collection"`
	} `yaml:"mongo"`
	Cache struct {
		// TTL of the read-through cache in front of a remote store; empty disables it.
		TTL string `yaml:"ttl"`
	} `yaml:"cache"`
	Client struct {
		BaseURL       string `yaml:"baseURL"`
		Timeout       string `yaml:"timeout"`
		AdminPassword string `yaml:"adminPassword"`
		HideAdmin     bool   `yaml:"hideAdmin"`
		TranscriptDir string `yaml:"transcriptDir"`
	} `yaml:"client"`
	Quiz struct {
		AnswerDelay  string `yaml:"answerDelay"`
		TimeoutDelay string `yaml:"timeoutDelay"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path, then applies .env and environment overrides.
// A missing file is not an error; defaults fill whatever is left empty.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	_ = godotenv.Load()
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	override(&cfg.Server.Port, "PORT")
	override(&cfg.Server.GinMode, "GIN_MODE")
	override(&cfg.Log.Level, "LOG_LEVEL")
	override(&cfg.Log.Format, "LOG_FORMAT")
	override(&cfg.Storage.Driver, "STORAGE_DRIVER")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Postgres.URL, "DATABASE_URL")
	override(&cfg.Mongo.URI, "MONGODB_URI")
	override(&cfg.Client.BaseURL, "QUIZ_API_URL")
	override(&cfg.Client.AdminPassword, "ADMIN_PASSWORD")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = parseOrigins(v)
	}
	if v := os.Getenv("SHOW_ADMIN_BUTTON"); v != "" {
		cfg.Client.HideAdmin = strings.EqualFold(v, "false")
	}
}

func applyDefaults(cfg *Config) {
	fallback(&cfg.Server.Port, "8080")
	fallback(&cfg.Server.GinMode, "release")
	fallback(&cfg.Log.Level, "info")
	fallback(&cfg.Log.Format, "json")
	fallback(&cfg.Storage.DocumentID, "quiz-categories")
	fallback(&cfg.Mongo.Database, "quizapp")
	fallback(&cfg.Mongo.Collection, "categories")
	fallback(&cfg.Client.BaseURL, "http://localhost:8080")
	fallback(&cfg.Client.Timeout, "10s")
	fallback(&cfg.Client.AdminPassword, "admin123")
	fallback(&cfg.Client.TranscriptDir, ".")
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = inferDriver(*cfg)
	}
}

// inferDriver picks the first configured backend so a bare DATABASE_URL or MONGODB_URI is enough.
func inferDriver(cfg Config) string {
	switch {
	case cfg.Mongo.URI != "":
		return DriverMongo
	case cfg.Postgres.URL != "":
		return DriverPostgres
	case cfg.Redis.Addr != "":
		return DriverRedis
	default:
		return DriverMemory
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func fallback(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
func parseOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
