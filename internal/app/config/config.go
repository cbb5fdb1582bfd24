// Package config loads the application settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"crud_backend/internal/platform/report"
)

// Report archive kinds.
const (
	ArchiveNone = ""
	ArchiveDir  = "dir"
	ArchiveS3   = "s3"
)

// Config is everything cmd/server needs besides the database and Redis settings.
type Config struct {
	HTTPAddr      string
	JWTSecret     string
	JWTTTL        time.Duration
	SessionTTL    time.Duration
	SingleSession bool
	CORSOrigins   []string

	LogLevel  slog.Level
	LogFormat string

	ViewIdleTimeout time.Duration
	LoginRateLimit  int
	StateCacheTTL   time.Duration

	ReportArchive string
	ReportDir     string
	S3Bucket      string
	S3Prefix      string
	S3            report.S3Config
}

// Load reads Config from the environment, applying defaults.
func Load() (Config, error) {
	var errs []string
	duration := func(key string, def time.Duration) time.Duration {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", key, v))
			return def
		}
		return d
	}
	integer := func(key string, def int) int {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid number %q", key, v))
			return def
		}
		return n
	}

	cfg := Config{
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTTTL:          duration("JWT_TTL", time.Hour),
		SessionTTL:      duration("SESSION_TTL", 8*time.Hour),
		SingleSession:   os.Getenv("SINGLE_SESSION") == "true",
		CORSOrigins:     splitList(os.Getenv("CORS_ORIGINS")),
		LogFormat:       strings.ToLower(getenvDefault("LOG_FORMAT", "text")),
		ViewIdleTimeout: duration("VIEW_IDLE_TIMEOUT", 30*time.Minute),
		LoginRateLimit:  integer("LOGIN_RATE_LIMIT", 10),
		StateCacheTTL:   duration("STATE_CACHE_TTL", time.Hour),
		ReportArchive:   strings.ToLower(os.Getenv("REPORT_ARCHIVE")),
		ReportDir:       getenvDefault("REPORT_DIR", "reports"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Prefix:        getenvDefault("S3_PREFIX", "reports"),
		S3: report.S3Config{
			Region:    getenvDefault("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenvDefault("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL: %v", err))
	}
	switch cfg.ReportArchive {
	case ArchiveNone, ArchiveDir:
	case ArchiveS3:
		if cfg.S3Bucket == "" {
			errs = append(errs, "S3_BUCKET is required when REPORT_ARCHIVE=s3")
		}
	default:
		errs = append(errs, fmt.Sprintf("REPORT_ARCHIVE: unknown archive %q", cfg.ReportArchive))
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// NewLogger builds the process logger: JSON when LOG_FORMAT=json, text otherwise.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
