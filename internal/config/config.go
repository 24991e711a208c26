// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"omnirelay/internal/domain"
)

// MirrorConfig holds optional cloud mirror destinations for downloaded
// artifacts. Each target is independent; an unset target is skipped.
type MirrorConfig struct {
	// GCS bucket name. Credentials come from the ambient environment
	// (GOOGLE_APPLICATION_CREDENTIALS or metadata server).
	GCSBucket string

	// S3 fields are optional; nil when not configured.
	S3Bucket   *string
	S3Region   *string
	S3Endpoint *string
	S3KeyID    *string
	S3Secret   *string

	AzureAccount   string
	AzureKey       string
	AzureContainer string
}

// HasS3 returns true if all required S3 mirror fields are set.
// The endpoint is optional (AWS default endpoint when nil).
func (m *MirrorConfig) HasS3() bool {
	return m.S3Bucket != nil && m.S3Region != nil &&
		m.S3KeyID != nil && m.S3Secret != nil
}

// HasGCS returns true when a GCS mirror bucket is configured.
func (m *MirrorConfig) HasGCS() bool {
	return m.GCSBucket != ""
}

// HasAzure returns true if all Azure mirror fields are set.
func (m *MirrorConfig) HasAzure() bool {
	return m.AzureAccount != "" && m.AzureKey != "" && m.AzureContainer != ""
}

// Config holds the configuration for report pulls, the relay targets, the
// run ledger and the admin server. Built once at startup and passed into
// constructors; nothing reads the environment after LoadFromEnv returns.
type Config struct {
	// Reporting service access
	BaseURL      string        // reporting service base URL
	Session      string        // SESSION cookie value
	AuthToken    string        // authToken cookie value
	Timezone     string        // report generation timezone (default "Asia/Calcutta")
	PollInterval time.Duration // delay between status checks (default 2s)
	MaxWait      time.Duration // poll budget per request (default 10m)
	DownloadDir  string        // artifact destination directory (default "./downloads")
	RateLimitRPS float64       // client-side request rate against the service (default 5)

	// Google Drive relay
	DriveFolderID     string // destination folder; empty disables the Drive uploader
	ClientSecretsFile string // OAuth client secrets JSON (default "credentials.json")
	TokenFile         string // cached OAuth token (default "token.json")

	// Mirror holds the optional GCS/S3/Azure mirror targets.
	Mirror MirrorConfig

	LedgerPath      string // SQLite run ledger path (default "omnirelay.sqlite")
	AdminListenAddr string // admin HTTP listen address (default ":8787")

	// CORS
	CORSAllowedOrigins []string // allowed origins for the admin server (default: ["*"])

	ReportsFile string // optional YAML report definitions overlay

	LogLevel  string // log level: debug, info, warn, error (default "info")
	LogFormat string // log output format: "json" (default) or "text"

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DriveEnabled returns true when a Drive destination folder is configured.
func (c *Config) DriveEnabled() bool {
	return c.DriveFolderID != ""
}

// RequireSession checks that reporting-service credentials are present.
// Pull paths call this at startup; commands that never touch the service
// (runs, reports, config) do not.
func (c *Config) RequireSession() error {
	if c.Session == "" {
		return domain.ErrAuth("INCREFF_SESSION is not set")
	}
	if c.AuthToken == "" {
		return domain.ErrAuth("INCREFF_AUTHTOKEN is not set")
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Session credentials are not validated here; commands that talk to the
// reporting service call RequireSession before first use.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		BaseURL:           os.Getenv("OMNI_BASE_URL"),
		Session:           os.Getenv("INCREFF_SESSION"),
		AuthToken:         os.Getenv("INCREFF_AUTHTOKEN"),
		Timezone:          os.Getenv("OMNI_TIMEZONE"),
		DownloadDir:       os.Getenv("OMNI_DOWNLOAD_DIR"),
		DriveFolderID:     os.Getenv("GDRIVE_FOLDER_ID"),
		ClientSecretsFile: os.Getenv("GDRIVE_CLIENT_SECRETS_FILE"),
		TokenFile:         os.Getenv("GDRIVE_TOKEN_FILE"),
		LedgerPath:        os.Getenv("LEDGER_DB_PATH"),
		AdminListenAddr:   os.Getenv("ADMIN_LISTEN_ADDR"),
		ReportsFile:       os.Getenv("OMNI_REPORTS_FILE"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		LogFormat:         os.Getenv("LOG_FORMAT"),
	}

	// Durations: a malformed value keeps the default and warns rather than
	// aborting, so a typo in a cron environment cannot take pulls down.
	if v := os.Getenv("OMNI_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.PollInterval = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid OMNI_POLL_INTERVAL %q", v))
		}
	}
	if v := os.Getenv("OMNI_MAX_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.MaxWait = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid OMNI_MAX_WAIT %q", v))
		}
	}
	if v := os.Getenv("OMNI_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimitRPS = f
		}
	}

	// S3 mirror fields are optional; only set if present.
	if v := os.Getenv("MIRROR_S3_BUCKET"); v != "" {
		cfg.Mirror.S3Bucket = &v
	}
	if v := os.Getenv("MIRROR_S3_REGION"); v != "" {
		cfg.Mirror.S3Region = &v
	}
	if v := os.Getenv("MIRROR_S3_ENDPOINT"); v != "" {
		cfg.Mirror.S3Endpoint = &v
	}
	if v := os.Getenv("MIRROR_S3_KEY_ID"); v != "" {
		cfg.Mirror.S3KeyID = &v
	}
	if v := os.Getenv("MIRROR_S3_SECRET"); v != "" {
		cfg.Mirror.S3Secret = &v
	}

	cfg.Mirror.GCSBucket = os.Getenv("MIRROR_GCS_BUCKET")
	cfg.Mirror.AzureAccount = os.Getenv("MIRROR_AZURE_ACCOUNT")
	cfg.Mirror.AzureKey = os.Getenv("MIRROR_AZURE_KEY")
	cfg.Mirror.AzureContainer = os.Getenv("MIRROR_AZURE_CONTAINER")

	// CORS
	if v := os.Getenv("ADMIN_CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://agilitas.omni.increff.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Calcutta"
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 10 * time.Minute
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "./downloads"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 5
	}
	if cfg.ClientSecretsFile == "" {
		cfg.ClientSecretsFile = "credentials.json"
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = "token.json"
	}
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = "omnirelay.sqlite"
	}
	if cfg.AdminListenAddr == "" {
		cfg.AdminListenAddr = ":8787"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	// Partially configured mirrors are skipped at runtime; surface that now
	// so the operator does not discover it from missing uploads.
	anyS3 := cfg.Mirror.S3Bucket != nil || cfg.Mirror.S3Region != nil ||
		cfg.Mirror.S3KeyID != nil || cfg.Mirror.S3Secret != nil
	if anyS3 && !cfg.Mirror.HasS3() {
		cfg.Warnings = append(cfg.Warnings,
			"incomplete S3 mirror config: set MIRROR_S3_BUCKET, MIRROR_S3_REGION, MIRROR_S3_KEY_ID and MIRROR_S3_SECRET together")
	}
	anyAzure := cfg.Mirror.AzureAccount != "" || cfg.Mirror.AzureKey != "" ||
		cfg.Mirror.AzureContainer != ""
	if anyAzure && !cfg.Mirror.HasAzure() {
		cfg.Warnings = append(cfg.Warnings,
			"incomplete Azure mirror config: set MIRROR_AZURE_ACCOUNT, MIRROR_AZURE_KEY and MIRROR_AZURE_CONTAINER together")
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
