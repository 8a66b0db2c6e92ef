package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the tracker reads from the environment.
type Config struct {
	Subreddit string

	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string

	SpreadsheetID string
	WorksheetName string

	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	PostFetchLimit int
	TrackDays      int

	StoreBody    bool
	BodyMaxChars int

	PollInterval     time.Duration
	SnapshotInterval time.Duration

	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool
}

// FromEnv builds a Config from environment variables. Missing required
// variables are a startup failure, not something to limp along without.
func FromEnv() (*Config, error) {
	cfg := &Config{
		WorksheetName:         envString("WORKSHEET_NAME", "Sheet1"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		GoogleCredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		PostFetchLimit:        envInt("POST_FETCH_LIMIT", 50),
		TrackDays:             envInt("TRACK_DAYS", 7),
		StoreBody:             envBool("STORE_BODY", false),
		BodyMaxChars:          envInt("BODY_MAX_CHARS", 800),
		PollInterval:          time.Duration(envInt("POLL_INTERVAL", 300)) * time.Second,
		SnapshotInterval:      time.Duration(envInt("SNAPSHOT_INTERVAL", 3600)) * time.Second,
		ValkeyAddress:         os.Getenv("VALKEY_INIT_ADDRESS"),
		ValkeyPassword:        os.Getenv("VALKEY_PASSWORD"),
		ValkeyTLS:             envBool("VALKEY_TLS", false),
	}

	var err error
	if cfg.Subreddit, err = requireEnv("SUBREDDIT"); err != nil {
		return nil, err
	}
	if cfg.RedditClientID, err = requireEnv("REDDIT_CLIENT_ID"); err != nil {
		return nil, err
	}
	if cfg.RedditClientSecret, err = requireEnv("REDDIT_CLIENT_SECRET"); err != nil {
		return nil, err
	}
	if cfg.RedditUserAgent, err = requireEnv("REDDIT_USER_AGENT"); err != nil {
		return nil, err
	}
	if cfg.SpreadsheetID, err = requireEnv("SPREADSHEET_ID"); err != nil {
		return nil, err
	}
	if cfg.GoogleCredentialsFile == "" && cfg.GoogleCredentialsJSON == "" {
		return nil, fmt.Errorf("[Config] missing Google creds: set GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON")
	}
	if cfg.TrackDays < 1 {
		return nil, fmt.Errorf("[Config] TRACK_DAYS must be at least 1, got %d", cfg.TrackDays)
	}

	return cfg, nil
}

func requireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("[Config] missing required env var: %s", name)
	}
	return v, nil
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(name string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
