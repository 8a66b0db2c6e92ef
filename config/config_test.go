package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("SUBREDDIT", "golang")
	t.Setenv("REDDIT_CLIENT_ID", "id")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret")
	t.Setenv("REDDIT_USER_AGENT", "subtrack/0.1 by tester")
	t.Setenv("SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/tmp/creds.json")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "golang", cfg.Subreddit)
	require.Equal(t, "Sheet1", cfg.WorksheetName)
	require.Equal(t, 50, cfg.PostFetchLimit)
	require.Equal(t, 7, cfg.TrackDays)
	require.False(t, cfg.StoreBody)
	require.Equal(t, 800, cfg.BodyMaxChars)
	require.Equal(t, 5*time.Minute, cfg.PollInterval)
	require.Equal(t, time.Hour, cfg.SnapshotInterval)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WORKSHEET_NAME", "Tracking")
	t.Setenv("POST_FETCH_LIMIT", "25")
	t.Setenv("TRACK_DAYS", "14")
	t.Setenv("STORE_BODY", "yes")
	t.Setenv("BODY_MAX_CHARS", "200")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "Tracking", cfg.WorksheetName)
	require.Equal(t, 25, cfg.PostFetchLimit)
	require.Equal(t, 14, cfg.TrackDays)
	require.True(t, cfg.StoreBody)
	require.Equal(t, 200, cfg.BodyMaxChars)
}

func TestFromEnvMissingSubreddit(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SUBREDDIT", "")

	_, err := FromEnv()
	require.Error(t, err)
	require.Contains(t, err.Error(), "SUBREDDIT")
}

func TestFromEnvMissingGoogleCreds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")

	_, err := FromEnv()
	require.Error(t, err)
	require.Contains(t, err.Error(), "GOOGLE_SERVICE_ACCOUNT_FILE")
}

func TestFromEnvRejectsZeroTrackDays(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRACK_DAYS", "0")

	_, err := FromEnv()
	require.Error(t, err)
}

func TestEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("POST_FETCH_LIMIT", "not-a-number")
	require.Equal(t, 50, envInt("POST_FETCH_LIMIT", 50))
}
