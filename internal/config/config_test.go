package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REGSYNC_DB_PATH", "REGSYNC_LOG_LEVEL", "REGSYNC_LOG_JSON",
		"REGSYNC_ACTIVE_DIR", "REGSYNC_ARCHIVE_DIR", "REGSYNC_INBOX_DIR",
		"REGSYNC_TOLERATED_QUEUE_STATES",
		"REGSYNC_COORDINATION_ADDR", "REGSYNC_ANNOUNCE_ADDR",
	} {
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "regsync.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"TI"}, cfg.Feeds.ToleratedQueueStates)
	assert.Empty(t, cfg.Notify.CoordinationAddr)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /var/lib/regsync/tracker.db
log_level: debug
feeds:
  active_dir: /srv/drafts
  archive_dir: /srv/drafts/archive
notify:
  coordination_addr: [coord@example.org]
  announce_addr: [announce@example.org, backup@example.org]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/regsync/tracker.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/srv/drafts", cfg.Feeds.ActiveDir)
	assert.Equal(t, []string{"announce@example.org", "backup@example.org"}, cfg.Notify.AnnounceAddr)
	// Values absent from the file keep their defaults.
	assert.Equal(t, []string{"TI"}, cfg.Feeds.ToleratedQueueStates)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_pathh: oops\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("REGSYNC_DB_PATH", "/tmp/override.db")
	t.Setenv("REGSYNC_LOG_JSON", "true")
	t.Setenv("REGSYNC_ANNOUNCE_ADDR", "a@example.org, b@example.org")
	t.Setenv("REGSYNC_TOLERATED_QUEUE_STATES", "TI,NEW")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.DBPath)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, cfg.Notify.AnnounceAddr)
	assert.Equal(t, []string{"TI", "NEW"}, cfg.Feeds.ToleratedQueueStates)
}
