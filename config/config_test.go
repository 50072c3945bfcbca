package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5173, cfg.Port)
	assert.NotEmpty(t, cfg.MusicDir)
	assert.NotEmpty(t, cfg.PlaylistFile)

	assert.Contains(t, cfg.Search.UpstreamAPI, "%s")
	assert.NotEmpty(t, cfg.Search.ProxyA)
	assert.NotEmpty(t, cfg.Search.ProxyB)
	assert.Equal(t, 8*time.Second, cfg.Search.TierTimeout())
	require.NotNil(t, cfg.Search.SuggestionsEnabled)
	assert.True(t, *cfg.Search.SuggestionsEnabled)

	require.Len(t, cfg.Discovery.Candidates, 2)
	assert.Equal(t, 8080, cfg.Discovery.Candidates[0].Port)
	assert.Equal(t, 3000, cfg.Discovery.Candidates[1].Port)
	assert.Equal(t, 3*time.Second, cfg.Discovery.ProbeTimeout())
	assert.Equal(t, 30*time.Second, cfg.Discovery.PollInterval())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5173, cfg.Port)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	content := `
port: 9000
music_dir: /srv/music
search:
  tier_timeout_seconds: 2
  suggestions_enabled: false
  proxy_a: "https://relay.example.com/?"
discovery:
  candidates:
    - host: backend.local
      port: 9090
  poll_interval_seconds: 5
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/srv/music", cfg.MusicDir)
	assert.Equal(t, 2*time.Second, cfg.Search.TierTimeout())
	require.NotNil(t, cfg.Search.SuggestionsEnabled)
	assert.False(t, *cfg.Search.SuggestionsEnabled)
	assert.Equal(t, "https://relay.example.com/?", cfg.Search.ProxyA)

	require.Len(t, cfg.Discovery.Candidates, 1)
	assert.Equal(t, "backend.local", cfg.Discovery.Candidates[0].Host)
	assert.Equal(t, 9090, cfg.Discovery.Candidates[0].Port)
	assert.Equal(t, 5*time.Second, cfg.Discovery.PollInterval())

	// Unset fields still get defaults
	assert.NotEmpty(t, cfg.PlaylistFile)
	assert.NotEmpty(t, cfg.Search.ProxyB)
	assert.Equal(t, 3*time.Second, cfg.Discovery.ProbeTimeout())
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RETMUSIC_MUSIC_DIR", "/env/music")
	t.Setenv("RETMUSIC_PLAYLIST_FILE", "/env/playlist.json")
	t.Setenv("RETMUSIC_SUGGESTIONS", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/env/music", cfg.MusicDir)
	assert.Equal(t, "/env/playlist.json", cfg.PlaylistFile)
	require.NotNil(t, cfg.Search.SuggestionsEnabled)
	assert.False(t, *cfg.Search.SuggestionsEnabled)
}

func TestSuggestionsEnvAcceptsOne(t *testing.T) {
	t.Setenv("RETMUSIC_SUGGESTIONS", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg.Search.SuggestionsEnabled)
	assert.True(t, *cfg.Search.SuggestionsEnabled)
}
