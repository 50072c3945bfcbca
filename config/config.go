package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Candidate is one host/port pair probed during backend discovery
type Candidate struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type SearchConfig struct {
	// UpstreamAPI is the third-party video search endpoint the CORS
	// relays wrap. %s is replaced with the url-escaped query.
	UpstreamAPI string `yaml:"upstream_api"`
	ProxyA      string `yaml:"proxy_a"`
	ProxyB      string `yaml:"proxy_b"`

	TierTimeoutSeconds int   `yaml:"tier_timeout_seconds"`
	SuggestionsEnabled *bool `yaml:"suggestions_enabled"`
}

type DiscoveryConfig struct {
	Candidates          []Candidate `yaml:"candidates"`
	ProbeTimeoutSeconds int         `yaml:"probe_timeout_seconds"`
	PollIntervalSeconds int         `yaml:"poll_interval_seconds"`
}

type Config struct {
	Port         int    `yaml:"port"`
	MusicDir     string `yaml:"music_dir"`
	PlaylistFile string `yaml:"playlist_file"`

	Search    SearchConfig    `yaml:"search"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// Load reads the YAML config at path, falling back to defaults for any
// field left unset. A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	applyDefaults(config)
	applyEnvOverrides(config)
	return config, nil
}

func (s SearchConfig) TierTimeout() time.Duration {
	return time.Duration(s.TierTimeoutSeconds) * time.Second
}

func (d DiscoveryConfig) ProbeTimeout() time.Duration {
	return time.Duration(d.ProbeTimeoutSeconds) * time.Second
}

func (d DiscoveryConfig) PollInterval() time.Duration {
	return time.Duration(d.PollIntervalSeconds) * time.Second
}

func applyDefaults(c *Config) {
	if c.Port == 0 {
		c.Port = 5173
	}
	if c.MusicDir == "" {
		c.MusicDir = defaultMusicDir()
	}
	if c.PlaylistFile == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			c.PlaylistFile = filepath.Join(".", ".retmusic-playlist.json")
		} else {
			c.PlaylistFile = filepath.Join(homeDir, ".retmusic-playlist.json")
		}
	}
	if c.Search.UpstreamAPI == "" {
		c.Search.UpstreamAPI = "https://invidious.tiekoetter.com/api/v1/search?type=video&q=%s"
	}
	if c.Search.ProxyA == "" {
		c.Search.ProxyA = "https://corsproxy.io/?"
	}
	if c.Search.ProxyB == "" {
		c.Search.ProxyB = "https://api.allorigins.win/raw?url="
	}
	if c.Search.TierTimeoutSeconds == 0 {
		c.Search.TierTimeoutSeconds = 8
	}
	if c.Search.SuggestionsEnabled == nil {
		enabled := true
		c.Search.SuggestionsEnabled = &enabled
	}
	if len(c.Discovery.Candidates) == 0 {
		c.Discovery.Candidates = []Candidate{
			{Host: "localhost", Port: 8080},
			{Host: "localhost", Port: 3000},
		}
	}
	if c.Discovery.ProbeTimeoutSeconds == 0 {
		c.Discovery.ProbeTimeoutSeconds = 3
	}
	if c.Discovery.PollIntervalSeconds == 0 {
		c.Discovery.PollIntervalSeconds = 30
	}
}

func applyEnvOverrides(c *Config) {
	if dir := os.Getenv("RETMUSIC_MUSIC_DIR"); dir != "" {
		c.MusicDir = dir
	}
	if file := os.Getenv("RETMUSIC_PLAYLIST_FILE"); file != "" {
		c.PlaylistFile = file
	}
	if v := os.Getenv("RETMUSIC_SUGGESTIONS"); v != "" {
		enabled := strings.EqualFold(v, "true") || v == "1"
		c.Search.SuggestionsEnabled = &enabled
	}
}

func defaultMusicDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "music")
	}
	return filepath.Join(homeDir, "Music")
}
