package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"retmusic/config"
)

// SettingsHandler handles settings endpoints. Updates mutate the shared
// config in place and persist it back to the YAML file.
type SettingsHandler struct {
	cfg     *config.Config
	cfgPath string
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(cfg *config.Config, cfgPath string) *SettingsHandler {
	return &SettingsHandler{
		cfg:     cfg,
		cfgPath: cfgPath,
	}
}

// settingsUpdate is the subset of config adjustable at runtime
type settingsUpdate struct {
	MusicDir           string `json:"musicDir"`
	SuggestionsEnabled *bool  `json:"suggestionsEnabled"`
}

// GetSettings returns the current settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"musicDir":           h.cfg.MusicDir,
		"suggestionsEnabled": h.cfg.Search.SuggestionsEnabled,
		"playlistFile":       h.cfg.PlaylistFile,
	})
}

// UpdateSettings updates the adjustable settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var update settingsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid settings format",
			"details": err.Error(),
		})
		return
	}

	if update.MusicDir != "" {
		if err := validateDir(update.MusicDir); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid music directory",
				"details": err.Error(),
			})
			return
		}
		h.cfg.MusicDir = update.MusicDir
	}
	if update.SuggestionsEnabled != nil {
		h.cfg.Search.SuggestionsEnabled = update.SuggestionsEnabled
	}

	if err := h.persist(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save settings",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "settings updated successfully"})
}

func (h *SettingsHandler) persist() error {
	if h.cfgPath == "" {
		return nil // running on defaults, nothing to write back
	}
	data, err := yaml.Marshal(h.cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(h.cfgPath, data, 0644)
}

// validateDir checks that the path exists (creating it if necessary)
// and is writable
func validateDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return err
		}
	} else if !info.IsDir() {
		return os.ErrInvalid
	}

	testFile := filepath.Join(path, ".retmusic-write-test")
	file, err := os.Create(testFile)
	if err != nil {
		return err
	}
	file.Close()
	os.Remove(testFile)
	return nil
}
