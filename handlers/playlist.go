package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"retmusic/services"
	"retmusic/types"
)

// PlaylistHandler handles playlist and current-media endpoints
type PlaylistHandler struct {
	store    *services.PlaylistStore
	importer *services.Importer
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(store *services.PlaylistStore, importer *services.Importer) *PlaylistHandler {
	return &PlaylistHandler{
		store:    store,
		importer: importer,
	}
}

// loadMediaRequest is the body for loading current media
type loadMediaRequest struct {
	Kind   types.MediaKind `json:"kind" binding:"required"`
	Title  string          `json:"title"`
	Source string          `json:"source" binding:"required"`
}

// LoadMedia records a media reference as the currently loaded item
func (h *PlaylistHandler) LoadMedia(c *gin.Context) {
	var req loadMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid media payload",
			"details": err.Error(),
		})
		return
	}

	switch req.Kind {
	case types.MediaLocalFile, types.MediaRemoteURL, types.MediaYouTube:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "kind must be 'local', 'url' or 'youtube'",
		})
		return
	}

	if req.Title == "" {
		req.Title = req.Source
	}

	media := types.MediaReference{Kind: req.Kind, Title: req.Title, Source: req.Source}
	h.store.SetCurrent(media)
	c.JSON(http.StatusOK, gin.H{"current": media})
}

// CurrentMedia returns the currently loaded item
func (h *PlaylistHandler) CurrentMedia(c *gin.Context) {
	media, ok := h.store.Current()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no media loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"current": media})
}

// ClearMedia drops the currently loaded item
func (h *PlaylistHandler) ClearMedia(c *gin.Context) {
	h.store.ClearCurrent()
	c.JSON(http.StatusOK, gin.H{"message": "current media cleared"})
}

// List returns the playlist in playback order
func (h *PlaylistHandler) List(c *gin.Context) {
	entries := h.store.List()
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// AddCurrent appends the currently loaded media to the playlist
func (h *PlaylistHandler) AddCurrent(c *gin.Context) {
	entry, err := h.store.AddCurrent()
	if err != nil {
		if errors.Is(err, services.ErrNoActiveMedia) {
			c.JSON(http.StatusConflict, gin.H{"error": "no media loaded to add"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save playlist",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// Remove deletes one playlist entry by id
func (h *PlaylistHandler) Remove(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := h.store.Remove(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save playlist",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entry removed"})
}

// Clear empties the playlist
func (h *PlaylistHandler) Clear(c *gin.Context) {
	if err := h.store.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save playlist",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "playlist cleared"})
}

// Play resolves a playlist index to a playable media reference and
// makes it the current item
func (h *PlaylistHandler) Play(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid playlist index"})
		return
	}

	media, err := h.store.SelectForPlayback(index)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no entry at that index"})
		return
	}

	h.store.SetCurrent(media)
	c.JSON(http.StatusOK, gin.H{"media": media})
}

// importRequest is the body for a YouTube playlist import
type importRequest struct {
	URL string `json:"url" binding:"required"`
}

// Import pulls every item of a YouTube playlist into the store
func (h *PlaylistHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid import payload",
			"details": err.Error(),
		})
		return
	}

	added, err := h.importer.ImportPlaylist(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "playlist import failed",
			"details": err.Error(),
			"added":   len(added),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"added": added,
		"count": len(added),
	})
}
