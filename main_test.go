package main

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retmusic/types"
)

// TestHealthEndpoint tests the basic health check endpoint
func TestHealthEndpoint(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	var response map[string]interface{}
	resp := helper.GetJSON(t, "/health", &response)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "retmusic", response["service"])
}

// TestAPIStatusReportsBackend checks connectivity info in the status
// endpoint
func TestAPIStatusReportsBackend(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	var response struct {
		Message string             `json:"message"`
		Backend types.ServerStatus `json:"backend"`
		State   string             `json:"state"`
	}
	resp := helper.GetJSON(t, "/api/status", &response)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, response.Backend.Connected)
	assert.NotEmpty(t, response.Backend.BaseURL)
	assert.Equal(t, "connected", response.State)
}

type searchResponse struct {
	Query    string                `json:"query"`
	SearchID string                `json:"searchId"`
	Results  []types.SearchResult  `json:"results"`
	Count    int                   `json:"count"`
	Manual   *types.ManualGuidance `json:"manual"`
}

// TestSearchUsesBackendWhenConnected verifies the first tier wins when
// the backend answers
func TestSearchUsesBackendWhenConnected(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	var response searchResponse
	resp := helper.GetJSON(t, "/api/search?q="+url.QueryEscape("test query"), &response)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test query", response.Query)
	assert.NotEmpty(t, response.SearchID)
	require.Len(t, response.Results, 2)
	assert.Equal(t, "vid-001", response.Results[0].ID)
	assert.Equal(t, "Test Song One", response.Results[0].Title)
	assert.Equal(t, types.TierBackend, response.Results[0].Tier)
	assert.Equal(t, "https://example.com/thumb1.jpg", response.Results[0].ThumbnailURL)
}

// TestSearchRejectsEmptyQuery tests the empty query error path
func TestSearchRejectsEmptyQuery(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	var response map[string]interface{}
	resp := helper.GetJSON(t, "/api/search", &response)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	AssertErrorBody(t, response)
}

// TestSearchFallsBackToSuggestions covers the offline path where every
// network tier is down: results still come back, tagged as suggestions
func TestSearchFallsBackToSuggestions(t *testing.T) {
	helper := NewTestHelperWith(t, HelperOptions{WithBackend: false})
	defer helper.Cleanup(t)

	var response searchResponse
	resp := helper.GetJSON(t, "/api/search?q=queen", &response)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, response.Results, "suggestions must never be empty")
	assert.Nil(t, response.Manual)
	for _, r := range response.Results {
		assert.Equal(t, types.TierSuggestion, r.Tier)
		assert.NotEmpty(t, r.Title)
	}
}

// TestSearchManualGuidanceWhenSuggestionsDisabled covers the terminal
// manual mode
func TestSearchManualGuidanceWhenSuggestionsDisabled(t *testing.T) {
	disabled := false
	helper := NewTestHelperWith(t, HelperOptions{
		WithBackend:        false,
		SuggestionsEnabled: &disabled,
	})
	defer helper.Cleanup(t)

	var response searchResponse
	resp := helper.GetJSON(t, "/api/search?q=anything", &response)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, response.Results)
	require.NotNil(t, response.Manual)
	assert.NotEmpty(t, response.Manual.Instructions)
	assert.NotEmpty(t, response.Manual.SuggestedQueries)
}

// TestMediaWorkflow exercises load, fetch and clear of the current item
func TestMediaWorkflow(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	// Nothing loaded yet
	resp := helper.GetJSON(t, "/api/media", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Load a YouTube reference
	payload := map[string]string{
		"kind":   "youtube",
		"title":  "Test Video",
		"source": "dQw4w9WgXcQ",
	}
	var loadResponse struct {
		Current types.MediaReference `json:"current"`
	}
	resp = helper.PostJSON(t, "/api/media", payload, &loadResponse)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, types.MediaYouTube, loadResponse.Current.Kind)
	assert.Equal(t, "Test Video", loadResponse.Current.Title)

	// Fetch it back
	resp = helper.GetJSON(t, "/api/media", &loadResponse)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dQw4w9WgXcQ", loadResponse.Current.Source)

	// Clear it
	resp = helper.DeleteJSON(t, "/api/media", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = helper.GetJSON(t, "/api/media", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestMediaRejectsUnknownKind tests media kind validation
func TestMediaRejectsUnknownKind(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	payload := map[string]string{"kind": "cassette", "source": "x"}
	var response map[string]interface{}
	resp := helper.PostJSON(t, "/api/media", payload, &response)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	AssertErrorBody(t, response)
}

// TestPlaylistWorkflow runs the full add/list/play/remove/clear cycle
func TestPlaylistWorkflow(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	// Adding with nothing loaded conflicts
	var errResponse map[string]interface{}
	resp := helper.PostJSON(t, "/api/playlist/current", nil, &errResponse)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	AssertErrorBody(t, errResponse)

	// Load two items and add both
	type entryResponse struct {
		Entry types.PlaylistEntry `json:"entry"`
	}
	ids := make([]int64, 0, 2)
	for i, source := range []string{"first-video", "second-video"} {
		payload := map[string]string{
			"kind":   "youtube",
			"title":  fmt.Sprintf("Track %d", i+1),
			"source": source,
		}
		resp = helper.PostJSON(t, "/api/media", payload, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var added entryResponse
		resp = helper.PostJSON(t, "/api/playlist/current", nil, &added)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.NotZero(t, added.Entry.ID)
		ids = append(ids, added.Entry.ID)
	}

	// List preserves insertion order
	var list struct {
		Entries []types.PlaylistEntry `json:"entries"`
		Count   int                   `json:"count"`
	}
	resp = helper.GetJSON(t, "/api/playlist", &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "Track 1", list.Entries[0].Title)
	assert.Equal(t, "Track 2", list.Entries[1].Title)

	// Play the second entry
	var playResponse struct {
		Media types.MediaReference `json:"media"`
	}
	resp = helper.PostJSON(t, "/api/playlist/play/1", nil, &playResponse)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "second-video", playResponse.Media.Source)

	// Playing it also made it the current item
	var current struct {
		Current types.MediaReference `json:"current"`
	}
	resp = helper.GetJSON(t, "/api/media", &current)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "second-video", current.Current.Source)

	// Remove the first entry; exactly one is gone
	resp = helper.DeleteJSON(t, fmt.Sprintf("/api/playlist/%d", ids[0]), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = helper.GetJSON(t, "/api/playlist", &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, ids[1], list.Entries[0].ID)

	// Removing it again is a 404
	resp = helper.DeleteJSON(t, fmt.Sprintf("/api/playlist/%d", ids[0]), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Out-of-range playback index is a 404
	resp = helper.PostJSON(t, "/api/playlist/play/9", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Clear empties the playlist
	resp = helper.DeleteJSON(t, "/api/playlist", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = helper.GetJSON(t, "/api/playlist", &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, list.Count)
}

// TestFilesEndpoint scans the configured music directory
func TestFilesEndpoint(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	helper.CreateTestAudioFile(t, "Test Artist/Test Album/01 - Test Song.mp3")
	helper.CreateTestAudioFile(t, "Test Artist/Test Album/02 - Second Song.flac")
	helper.CreateTestAudioFile(t, "notes.txt") // not audio, must be skipped

	var response struct {
		Files []types.AudioFile `json:"files"`
		Count int               `json:"count"`
	}
	resp := helper.GetJSON(t, "/api/files", &response)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, response.Count)

	formats := map[string]bool{}
	for _, f := range response.Files {
		formats[f.Format] = true
		require.NotNil(t, f.Metadata)
		assert.Equal(t, "Test Artist", f.Metadata.Artist)
		assert.Equal(t, "Test Album", f.Metadata.Album)
	}
	assert.True(t, formats["mp3"])
	assert.True(t, formats["flac"])
}

// TestStreamFileRejectsTraversal tests stream path validation
func TestStreamFileRejectsTraversal(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	resp := helper.MakeRequest(t, "GET", "/api/files/stream/..%2F..%2Fetc%2Fpasswd", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// TestStreamFileServesRanges tests partial content responses
func TestStreamFileServesRanges(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	helper.CreateTestAudioFile(t, "song.mp3")

	req, err := http.NewRequest("GET", helper.Server.URL+"/api/files/stream/song.mp3", nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=0-9")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "10", resp.Header.Get("Content-Length"))
	assert.Contains(t, resp.Header.Get("Content-Range"), "bytes 0-9/")
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
}

// TestSettingsRoundTrip updates settings and sees them reflected
func TestSettingsRoundTrip(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	var settings struct {
		MusicDir           string `json:"musicDir"`
		SuggestionsEnabled *bool  `json:"suggestionsEnabled"`
	}
	resp := helper.GetJSON(t, "/api/settings", &settings)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, settings.SuggestionsEnabled)
	assert.True(t, *settings.SuggestionsEnabled)

	disabled := false
	update := map[string]interface{}{"suggestionsEnabled": &disabled}
	resp = helper.PostJSON(t, "/api/settings", update, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = helper.GetJSON(t, "/api/settings", &settings)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, settings.SuggestionsEnabled)
	assert.False(t, *settings.SuggestionsEnabled)

	// The orchestrator sees the change immediately: with the backend
	// gone and suggestions off, search flips to manual guidance
	helper.Backend.Close()
	var searchResp searchResponse
	resp = helper.GetJSON(t, "/api/search?q=rock", &searchResp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, searchResp.Manual)
}
