package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retmusic/config"
	"retmusic/handlers"
	"retmusic/middleware"
	"retmusic/services"
	"retmusic/types"
	"retmusic/websocket"
)

// TestHelper wires a full player server against a temporary directory
// and, optionally, a fake companion backend.
type TestHelper struct {
	Server      *httptest.Server
	Backend     *httptest.Server
	TestDataDir string
	Config      *config.Config
	Store       *services.PlaylistStore
	Discovery   *services.Discovery
	Hub         websocket.Hub
	Router      *gin.Engine
}

// HelperOptions controls which parts of the environment are live
type HelperOptions struct {
	// WithBackend stands up a fake companion backend and probes it so
	// the first search tier is connected
	WithBackend bool
	// BackendResults is what the fake backend returns for any search
	BackendResults []types.ProviderVideo
	// SuggestionsEnabled defaults to true when nil
	SuggestionsEnabled *bool
}

// NewTestHelper creates a helper with a connected fake backend
func NewTestHelper(t *testing.T) *TestHelper {
	return NewTestHelperWith(t, HelperOptions{
		WithBackend:    true,
		BackendResults: DefaultBackendResults(),
	})
}

// NewTestHelperWith creates a helper with explicit options
func NewTestHelperWith(t *testing.T, opts HelperOptions) *TestHelper {
	testDir, err := os.MkdirTemp("", "retmusic-test-*")
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)

	cfg := testConfig(t, testDir)
	if opts.SuggestionsEnabled != nil {
		cfg.Search.SuggestionsEnabled = opts.SuggestionsEnabled
	}

	helper := &TestHelper{
		TestDataDir: testDir,
		Config:      cfg,
	}

	if opts.WithBackend {
		helper.Backend = newFakeBackend(t, opts.BackendResults)
		host, port := splitHostPort(t, helper.Backend.URL)
		cfg.Discovery.Candidates = []config.Candidate{{Host: host, Port: port}}
	}

	discovery := services.NewDiscovery(cfg.Discovery)
	if opts.WithBackend {
		status := discovery.Probe(context.Background())
		require.True(t, status.Connected, "fake backend should be discovered")
	}
	helper.Discovery = discovery

	hub := websocket.NewHub()
	go hub.Run()
	helper.Hub = hub

	store, err := services.NewPlaylistStore(cfg.PlaylistFile)
	require.NoError(t, err)
	helper.Store = store

	library := services.NewLibrary()
	importer := services.NewImporter(store)
	orchestrator := services.NewOrchestrator(cfg, discovery)

	searchHandler := handlers.NewSearchHandler(orchestrator, hub)
	playlistHandler := handlers.NewPlaylistHandler(store, importer)
	libraryHandler := handlers.NewLibraryHandler(library, cfg)
	healthHandler := handlers.NewHealthHandler(discovery)
	settingsHandler := handlers.NewSettingsHandler(cfg, "")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Security())
	setupRoutesForTest(router, searchHandler, playlistHandler, libraryHandler, healthHandler, settingsHandler)
	helper.Router = router

	helper.Server = httptest.NewServer(router)
	return helper
}

// Cleanup tears down the test servers and temp directory
func (h *TestHelper) Cleanup(t *testing.T) {
	if h.Server != nil {
		h.Server.Close()
	}
	if h.Backend != nil {
		h.Backend.Close()
	}
	err := os.RemoveAll(h.TestDataDir)
	require.NoError(t, err)
}

// testConfig builds a config pointing every path at the temp directory
// with short timeouts so failing tiers do not stall tests
func testConfig(t *testing.T, testDir string) *config.Config {
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.MusicDir = filepath.Join(testDir, "music")
	require.NoError(t, os.MkdirAll(cfg.MusicDir, 0755))
	cfg.PlaylistFile = filepath.Join(testDir, "playlist.json")

	// Unroutable proxies that fail fast instead of reaching the network
	cfg.Search.ProxyA = "http://127.0.0.1:1/?"
	cfg.Search.ProxyB = "http://127.0.0.1:1/raw?url="
	cfg.Search.TierTimeoutSeconds = 1

	cfg.Discovery.Candidates = []config.Candidate{{Host: "127.0.0.1", Port: 1}}
	cfg.Discovery.ProbeTimeoutSeconds = 1
	return cfg
}

// newFakeBackend serves the health and search surface the player
// expects from a companion backend
func newFakeBackend(t *testing.T, results []types.ProviderVideo) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "healthy",
			"features": map[string]string{
				"local_scraping": "available",
				"local_cache":    "available",
			},
		})
	})
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			http.Error(w, `{"error":"missing query"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"results": results,
			"count":   len(results),
		})
	})
	return httptest.NewServer(mux)
}

// DefaultBackendResults is the canned provider payload the fake
// backend returns
func DefaultBackendResults() []types.ProviderVideo {
	return []types.ProviderVideo{
		{
			VideoID:       "vid-001",
			Title:         "Test Song One",
			Author:        "Test Artist",
			LengthSeconds: 215,
			ViewCount:     1200000,
			VideoThumbnails: []types.Thumbnail{
				{URL: "https://example.com/thumb1.jpg", Quality: "medium"},
			},
		},
		{
			VideoID:       "vid-002",
			Title:         "Test Song Two",
			Author:        "Test Artist",
			LengthSeconds: 189,
			ViewCount:     800000,
		},
	}
}

func splitHostPort(t *testing.T, rawURL string) (string, int) {
	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(parsed.Port())
	require.NoError(t, err)
	return parsed.Hostname(), port
}

// setupRoutesForTest mirrors the production route layout
func setupRoutesForTest(r *gin.Engine, searchHandler *handlers.SearchHandler, playlistHandler *handlers.PlaylistHandler, libraryHandler *handlers.LibraryHandler, healthHandler *handlers.HealthHandler, settingsHandler *handlers.SettingsHandler) {
	r.GET("/health", healthHandler.HealthCheck)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)
		apiGroup.GET("/search", searchHandler.Search)

		mediaGroup := apiGroup.Group("/media")
		{
			mediaGroup.POST("", playlistHandler.LoadMedia)
			mediaGroup.GET("", playlistHandler.CurrentMedia)
			mediaGroup.DELETE("", playlistHandler.ClearMedia)
		}

		playlistGroup := apiGroup.Group("/playlist")
		{
			playlistGroup.GET("", playlistHandler.List)
			playlistGroup.POST("/current", playlistHandler.AddCurrent)
			playlistGroup.POST("/import", playlistHandler.Import)
			playlistGroup.POST("/play/:index", playlistHandler.Play)
			playlistGroup.DELETE("/:id", playlistHandler.Remove)
			playlistGroup.DELETE("", playlistHandler.Clear)
		}

		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/search/:searchId", searchHandler.HandleWebSocketConnection)
			wsGroup.GET("/search", searchHandler.HandleWebSocketAllConnection)
		}

		apiGroup.GET("/files", libraryHandler.ListFiles)
		apiGroup.GET("/files/stream/*filepath", libraryHandler.StreamFile)

		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.POST("/settings", settingsHandler.UpdateSettings)
	}
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reqBody)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// GetJSON makes a GET request and unmarshals the JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	return h.doJSON(t, "GET", path, nil, target)
}

// PostJSON makes a POST request with a JSON body
func (h *TestHelper) PostJSON(t *testing.T, path string, requestBody interface{}, target interface{}) *http.Response {
	return h.doJSON(t, "POST", path, requestBody, target)
}

// DeleteJSON makes a DELETE request
func (h *TestHelper) DeleteJSON(t *testing.T, path string, target interface{}) *http.Response {
	return h.doJSON(t, "DELETE", path, nil, target)
}

func (h *TestHelper) doJSON(t *testing.T, method, path string, requestBody interface{}, target interface{}) *http.Response {
	resp := h.MakeRequest(t, method, path, requestBody)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil && len(body) > 0 {
		err = json.Unmarshal(body, target)
		require.NoError(t, err, "response body: %s", string(body))
	}

	return resp
}

// ConnectWebSocket connects to a WebSocket endpoint on the test server
func (h *TestHelper) ConnectWebSocket(t *testing.T, path string) *gorilla.Conn {
	wsURL := "ws" + h.Server.URL[4:] + path

	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	return conn
}

// CreateTestAudioFile writes a fake tagged audio file under the music
// directory. The content is junk, so metadata comes from the path.
func (h *TestHelper) CreateTestAudioFile(t *testing.T, relativePath string) {
	fullPath := filepath.Join(h.Config.MusicDir, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))

	content := []byte("ID3\x03\x00\x00\x00\x00\x00\x00fake audio payload for streaming tests")
	require.NoError(t, os.WriteFile(fullPath, content, 0644))
}

// AssertErrorBody asserts the standard error envelope
func AssertErrorBody(t *testing.T, body map[string]interface{}) {
	assert.Contains(t, body, "error")
}
