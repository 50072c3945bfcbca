package cmd

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"retmusic/config"
	"retmusic/handlers"
	"retmusic/middleware"
	"retmusic/services"
	"retmusic/websocket"
)

// StartWebServer starts the player web server
func StartWebServer(port int, cfgPath string) {
	// Set production mode if not specified
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if port > 0 {
		cfg.Port = port
	}

	// Initialize services
	hub := websocket.NewHub()
	go hub.Run()

	discovery := services.NewDiscovery(cfg.Discovery)
	go discovery.Run(context.Background())

	store, err := services.NewPlaylistStore(cfg.PlaylistFile)
	if err != nil {
		log.Fatalf("Failed to open playlist store: %v", err)
	}

	library := services.NewLibrary()
	importer := services.NewImporter(store)
	orchestrator := services.NewOrchestrator(cfg, discovery)

	// Initialize handlers
	searchHandler := handlers.NewSearchHandler(orchestrator, hub)
	playlistHandler := handlers.NewPlaylistHandler(store, importer)
	libraryHandler := handlers.NewLibraryHandler(library, cfg)
	healthHandler := handlers.NewHealthHandler(discovery)
	settingsHandler := handlers.NewSettingsHandler(cfg, cfgPath)

	// Setup router
	r := gin.Default()

	// Apply middleware
	r.Use(middleware.CORS())
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	// Setup routes
	setupRoutes(r, searchHandler, playlistHandler, libraryHandler, healthHandler, settingsHandler)

	// Start server
	portStr := strconv.Itoa(cfg.Port)
	if serverPort := os.Getenv("SERVER_PORT"); serverPort != "" {
		portStr = serverPort
	}

	log.Printf("retmusic web server starting on port %s", portStr)
	if err := r.Run(":" + portStr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, searchHandler *handlers.SearchHandler, playlistHandler *handlers.PlaylistHandler, libraryHandler *handlers.LibraryHandler, healthHandler *handlers.HealthHandler, settingsHandler *handlers.SettingsHandler) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Search endpoint
		apiGroup.GET("/search", searchHandler.Search)

		// Current media endpoints
		mediaGroup := apiGroup.Group("/media")
		{
			mediaGroup.POST("", playlistHandler.LoadMedia)
			mediaGroup.GET("", playlistHandler.CurrentMedia)
			mediaGroup.DELETE("", playlistHandler.ClearMedia)
		}

		// Playlist management endpoints
		playlistGroup := apiGroup.Group("/playlist")
		{
			playlistGroup.GET("", playlistHandler.List)
			playlistGroup.POST("/current", playlistHandler.AddCurrent)
			playlistGroup.POST("/import", playlistHandler.Import)
			playlistGroup.POST("/play/:index", playlistHandler.Play)
			playlistGroup.DELETE("/:id", playlistHandler.Remove)
			playlistGroup.DELETE("", playlistHandler.Clear)
		}

		// WebSocket endpoints for real-time search progress
		wsGroup := apiGroup.Group("/ws")
		{
			// WebSocket endpoint for a specific search
			wsGroup.GET("/search/:searchId", searchHandler.HandleWebSocketConnection)

			// WebSocket endpoint for all search activity
			wsGroup.GET("/search", searchHandler.HandleWebSocketAllConnection)
		}

		// Library discovery and streaming endpoints
		apiGroup.GET("/files", libraryHandler.ListFiles)
		apiGroup.GET("/files/stream/*filepath", libraryHandler.StreamFile)

		// Settings endpoints
		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.POST("/settings", settingsHandler.UpdateSettings)
	}
}
