package backend

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"retmusic/middleware"
	"retmusic/services"
	"retmusic/types"
)

const (
	defaultLimit   = 20
	maxLimit       = 50
	searchCacheAge = 24 * time.Hour
	videoCacheAge  = 24 * time.Hour
)

// Server is the companion search aggregation backend. It resolves
// searches through its own chain: cache, Invidious instances, page
// scraping, and offline suggestions.
type Server struct {
	cache     *Cache
	invidious *InvidiousClient
	scraper   *Scraper
	router    *gin.Engine
	client    *http.Client
}

// NewServer creates the backend server with its cache at cachePath
func NewServer(cachePath string) (*Server, error) {
	cache, err := OpenCache(cachePath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cache:     cache,
		invidious: NewInvidiousClient(),
		scraper:   NewScraper(),
		client:    &http.Client{Timeout: 20 * time.Second},
	}

	router := gin.Default()
	router.Use(middleware.CORS())
	s.setupRoutes(router)
	s.router = router
	return s, nil
}

func (s *Server) setupRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/", s.info)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/search", s.search)
		apiGroup.GET("/video/:videoId", s.videoInfo)
		apiGroup.GET("/proxy", s.proxy)
		apiGroup.GET("/popular", s.popular)
		apiGroup.GET("/suggestions/:query", s.suggestions)
		apiGroup.GET("/cache/stats", s.cacheStats)
	}
}

// Run starts the backend server on port
func (s *Server) Run(port int) error {
	log.Printf("Backend server starting on port %d", port)
	return s.router.Run(":" + strconv.Itoa(port))
}

// Router exposes the underlying router for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"features": gin.H{
			"local_scraping":    "available",
			"local_cache":       "available",
			"smart_suggestions": "available",
			"proxy_service":     "available",
		},
	})
}

func (s *Server) info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "retmusic-backend",
		"endpoints": []string{
			"/health",
			"/api/search?q=&limit=",
			"/api/video/{id}",
			"/api/proxy?url=",
			"/api/popular?limit=",
			"/api/suggestions/{query}",
			"/api/cache/stats",
		},
	})
}

// search walks the backend's own fallback chain and caches whatever
// source succeeded
func (s *Server) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}
	limit := clampLimit(c.DefaultQuery("limit", ""))

	results, source := s.resolve(c, query, limit)
	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"results": results,
		"count":   len(results),
		"source":  source,
	})
}

func (s *Server) resolve(c *gin.Context, query string, limit int) ([]types.ProviderVideo, string) {
	if cached, ok := s.cache.GetSearch(query, searchCacheAge); ok {
		log.Printf("Backend: %d cached results for %q", len(cached), query)
		if len(cached) > limit {
			cached = cached[:limit]
		}
		return cached, "cache"
	}

	if results, err := s.invidious.Search(c.Request.Context(), query, limit); err == nil && len(results) > 0 {
		s.storeResults(query, results, "invidious")
		return results, "invidious"
	} else if err != nil {
		log.Printf("Backend: invidious search failed: %v", err)
	}

	if results, err := s.scraper.Search(query, limit); err == nil && len(results) > 0 {
		s.storeResults(query, results, "scraping")
		return results, "scraping"
	} else if err != nil {
		log.Printf("Backend: page scraping failed: %v", err)
	}

	results := suggestionsAsProvider(query)
	if len(results) > limit {
		results = results[:limit]
	}
	s.storeResults(query, results, "suggestions")
	return results, "suggestions"
}

func (s *Server) storeResults(query string, results []types.ProviderVideo, source string) {
	if err := s.cache.PutSearch(query, results, source); err != nil {
		log.Printf("Backend: failed to cache results for %q: %v", query, err)
	}
}

func (s *Server) videoInfo(c *gin.Context) {
	videoID := c.Param("videoId")
	if videoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video ID is required"})
		return
	}

	if video, ok := s.cache.GetVideo(videoID, videoCacheAge); ok {
		c.JSON(http.StatusOK, video)
		return
	}

	video, err := s.invidious.Video(c.Request.Context(), videoID)
	if err != nil {
		log.Printf("Backend: video lookup failed for %s: %v", videoID, err)
		// Degrade to a skeleton record rather than an error
		c.JSON(http.StatusOK, types.ProviderVideo{
			VideoID:     videoID,
			Title:       "Video Information Unavailable",
			Author:      "Unknown",
			Description: "Video information could not be retrieved",
		})
		return
	}

	if err := s.cache.PutVideo(video); err != nil {
		log.Printf("Backend: failed to cache video %s: %v", videoID, err)
	}
	c.JSON(http.StatusOK, video)
}

// proxy re-issues a request server-side to bypass browser CORS
// restrictions
func (s *Server) proxy(c *gin.Context) {
	target := c.Query("url")
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL parameter is required"})
		return
	}

	decoded, err := url.QueryUnescape(target)
	if err != nil {
		decoded = target
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, decoded, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target URL"})
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("proxy failed: %v", err)})
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Access-Control-Allow-Origin", "*")
	c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, nil)
}

func (s *Server) popular(c *gin.Context) {
	limit := clampLimit(c.DefaultQuery("limit", "10"))
	queries := s.cache.PopularSearches(limit)
	c.JSON(http.StatusOK, gin.H{
		"popular_searches": queries,
		"count":            len(queries),
	})
}

// suggestions serves autocomplete: popular queries containing the
// prefix plus genre combinations
func (s *Server) suggestions(c *gin.Context) {
	query := c.Param("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	queryLower := strings.ToLower(query)

	var matched []string
	for _, popular := range s.cache.PopularSearches(20) {
		if strings.Contains(strings.ToLower(popular), queryLower) {
			matched = append(matched, popular)
		}
	}

	genres := []string{"rock", "pop", "jazz", "classical", "hip hop", "country", "electronic", "folk"}
	for _, genre := range genres {
		if strings.Contains(queryLower, genre) || strings.Contains(genre, queryLower) {
			matched = append(matched, query+" "+genre, "best "+genre+" songs")
		}
	}

	seen := make(map[string]bool)
	unique := matched[:0]
	for _, suggestion := range matched {
		if !seen[suggestion] {
			seen[suggestion] = true
			unique = append(unique, suggestion)
		}
	}
	if len(unique) > 10 {
		unique = unique[:10]
	}

	c.JSON(http.StatusOK, gin.H{
		"query":       query,
		"suggestions": unique,
		"count":       len(unique),
	})
}

func (s *Server) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cache_stats": s.cache.Stats(),
		"fallback_methods": []string{
			"Local JSON cache",
			"Invidious API instances",
			"Direct page scraping",
			"Suggestion engine",
		},
	})
}

// suggestionsAsProvider adapts the player's offline suggestion engine
// to the provider wire shape the backend speaks
func suggestionsAsProvider(query string) []types.ProviderVideo {
	suggestions := services.Suggest(query)
	videos := make([]types.ProviderVideo, 0, len(suggestions))
	for _, s := range suggestions {
		videos = append(videos, types.ProviderVideo{
			VideoID:       s.ID,
			Title:         s.Title,
			Author:        s.Author,
			LengthSeconds: s.DurationSeconds,
			ViewCount:     s.ViewCount,
			Description:   "Suggested based on your search for: " + query,
			VideoThumbnails: []types.Thumbnail{
				{URL: s.ThumbnailURL},
			},
		})
	}
	return videos
}

func clampLimit(raw string) int {
	limit := defaultLimit
	if raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
