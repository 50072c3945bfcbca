package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"retmusic/services"
	"retmusic/types"
	"retmusic/websocket"
)

// SearchHandler handles search endpoints
type SearchHandler struct {
	orchestrator *services.Orchestrator
	hub          websocket.Hub
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(orchestrator *services.Orchestrator, hub websocket.Hub) *SearchHandler {
	return &SearchHandler{
		orchestrator: orchestrator,
		hub:          hub,
	}
}

// Search runs the tiered fallback search for a query. Tier transitions
// are streamed to any WebSocket client watching the search id.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query parameter 'q' is required",
		})
		return
	}

	searchID := c.Query("id")
	if searchID == "" {
		searchID = uuid.New().String()
	}

	notify := func(tier types.SourceTier, message string, count int) {
		h.hub.BroadcastSearchProgress(searchID, "tier", tier, message, count)
	}

	outcome := h.orchestrator.Search(c.Request.Context(), query, notify)

	if outcome.Manual != nil {
		h.hub.BroadcastSearchProgress(searchID, "complete", "", "manual mode", 0)
		c.JSON(http.StatusOK, gin.H{
			"query":    query,
			"searchId": searchID,
			"results":  []types.SearchResult{},
			"manual":   outcome.Manual,
		})
		return
	}

	h.hub.BroadcastSearchProgress(searchID, "complete", resultTier(outcome.Results), "done", len(outcome.Results))
	c.JSON(http.StatusOK, gin.H{
		"query":    query,
		"searchId": searchID,
		"results":  outcome.Results,
		"count":    len(outcome.Results),
	})
}

func resultTier(results []types.SearchResult) types.SourceTier {
	if len(results) == 0 {
		return ""
	}
	return results[0].Tier
}

// HandleWebSocketConnection streams progress for a specific search
func (h *SearchHandler) HandleWebSocketConnection(c *gin.Context) {
	searchID := c.Param("searchId")
	if searchID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search ID is required"})
		return
	}

	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, searchID)
	h.hub.RegisterClient(client)
	client.StartPumps()
}

// HandleWebSocketAllConnection streams progress for every search
func (h *SearchHandler) HandleWebSocketAllConnection(c *gin.Context) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, "all")
	h.hub.RegisterClient(client)
	client.StartPumps()
}
