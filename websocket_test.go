package main

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retmusic/types"
)

// readProgressMessages drains messages from a search progress socket
// until the "complete" marker or the deadline
func readProgressMessages(t *testing.T, conn *gorilla.Conn, deadline time.Duration) []types.SearchProgressMessage {
	var messages []types.SearchProgressMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(deadline)))

	for {
		var msg types.SearchProgressMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		messages = append(messages, msg)
		if msg.Type == "complete" {
			break
		}
	}
	return messages
}

// TestSearchProgressWebSocket watches a specific search over WebSocket
func TestSearchProgressWebSocket(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	searchID := "ws-test-search-1"
	conn := helper.ConnectWebSocket(t, "/api/ws/search/"+searchID)
	defer conn.Close()

	// Give the hub a moment to register the client before searching
	time.Sleep(100 * time.Millisecond)

	resp := helper.GetJSON(t, "/api/search?q="+url.QueryEscape("test")+"&id="+searchID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	messages := readProgressMessages(t, conn, 3*time.Second)
	require.NotEmpty(t, messages, "expected progress messages for the search")

	for _, msg := range messages {
		assert.Equal(t, searchID, msg.SearchID)
	}

	// With a connected backend the first tier reports and the stream
	// finishes with a completion marker
	first := messages[0]
	assert.Equal(t, "tier", first.Type)
	assert.Equal(t, types.TierBackend, first.Tier)

	last := messages[len(messages)-1]
	assert.Equal(t, "complete", last.Type)
	assert.Equal(t, 2, last.Count)
}

// TestSearchProgressShowsFallbackTiers verifies tier transitions are
// streamed when earlier tiers fail
func TestSearchProgressShowsFallbackTiers(t *testing.T) {
	helper := NewTestHelperWith(t, HelperOptions{WithBackend: false})
	defer helper.Cleanup(t)

	searchID := "ws-test-fallback"
	conn := helper.ConnectWebSocket(t, "/api/ws/search/"+searchID)
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)

	resp := helper.GetJSON(t, "/api/search?q=jazz&id="+searchID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	messages := readProgressMessages(t, conn, 5*time.Second)
	require.NotEmpty(t, messages)

	tiersSeen := map[types.SourceTier]bool{}
	for _, msg := range messages {
		if msg.Tier != "" {
			tiersSeen[msg.Tier] = true
		}
	}

	// Both proxy tiers were attempted before suggestions took over
	assert.True(t, tiersSeen[types.TierProxyA], "proxy A tier should be reported")
	assert.True(t, tiersSeen[types.TierProxyB], "proxy B tier should be reported")
	assert.True(t, tiersSeen[types.TierSuggestion], "suggestion tier should be reported")
}

// TestAllSearchesWebSocket watches every search on the firehose channel
func TestAllSearchesWebSocket(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	conn := helper.ConnectWebSocket(t, "/api/ws/search")
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)

	resp := helper.GetJSON(t, "/api/search?q=rock&id=search-a", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	messages := readProgressMessages(t, conn, 3*time.Second)
	require.NotEmpty(t, messages, "firehose channel should receive updates")
	assert.Equal(t, "search-a", messages[0].SearchID)
}

// TestWebSocketConnectionClose ensures a dropped client does not break
// later searches
func TestWebSocketConnectionClose(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	conn := helper.ConnectWebSocket(t, "/api/ws/search/short-lived")
	time.Sleep(50 * time.Millisecond)
	conn.Close()
	time.Sleep(50 * time.Millisecond)

	// Search with no watchers still succeeds
	var response searchResponse
	resp := helper.GetJSON(t, "/api/search?q=test&id=short-lived", &response)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, response.Results)
}
