package types

import "time"

// SearchProgressMessage is a WebSocket update emitted while the search
// orchestrator walks its fallback tiers
type SearchProgressMessage struct {
	SearchID  string     `json:"searchId"`
	Type      string     `json:"type"` // "tier", "complete", "error"
	Tier      SourceTier `json:"tier,omitempty"`
	Message   string     `json:"message,omitempty"`
	Count     int        `json:"count"` // results found so far
	Timestamp time.Time  `json:"timestamp"`
}
