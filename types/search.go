package types

// SourceTier identifies which fallback tier produced a search result
type SourceTier string

const (
	TierBackend    SourceTier = "backend"
	TierProxyA     SourceTier = "proxy_a"
	TierProxyB     SourceTier = "proxy_b"
	TierSuggestion SourceTier = "suggestion"
)

// SearchResult is the canonical result shape all search tiers converge to
type SearchResult struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	DurationSeconds int        `json:"durationSeconds"`
	ViewCount       int64      `json:"viewCount,omitempty"`
	ThumbnailURL    string     `json:"thumbnailUrl,omitempty"`
	Tier            SourceTier `json:"tier"`
}

// Thumbnail represents a single provider thumbnail entry
type Thumbnail struct {
	URL     string `json:"url"`
	Quality string `json:"quality,omitempty"`
}

// ProviderVideo is the raw Invidious-style record returned by the companion
// backend and by both CORS relay proxies
type ProviderVideo struct {
	VideoID         string      `json:"videoId"`
	Title           string      `json:"title"`
	Author          string      `json:"author"`
	LengthSeconds   int         `json:"lengthSeconds"`
	ViewCount       int64       `json:"viewCount"`
	Published       int64       `json:"published"`
	Description     string      `json:"description"`
	VideoThumbnails []Thumbnail `json:"videoThumbnails"`
}

// ManualGuidance is shown when every search tier is exhausted or disabled
type ManualGuidance struct {
	Instructions     string   `json:"instructions"`
	SuggestedQueries []string `json:"suggestedQueries"`
}

// SearchOutcome is what the orchestrator hands back: either a non-empty
// result list or manual guidance, never both
type SearchOutcome struct {
	Results []SearchResult  `json:"results"`
	Manual  *ManualGuidance `json:"manual,omitempty"`
}
