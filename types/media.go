package types

import "time"

// MediaKind represents where a piece of media comes from
type MediaKind string

const (
	MediaLocalFile MediaKind = "local"
	MediaRemoteURL MediaKind = "url"
	MediaYouTube   MediaKind = "youtube"
)

// MediaReference points at something playable. Source is a file path for
// local media, a raw URL for remote media, or a video id for YouTube.
type MediaReference struct {
	Kind   MediaKind `json:"kind"`
	Title  string    `json:"title"`
	Source string    `json:"source"`
}

// PlaylistEntry is one persisted playlist item. ID is a monotonic
// millisecond token assigned by the store.
type PlaylistEntry struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Kind    MediaKind `json:"kind"`
	Source  string    `json:"source"`
	AddedAt time.Time `json:"addedAt"`
}

// ServerStatus is a snapshot of companion backend connectivity as seen by
// the discovery component
type ServerStatus struct {
	Connected  bool              `json:"connected"`
	BaseURL    string            `json:"baseUrl,omitempty"`
	Features   map[string]string `json:"features,omitempty"`
	RetryCount int               `json:"retryCount"`
}
