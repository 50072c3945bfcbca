package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"

	"retmusic/types"
)

const importTimeout = 60 * time.Second

// Importer pulls an entire YouTube playlist into the local playlist
// store as youtube-kind entries.
type Importer struct {
	store *PlaylistStore
}

// NewImporter creates a playlist importer backed by store
func NewImporter(store *PlaylistStore) *Importer {
	return &Importer{store: store}
}

// ImportPlaylist fetches the items of the YouTube playlist at url and
// appends them to the store. Returns the entries that were added.
func (im *Importer) ImportPlaylist(ctx context.Context, url string) ([]types.PlaylistEntry, error) {
	playlistID := extractPlaylistID(url)
	if playlistID == "" {
		return nil, fmt.Errorf("not a YouTube playlist URL: %s", url)
	}

	ctx, cancel := context.WithTimeout(ctx, importTimeout)
	defer cancel()

	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist items: %w", err)
	}

	added := make([]types.PlaylistEntry, 0, len(items))
	for _, item := range items {
		if item.VideoID == "" {
			continue
		}
		title := item.Title
		if title == "" {
			title = item.VideoID
		}
		entry, err := im.store.Append(types.MediaReference{
			Kind:   types.MediaYouTube,
			Title:  title,
			Source: item.VideoID,
		})
		if err != nil {
			return added, err
		}
		added = append(added, entry)
	}
	return added, nil
}

// extractPlaylistID pulls the list= parameter out of a playlist URL
func extractPlaylistID(url string) string {
	const param = "list="
	idx := strings.Index(url, param)
	if idx < 0 {
		return ""
	}
	id := url[idx+len(param):]
	if amp := strings.Index(id, "&"); amp >= 0 {
		id = id[:amp]
	}
	return id
}
