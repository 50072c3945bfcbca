package services

import (
	"encoding/json"
	"fmt"

	"retmusic/types"
)

const maxResults = 10

const (
	placeholderTitle  = "Unknown Title"
	placeholderAuthor = "Unknown Author"
)

// Normalize converts raw provider records into canonical search results,
// preserving provider order and truncating to maxResults. Missing titles
// and authors get fixed placeholders. Text is kept as-is; escaping is the
// renderer's job.
func Normalize(videos []types.ProviderVideo, tier types.SourceTier) []types.SearchResult {
	if len(videos) > maxResults {
		videos = videos[:maxResults]
	}

	results := make([]types.SearchResult, 0, len(videos))
	for _, v := range videos {
		if v.VideoID == "" {
			continue
		}

		result := types.SearchResult{
			ID:              v.VideoID,
			Title:           v.Title,
			Author:          v.Author,
			DurationSeconds: v.LengthSeconds,
			ViewCount:       v.ViewCount,
			Tier:            tier,
		}
		if result.Title == "" {
			result.Title = placeholderTitle
		}
		if result.Author == "" {
			result.Author = placeholderAuthor
		}
		if result.DurationSeconds < 0 {
			result.DurationSeconds = 0
		}
		if len(v.VideoThumbnails) > 0 {
			result.ThumbnailURL = v.VideoThumbnails[0].URL
		}

		results = append(results, result)
	}

	return results
}

// searchEnvelope is the companion backend's search response wrapper
type searchEnvelope struct {
	Results []types.ProviderVideo `json:"results"`
}

// DecodeProviderPayload parses a search payload that is either the
// backend's {"results": [...]} envelope or a bare provider array (the
// shape the CORS relays pass through).
func DecodeProviderPayload(data []byte) ([]types.ProviderVideo, error) {
	var direct []types.ProviderVideo
	if err := json.Unmarshal(data, &direct); err == nil {
		return direct, nil
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unrecognized search payload: %w", err)
	}
	return envelope.Results, nil
}
