package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"retmusic/types"
)

// defaultInstances is the rotation of public Invidious API hosts
var defaultInstances = []string{
	"https://invidious.tiekoetter.com",
	"https://invidious.fdn.fr",
	"https://invidious.privacy.gd",
	"https://invidious.projectsegfau.lt",
	"https://invidious.lunar.icu",
	"https://invidious.slipfox.xyz",
}

// InvidiousClient queries public Invidious instances, rotating through
// them so load is spread and a dead instance is skipped.
type InvidiousClient struct {
	instances []string
	client    *http.Client
}

// NewInvidiousClient creates a client over the default instance list
func NewInvidiousClient() *InvidiousClient {
	return &InvidiousClient{
		instances: defaultInstances,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Search queries instances in shuffled order and returns the first
// successful result set
func (ic *InvidiousClient) Search(ctx context.Context, query string, limit int) ([]types.ProviderVideo, error) {
	for _, instance := range ic.shuffled() {
		searchURL := fmt.Sprintf("%s/api/v1/search?type=video&sort_by=relevance&q=%s",
			instance, url.QueryEscape(query))

		videos, err := ic.get(ctx, searchURL)
		if err != nil {
			log.Printf("Invidious: instance %s failed: %v", instance, err)
			continue
		}
		if len(videos) > limit {
			videos = videos[:limit]
		}
		return videos, nil
	}
	return nil, fmt.Errorf("all %d invidious instances failed", len(ic.instances))
}

// Video fetches detail for a single video id
func (ic *InvidiousClient) Video(ctx context.Context, videoID string) (types.ProviderVideo, error) {
	for _, instance := range ic.shuffled() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/api/v1/videos/%s", instance, url.PathEscape(videoID)), nil)
		if err != nil {
			return types.ProviderVideo{}, err
		}

		resp, err := ic.client.Do(req)
		if err != nil {
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			continue
		}

		var video types.ProviderVideo
		err = json.NewDecoder(resp.Body).Decode(&video)
		resp.Body.Close()
		if err != nil || video.VideoID == "" {
			continue
		}
		return video, nil
	}
	return types.ProviderVideo{}, fmt.Errorf("video %s not found on any instance", videoID)
}

func (ic *InvidiousClient) get(ctx context.Context, rawURL string) ([]types.ProviderVideo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := ic.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var videos []types.ProviderVideo
	if err := json.NewDecoder(resp.Body).Decode(&videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func (ic *InvidiousClient) shuffled() []string {
	instances := make([]string, len(ic.instances))
	copy(instances, ic.instances)
	rand.Shuffle(len(instances), func(i, j int) {
		instances[i], instances[j] = instances[j], instances[i]
	})
	return instances
}
