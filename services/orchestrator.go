package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"retmusic/config"
	"retmusic/types"
)

// StatusCallback receives a human-readable status line per tier
// transition. Purely observational: it never affects control flow.
type StatusCallback func(tier types.SourceTier, message string, count int)

// Orchestrator walks the search fallback chain: companion backend, two
// CORS relays, offline suggestions, and finally manual guidance. Tiers
// run strictly in order; the first one yielding results wins.
type Orchestrator struct {
	cfg       *config.Config
	discovery *Discovery
	client    *http.Client
}

// NewOrchestrator creates a search orchestrator. discovery supplies the
// live backend connectivity snapshot gating tier 1.
func NewOrchestrator(cfg *config.Config, discovery *Discovery) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		discovery: discovery,
		client:    &http.Client{},
	}
}

// Search runs the tier chain for query. The returned outcome always has
// either non-empty Results or Manual guidance; network failures along
// the way are soft and never surface as an error. Cancelling ctx stops
// the chain at the next tier boundary.
func (o *Orchestrator) Search(ctx context.Context, query string, notify StatusCallback) types.SearchOutcome {
	if notify == nil {
		notify = func(types.SourceTier, string, int) {}
	}

	tiers := []struct {
		tier types.SourceTier
		name string
		run  func(context.Context, string) ([]types.SearchResult, error)
	}{
		{types.TierBackend, "companion backend", o.searchBackend},
		{types.TierProxyA, "proxy relay A", o.searchProxyA},
		{types.TierProxyB, "proxy relay B", o.searchProxyB},
	}

	for _, t := range tiers {
		if ctx.Err() != nil {
			return types.SearchOutcome{}
		}

		notify(t.tier, fmt.Sprintf("Trying %s...", t.name), 0)
		results, err := t.run(ctx, query)
		if err != nil {
			log.Printf("Search: %s failed: %v", t.name, err)
			notify(t.tier, fmt.Sprintf("%s unavailable, falling back", t.name), 0)
			continue
		}
		if len(results) == 0 {
			notify(t.tier, fmt.Sprintf("%s returned nothing, falling back", t.name), 0)
			continue
		}

		notify(t.tier, fmt.Sprintf("Found %d results via %s", len(results), t.name), len(results))
		return types.SearchOutcome{Results: results}
	}

	if o.cfg.Search.SuggestionsEnabled == nil || *o.cfg.Search.SuggestionsEnabled {
		results := Suggest(query)
		notify(types.TierSuggestion, fmt.Sprintf("Offline suggestions: %d results", len(results)), len(results))
		return types.SearchOutcome{Results: results}
	}

	notify(types.TierSuggestion, "All search methods exhausted", 0)
	return types.SearchOutcome{Manual: &types.ManualGuidance{
		Instructions: "No search backend is reachable and offline suggestions are " +
			"disabled. Paste a direct media URL or YouTube link into the player, " +
			"or try one of these popular searches once a backend is available.",
		SuggestedQueries: PopularQueries,
	}}
}

// searchBackend is tier 1: the discovered companion backend. Skipped
// outright when discovery says the backend is down; base URL presence
// alone is not enough.
func (o *Orchestrator) searchBackend(ctx context.Context, query string) ([]types.SearchResult, error) {
	status := o.discovery.Status()
	if !status.Connected {
		return nil, fmt.Errorf("backend not connected")
	}

	searchURL := fmt.Sprintf("%s/api/search?q=%s&limit=%d",
		status.BaseURL, url.QueryEscape(query), maxResults)
	body, err := o.fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	videos, err := DecodeProviderPayload(body)
	if err != nil {
		return nil, err
	}
	return Normalize(videos, types.TierBackend), nil
}

func (o *Orchestrator) searchProxyA(ctx context.Context, query string) ([]types.SearchResult, error) {
	return o.searchViaProxy(ctx, o.cfg.Search.ProxyA, query, types.TierProxyA)
}

func (o *Orchestrator) searchProxyB(ctx context.Context, query string) ([]types.SearchResult, error) {
	return o.searchViaProxy(ctx, o.cfg.Search.ProxyB, query, types.TierProxyB)
}

// searchViaProxy routes the upstream search API through a CORS relay.
// The relay passes the upstream body through untouched, so the response
// is a bare provider array.
func (o *Orchestrator) searchViaProxy(ctx context.Context, proxyPrefix, query string, tier types.SourceTier) ([]types.SearchResult, error) {
	upstream := fmt.Sprintf(o.cfg.Search.UpstreamAPI, url.QueryEscape(query))
	body, err := o.fetch(ctx, proxyPrefix+url.QueryEscape(upstream))
	if err != nil {
		return nil, err
	}

	videos, err := DecodeProviderPayload(body)
	if err != nil {
		return nil, err
	}
	return Normalize(videos, tier), nil
}

// fetch issues a GET bounded by the per-tier timeout
func (o *Orchestrator) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	timeout := o.cfg.Search.TierTimeout()
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
