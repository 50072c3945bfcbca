package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"retmusic/config"
	"retmusic/types"
)

// DiscoveryState tracks where the prober is in its lifecycle
type DiscoveryState string

const (
	DiscoveryUnknown   DiscoveryState = "unknown"
	DiscoveryProbing   DiscoveryState = "probing"
	DiscoveryConnected DiscoveryState = "connected"
	DiscoveryNotFound  DiscoveryState = "not_found"
)

// healthResponse is the companion backend's /health payload
type healthResponse struct {
	Status   string            `json:"status"`
	Features map[string]string `json:"features"`
}

// Discovery probes a fixed candidate list for a healthy companion
// backend and keeps the connectivity snapshot current. It is the sole
// writer of that snapshot; everyone else reads through Status().
type Discovery struct {
	candidates   []config.Candidate
	probeTimeout time.Duration
	pollInterval time.Duration
	client       *http.Client

	mu     sync.RWMutex
	state  DiscoveryState
	status types.ServerStatus
}

// NewDiscovery creates a discovery prober from config
func NewDiscovery(cfg config.DiscoveryConfig) *Discovery {
	return &Discovery{
		candidates:   cfg.Candidates,
		probeTimeout: cfg.ProbeTimeout(),
		pollInterval: cfg.PollInterval(),
		client:       &http.Client{},
		state:        DiscoveryUnknown,
	}
}

// Status returns a copy of the current connectivity snapshot
func (d *Discovery) Status() types.ServerStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// State returns the current lifecycle state
func (d *Discovery) State() DiscoveryState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Probe walks the candidate list in order and connects to the first
// healthy backend. Candidates after the first success are never tried.
func (d *Discovery) Probe(ctx context.Context) types.ServerStatus {
	d.setState(DiscoveryProbing)

	for _, candidate := range d.candidates {
		baseURL := fmt.Sprintf("http://%s:%d", candidate.Host, candidate.Port)
		features, err := d.checkHealth(ctx, baseURL)
		if err != nil {
			log.Printf("Discovery: %s not responding: %v", baseURL, err)
			continue
		}

		log.Printf("Discovery: connected to backend at %s", baseURL)
		d.mu.Lock()
		d.state = DiscoveryConnected
		d.status = types.ServerStatus{
			Connected: true,
			BaseURL:   baseURL,
			Features:  features,
		}
		status := d.status
		d.mu.Unlock()
		return status
	}

	log.Printf("Discovery: no backend found among %d candidates", len(d.candidates))
	d.mu.Lock()
	d.state = DiscoveryNotFound
	d.status = types.ServerStatus{Connected: false}
	status := d.status
	d.mu.Unlock()
	return status
}

// Run probes once, then re-checks health on a fixed interval until ctx
// is cancelled. A failed re-check degrades to Connected=false but keeps
// the known base URL as the reconnection target.
func (d *Discovery) Run(ctx context.Context) {
	d.Probe(ctx)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

func (d *Discovery) poll(ctx context.Context) {
	d.mu.RLock()
	baseURL := d.status.BaseURL
	d.mu.RUnlock()

	if baseURL == "" {
		// Never found a backend; retry the whole candidate list.
		d.Probe(ctx)
		return
	}

	features, err := d.checkHealth(ctx, baseURL)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		if d.status.Connected {
			log.Printf("Discovery: lost backend at %s: %v", baseURL, err)
		}
		d.status.Connected = false
		d.status.RetryCount++
		return
	}
	if !d.status.Connected {
		log.Printf("Discovery: backend at %s is back", baseURL)
	}
	d.state = DiscoveryConnected
	d.status.Connected = true
	d.status.Features = features
	d.status.RetryCount = 0
}

func (d *Discovery) checkHealth(ctx context.Context, baseURL string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("invalid health payload: %w", err)
	}
	return health.Features, nil
}

func (d *Discovery) setState(state DiscoveryState) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
}
