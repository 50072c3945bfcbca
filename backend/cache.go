package backend

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"retmusic/types"
)

// searchEntry is one cached search result set
type searchEntry struct {
	Query     string                `json:"query"`
	Results   []types.ProviderVideo `json:"results"`
	Source    string                `json:"source"`
	Timestamp time.Time             `json:"timestamp"`
}

// videoEntry is one cached video detail lookup
type videoEntry struct {
	Video     types.ProviderVideo `json:"video"`
	Timestamp time.Time           `json:"timestamp"`
}

// popularEntry tracks how often a query has been searched
type popularEntry struct {
	Count        int       `json:"count"`
	LastSearched time.Time `json:"lastSearched"`
}

type cacheData struct {
	Searches map[string]searchEntry  `json:"searches"`
	Videos   map[string]videoEntry   `json:"videos"`
	Popular  map[string]popularEntry `json:"popular"`
}

// Cache is a JSON-file-backed store for search results, video lookups
// and popular-search counters. Every mutation rewrites the file
// atomically.
type Cache struct {
	path string

	mu   sync.Mutex
	data cacheData
}

// OpenCache loads (or initializes) the cache file at path
func OpenCache(path string) (*Cache, error) {
	cache := &Cache{
		path: path,
		data: cacheData{
			Searches: make(map[string]searchEntry),
			Videos:   make(map[string]videoEntry),
			Popular:  make(map[string]popularEntry),
		},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if err := json.Unmarshal(raw, &cache.data); err != nil {
		return nil, fmt.Errorf("corrupt cache file %s: %w", path, err)
	}
	if cache.data.Searches == nil {
		cache.data.Searches = make(map[string]searchEntry)
	}
	if cache.data.Videos == nil {
		cache.data.Videos = make(map[string]videoEntry)
	}
	if cache.data.Popular == nil {
		cache.data.Popular = make(map[string]popularEntry)
	}
	return cache, nil
}

func queryHash(query string) string {
	sum := md5.Sum([]byte(strings.ToLower(query)))
	return hex.EncodeToString(sum[:])
}

// GetSearch returns cached results for query no older than maxAge
func (c *Cache) GetSearch(query string, maxAge time.Duration) ([]types.ProviderVideo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data.Searches[queryHash(query)]
	if !ok || time.Since(entry.Timestamp) > maxAge {
		return nil, false
	}
	return entry.Results, true
}

// PutSearch caches results for query and bumps its popularity counter
func (c *Cache) PutSearch(query string, results []types.ProviderVideo, source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data.Searches[queryHash(query)] = searchEntry{
		Query:     query,
		Results:   results,
		Source:    source,
		Timestamp: time.Now(),
	}

	popular := c.data.Popular[query]
	popular.Count++
	popular.LastSearched = time.Now()
	c.data.Popular[query] = popular

	return c.persist()
}

// GetVideo returns a cached video detail lookup
func (c *Cache) GetVideo(videoID string, maxAge time.Duration) (types.ProviderVideo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data.Videos[videoID]
	if !ok || time.Since(entry.Timestamp) > maxAge {
		return types.ProviderVideo{}, false
	}
	return entry.Video, true
}

// PutVideo caches a video detail lookup
func (c *Cache) PutVideo(video types.ProviderVideo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data.Videos[video.VideoID] = videoEntry{
		Video:     video,
		Timestamp: time.Now(),
	}
	return c.persist()
}

// PopularSearches returns the most-searched queries, most popular first
func (c *Cache) PopularSearches(limit int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	queries := make([]string, 0, len(c.data.Popular))
	for query := range c.data.Popular {
		queries = append(queries, query)
	}
	sort.Slice(queries, func(i, j int) bool {
		a, b := c.data.Popular[queries[i]], c.data.Popular[queries[j]]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.LastSearched.After(b.LastSearched)
	})

	if limit > 0 && len(queries) > limit {
		queries = queries[:limit]
	}
	return queries
}

// CacheStats summarizes what the cache holds
type CacheStats struct {
	SearchEntries  int            `json:"search_cache_entries"`
	VideoEntries   int            `json:"video_cache_entries"`
	PopularTracked int            `json:"popular_searches_tracked"`
	CacheFile      string         `json:"cache_file"`
	RecentSearches []RecentSearch `json:"recent_searches"`
}

// RecentSearch is one row in the stats surface
type RecentSearch struct {
	Query     string    `json:"query"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats returns cache statistics for diagnostics
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	recent := make([]RecentSearch, 0, len(c.data.Searches))
	for _, entry := range c.data.Searches {
		recent = append(recent, RecentSearch{
			Query:     entry.Query,
			Source:    entry.Source,
			Timestamp: entry.Timestamp,
		})
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > 10 {
		recent = recent[:10]
	}

	return CacheStats{
		SearchEntries:  len(c.data.Searches),
		VideoEntries:   len(c.data.Videos),
		PopularTracked: len(c.data.Popular),
		CacheFile:      c.path,
		RecentSearches: recent,
	}
}

// persist writes the cache atomically. Callers hold the mutex.
func (c *Cache) persist() error {
	data, err := json.Marshal(c.data)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".cache-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}
