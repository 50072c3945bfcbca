package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"retmusic/types"
)

var (
	// ErrNoActiveMedia is returned by AddCurrent when nothing is loaded
	ErrNoActiveMedia = errors.New("no active media")
	// ErrNotFound is returned for unknown playlist ids or indexes
	ErrNotFound = errors.New("playlist entry not found")
)

// PlaylistStore holds the current media reference and the persisted
// playlist. Every mutation rewrites the whole list atomically so a crash
// mid-write never leaves a torn file.
type PlaylistStore struct {
	path string

	mu      sync.Mutex
	current *types.MediaReference
	entries []types.PlaylistEntry
	lastID  int64
}

// NewPlaylistStore opens the store backed by the JSON file at path,
// loading any previously persisted playlist.
func NewPlaylistStore(path string) (*PlaylistStore, error) {
	store := &PlaylistStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("failed to read playlist file: %w", err)
	}

	if err := json.Unmarshal(data, &store.entries); err != nil {
		return nil, fmt.Errorf("corrupt playlist file %s: %w", path, err)
	}
	for _, entry := range store.entries {
		if entry.ID > store.lastID {
			store.lastID = entry.ID
		}
	}
	return store, nil
}

// SetCurrent records media as the currently loaded item
func (s *PlaylistStore) SetCurrent(media types.MediaReference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &media
}

// Current returns the currently loaded media, if any
func (s *PlaylistStore) Current() (types.MediaReference, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return types.MediaReference{}, false
	}
	return *s.current, true
}

// ClearCurrent drops the current media without touching the playlist
func (s *PlaylistStore) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// AddCurrent appends the currently loaded media to the playlist and
// persists. Fails with ErrNoActiveMedia when nothing is loaded.
func (s *PlaylistStore) AddCurrent() (types.PlaylistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return types.PlaylistEntry{}, ErrNoActiveMedia
	}
	return s.append(*s.current)
}

// Append adds an arbitrary media reference to the playlist, bypassing
// the current-media slot. Used by bulk imports.
func (s *PlaylistStore) Append(media types.MediaReference) (types.PlaylistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(media)
}

// append does the shared add work. Callers hold the mutex.
func (s *PlaylistStore) append(media types.MediaReference) (types.PlaylistEntry, error) {
	entry := types.PlaylistEntry{
		ID:      s.nextID(),
		Title:   media.Title,
		Kind:    media.Kind,
		Source:  media.Source,
		AddedAt: time.Now(),
	}
	s.entries = append(s.entries, entry)

	if err := s.persist(); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		return types.PlaylistEntry{}, err
	}
	return entry, nil
}

// Remove deletes exactly one entry by id and persists
func (s *PlaylistStore) Remove(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, entry := range s.entries {
		if entry.ID == id {
			removed := entry
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			if err := s.persist(); err != nil {
				s.entries = append(s.entries[:i], append([]types.PlaylistEntry{removed}, s.entries[i:]...)...)
				return err
			}
			return nil
		}
	}
	return ErrNotFound
}

// Clear empties the playlist. Destructive and irreversible.
func (s *PlaylistStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.entries
	s.entries = nil
	if err := s.persist(); err != nil {
		s.entries = old
		return err
	}
	return nil
}

// List returns the playlist in insertion order, which is playback order
func (s *PlaylistStore) List() []types.PlaylistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]types.PlaylistEntry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// SelectForPlayback resolves the entry at index to a playable media
// reference
func (s *PlaylistStore) SelectForPlayback(index int) (types.MediaReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.entries) {
		return types.MediaReference{}, ErrNotFound
	}
	entry := s.entries[index]
	return types.MediaReference{
		Kind:   entry.Kind,
		Title:  entry.Title,
		Source: entry.Source,
	}, nil
}

// nextID hands out millisecond timestamps, bumped past the previous id
// so two adds in the same millisecond stay unique and ordered.
func (s *PlaylistStore) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// persist writes the full list to a temp file and renames it over the
// target. Callers hold the mutex.
func (s *PlaylistStore) persist() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	if s.entries == nil {
		data = []byte("[]")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".playlist-*")
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
	return os.Rename(tmp.Name(), s.path)
}
