package chatstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/studybuddy-ai/chat-core/model"
	"github.com/studybuddy-ai/chat-core/utils/cache"
)

// Snapshot is the subset of store state that survives a restart: the
// session list and selection. Transient flags, pagination cursors and
// in-flight message buffers are deliberately absent.
type Snapshot struct {
	Sessions          []model.ChatSession `json:"sessions"`
	CurrentSession    *model.ChatSession  `json:"current_session,omitempty"`
	SelectedSessionID string              `json:"selected_session_id,omitempty"`
	SavedAt           time.Time           `json:"saved_at"`
}

// SnapshotStore persists snapshots across restarts. Load returns
// (nil, nil) when no snapshot exists yet.
type SnapshotStore interface {
	Load() (*Snapshot, error)
	Save(snap *Snapshot) error
}

// FileSnapshots stores the snapshot as a JSON file.
type FileSnapshots struct {
	Path string
}

// Load reads the snapshot file
func (f *FileSnapshots) Load() (*Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot file: %w", err)
	}
	return &snap, nil
}

// Save writes the snapshot file atomically via a temp file rename
func (f *FileSnapshots) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return os.Rename(tmp, f.Path)
}

// snapshotTTL bounds how long a Redis-held snapshot outlives its client.
const snapshotTTL = 7 * 24 * time.Hour

// RedisSnapshots stores the snapshot as a JSON blob in Redis, keyed per
// user so multiple clients sharing one cache do not collide.
type RedisSnapshots struct {
	Cache  *cache.RedisCache
	UserID string
}

func (r *RedisSnapshots) key() string {
	return "chatstore:snapshot:" + r.UserID
}

// Load reads the snapshot blob from Redis
func (r *RedisSnapshots) Load() (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var snap Snapshot
	if err := r.Cache.GetJSON(ctx, r.key(), &snap); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot from redis: %w", err)
	}
	return &snap, nil
}

// Save writes the snapshot blob to Redis with a TTL
func (r *RedisSnapshots) Save(snap *Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.Cache.SetJSON(ctx, r.key(), snap, snapshotTTL)
}

// MemorySnapshots keeps the snapshot in memory. Used in tests.
type MemorySnapshots struct {
	mu   sync.Mutex
	snap *Snapshot
}

// Load returns the held snapshot
func (m *MemorySnapshots) Load() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

// Save replaces the held snapshot
func (m *MemorySnapshots) Save(snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	return nil
}
