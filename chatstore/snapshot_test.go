package chatstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/studybuddy-ai/chat-core/model"
)

func TestFileSnapshotsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	store := &FileSnapshots{Path: path}

	saved := &Snapshot{
		Sessions:          []model.ChatSession{{ID: "s1", Title: "Algebra help"}},
		CurrentSession:    &model.ChatSession{ID: "s1", Title: "Algebra help"},
		SelectedSessionID: "s1",
		SavedAt:           time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a snapshot")
	}
	if len(loaded.Sessions) != 1 || loaded.Sessions[0].ID != "s1" {
		t.Errorf("sessions not round-tripped: %+v", loaded.Sessions)
	}
	if loaded.SelectedSessionID != "s1" {
		t.Errorf("selection not round-tripped: %q", loaded.SelectedSessionID)
	}
}

func TestFileSnapshotsAbsentFile(t *testing.T) {
	store := &FileSnapshots{Path: filepath.Join(t.TempDir(), "missing.json")}

	snap, err := store.Load()
	if err != nil {
		t.Fatalf("absent file must not be an error, got %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot, got %+v", snap)
	}
}
