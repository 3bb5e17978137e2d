package client

import (
	"context"
	"testing"
	"time"

	archiveSvc "pmnarchive/internal/domain/services/archive"
)

func TestPollerAppliesData(t *testing.T) {
	store := NewMemStore("user-1")
	folder, err := store.CreateFolder(context.Background(), &archiveSvc.CreateFolderRequest{Name: "Board"})
	if err != nil {
		t.Fatalf("CreateFolder() error: %v", err)
	}

	engine := NewEngine(store, testLogger())
	poller := NewPoller(engine, 10*time.Millisecond, testLogger())

	poller.Start(context.Background())
	defer poller.Stop()

	// The immediate first refresh makes the data visible without waiting
	// a full interval
	deadline := time.After(2 * time.Second)
	for {
		if engine.Snapshot().PathOf(folder.ID) == "Board" {
			return
		}
		select {
		case <-deadline:
			t.Fatal("poller never applied the fetched archive")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestPollerPicksUpServerChanges(t *testing.T) {
	store := NewMemStore("user-1")
	engine := NewEngine(store, testLogger())
	poller := NewPoller(engine, 5*time.Millisecond, testLogger())

	poller.Start(context.Background())
	defer poller.Stop()

	// A folder created behind the engine's back arrives on a later tick
	folder, err := store.CreateFolder(context.Background(), &archiveSvc.CreateFolderRequest{Name: "Late"})
	if err != nil {
		t.Fatalf("CreateFolder() error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if engine.Snapshot().PathOf(folder.ID) == "Late" {
			return
		}
		select {
		case <-deadline:
			t.Fatal("poller never picked up the server-side change")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestPollerStopWaitsForExit(t *testing.T) {
	store := NewMemStore("user-1")
	engine := NewEngine(store, testLogger())
	poller := NewPoller(engine, time.Millisecond, testLogger())

	poller.Start(context.Background())
	// Starting again while running is a no-op
	poller.Start(context.Background())

	poller.Stop()
	// Stopping an already-stopped poller returns immediately
	poller.Stop()
}
