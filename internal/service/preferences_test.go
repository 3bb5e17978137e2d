package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"pmnarchive/internal/domain"
	"pmnarchive/internal/domain/models"
)

// fakePrefsRepo is an in-memory UserPreferencesRepository
type fakePrefsRepo struct {
	prefs   map[string]models.UserPreferences
	upserts int
}

func newFakePrefsRepo() *fakePrefsRepo {
	return &fakePrefsRepo{prefs: map[string]models.UserPreferences{}}
}

func (r *fakePrefsRepo) GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, error) {
	p, ok := r.prefs[userID]
	if !ok {
		return nil, nil
	}
	out := p
	return &out, nil
}

func (r *fakePrefsRepo) Upsert(ctx context.Context, prefs *models.UserPreferences) error {
	r.prefs[prefs.UserID] = *prefs
	r.upserts++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(n int) *int { return &n }

func TestGetPreferencesDefault(t *testing.T) {
	repo := newFakePrefsRepo()
	svc := NewUserPreferencesService(repo, testLogger())

	prefs, err := svc.GetPreferences(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetPreferences() error: %v", err)
	}
	if prefs.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", prefs.UserID)
	}

	ui, err := prefs.GetUI()
	if err != nil {
		t.Fatalf("GetUI() error: %v", err)
	}
	if ui.Theme != "light" {
		t.Errorf("default theme = %q, want light", ui.Theme)
	}

	// First read never persists anything
	if repo.upserts != 0 {
		t.Errorf("upserts after read = %d, want 0", repo.upserts)
	}
}

func TestUpdatePreferences(t *testing.T) {
	repo := newFakePrefsRepo()
	svc := NewUserPreferencesService(repo, testLogger())
	ctx := context.Background()

	_, err := svc.UpdatePreferences(ctx, "user-1", &models.UpdatePreferencesRequest{
		UI: &models.UIPreferences{Theme: "dark"},
	})
	if err != nil {
		t.Fatalf("UpdatePreferences() error: %v", err)
	}

	// A later archive-namespace update must not disturb the ui namespace
	updated, err := svc.UpdatePreferences(ctx, "user-1", &models.UpdatePreferencesRequest{
		Archive: &models.ArchivePreferences{
			PollIntervalSeconds: intPtr(30),
			ExpandedFolderIDs:   []string{"folder-1", "folder-2"},
		},
	})
	if err != nil {
		t.Fatalf("UpdatePreferences() error: %v", err)
	}

	ui, err := updated.GetUI()
	if err != nil {
		t.Fatalf("GetUI() error: %v", err)
	}
	if ui.Theme != "dark" {
		t.Errorf("theme = %q after archive update, want dark", ui.Theme)
	}

	archive, err := updated.GetArchive()
	if err != nil {
		t.Fatalf("GetArchive() error: %v", err)
	}
	if archive.PollIntervalSeconds == nil || *archive.PollIntervalSeconds != 30 {
		t.Errorf("poll interval = %v, want 30", archive.PollIntervalSeconds)
	}
	if len(archive.ExpandedFolderIDs) != 2 {
		t.Errorf("expanded folder ids = %v, want 2 entries", archive.ExpandedFolderIDs)
	}
}

func TestUpdatePreferencesValidation(t *testing.T) {
	repo := newFakePrefsRepo()
	svc := NewUserPreferencesService(repo, testLogger())
	ctx := context.Background()

	tests := []struct {
		name string
		req  *models.UpdatePreferencesRequest
	}{
		{
			name: "no namespaces",
			req:  &models.UpdatePreferencesRequest{},
		},
		{
			name: "unknown theme",
			req:  &models.UpdatePreferencesRequest{UI: &models.UIPreferences{Theme: "solarized"}},
		},
		{
			name: "poll interval too small",
			req:  &models.UpdatePreferencesRequest{Archive: &models.ArchivePreferences{PollIntervalSeconds: intPtr(1)}},
		},
		{
			name: "poll interval too large",
			req:  &models.UpdatePreferencesRequest{Archive: &models.ArchivePreferences{PollIntervalSeconds: intPtr(3600)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdatePreferences(ctx, "user-1", tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("UpdatePreferences() error = %v, want validation", err)
			}
		})
	}

	if repo.upserts != 0 {
		t.Errorf("upserts after rejected updates = %d, want 0", repo.upserts)
	}
}
