package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pmnarchive/internal/domain"
	"pmnarchive/internal/domain/models"
	"pmnarchive/internal/domain/repositories"
	"pmnarchive/internal/domain/services"
)

type userPreferencesService struct {
	repo   repositories.UserPreferencesRepository
	logger *slog.Logger
}

// NewUserPreferencesService creates a new user preferences service
func NewUserPreferencesService(repo repositories.UserPreferencesRepository, logger *slog.Logger) services.UserPreferencesService {
	return &userPreferencesService{
		repo:   repo,
		logger: logger,
	}
}

// GetPreferences retrieves a user's preferences. Users who have never
// saved anything get an in-memory default; nothing is written until the
// first update.
func (s *userPreferencesService) GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	prefs, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = defaultPreferences(userID)
	}
	return prefs, nil
}

// UpdatePreferences applies a partial update; only provided namespaces
// are replaced
func (s *userPreferencesService) UpdatePreferences(ctx context.Context, userID string, req *models.UpdatePreferencesRequest) (*models.UserPreferences, error) {
	if req.UI == nil && req.Archive == nil {
		return nil, &domain.ValidationError{Message: "at least one namespace must be provided"}
	}

	if req.UI != nil {
		switch req.UI.Theme {
		case "", "light", "dark", "auto":
		default:
			return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown theme %q", req.UI.Theme)}
		}
	}
	if req.Archive != nil && req.Archive.PollIntervalSeconds != nil {
		if *req.Archive.PollIntervalSeconds < 5 || *req.Archive.PollIntervalSeconds > 300 {
			return nil, &domain.ValidationError{Message: "poll_interval_seconds must be between 5 and 300"}
		}
	}

	prefs, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = defaultPreferences(userID)
	}

	if req.UI != nil {
		if err := prefs.SetUI(req.UI); err != nil {
			return nil, fmt.Errorf("set ui preferences: %w", err)
		}
	}
	if req.Archive != nil {
		if err := prefs.SetArchive(req.Archive); err != nil {
			return nil, fmt.Errorf("set archive preferences: %w", err)
		}
	}

	if err := s.repo.Upsert(ctx, prefs); err != nil {
		return nil, err
	}

	s.logger.Info("preferences updated",
		"user_id", userID,
		"ui", req.UI != nil,
		"archive", req.Archive != nil,
	)

	return prefs, nil
}

func defaultPreferences(userID string) *models.UserPreferences {
	now := time.Now()
	return &models.UserPreferences{
		UserID:      userID,
		Preferences: models.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
