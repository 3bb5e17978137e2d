package services

import (
	"context"

	"pmnarchive/internal/domain/models"
)

// UserPreferencesService handles user preferences business logic
type UserPreferencesService interface {
	// GetPreferences retrieves a user's preferences, creating defaults
	// if none exist yet
	GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error)

	// UpdatePreferences applies a partial update; only provided
	// namespaces are replaced
	UpdatePreferences(ctx context.Context, userID string, req *models.UpdatePreferencesRequest) (*models.UserPreferences, error)
}
