package repositories

import (
	"context"

	"pmnarchive/internal/domain/models"
)

// UserPreferencesRepository defines the interface for user preferences data access
type UserPreferencesRepository interface {
	// GetByUserID retrieves preferences for a specific user.
	// Returns nil if no preferences exist (user hasn't set any yet).
	GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, error)

	// Upsert creates or updates user preferences
	Upsert(ctx context.Context, prefs *models.UserPreferences) error
}
