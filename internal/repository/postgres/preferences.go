package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pmnarchive/internal/domain/models"
	"pmnarchive/internal/domain/repositories"
)

// PostgresUserPreferencesRepository implements UserPreferencesRepository
type PostgresUserPreferencesRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewUserPreferencesRepository creates a new user preferences repository
func NewUserPreferencesRepository(config *RepositoryConfig) repositories.UserPreferencesRepository {
	return &PostgresUserPreferencesRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetByUserID retrieves preferences for a specific user.
// Returns nil if no preferences exist yet.
func (r *PostgresUserPreferencesRepository) GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, error) {
	query := fmt.Sprintf(`
		SELECT user_id, preferences, created_at, updated_at
		FROM %s
		WHERE user_id = $1
	`, r.tables.Preferences)

	var prefs models.UserPreferences
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&prefs.UserID,
		&prefs.Preferences,
		&prefs.CreatedAt,
		&prefs.UpdatedAt,
	)
	if err != nil {
		if IsNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user preferences: %w", err)
	}

	return &prefs, nil
}

// Upsert creates or updates user preferences
func (r *PostgresUserPreferencesRepository) Upsert(ctx context.Context, prefs *models.UserPreferences) error {
	now := time.Now()

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET preferences = $2, updated_at = $3
	`, r.tables.Preferences)

	if _, err := r.pool.Exec(ctx, query, prefs.UserID, prefs.Preferences, now); err != nil {
		return fmt.Errorf("upsert user preferences: %w", err)
	}

	prefs.UpdatedAt = now
	return nil
}
