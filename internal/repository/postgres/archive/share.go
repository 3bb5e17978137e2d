package archive

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pmnarchive/internal/domain"
	models "pmnarchive/internal/domain/models/archive"
	"pmnarchive/internal/domain/repositories"
	archiveRepo "pmnarchive/internal/domain/repositories/archive"
	"pmnarchive/internal/repository/postgres"
)

const shareColumns = `id, document_id, granted_by, granted_to, can_read, can_write,
	can_delete, can_share, created_at`

// PostgresShareRepository implements the ShareRepository interface
type PostgresShareRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewShareRepository creates a new share repository
func NewShareRepository(config *postgres.RepositoryConfig) archiveRepo.ShareRepository {
	return &PostgresShareRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a share grant
func (r *PostgresShareRepository) Create(ctx context.Context, share *models.Share) error {
	if share.ID == "" {
		share.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, granted_by, granted_to, can_read, can_write,
			can_delete, can_share, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Shares)

	_, err := r.db(ctx).Exec(ctx, query,
		share.ID,
		share.DocumentID,
		share.GrantedBy,
		share.GrantedTo,
		share.CanRead,
		share.CanWrite,
		share.CanDelete,
		share.CanShare,
		share.CreatedAt,
	)
	if err != nil {
		if postgres.IsDuplicateError(err) {
			return fmt.Errorf("share for user %s: %w", share.GrantedTo, domain.ErrConflict)
		}
		return fmt.Errorf("create share: %w", err)
	}

	return nil
}

// GetByID retrieves a share grant by ID
func (r *PostgresShareRepository) GetByID(ctx context.Context, id string) (*models.Share, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, shareColumns, r.tables.Shares)

	share, err := scanShare(r.db(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return nil, fmt.Errorf("share %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get share: %w", err)
	}

	return share, nil
}

// Delete revokes a share grant. Deleting an absent id succeeds silently.
func (r *PostgresShareRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Shares)

	if _, err := r.db(ctx).Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete share: %w", err)
	}

	return nil
}

// ListByDocument lists grants on a document
func (r *PostgresShareRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Share, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_id = $1
		ORDER BY created_at ASC
	`, shareColumns, r.tables.Shares)

	rows, err := r.db(ctx).Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	var shares []models.Share
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, *share)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}

	return shares, nil
}

// GetForUser returns the grant a user holds on a document, or nil
func (r *PostgresShareRepository) GetForUser(ctx context.Context, documentID, userID string) (*models.Share, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_id = $1 AND granted_to = $2
	`, shareColumns, r.tables.Shares)

	share, err := scanShare(r.db(ctx).QueryRow(ctx, query, documentID, userID))
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return nil, nil // No grant, not an error
		}
		return nil, fmt.Errorf("get share for user: %w", err)
	}

	return share, nil
}

func (r *PostgresShareRepository) db(ctx context.Context) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func scanShare(row pgx.Row) (*models.Share, error) {
	var share models.Share
	err := row.Scan(
		&share.ID,
		&share.DocumentID,
		&share.GrantedBy,
		&share.GrantedTo,
		&share.CanRead,
		&share.CanWrite,
		&share.CanDelete,
		&share.CanShare,
		&share.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &share, nil
}
