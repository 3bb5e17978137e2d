package archive

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	models "pmnarchive/internal/domain/models/archive"
	"pmnarchive/internal/domain/repositories"
	archiveRepo "pmnarchive/internal/domain/repositories/archive"
	"pmnarchive/internal/repository/postgres"
)

// PostgresAuditRepository implements the AuditRepository interface
type PostgresAuditRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(config *postgres.RepositoryConfig) archiveRepo.AuditRepository {
	return &PostgresAuditRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create records a move. Called inside the move transaction.
func (r *PostgresAuditRepository) Create(ctx context.Context, audit *models.MoveAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, folder_id, folder_name, old_parent_id, new_parent_id,
			owner_id, moved_by, moved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.MoveAudits)

	_, err := r.db(ctx).Exec(ctx, query,
		audit.ID,
		audit.FolderID,
		audit.FolderName,
		audit.OldParentID,
		audit.NewParentID,
		audit.OwnerID,
		audit.MovedBy,
		audit.MovedAt,
	)
	if err != nil {
		return fmt.Errorf("create move audit: %w", err)
	}

	return nil
}

// ListByFolder lists moves of a folder, newest first
func (r *PostgresAuditRepository) ListByFolder(ctx context.Context, folderID string, limit int) ([]models.MoveAudit, error) {
	query := fmt.Sprintf(`
		SELECT id, folder_id, folder_name, old_parent_id, new_parent_id,
			owner_id, moved_by, moved_at
		FROM %s
		WHERE folder_id = $1
		ORDER BY moved_at DESC
		LIMIT $2
	`, r.tables.MoveAudits)

	rows, err := r.db(ctx).Query(ctx, query, folderID, limit)
	if err != nil {
		return nil, fmt.Errorf("list move audits: %w", err)
	}
	defer rows.Close()

	var audits []models.MoveAudit
	for rows.Next() {
		var a models.MoveAudit
		err := rows.Scan(
			&a.ID,
			&a.FolderID,
			&a.FolderName,
			&a.OldParentID,
			&a.NewParentID,
			&a.OwnerID,
			&a.MovedBy,
			&a.MovedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan move audit: %w", err)
		}
		audits = append(audits, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate move audits: %w", err)
	}

	return audits, nil
}

func (r *PostgresAuditRepository) db(ctx context.Context) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}
