package archive

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pmnarchive/internal/archive/guard"
	"pmnarchive/internal/domain"
	models "pmnarchive/internal/domain/models/archive"
	"pmnarchive/internal/domain/repositories"
	archiveRepo "pmnarchive/internal/domain/repositories/archive"
	"pmnarchive/internal/repository/postgres"
)

const folderColumns = `id, name, created_by, parent_id, folder_number, sort_order,
	category, status, last_moved_at, last_moved_by, created_at, updated_at`

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) archiveRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	// Last line of defense: an ownerless record must never reach the table
	if err := guard.CheckOwnershipPresent(folder.CreatedBy); err != nil {
		return err
	}
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, created_by, parent_id, folder_number, sort_order,
			category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, r.tables.Folders)

	err := r.db(ctx).QueryRow(ctx, query,
		folder.ID,
		folder.Name,
		folder.CreatedBy,
		folder.ParentID,
		folder.FolderNumber,
		folder.Order,
		folder.Category,
		folder.Status,
		folder.CreatedAt,
		folder.UpdatedAt,
	).Scan(&folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if postgres.IsDuplicateError(err) {
			return fmt.Errorf("folder '%s': %w", folder.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, folderColumns, r.tables.Folders)

	folder, err := scanFolder(r.db(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

// Update updates a folder. created_by is intentionally absent from the
// SET list; ownership never changes after creation, and a caller passing
// a different owner is rejected before the write.
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	ownerQuery := fmt.Sprintf(`SELECT created_by FROM %s WHERE id = $1`, r.tables.Folders)

	var storedOwner string
	if err := r.db(ctx).QueryRow(ctx, ownerQuery, folder.ID).Scan(&storedOwner); err != nil {
		if postgres.IsNoRowsError(err) {
			return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update folder: %w", err)
	}
	if err := guard.CheckOwnershipUnchanged(storedOwner, folder.CreatedBy); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, parent_id = $2, folder_number = $3, sort_order = $4,
			category = $5, status = $6, last_moved_at = $7, last_moved_by = $8,
			updated_at = $9
		WHERE id = $10
	`, r.tables.Folders)

	result, err := r.db(ctx).Exec(ctx, query,
		folder.Name,
		folder.ParentID,
		folder.FolderNumber,
		folder.Order,
		folder.Category,
		folder.Status,
		folder.LastMovedAt,
		folder.LastMovedBy,
		folder.UpdatedAt,
		folder.ID,
	)

	if err != nil {
		if postgres.IsDuplicateError(err) {
			return fmt.Errorf("folder '%s': %w", folder.Name, domain.ErrConflict)
		}
		return fmt.Errorf("update folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a folder. Deleting an absent id succeeds silently.
func (r *PostgresFolderRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Folders)

	if _, err := r.db(ctx).Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	return nil
}

// ListChildren lists immediate child folders ordered by sort order, then
// creation time
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, parentID *string) ([]models.Folder, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE parent_id IS NULL
			ORDER BY sort_order ASC, created_at ASC
		`, folderColumns, r.tables.Folders)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE parent_id = $1
			ORDER BY sort_order ASC, created_at ASC
		`, folderColumns, r.tables.Folders)
		args = append(args, *parentID)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list folder children: %w", err)
	}
	defer rows.Close()

	return collectFolders(rows)
}

// GetAll retrieves every folder as a flat list
func (r *PostgresFolderRepository) GetAll(ctx context.Context) ([]models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at ASC`, folderColumns, r.tables.Folders)

	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all folders: %w", err)
	}
	defer rows.Close()

	return collectFolders(rows)
}

// GetParentID returns the parent id of a folder without loading the full record
func (r *PostgresFolderRepository) GetParentID(ctx context.Context, id string) (*string, error) {
	query := fmt.Sprintf(`SELECT parent_id FROM %s WHERE id = $1`, r.tables.Folders)

	var parentID *string
	err := r.db(ctx).QueryRow(ctx, query, id).Scan(&parentID)
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder parent: %w", err)
	}

	return parentID, nil
}

// CountChildren returns the number of immediate child folders
func (r *PostgresFolderRepository) CountChildren(ctx context.Context, parentID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE parent_id = $1`, r.tables.Folders)

	var count int
	if err := r.db(ctx).QueryRow(ctx, query, parentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count folder children: %w", err)
	}

	return count, nil
}

// GetPath computes the breadcrumb display path using a recursive CTE.
// The recursion depth mirrors the guard's ancestor cap so a corrupted
// cyclic chain terminates instead of recursing forever.
func (r *PostgresFolderRepository) GetPath(ctx context.Context, folderID *string) (string, error) {
	if folderID == nil {
		return "", nil
	}

	query := fmt.Sprintf(`
		WITH RECURSIVE folder_path AS (
			SELECT id, name, parent_id, name::text AS path, 1 AS depth
			FROM %s
			WHERE id = $1
			UNION ALL
			SELECT f.id, f.name, f.parent_id, f.name || ' > ' || fp.path, fp.depth + 1
			FROM %s f
			JOIN folder_path fp ON f.id = fp.parent_id
			WHERE fp.depth < 50
		)
		SELECT path FROM folder_path ORDER BY depth DESC LIMIT 1
	`, r.tables.Folders, r.tables.Folders)

	var path string
	err := r.db(ctx).QueryRow(ctx, query, *folderID).Scan(&path)
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return "", fmt.Errorf("folder %s: %w", *folderID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get folder path: %w", err)
	}

	return path, nil
}

// NextFolderNumber computes the next sequential D-NNNN number. Called
// inside the creation transaction; a concurrent create racing to the same
// number fails on the unique index and surfaces as a conflict.
func (r *PostgresFolderRepository) NextFolderNumber(ctx context.Context) (string, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(CAST(SUBSTRING(folder_number FROM 3) AS INTEGER)), 0)
		FROM %s
		WHERE folder_number ~ '^D-[0-9]{4}$'
	`, r.tables.Folders)

	var max int
	if err := r.db(ctx).QueryRow(ctx, query).Scan(&max); err != nil {
		return "", fmt.Errorf("next folder number: %w", err)
	}

	return fmt.Sprintf("D-%04d", max+1), nil
}

func (r *PostgresFolderRepository) db(ctx context.Context) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.Name,
		&folder.CreatedBy,
		&folder.ParentID,
		&folder.FolderNumber,
		&folder.Order,
		&folder.Category,
		&folder.Status,
		&folder.LastMovedAt,
		&folder.LastMovedBy,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func collectFolders(rows pgx.Rows) ([]models.Folder, error) {
	var folders []models.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}
