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

const documentColumns = `id, name, category, folder_id, uploaded_by, size_bytes,
	content_type, storage_key, created_at, updated_at`

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) archiveRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a new document record
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, category, folder_id, uploaded_by, size_bytes,
			content_type, storage_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, r.tables.Documents)

	err := r.db(ctx).QueryRow(ctx, query,
		doc.ID,
		doc.Name,
		doc.Category,
		doc.FolderID,
		doc.UploadedBy,
		doc.SizeBytes,
		doc.ContentType,
		doc.StorageKey,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	doc, err := scanDocument(r.db(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// Update updates an existing document. uploaded_by is never in the SET
// list; provenance does not change.
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, category = $2, folder_id = $3, updated_at = $4
		WHERE id = $5
	`, r.tables.Documents)

	result, err := r.db(ctx).Exec(ctx, query,
		doc.Name,
		doc.Category,
		doc.FolderID,
		doc.UpdatedAt,
		doc.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a document. Deleting an absent id succeeds silently.
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	if _, err := r.db(ctx).Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	return nil
}

// ListByFolder lists documents in a folder (nil = root level)
func (r *PostgresDocumentRepository) ListByFolder(ctx context.Context, folderID *string) ([]models.Document, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE folder_id IS NULL
			ORDER BY name ASC
		`, documentColumns, r.tables.Documents)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE folder_id = $1
			ORDER BY name ASC
		`, documentColumns, r.tables.Documents)
		args = append(args, *folderID)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// CountByFolder returns the number of documents in a folder
func (r *PostgresDocumentRepository) CountByFolder(ctx context.Context, folderID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE folder_id = $1`, r.tables.Documents)

	var count int
	if err := r.db(ctx).QueryRow(ctx, query, folderID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}

	return count, nil
}

// GetAll retrieves all document metadata as a flat list
func (r *PostgresDocumentRepository) GetAll(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at ASC`, documentColumns, r.tables.Documents)

	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

func (r *PostgresDocumentRepository) db(ctx context.Context) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Category,
		&doc.FolderID,
		&doc.UploadedBy,
		&doc.SizeBytes,
		&doc.ContentType,
		&doc.StorageKey,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func collectDocuments(rows pgx.Rows) ([]models.Document, error) {
	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}
