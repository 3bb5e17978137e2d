package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxDocumentNameLength is the maximum length for document names.
	// Same as folder names for consistency.
	MaxDocumentNameLength = 255

	// MaxAuditListLimit caps the number of audit records returned
	// for a single folder.
	MaxAuditListLimit = 200

	// UploadRetryAttempts is the total number of attempts for a file
	// upload, including the first. Validation-class failures are never
	// retried.
	UploadRetryAttempts = 2
)
