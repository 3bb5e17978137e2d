package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pmnarchive/internal/config"
	"pmnarchive/internal/domain"
	"pmnarchive/internal/domain/models/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
)

// Uploader registers uploaded documents with bounded retries. Only
// transient failures are retried; a validation or permission rejection
// will not pass on a second attempt, so it surfaces immediately.
type Uploader struct {
	store    Store
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

// NewUploader creates an uploader with the default retry policy
func NewUploader(store Store, logger *slog.Logger) *Uploader {
	return &Uploader{
		store:    store,
		attempts: config.UploadRetryAttempts,
		backoff:  500 * time.Millisecond,
		logger:   logger,
	}
}

// Upload registers a document, retrying transient failures with doubling
// backoff. Context cancellation aborts between attempts.
func (u *Uploader) Upload(ctx context.Context, req *archiveSvc.CreateDocumentRequest) (*archive.Document, error) {
	var lastErr error
	backoff := u.backoff

	for attempt := 1; attempt <= u.attempts; attempt++ {
		doc, err := u.store.CreateDocument(ctx, req)
		if err == nil {
			if attempt > 1 {
				u.logger.Info("upload succeeded after retry",
					"name", req.Name,
					"attempt", attempt,
				)
			}
			return doc, nil
		}

		if !errors.Is(err, domain.ErrTransient) {
			return nil, err
		}
		lastErr = err

		if attempt == u.attempts {
			break
		}

		u.logger.Warn("upload failed, retrying",
			"name", req.Name,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, lastErr
}
