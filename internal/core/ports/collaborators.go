package ports

import (
	"context"
	"io"

	"github.com/KnMBursary/bursary_backend/internal/core/domain"
)

// FileUpload carries one attachment's content and metadata from the HTTP
// boundary to the document store.
type FileUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// DocumentStore is the external blob-hosting collaborator. Implementations must
// reject content types other than PDF, JPEG and PNG, and must treat releasing an
// unknown or already-released reference as a no-op, not an error.
type DocumentStore interface {
	// Store uploads the file under the given slot name and returns a stable reference.
	Store(ctx context.Context, slot string, file FileUpload) (domain.DocumentRef, error)
	// Release deletes the stored file behind ref. Idempotent.
	Release(ctx context.Context, ref domain.DocumentRef) error
}

// Notifier is the external mail-transport collaborator. Send is fire-and-forget
// from the workflow's perspective; callers decide whether a failure is fatal.
type Notifier interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}
