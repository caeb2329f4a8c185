package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/ports"
)

func TestMemoryStore_StoreAndRelease(t *testing.T) {
	store := NewMemoryDocumentStore()
	ctx := context.Background()

	ref, err := store.Store(ctx, "transcript", ports.FileUpload{
		Filename:    "transcript.pdf",
		ContentType: "application/pdf",
		Content:     strings.NewReader("%PDF-1.4 fake"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.Key, "applications/transcript/"))
	assert.True(t, strings.HasSuffix(ref.Key, ".pdf"))
	assert.Equal(t, "application/pdf", ref.ContentType)
	assert.True(t, store.Contains(ref.Key))

	require.NoError(t, store.Release(ctx, ref))
	assert.False(t, store.Contains(ref.Key))

	// Releasing the same reference again is a no-op.
	require.NoError(t, store.Release(ctx, ref))
}

func TestMemoryStore_RejectsUnsupportedContentType(t *testing.T) {
	store := NewMemoryDocumentStore()

	_, err := store.Store(context.Background(), "resume", ports.FileUpload{
		Filename:    "resume.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Content:     strings.NewReader("not allowed"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUploadRejected)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_DistinctKeysPerUpload(t *testing.T) {
	store := NewMemoryDocumentStore()
	ctx := context.Background()

	first, err := store.Store(ctx, "payslip", ports.FileUpload{ContentType: "image/png", Content: strings.NewReader("a")})
	require.NoError(t, err)
	second, err := store.Store(ctx, "payslip", ports.FileUpload{ContentType: "image/png", Content: strings.NewReader("b")})
	require.NoError(t, err)

	assert.NotEqual(t, first.Key, second.Key)
	assert.Equal(t, 2, store.Len())
}
