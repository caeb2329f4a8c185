package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	"github.com/KnMBursary/bursary_backend/internal/core/ports"
)

// MemoryDocumentStore keeps uploaded documents in process memory. It exists for
// tests and local development without an object store.
type MemoryDocumentStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ ports.DocumentStore = (*MemoryDocumentStore)(nil)

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{objects: make(map[string][]byte)}
}

func (s *MemoryDocumentStore) Store(_ context.Context, slot string, file ports.FileUpload) (domain.DocumentRef, error) {
	ext, ok := allowedContentTypes[file.ContentType]
	if !ok {
		return domain.DocumentRef{}, fmt.Errorf("%w: content type %q is not accepted", apperrors.ErrUploadRejected, file.ContentType)
	}

	data, err := io.ReadAll(file.Content)
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("%w: failed to read document content: %v", apperrors.ErrStorage, err)
	}

	key := "applications/" + slot + "/" + uuid.NewString() + ext
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()

	return domain.DocumentRef{
		Key:         key,
		URL:         "memory://" + key,
		ContentType: file.ContentType,
	}, nil
}

func (s *MemoryDocumentStore) Release(_ context.Context, ref domain.DocumentRef) error {
	s.mu.Lock()
	delete(s.objects, ref.Key)
	s.mu.Unlock()
	return nil
}

// Contains reports whether a key is currently stored.
func (s *MemoryDocumentStore) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (s *MemoryDocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
