package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"pocketflix-portal/internal/domain"
)

// BlobStore keeps uploaded objects in process memory.
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewBlobStore() *BlobStore {
	return &BlobStore{objects: make(map[string][]byte)}
}

func (s *BlobStore) Put(_ context.Context, name string, r io.Reader, size int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("object %s: read %d bytes, expected %d", name, len(data), size)
	}
	s.mu.Lock()
	s.objects[name] = data
	s.mu.Unlock()
	return nil
}

func (s *BlobStore) Get(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", name, domain.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *BlobStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name := range s.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *BlobStore) Remove(_ context.Context, name string) error {
	s.mu.Lock()
	delete(s.objects, name)
	s.mu.Unlock()
	return nil
}
