// Package filestore keeps snapshots as JSON documents in a local file.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"newsflash/domain"
)

// Store maps every key to an entry of one JSON document on disk.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Get(_ context.Context, key string) (*domain.CacheData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	data, ok := doc[key]
	if !ok {
		return nil, nil
	}
	return data, nil
}

// Set replaces the entry for key. A nil snapshot removes it.
func (s *Store) Set(_ context.Context, key string, data *domain.CacheData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked()
	if err != nil {
		// an unreadable document is replaced
		doc = map[string]*domain.CacheData{}
	}
	if data == nil {
		delete(doc, key)
	} else {
		doc[key] = data
	}
	return s.writeLocked(doc)
}

func (s *Store) readLocked() (map[string]*domain.CacheData, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]*domain.CacheData{}, nil
	}
	if err != nil {
		return nil, err
	}
	doc := map[string]*domain.CacheData{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *Store) writeLocked(doc map[string]*domain.CacheData) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
