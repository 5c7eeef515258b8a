package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ryanbastic/go-locator/internal/record"
)

// MemoryStore implements Store in process memory. Records are held as rows
// and decoded on every read, so callers never share state with the store.
// Ids come from a monotonic counter and are never reused.
type MemoryStore[T record.Model] struct {
	kind *record.Kind[T]

	mu     sync.RWMutex
	rows   map[int64]record.Row
	lastID int64
}

// NewMemoryStore creates an empty MemoryStore for kind.
func NewMemoryStore[T record.Model](kind *record.Kind[T]) *MemoryStore[T] {
	return &MemoryStore[T]{
		kind: kind,
		rows: make(map[int64]record.Row),
	}
}

func (s *MemoryStore[T]) decode(id int64, row record.Row) (T, error) {
	full := make(record.Row, len(row)+1)
	maps.Copy(full, row)
	full[record.KeyID] = id
	rec, err := s.kind.FromRow(full)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s %d: %w", s.kind.Name, id, err)
	}
	return rec, nil
}

func (s *MemoryStore[T]) All(_ context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]T, 0, len(s.rows))
	for _, id := range slices.Sorted(maps.Keys(s.rows)) {
		rec, err := s.decode(id, s.rows[id])
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *MemoryStore[T]) Find(_ context.Context, id int64) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return s.decode(id, row)
}

func (s *MemoryStore[T]) Insert(_ context.Context, rec T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	id := s.lastID
	s.rows[id] = rec.ToRow()
	return s.decode(id, s.rows[id])
}

func (s *MemoryStore[T]) Update(_ context.Context, rec T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := rec.GetID()
	if _, ok := s.rows[id]; !ok {
		var zero T
		return zero, ErrNotFound
	}
	s.rows[id] = rec.ToRow()
	return s.decode(id, s.rows[id])
}

func (s *MemoryStore[T]) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *MemoryStore[T]) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.rows)
	return nil
}

// Len reports the number of stored records.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
