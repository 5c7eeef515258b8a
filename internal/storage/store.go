package storage

import (
	"context"
	"errors"

	"github.com/ryanbastic/go-locator/internal/record"
)

// ErrNotFound is returned when no record with the requested id exists.
var ErrNotFound = errors.New("record not found")

// Store persists one record type. Implementations must be safe for
// concurrent use; each call is atomic on its own, but calls are not
// coordinated with one another.
type Store[T record.Model] interface {
	// All returns every record in id order.
	All(ctx context.Context) ([]T, error)

	// Find returns the record with the given id or ErrNotFound.
	Find(ctx context.Context, id int64) (T, error)

	// Insert persists a new record and returns it with its assigned id.
	// Any id already set on rec is ignored.
	Insert(ctx context.Context, rec T) (T, error)

	// Update overwrites every column of the record identified by rec's id.
	// Returns ErrNotFound when that id does not exist.
	Update(ctx context.Context, rec T) (T, error)

	// Delete removes the record with the given id or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// Clear removes every record. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
