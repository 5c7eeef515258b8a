// Package resource implements the CRUD operations shared by every record
// type. A Controller is written once and instantiated per record kind.
package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ryanbastic/go-locator/internal/record"
	"github.com/ryanbastic/go-locator/internal/storage"
)

var (
	// ErrBadRequest is returned when the request body is missing, is not a
	// JSON object, or does not decode into the record type.
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound is returned when the path id is malformed or does not
	// identify a stored record.
	ErrNotFound = errors.New("not found")

	// ErrStorage wraps any failure of the underlying store.
	ErrStorage = errors.New("storage failure")
)

// Controller serves one record kind. It holds no mutable state and is safe
// for concurrent use.
type Controller[T record.Model] struct {
	kind   *record.Kind[T]
	store  storage.Store[T]
	logger *slog.Logger
}

// New creates a Controller for kind backed by store.
func New[T record.Model](kind *record.Kind[T], store storage.Store[T], logger *slog.Logger) *Controller[T] {
	return &Controller[T]{
		kind:   kind,
		store:  store,
		logger: logger.With("resource", kind.Table),
	}
}

// Kind returns the record kind served by c.
func (c *Controller[T]) Kind() *record.Kind[T] {
	return c.kind
}

// Index returns every record in id order. The result is never nil.
func (c *Controller[T]) Index(ctx context.Context) ([]record.Payload, error) {
	recs, err := c.store.All(ctx)
	if err != nil {
		return nil, c.storageErr("index", err)
	}
	out := make([]record.Payload, len(recs))
	for i, rec := range recs {
		out[i] = rec.ToJSON()
	}
	return out, nil
}

// Store decodes body as a new record and persists it.
func (c *Controller[T]) Store(ctx context.Context, body []byte) (record.Payload, error) {
	p, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	rec, err := c.kind.FromJSON(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	saved, err := c.store.Insert(ctx, rec)
	if err != nil {
		return nil, c.storageErr("store", err)
	}
	c.logger.Debug("record stored", "id", saved.GetID())
	return saved.ToJSON(), nil
}

// Show returns the record identified by id.
func (c *Controller[T]) Show(ctx context.Context, id string) (record.Payload, error) {
	rec, err := c.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.ToJSON(), nil
}

// Update applies the recognized keys of body to the record identified by id
// and persists it. Keys that are absent keep their stored values; unknown
// keys are ignored.
func (c *Controller[T]) Update(ctx context.Context, id string, body []byte) (record.Payload, error) {
	rec, err := c.find(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	if err := c.kind.Apply(rec, p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return c.save(ctx, "update", rec)
}

// Replace overwrites every field of the record identified by id with a full
// decode of body. A body missing any required field fails and leaves the
// stored record untouched.
func (c *Controller[T]) Replace(ctx context.Context, id string, body []byte) (record.Payload, error) {
	rec, err := c.find(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	fresh, err := c.kind.FromJSON(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	c.kind.Replace(rec, fresh)
	return c.save(ctx, "replace", rec)
}

// Delete removes the record identified by id.
func (c *Controller[T]) Delete(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	if err := c.store.Delete(ctx, n); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s %d", ErrNotFound, c.kind.Name, n)
		}
		return c.storageErr("delete", err)
	}
	c.logger.Debug("record deleted", "id", n)
	return nil
}

// Clear removes every record. Clearing an empty collection succeeds.
func (c *Controller[T]) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return c.storageErr("clear", err)
	}
	c.logger.Debug("collection cleared")
	return nil
}

func (c *Controller[T]) find(ctx context.Context, id string) (T, error) {
	var zero T
	n, err := parseID(id)
	if err != nil {
		return zero, err
	}
	rec, err := c.store.Find(ctx, n)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return zero, fmt.Errorf("%w: %s %d", ErrNotFound, c.kind.Name, n)
		}
		return zero, c.storageErr("find", err)
	}
	return rec, nil
}

func (c *Controller[T]) save(ctx context.Context, op string, rec T) (record.Payload, error) {
	saved, err := c.store.Update(ctx, rec)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %d", ErrNotFound, c.kind.Name, rec.GetID())
		}
		return nil, c.storageErr(op, err)
	}
	return saved.ToJSON(), nil
}

func (c *Controller[T]) storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStorage, op, c.kind.Name, err)
}

// parseID accepts only positive decimal ids. Anything else cannot name a
// stored record.
func parseID(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrNotFound, s)
	}
	return n, nil
}

func decodeBody(body []byte) (record.Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: missing request body", ErrBadRequest)
	}
	var p record.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: request body must be a JSON object", ErrBadRequest)
	}
	return p, nil
}
