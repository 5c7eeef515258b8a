package storage

import (
	"context"
	"errors"

	"github.com/ryanbastic/go-locator/internal/circuitbreaker"
	"github.com/ryanbastic/go-locator/internal/record"
)

// GuardedStore wraps a Store with a circuit breaker. ErrNotFound counts as a
// healthy answer. Caller cancellation is passed through without touching the
// breaker's counts.
type GuardedStore[T record.Model] struct {
	inner   Store[T]
	breaker *circuitbreaker.Breaker
}

// NewGuardedStore returns inner guarded by breaker. A single breaker may be
// shared by several stores that use the same backend.
func NewGuardedStore[T record.Model](inner Store[T], breaker *circuitbreaker.Breaker) *GuardedStore[T] {
	return &GuardedStore[T]{inner: inner, breaker: breaker}
}

func guard[R any](b *circuitbreaker.Breaker, fn func() (R, error)) (R, error) {
	var (
		res    R
		passed error
	)
	err := b.Execute(func() error {
		var err error
		res, err = fn()
		switch {
		case errors.Is(err, ErrNotFound):
			passed = err
			return nil
		case errors.Is(err, context.Canceled):
			return circuitbreaker.Neutral(err)
		}
		return err
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return res, passed
}

func (s *GuardedStore[T]) All(ctx context.Context) ([]T, error) {
	return guard(s.breaker, func() ([]T, error) { return s.inner.All(ctx) })
}

func (s *GuardedStore[T]) Find(ctx context.Context, id int64) (T, error) {
	return guard(s.breaker, func() (T, error) { return s.inner.Find(ctx, id) })
}

func (s *GuardedStore[T]) Insert(ctx context.Context, rec T) (T, error) {
	return guard(s.breaker, func() (T, error) { return s.inner.Insert(ctx, rec) })
}

func (s *GuardedStore[T]) Update(ctx context.Context, rec T) (T, error) {
	return guard(s.breaker, func() (T, error) { return s.inner.Update(ctx, rec) })
}

func (s *GuardedStore[T]) Delete(ctx context.Context, id int64) error {
	_, err := guard(s.breaker, func() (struct{}, error) { return struct{}{}, s.inner.Delete(ctx, id) })
	return err
}

func (s *GuardedStore[T]) Clear(ctx context.Context) error {
	_, err := guard(s.breaker, func() (struct{}, error) { return struct{}{}, s.inner.Clear(ctx) })
	return err
}
