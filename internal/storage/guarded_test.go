package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ryanbastic/go-locator/internal/circuitbreaker"
	"github.com/ryanbastic/go-locator/internal/record"
)

var errBackend = errors.New("connection refused")

// failingStore returns err from every call.
type failingStore struct {
	err   error
	calls int
}

func (f *failingStore) All(context.Context) ([]*record.User, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Find(context.Context, int64) (*record.User, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Insert(context.Context, *record.User) (*record.User, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Update(context.Context, *record.User) (*record.User, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Delete(context.Context, int64) error {
	f.calls++
	return f.err
}

func (f *failingStore) Clear(context.Context) error {
	f.calls++
	return f.err
}

func TestGuardedStore_PassesThrough(t *testing.T) {
	b := circuitbreaker.New(3, time.Minute)
	checkInsertAssignsIDs(t, NewGuardedStore[*record.User](NewMemoryStore(record.Users), b))
	checkDeleteAndClear(t, NewGuardedStore[*record.User](NewMemoryStore(record.Users), b))
	checkUpdate(t, NewGuardedStore[*record.Location](NewMemoryStore(record.Locations), b))
}

func TestGuardedStore_NotFoundDoesNotTrip(t *testing.T) {
	b := circuitbreaker.New(2, time.Minute)
	s := NewGuardedStore[*record.User](NewMemoryStore(record.Users), b)

	for range 5 {
		if _, err := s.Find(context.Background(), 1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Find: got %v, want ErrNotFound", err)
		}
		if err := s.Delete(context.Background(), 1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Delete: got %v, want ErrNotFound", err)
		}
	}
	if b.State() != circuitbreaker.Closed {
		t.Errorf("state = %s, want closed", b.State())
	}
}

func TestGuardedStore_CanceledDoesNotTrip(t *testing.T) {
	b := circuitbreaker.New(1, time.Minute)
	inner := &failingStore{err: context.Canceled}
	s := NewGuardedStore[*record.User](inner, b)

	for range 3 {
		if _, err := s.All(context.Background()); !errors.Is(err, context.Canceled) {
			t.Fatalf("All: got %v, want context.Canceled", err)
		}
	}
	if b.State() != circuitbreaker.Closed {
		t.Errorf("state = %s, want closed", b.State())
	}
}

func TestGuardedStore_CanceledProbeDoesNotClose(t *testing.T) {
	b := circuitbreaker.New(1, time.Millisecond)
	NewGuardedStore[*record.User](&failingStore{err: errBackend}, b).All(context.Background())
	if b.State() != circuitbreaker.Open {
		t.Fatalf("state = %s, want open", b.State())
	}
	time.Sleep(5 * time.Millisecond)

	canceled := NewGuardedStore[*record.User](&failingStore{err: context.Canceled}, b)
	if _, err := canceled.Find(context.Background(), 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("Find: got %v, want context.Canceled", err)
	}
	if b.State() != circuitbreaker.HalfOpen {
		t.Fatalf("state = %s, want half_open", b.State())
	}

	healthy := NewGuardedStore[*record.User](NewMemoryStore(record.Users), b)
	if _, err := healthy.All(context.Background()); err != nil {
		t.Fatalf("All: %v", err)
	}
	if b.State() != circuitbreaker.Closed {
		t.Errorf("state = %s, want closed", b.State())
	}
}

func TestGuardedStore_BackendFailuresOpenCircuit(t *testing.T) {
	b := circuitbreaker.New(2, time.Minute)
	inner := &failingStore{err: errBackend}
	s := NewGuardedStore[*record.User](inner, b)
	ctx := context.Background()

	if _, err := s.Insert(ctx, &record.User{Name: "a"}); !errors.Is(err, errBackend) {
		t.Fatalf("Insert: got %v, want errBackend", err)
	}
	if err := s.Clear(ctx); !errors.Is(err, errBackend) {
		t.Fatalf("Clear: got %v, want errBackend", err)
	}
	if b.State() != circuitbreaker.Open {
		t.Fatalf("state = %s, want open", b.State())
	}

	if _, err := s.Update(ctx, &record.User{ID: 1}); !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Errorf("Update: got %v, want ErrCircuitOpen", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}

func TestGuardedStore_SharedBreaker(t *testing.T) {
	b := circuitbreaker.New(1, time.Minute)
	broken := NewGuardedStore[*record.User](&failingStore{err: errBackend}, b)
	healthy := NewGuardedStore[*record.Group](NewMemoryStore(record.Groups), b)

	broken.All(context.Background())

	if _, err := healthy.All(context.Background()); !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Errorf("All through shared breaker: got %v, want ErrCircuitOpen", err)
	}
}
