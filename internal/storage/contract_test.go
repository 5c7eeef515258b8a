package storage

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/ryanbastic/go-locator/internal/record"
)

// The checks below run against every Store implementation. Each expects an
// empty store.

func checkInsertAssignsIDs(t *testing.T, s Store[*record.User]) {
	t.Helper()
	ctx := context.Background()

	a, err := s.Insert(ctx, &record.User{Name: "ada"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	b, err := s.Insert(ctx, &record.User{ID: 999, Name: "bob"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if a.ID == 0 || b.ID == 0 {
		t.Fatalf("expected assigned ids, got %d and %d", a.ID, b.ID)
	}
	if a.ID == b.ID {
		t.Errorf("ids must be unique, both are %d", a.ID)
	}
	if b.ID == 999 {
		t.Error("Insert must ignore a caller-supplied id")
	}

	got, err := s.Find(ctx, a.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if *got != *a {
		t.Errorf("Find = %+v, want %+v", got, a)
	}
}

func checkFindMissing(t *testing.T, s Store[*record.User]) {
	t.Helper()
	if _, err := s.Find(context.Background(), 424242); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find missing: got %v, want ErrNotFound", err)
	}
}

func checkAllOrderedByID(t *testing.T, s Store[*record.User]) {
	t.Helper()
	ctx := context.Background()

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All on empty store: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %d records", len(all))
	}

	for _, name := range []string{"c", "a", "b"} {
		if _, err := s.Insert(ctx, &record.User{Name: name}); err != nil {
			t.Fatalf("Insert %s: %v", name, err)
		}
	}
	all, err = s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("All returned %d records, want 3", len(all))
	}
	ids := make([]int64, len(all))
	names := make([]string, len(all))
	for i, u := range all {
		ids[i] = u.ID
		names[i] = u.Name
	}
	if !slices.IsSorted(ids) {
		t.Errorf("ids not ascending: %v", ids)
	}
	if !slices.Equal(names, []string{"c", "a", "b"}) {
		t.Errorf("names = %v, want insertion order", names)
	}
}

func checkUpdate(t *testing.T, s Store[*record.Location]) {
	t.Helper()
	ctx := context.Background()

	l, err := s.Insert(ctx, &record.Location{UserID: "1", Lat: 10, Lon: 59, Elev: 1, Ts: 123456789})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	l.Lat = 11
	l.Elev = 2

	updated, err := s.Update(ctx, l)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if *updated != *l {
		t.Errorf("Update = %+v, want %+v", updated, l)
	}

	got, err := s.Find(ctx, l.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.Lat != 11 || got.Elev != 2 || got.UserID != "1" {
		t.Errorf("stored record not updated: %+v", got)
	}

	missing := &record.Location{ID: l.ID + 1000, UserID: "x"}
	if _, err := s.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing: got %v, want ErrNotFound", err)
	}
}

func checkGroupMembers(t *testing.T, s Store[*record.Group]) {
	t.Helper()
	ctx := context.Background()

	g, err := s.Insert(ctx, &record.Group{Name: "hikers", Users: []string{"1", "2"}})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	empty, err := s.Insert(ctx, &record.Group{Name: "nobody"})
	if err != nil {
		t.Fatalf("Insert empty: %v", err)
	}

	got, err := s.Find(ctx, g.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !slices.Equal(got.Users, []string{"1", "2"}) {
		t.Errorf("Users = %v, want [1 2]", got.Users)
	}

	got, err = s.Find(ctx, empty.ID)
	if err != nil {
		t.Fatalf("Find empty: %v", err)
	}
	if got.Users == nil || len(got.Users) != 0 {
		t.Errorf("Users = %#v, want empty non-nil slice", got.Users)
	}
}

func checkDeleteAndClear(t *testing.T, s Store[*record.User]) {
	t.Helper()
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"a", "b", "c"} {
		u, err := s.Insert(ctx, &record.User{Name: name})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		ids = append(ids, u.ID)
	}

	if err := s.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, ids[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}
	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 || all[0].ID != ids[0] || all[1].ID != ids[2] {
		t.Errorf("after delete: %+v", all)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear on empty store: %v", err)
	}
	all, err = s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("after clear: %d records", len(all))
	}

	u, err := s.Insert(ctx, &record.User{Name: "d"})
	if err != nil {
		t.Fatalf("Insert after clear: %v", err)
	}
	if slices.Contains(ids, u.ID) {
		t.Errorf("id %d reused after clear", u.ID)
	}
}
