package sendlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/guilhermegouw/unwind/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "unwind.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() }) //nolint:errcheck // Intentionally ignoring close error in test cleanup

	s := New(database)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var tick int64
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestStore_Lifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if err := s.Begin(ctx, "local-1", "5", "hello"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := s.Confirm(ctx, "local-1", "99"); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if err := s.Begin(ctx, "local-2", "5", "I feel anxious"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := s.Fail(ctx, "local-2", errors.New("connection refused")); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	got, err := s.LastFailed(ctx, "5")
	if err != nil {
		t.Fatalf("LastFailed() error = %v", err)
	}
	if got.Text != "I feel anxious" || got.Error != "connection refused" || got.Status != StatusFailed {
		t.Errorf("LastFailed() = %+v", got)
	}

	all, err := s.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(all) != 2 || all[0].LocalID != "local-2" {
		t.Errorf("Recent() = %+v, want local-2 first", all)
	}
	if all[1].ReplyID != "99" || all[1].Status != StatusConfirmed {
		t.Errorf("confirmed entry = %+v", all[1])
	}
}

func TestStore_LastFailed(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		if _, err := s.LastFailed(ctx, "5"); !errors.Is(err, ErrNotFound) {
			t.Errorf("LastFailed() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("scoped to session and newest first", func(t *testing.T) {
		for _, e := range []struct{ id, session, text string }{
			{"a", "5", "older"},
			{"b", "7", "other session"},
			{"c", "5", "newer"},
		} {
			if err := s.Begin(ctx, e.id, e.session, e.text); err != nil {
				t.Fatal(err)
			}
			if err := s.Fail(ctx, e.id, nil); err != nil {
				t.Fatal(err)
			}
		}

		got, err := s.LastFailed(ctx, "5")
		if err != nil {
			t.Fatalf("LastFailed() error = %v", err)
		}
		if got.Text != "newer" {
			t.Errorf("LastFailed().Text = %q, want newer", got.Text)
		}

		if _, err := s.Recall(ctx, "5"); err != nil {
			t.Fatalf("Recall() error = %v", err)
		}
		got, err = s.LastFailed(ctx, "5")
		if err != nil {
			t.Fatalf("LastFailed() error = %v", err)
		}
		if got.Text != "older" {
			t.Errorf("after Recall, LastFailed().Text = %q, want older", got.Text)
		}
	})
}

func TestStore_Recall(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, e := range []struct{ id, session, text string }{
		{"a", "5", "older"},
		{"b", "5", "newer"},
		{"c", "7", "elsewhere"},
		{"d", "5", "confirmed"},
	} {
		if err := s.Begin(ctx, e.id, e.session, e.text); err != nil {
			t.Fatal(err)
		}
		if e.id == "d" {
			if err := s.Confirm(ctx, e.id, "42"); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := s.Fail(ctx, e.id, nil); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	for {
		e, err := s.Recall(ctx, "5")
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			t.Fatalf("Recall() error = %v", err)
		}
		got = append(got, e.Text)
		if len(got) > 3 {
			t.Fatalf("Recall() kept returning drafts: %v", got)
		}
	}
	if len(got) != 2 || got[0] != "newer" || got[1] != "older" {
		t.Errorf("Recall() sequence = %v, want [newer older]", got)
	}

	// Other sessions and confirmed sends are untouched.
	all, err := s.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Recent() after recalls = %+v, want 2 entries", all)
	}
}

func TestStore_FinishUnknown(t *testing.T) {
	s := setupStore(t)
	if err := s.Confirm(context.Background(), "missing", "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Confirm() error = %v, want ErrNotFound", err)
	}
}

func TestStore_FailPending(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"x", "y"} {
		if err := s.Begin(ctx, id, "1", id); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Confirm(ctx, "y", "r"); err != nil {
		t.Fatal(err)
	}

	n, err := s.FailPending(ctx)
	if err != nil {
		t.Fatalf("FailPending() error = %v", err)
	}
	if n != 1 {
		t.Errorf("FailPending() = %d, want 1", n)
	}

	failed, err := s.Recent(ctx, StatusFailed, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].LocalID != "x" || failed[0].Error != "interrupted" {
		t.Errorf("failed entries = %+v", failed)
	}
}
