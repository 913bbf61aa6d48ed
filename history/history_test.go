package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, maxEntries int) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(context.Background(), path, maxEntries)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		r := Record{
			Text:       text,
			Model:      "small",
			Backend:    "CPU",
			DurationMS: int64(100 * (i + 1)),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Text != "third" || got[1].Text != "second" {
		t.Fatalf("wrong order: %q, %q", got[0].Text, got[1].Text)
	}
	if got[0].Model != "small" || got[0].DurationMS != 300 {
		t.Fatalf("record fields lost: %+v", got[0])
	}
	if got[0].ID == "" {
		t.Fatal("ID should be assigned on append")
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	s := openTestStore(t, 3)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		r := Record{
			Text:      string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records after prune, want 3", len(got))
	}
	if got[0].Text != "f" || got[2].Text != "d" {
		t.Fatalf("prune kept wrong rows: %+v", got)
	}
}

func TestRecentOnEmptyStore(t *testing.T) {
	s := openTestStore(t, 0)
	got, err := s.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(ctx, path, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Append(ctx, Record{Text: "keep me"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	s.Close()

	s2, err := Open(ctx, path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Text != "keep me" {
		t.Fatalf("lost record across reopen: %+v", got)
	}
}
