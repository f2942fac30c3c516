package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/0xjjjjjj/sortbox/internal/organizer"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func batch(id string, records ...organizer.MoveRecord) *organizer.Batch {
	return &organizer.Batch{
		ID:        id,
		Root:      "/downloads",
		CreatedAt: time.Now(),
		Records:   records,
		Folders:   []string{"/downloads/Documents"},
	}
}

func TestDB_PushAndLatest(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	b := batch("b1",
		organizer.MoveRecord{Final: "/downloads/Documents/report.pdf", Original: "/downloads/report.pdf", Size: 1024},
		organizer.MoveRecord{Final: "/downloads/Documents/notes.txt", Original: "/downloads/notes.txt", Size: 10},
	)
	if err := db.Push(ctx, b); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	got, err := db.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got.ID != "b1" || got.Root != "/downloads" {
		t.Errorf("unexpected batch %+v", got)
	}
	if len(got.Records) != 2 || got.Records[0].Original != "/downloads/report.pdf" {
		t.Errorf("records out of order: %+v", got.Records)
	}
	if got.Records[0].Size != 1024 {
		t.Errorf("expected size 1024, got %d", got.Records[0].Size)
	}
	if len(got.Folders) != 1 || got.Folders[0] != "/downloads/Documents" {
		t.Errorf("unexpected folders %v", got.Folders)
	}
}

func TestDB_StackOrder(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	db.Push(ctx, batch("first", organizer.MoveRecord{Final: "/d/A/a", Original: "/d/a"}))
	db.Push(ctx, batch("second", organizer.MoveRecord{Final: "/d/B/b", Original: "/d/b"}))

	got, _ := db.Latest(ctx)
	if got.ID != "second" {
		t.Fatalf("expected second on top, got %s", got.ID)
	}

	if err := db.Remove(ctx, "second"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	got, _ = db.Latest(ctx)
	if got.ID != "first" {
		t.Fatalf("expected first after removing second, got %s", got.ID)
	}

	db.Remove(ctx, "first")
	if _, err := db.Latest(ctx); err != organizer.ErrNothingToUndo {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestDB_EmptyBatchNotStored(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	if err := db.Push(ctx, batch("empty")); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if _, err := db.Latest(ctx); err != organizer.ErrNothingToUndo {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestDB_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	db.Push(ctx, batch("persisted", organizer.MoveRecord{Final: "/d/X/x", Original: "/d/x"}))
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	got, err := db.Latest(ctx)
	if err != nil || got.ID != "persisted" {
		t.Errorf("expected persisted batch, got %+v, %v", got, err)
	}
}

func TestDB_ListAndSearch(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	db.Push(ctx, batch("b1", organizer.MoveRecord{Final: "/d/Documents/report.pdf", Original: "/d/report.pdf", Size: 100}))
	db.Push(ctx, batch("b2",
		organizer.MoveRecord{Final: "/d/Images/cat.jpg", Original: "/d/cat.jpg", Size: 5},
		organizer.MoveRecord{Final: "/d/Images/dog.jpg", Original: "/d/dog.jpg", Size: 7},
	))
	db.Remove(ctx, "b1")

	list, err := db.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(list))
	}
	if list[0].ID != "b2" || list[0].Files != 2 || list[0].Size != 12 || list[0].UndoneAt != nil {
		t.Errorf("unexpected newest summary %+v", list[0])
	}
	if list[1].UndoneAt == nil {
		t.Error("expected b1 to be marked undone")
	}

	moves, err := db.Search(ctx, "report")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(moves) != 1 || !moves[0].Undone {
		t.Errorf("expected one undone move, got %+v", moves)
	}
}

func TestDB_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "dir", "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{512: "512 B", 2048: "2.0 KB", 5 << 20: "5.0 MB"}
	for in, want := range cases {
		if got := FormatSize(in); got != want {
			t.Errorf("FormatSize(%d) = %s, want %s", in, got, want)
		}
	}
}
