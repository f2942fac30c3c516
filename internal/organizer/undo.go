package organizer

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type UndoResult struct {
	BatchID     string
	Restored    []MoveRecord
	Failures    []ItemError
	RemovedDirs []string
}

// Undo moves every file of batch back next to where it came from, newest
// move first. If the original slot has been taken since, the file gets a
// "name (n).ext" path in the same directory. Failures are collected and
// the rest still run. Afterwards destination folders left empty are
// removed; errors there are ignored.
//
// Undo does not touch the log; the caller drops the batch.
func Undo(batch *Batch, logger *slog.Logger, sink func(Event)) *UndoResult {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	res := &UndoResult{BatchID: batch.ID}

	for i := len(batch.Records) - 1; i >= 0; i-- {
		rec := batch.Records[i]
		dest := Allocate(filepath.Dir(rec.Original), filepath.Base(rec.Original))

		if err := moveFile(rec.Final, dest); err != nil {
			ie := ItemError{Source: rec.Final, Err: err}
			res.Failures = append(res.Failures, ie)
			logger.Warn("restore failed", "file", rec.Final, "error", err)
			emit(sink, Event{Kind: EventItemFailed, Source: rec.Final, Err: err})
			continue
		}

		res.Restored = append(res.Restored, MoveRecord{Final: rec.Final, Original: dest, Size: rec.Size})
		emit(sink, Event{Kind: EventItemRestored, Source: rec.Final, Dest: dest})
	}

	res.RemovedDirs = removeEmptyDirs(batch)
	logger.Info("undo finished",
		"batch", batch.ID,
		"restored", len(res.Restored),
		"failed", len(res.Failures),
		"removed_dirs", len(res.RemovedDirs))
	return res
}

// removeEmptyDirs tries to remove every folder the batch created or moved
// into, deepest first. os.Remove refuses non-empty directories, which is
// exactly the filter we want.
func removeEmptyDirs(batch *Batch) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if seen[dir] || dir == filepath.Clean(batch.Root) {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	for _, d := range batch.Folders {
		add(d)
	}
	for _, rec := range batch.Records {
		add(filepath.Dir(rec.Final))
	}

	sort.Slice(dirs, func(i, j int) bool {
		di := strings.Count(dirs[i], string(filepath.Separator))
		dj := strings.Count(dirs[j], string(filepath.Separator))
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})

	var removed []string
	for _, d := range dirs {
		if !isDir(d) {
			continue
		}
		if err := os.Remove(d); err == nil {
			removed = append(removed, d)
		}
	}
	return removed
}
