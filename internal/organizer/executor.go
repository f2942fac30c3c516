package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Result is what one Execute call did.
type Result struct {
	Batch     *Batch
	Failures  []ItemError
	Total     int
	Cancelled bool
}

type Executor struct {
	logger *slog.Logger
	dryRun bool
}

func NewExecutor(logger *slog.Logger, dryRun bool) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{logger: logger, dryRun: dryRun}
}

// Execute moves every planned file in plan order. A failing item is
// reported through sink and skipped; nothing is retried or rolled back.
// Cancelling ctx stops the loop before the next item and returns the
// partial batch.
func (e *Executor) Execute(ctx context.Context, plan *Plan, sink func(Event)) *Result {
	res := &Result{
		Batch: &Batch{
			ID:        uuid.NewString(),
			Root:      plan.Root,
			CreatedAt: time.Now(),
		},
		Total: len(plan.Files),
	}

	// In dry-run mode nothing is created, so remember what would be.
	ready := make(map[string]bool)
	claimed := make(map[string]bool)

	moved := 0
	for _, fp := range plan.Files {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}

		dest, err := e.moveOne(plan.Root, fp, ready, claimed, res.Batch, sink)
		if err != nil {
			ie := ItemError{Source: fp.Source, Err: err}
			res.Failures = append(res.Failures, ie)
			e.logger.Warn("move failed", "file", filepath.Base(fp.Source), "folder", fp.Folder, "error", err)
			emit(sink, Event{Kind: EventItemFailed, Source: fp.Source, Err: err})
			continue
		}

		moved++
		if !e.dryRun {
			res.Batch.Records = append(res.Batch.Records, MoveRecord{Final: dest, Original: fp.Source, Size: fp.Size})
		}
		emit(sink, Event{Kind: EventFileMoved, Source: fp.Source, Dest: dest})
		emit(sink, Event{Kind: EventProgress, Moved: moved, Total: res.Total})
	}

	e.logger.Info("sort finished",
		"root", plan.Root,
		"moved", moved,
		"failed", len(res.Failures),
		"total", res.Total,
		"cancelled", res.Cancelled,
		"dry_run", e.dryRun)
	return res
}

func (e *Executor) moveOne(root string, fp FilePlan, ready, claimed map[string]bool, batch *Batch, sink func(Event)) (string, error) {
	destDir := filepath.Join(root, fp.Folder)

	if !ready[destDir] {
		created := !isDir(destDir)
		if !e.dryRun {
			if err := os.MkdirAll(destDir, 0755); err != nil {
				return "", fmt.Errorf("create folder %s: %w", fp.Folder, err)
			}
		}
		ready[destDir] = true
		if created {
			batch.Folders = append(batch.Folders, destDir)
			emit(sink, Event{Kind: EventFolderCreated, Dest: destDir})
		}
	}

	name := filepath.Base(fp.Source)
	if e.dryRun {
		dest := allocateClaimed(destDir, name, claimed)
		e.logger.Debug("dry run", "source", fp.Source, "dest", dest)
		return dest, nil
	}

	dest := Allocate(destDir, name)
	if err := moveFile(fp.Source, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// allocateClaimed is Allocate that also avoids paths handed out earlier in
// the same dry run.
func allocateClaimed(dir, name string, claimed map[string]bool) string {
	dest := allocate(dir, name, func(p string) bool { return claimed[p] || exists(p) })
	claimed[dest] = true
	return dest
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
