// Package session owns the mutable state of one organizer session: the
// rules table, the undo log and the state machine that keeps a sort and
// an undo from overlapping.
//
//	Idle -> Planning -> Idle
//	Idle -> Executing -> Idle (batch pushed to the undo log)
//	Idle -> Undoing -> Idle (batch taken off the undo log)
//
// Sort and Undo run on one background goroutine and report through a
// channel that is closed once the session is Idle again.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/0xjjjjjj/sortbox/internal/organizer"
	"github.com/0xjjjjjj/sortbox/internal/rules"
	"github.com/0xjjjjjj/sortbox/internal/scanner"
)

var (
	ErrBusy    = errors.New("a sort or undo is already running")
	ErrNoFiles = errors.New("no files to sort")
)

type State int

const (
	Idle State = iota
	Planning
	Executing
	Undoing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Planning:
		return "planning"
	case Executing:
		return "executing"
	case Undoing:
		return "undoing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Options struct {
	// Rules defaults to rules.Default().
	Rules *rules.Table
	// RulesPath is where UpdateRules persists; empty keeps edits in memory.
	RulesPath string
	// Log defaults to an in-memory stack.
	Log    organizer.UndoLog
	Ignore []string
	// LockPath, when set, also guards against other processes.
	LockPath string
	DryRun   bool
	Logger   *slog.Logger
}

type executor interface {
	Execute(ctx context.Context, plan *organizer.Plan, sink func(organizer.Event)) *organizer.Result
}

type Session struct {
	mu    sync.Mutex
	state State

	table     *rules.Table
	rulesPath string
	ignore    []string

	log      organizer.UndoLog
	lock     *flock.Flock
	executor executor
	dryRun   bool
	logger   *slog.Logger
}

func New(opts Options) *Session {
	s := &Session{
		table:     opts.Rules,
		rulesPath: opts.RulesPath,
		ignore:    opts.Ignore,
		log:       opts.Log,
		dryRun:    opts.DryRun,
		logger:    opts.Logger,
	}
	if s.table == nil {
		s.table = rules.Default()
	}
	if s.log == nil {
		s.log = organizer.NewMemoryLog()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if opts.LockPath != "" {
		s.lock = flock.New(opts.LockPath)
	}
	s.executor = organizer.NewExecutor(s.logger, opts.DryRun)
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Rules returns a snapshot of the active table.
func (s *Session) Rules() *rules.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _ := rules.New(s.table.Mapping())
	return t
}

// UpdateRules replaces the whole table with mapping and persists it. A
// mapping with invalid folder names is rejected and nothing changes. If
// only saving fails the new table is already active.
func (s *Session) UpdateRules(mapping map[string]string) error {
	next, err := rules.New(mapping)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.table = next
	s.mu.Unlock()

	if s.rulesPath == "" {
		return nil
	}
	if err := rules.Save(s.rulesPath, next); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	s.logger.Info("rules saved", "path", s.rulesPath, "entries", next.Len())
	return nil
}

func (s *Session) ListTopLevel(root string) ([]scanner.Entry, error) {
	return scanner.ListTopLevel(root)
}

// PlanSort plans root with the session's rules.
func (s *Session) PlanSort(ctx context.Context, root string) (*organizer.Plan, error) {
	return s.PlanWith(ctx, organizer.NewRulePlanner(s.Rules(), s.ignore), root)
}

// PlanWith plans root with any planner, e.g. a clustering one.
func (s *Session) PlanWith(ctx context.Context, planner organizer.Planner, root string) (*organizer.Plan, error) {
	if err := s.begin(Planning); err != nil {
		return nil, err
	}
	defer s.finish()

	plan, err := planner.Plan(ctx, root)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("plan ready", "root", root, "files", len(plan.Files), "folders", len(plan.ByFolder))
	return plan, nil
}

// Sort executes plan in the background. Cancelling ctx stops after the
// file in flight. The last event is EventCompleted carrying the result;
// its Err is set if the batch could not be recorded for undo.
func (s *Session) Sort(ctx context.Context, plan *organizer.Plan) (<-chan organizer.Event, error) {
	if plan == nil || plan.Empty() {
		return nil, ErrNoFiles
	}
	if err := s.begin(Executing); err != nil {
		return nil, err
	}

	// Large enough that the worker never waits on a slow reader.
	events := make(chan organizer.Event, 3*len(plan.Files)+1)
	go func() {
		res := s.executor.Execute(ctx, plan, func(ev organizer.Event) { events <- ev })

		var logErr error
		if !s.dryRun && !res.Batch.Empty() {
			if err := s.log.Push(context.WithoutCancel(ctx), res.Batch); err != nil {
				logErr = fmt.Errorf("record undo batch: %w", err)
				s.logger.Error("failed to record undo batch", "batch", res.Batch.ID, "error", err)
			}
		}

		s.finish()
		events <- organizer.Event{Kind: organizer.EventCompleted, Result: res, Err: logErr}
		close(events)
	}()
	return events, nil
}

// Undo reverses the most recent batch in the background. With nothing to
// undo it returns organizer.ErrNothingToUndo and touches nothing.
func (s *Session) Undo(ctx context.Context) (<-chan organizer.Event, error) {
	if err := s.begin(Undoing); err != nil {
		return nil, err
	}

	batch, err := s.log.Latest(ctx)
	if err != nil {
		s.finish()
		return nil, err
	}

	events := make(chan organizer.Event, len(batch.Records)+1)
	go func() {
		res := organizer.Undo(batch, s.logger, func(ev organizer.Event) { events <- ev })

		var logErr error
		if err := s.log.Remove(context.WithoutCancel(ctx), batch.ID); err != nil {
			logErr = fmt.Errorf("drop undo batch: %w", err)
			s.logger.Error("failed to drop undo batch", "batch", batch.ID, "error", err)
		}

		s.finish()
		events <- organizer.Event{Kind: organizer.EventCompleted, Undo: res, Err: logErr}
		close(events)
	}()
	return events, nil
}

// CanUndo reports whether the undo log holds a batch.
func (s *Session) CanUndo(ctx context.Context) bool {
	_, err := s.log.Latest(ctx)
	return err == nil
}

func (s *Session) begin(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return fmt.Errorf("%w (%s)", ErrBusy, s.state)
	}
	if s.lock != nil {
		if err := os.MkdirAll(filepath.Dir(s.lock.Path()), 0755); err != nil {
			return fmt.Errorf("lock directory: %w", err)
		}
		ok, err := s.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w in another process", ErrBusy)
		}
	}
	s.state = next
	return nil
}

func (s *Session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release lock", "path", s.lock.Path(), "error", err)
		}
	}
	s.state = Idle
}
