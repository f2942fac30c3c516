package organizer

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNothingToUndo = errors.New("nothing to undo")

// MoveRecord says a file that lived at Original now lives at Final.
type MoveRecord struct {
	Final    string `json:"final"`
	Original string `json:"original"`
	Size     int64  `json:"size"`
}

// Batch is everything one sort moved, in move order. Folders holds the
// destination folders the sort had to create.
type Batch struct {
	ID        string       `json:"id"`
	Root      string       `json:"root"`
	CreatedAt time.Time    `json:"created_at"`
	Records   []MoveRecord `json:"records"`
	Folders   []string     `json:"folders,omitempty"`
}

func (b *Batch) Empty() bool { return b == nil || len(b.Records) == 0 }

// UndoLog holds sort batches newest last. Latest returns ErrNothingToUndo
// when there is none.
type UndoLog interface {
	Push(ctx context.Context, b *Batch) error
	Latest(ctx context.Context) (*Batch, error)
	Remove(ctx context.Context, id string) error
}

// MemoryLog is an UndoLog that lives as long as the process.
type MemoryLog struct {
	mu      sync.Mutex
	batches []*Batch
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Push(_ context.Context, b *Batch) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.batches = append(l.batches, b)
	return nil
}

func (l *MemoryLog) Latest(_ context.Context) (*Batch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.batches) == 0 {
		return nil, ErrNothingToUndo
	}
	return l.batches[len(l.batches)-1], nil
}

func (l *MemoryLog) Remove(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, b := range l.batches {
		if b.ID == id {
			l.batches = append(l.batches[:i], l.batches[i+1:]...)
			return nil
		}
	}
	return nil
}

func (l *MemoryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.batches)
}
