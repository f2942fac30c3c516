package organizer

type EventKind string

const (
	EventProgress      EventKind = "progress"
	EventFolderCreated EventKind = "folder_created"
	EventFileMoved     EventKind = "file_moved"
	EventItemFailed    EventKind = "item_failed"
	EventItemRestored  EventKind = "item_restored"
	EventCompleted     EventKind = "completed"
)

// Event is emitted by Execute and Undo in processing order.
//
// Source/Dest carry the paths an event is about: for a move, the original
// and the final path; for a restore, the final path and where the file
// ended up; for folder creation, only Dest. Moved/Total are set on
// progress events. Result or Undo is set on the closing completed event.
type Event struct {
	Kind   EventKind
	Source string
	Dest   string
	Moved  int
	Total  int
	Err    error
	Result *Result
	Undo   *UndoResult
}

// ItemError is a per-file failure. The file stays where it was.
type ItemError struct {
	Source string
	Err    error
}

func (e ItemError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e ItemError) Unwrap() error { return e.Err }

func emit(sink func(Event), ev Event) {
	if sink != nil {
		sink(ev)
	}
}
