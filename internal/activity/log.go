package activity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("activity entry not found")
	ErrNotUndoable   = errors.New("activity entry cannot be undone")
	ErrAlreadyUndone = errors.New("activity entry already undone")
	ErrNoInverse     = errors.New("undoable entry recorded without an inverse")
)

// Inverse reverts the mutation an entry recorded.
type Inverse func() error

// Sink receives a copy of every recorded or updated entry, typically to
// persist it. Sink failures never fail the log operation.
type Sink interface {
	SaveActivity(e Entry) error
}

// Options configures a Log. Zero values take defaults.
type Options struct {
	// Now is the clock. Default: time.Now
	Now func() time.Time

	// NewID generates entry ids. Default: uuid.NewString
	NewID func() string

	// User is stamped on every entry when set.
	User *User

	Sink   Sink
	Logger *zap.Logger
}

// Log is the per-session activity log. It is not safe for concurrent use;
// every session owns its own Log.
type Log struct {
	opts     Options
	entries  []*Entry
	inverses map[string]Inverse
	seq      int
}

// New creates an empty Log.
func New(opts Options) *Log {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Log{opts: opts, inverses: make(map[string]Inverse)}
}

// Record appends an entry and returns a copy of it.
//
// PARAMETERS:
//   - action: The action type; it decides CanUndo.
//   - description: Human-readable summary.
//   - details: Action-specific payload.
//   - inverse: Reverts the mutation. Required for undoable actions.
//
// RETURNS:
//   - The recorded entry, or ErrNoInverse when an undoable action has none.
func (l *Log) Record(action Action, description string, details Details, inverse Inverse) (Entry, error) {
	canUndo := UndoableByDefault(action)
	if canUndo && inverse == nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrNoInverse, action)
	}
	e := l.append(action, description, details, canUndo)
	if canUndo {
		l.inverses[e.ID] = inverse
	}
	return *e, nil
}

func (l *Log) append(action Action, description string, details Details, canUndo bool) *Entry {
	l.seq++
	e := &Entry{
		ID:          l.opts.NewID(),
		Seq:         l.seq,
		Action:      action,
		Description: description,
		Timestamp:   l.opts.Now(),
		Details:     details,
		User:        l.opts.User,
		CanUndo:     canUndo,
	}
	l.entries = append(l.entries, e)
	l.mirror(*e)
	return e
}

// Undo reverts an entry by running its inverse, marks it undone and appends
// an undo entry referencing it. A rejected undo leaves the log untouched.
func (l *Log) Undo(id string) (*Entry, error) {
	target := l.find(id)
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !target.CanUndo {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotUndoable, id, target.Action)
	}
	if target.Undone {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyUndone, id)
	}

	if err := l.inverses[id](); err != nil {
		return nil, fmt.Errorf("failed to undo %s: %w", id, err)
	}
	target.Undone = true
	delete(l.inverses, id)
	l.mirror(*target)

	undo := l.append(ActionUndo, "Undo: "+target.Description, Details{UndoOf: id}, false)
	out := *undo
	return &out, nil
}

// Get returns a copy of the entry with the given id.
func (l *Log) Get(id string) (Entry, bool) {
	e := l.find(id)
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Entries returns copies of all entries, oldest first.
func (l *Log) Entries() []Entry { return l.Query(Filter{}) }

// Clear drops all history. Applied mutations are not reverted.
func (l *Log) Clear() {
	l.entries = nil
	l.inverses = make(map[string]Inverse)
}

func (l *Log) find(id string) *Entry {
	for _, e := range l.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (l *Log) mirror(e Entry) {
	if l.opts.Sink == nil {
		return
	}
	if err := l.opts.Sink.SaveActivity(e); err != nil {
		l.opts.Logger.Warn("failed to persist activity entry",
			zap.String("id", e.ID),
			zap.String("action", string(e.Action)),
			zap.Error(err))
	}
}
