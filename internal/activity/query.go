package activity

// Class is a predefined filter class.
type Class string

const (
	ClassAll      Class = "all"
	ClassEdits    Class = "edits"
	ClassImports  Class = "imports"
	ClassShifts   Class = "shifts"
	ClassUndoable Class = "undoable"
)

// Filter selects entries. An empty Filter matches everything. When Actions
// is set, an entry must also have one of the listed actions.
type Filter struct {
	Class   Class
	Actions []Action
}

// Matches reports whether the entry passes the filter.
func (f Filter) Matches(e Entry) bool {
	if !f.Class.matches(e) {
		return false
	}
	if len(f.Actions) == 0 {
		return true
	}
	for _, a := range f.Actions {
		if e.Action == a {
			return true
		}
	}
	return false
}

func (c Class) matches(e Entry) bool {
	switch c {
	case ClassEdits:
		return e.Action == ActionEditCell || e.Action == ActionClearCell
	case ClassImports:
		return e.Action == ActionImportExcel || e.Action == ActionImportPriceList
	case ClassShifts:
		return e.Action.IsShift()
	case ClassUndoable:
		return e.Undoable()
	}
	return true
}

// Query returns copies of the matching entries, oldest first.
func (l *Log) Query(f Filter) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if f.Matches(*e) {
			out = append(out, *e)
		}
	}
	return out
}

// Summary counts entries per filter class.
type Summary struct {
	TotalActions int `json:"totalActions"`
	Edits        int `json:"edits"`
	Imports      int `json:"imports"`
	Shifts       int `json:"shifts"`
	Undoable     int `json:"undoable"`
}

// Summary returns the per-class counts.
func (l *Log) Summary() Summary {
	var s Summary
	for _, e := range l.entries {
		s.TotalActions++
		if ClassEdits.matches(*e) {
			s.Edits++
		}
		if ClassImports.matches(*e) {
			s.Imports++
		}
		if ClassShifts.matches(*e) {
			s.Shifts++
		}
		if ClassUndoable.matches(*e) {
			s.Undoable++
		}
	}
	return s
}
