package session

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ginjaninja78/watson-validator/internal/activity"
	"github.com/ginjaninja78/watson-validator/internal/records"
	"github.com/ginjaninja78/watson-validator/internal/suggestions"
	"github.com/ginjaninja78/watson-validator/internal/types"
)

// =============================================================================
// SUGGESTION APPLY
// =============================================================================

// ApplySuggestion regenerates suggestions, then applies the one with the
// given id and logs it. An unknown, already applied or stale id is a no-op
// that logs nothing and returns false.
func (s *Session) ApplySuggestion(id string) bool {
	if s.generation == 0 {
		return false
	}
	s.refresh()
	sg, ok := suggestions.Find(s.groups, id)
	if !ok {
		s.logger.Debug("suggestion not available", zap.String("id", id))
		return false
	}
	inverse, ok := s.apply(sg)
	if !ok {
		return false
	}

	details := activity.Details{
		RowIndex:      activity.IntPtr(sg.RowIndex),
		ColumnName:    sg.ColumnName,
		FixedCount:    1,
		SuggestionIDs: []string{sg.ID},
	}
	if sg.Preview != nil && !sg.RowLevel() {
		details.OldValue = activity.CellPtr(sg.Preview.Before)
		details.NewValue = activity.CellPtr(sg.Preview.After)
	}
	if sg.ColumnIndex >= 0 && sg.Type != suggestions.TypeDeleteRow {
		details.ColumnIndex = activity.IntPtr(sg.ColumnIndex)
	}
	if _, err := s.log.Record(suggestions.ActionFor(sg.Type), sg.Title+": "+sg.Description, details, inverse); err != nil {
		s.logger.Warn("failed to log suggestion", zap.String("id", id), zap.Error(err))
	}
	s.refresh()
	return true
}

// ApplyGroup applies the still-unapplied members of a category in list
// order, skipping destructive ones and any that went stale after an earlier
// member was applied. It logs one auto-fix entry and returns the number
// applied.
func (s *Session) ApplyGroup(category string) int {
	return s.applyBatch(fmt.Sprintf("Apply %s fixes", strings.ToLower(category)), func(g suggestions.Group, sg suggestions.Suggestion) bool {
		return g.Category == category && sg.Severity != suggestions.SeverityDestructive
	})
}

// ApplyAllAuto applies every auto-severity suggestion across all groups and
// logs one auto-fix entry. It returns the number applied.
func (s *Session) ApplyAllAuto() int {
	return s.applyBatch("Apply all automatic fixes", func(_ suggestions.Group, sg suggestions.Suggestion) bool {
		return sg.Severity == suggestions.SeverityAuto
	})
}

func (s *Session) applyBatch(description string, want func(suggestions.Group, suggestions.Suggestion) bool) int {
	if s.generation == 0 {
		return 0
	}
	s.refresh()

	var (
		inverses []activity.Inverse
		ids      []string
	)
	for _, g := range s.groups {
		for _, sg := range g.Suggestions {
			if !want(g, sg) || s.applied[sg.ID] {
				continue
			}
			inverse, ok := s.apply(sg)
			if !ok {
				continue
			}
			inverses = append(inverses, inverse)
			ids = append(ids, sg.ID)
		}
	}
	if len(ids) == 0 {
		return 0
	}

	undoAll := s.guard(func() error {
		for i := len(inverses) - 1; i >= 0; i-- {
			if err := inverses[i](); err != nil {
				return err
			}
		}
		return nil
	})
	if _, err := s.log.Record(activity.ActionAutoFix,
		fmt.Sprintf("%s (%d)", description, len(ids)),
		activity.Details{FixedCount: len(ids), SuggestionIDs: ids},
		undoAll); err != nil {
		s.logger.Warn("failed to log batch apply", zap.Error(err))
	}
	s.logger.Debug("applied suggestions", zap.Int("count", len(ids)), zap.Strings("ids", ids))
	s.refresh()
	return len(ids)
}

// apply performs one suggestion against the current records and marks it
// applied. It returns the inverse, which restores the touched row and
// unmarks the id, or false when the suggestion is stale.
func (s *Session) apply(sg suggestions.Suggestion) (activity.Inverse, bool) {
	var before types.Record
	if idx := records.IndexOf(s.records, sg.OriginalRowIndex); idx >= 0 {
		before = s.records[idx].Clone()
	}

	next, err := s.engine.Apply(s.records, s.headers, sg)
	if err != nil {
		s.logger.Debug("suggestion not applied", zap.String("id", sg.ID), zap.Error(err))
		return nil, false
	}
	s.records = next
	s.applied[sg.ID] = true

	var restore activity.Inverse
	switch {
	case sg.Type == suggestions.TypeDeleteRow:
		restore = s.reinsert(before)
	case sg.Preview != nil && !sg.RowLevel():
		restore = s.restoreCell(sg.OriginalRowIndex, sg.ColumnName, sg.Preview.Before)
	default:
		restore = s.restoreRow(sg.OriginalRowIndex, sg.Snapshot)
	}
	inverse := func() error {
		if err := restore(); err != nil {
			return err
		}
		delete(s.applied, sg.ID)
		return nil
	}
	return inverse, true
}
