// Package recurrence contains the pure recurrence calculation logic.
package recurrence

import (
	"fmt"
	"time"

	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
)

// MaxSequenceLength bounds due-date sequence generation so a
// misconfigured rule can never produce an unbounded walk.
const MaxSequenceLength = 366

// ValidateRule checks a recurrence rule's structural invariants.
func ValidateRule(rule entity.RecurrenceRule) error {
	if rule.Count < 1 {
		return domainerror.NewRecurrenceError(
			domainerror.ErrCodeInvalidRecurrenceCount,
			fmt.Sprintf("recurrence count must be at least 1, got %d", rule.Count),
			domainerror.ErrInvalidRecurrenceCount,
		)
	}
	if !rule.ValidUnit() {
		return domainerror.NewRecurrenceError(
			domainerror.ErrCodeInvalidRecurrenceUnit,
			fmt.Sprintf("recurrence unit must be day, week, month, or year, got %q", rule.Unit),
			domainerror.ErrInvalidRecurrenceUnit,
		)
	}
	return nil
}

// Anchor resolves the date the next due computation starts from: the
// last completion when one exists, otherwise the rule's start date. A
// rule with neither is unsatisfiable and fails rather than guessing.
func Anchor(lastCompleted *time.Time, rule entity.RecurrenceRule) (time.Time, error) {
	if lastCompleted != nil {
		return entity.NormalizeDate(*lastCompleted), nil
	}
	if rule.StartDate != nil {
		return entity.NormalizeDate(*rule.StartDate), nil
	}
	return time.Time{}, domainerror.NewRecurrenceError(
		domainerror.ErrCodeIncompleteRule,
		"rule has no completion history and no start date",
		domainerror.ErrIncompleteRule,
	)
}

// ComputeNextDue adds rule.Count units of rule.Unit to lastEventDate
// using calendar arithmetic. Month and year addition clamps to the last
// valid day of the target month (Jan 31 + 1 month is the last day of
// February), never a fixed day-count approximation. The second return
// value is false when the computed date would exceed rule.RangeEnd.
func ComputeNextDue(lastEventDate time.Time, rule entity.RecurrenceRule) (time.Time, bool, error) {
	if err := ValidateRule(rule); err != nil {
		return time.Time{}, false, err
	}

	anchor := entity.NormalizeDate(lastEventDate)

	var next time.Time
	switch rule.Unit {
	case entity.RecurrenceUnitDay:
		next = anchor.AddDate(0, 0, rule.Count)
	case entity.RecurrenceUnitWeek:
		next = anchor.AddDate(0, 0, rule.Count*7)
	case entity.RecurrenceUnitMonth:
		next = addMonthsClamped(anchor, rule.Count)
	case entity.RecurrenceUnitYear:
		next = addMonthsClamped(anchor, rule.Count*12)
	}

	if rule.RangeEnd != nil && next.After(entity.NormalizeDate(*rule.RangeEnd)) {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// DueDatesUntil returns the bounded sequence of due dates strictly after
// the anchor up to and including horizon. Generation stops at the rule's
// range end and at MaxSequenceLength.
func DueDatesUntil(anchor time.Time, rule entity.RecurrenceRule, horizon time.Time) ([]time.Time, error) {
	if err := ValidateRule(rule); err != nil {
		return nil, err
	}

	var dates []time.Time
	cursor := entity.NormalizeDate(anchor)
	limit := entity.NormalizeDate(horizon)

	for len(dates) < MaxSequenceLength {
		next, ok, err := ComputeNextDue(cursor, rule)
		if err != nil {
			return nil, err
		}
		if !ok || next.After(limit) {
			break
		}
		dates = append(dates, next)
		cursor = next
	}
	return dates, nil
}

// addMonthsClamped adds months with day-of-month clamping. Go's AddDate
// normalizes Jan 31 + 1 month to Mar 3; the schedule needs the last day
// of February instead, and clamping keeps month-end anchors from
// drifting across many occurrences.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, time.UTC)
}
