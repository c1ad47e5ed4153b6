// Package entity defines the core business entities for the domain layer.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecurrenceUnit represents the calendar unit of a recurrence rule.
type RecurrenceUnit string

const (
	RecurrenceUnitDay   RecurrenceUnit = "day"
	RecurrenceUnitWeek  RecurrenceUnit = "week"
	RecurrenceUnitMonth RecurrenceUnit = "month"
	RecurrenceUnitYear  RecurrenceUnit = "year"
)

// RecurrenceRule describes "every N units" scheduling for a care item.
// StartDate is the fallback anchor when no completion history exists.
// RangeEnd, when set, bounds generation: no occurrence is ever produced
// past it.
type RecurrenceRule struct {
	Count     int
	Unit      RecurrenceUnit
	StartDate *time.Time
	RangeEnd  *time.Time
}

// CareItem represents a recurring care task template for one client.
// Occurrences reference it by slug, not by ID, so occurrence history
// survives template edits.
type CareItem struct {
	ID         uuid.UUID
	ClientID   uuid.UUID
	Slug       string
	Label      string
	CategoryID string
	Rule       RecurrenceRule
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewCareItem creates a new CareItem entity with a normalized slug.
func NewCareItem(clientID uuid.UUID, slug, label, categoryID string, rule RecurrenceRule) *CareItem {
	now := time.Now().UTC()

	return &CareItem{
		ID:         uuid.New(),
		ClientID:   clientID,
		Slug:       NormalizeSlug(slug),
		Label:      label,
		CategoryID: categoryID,
		Rule:       rule,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NormalizeSlug lower-cases and trims a care item slug. Occurrence
// identity comparison is case-insensitive, so every slug is normalized
// once at the boundary.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// isValidRecurrenceUnit reports whether the unit is one of the closed set.
func isValidRecurrenceUnit(unit RecurrenceUnit) bool {
	switch unit {
	case RecurrenceUnitDay, RecurrenceUnitWeek, RecurrenceUnitMonth, RecurrenceUnitYear:
		return true
	}
	return false
}

// ValidUnit reports whether the rule's unit is recognized.
func (r RecurrenceRule) ValidUnit() bool {
	return isValidRecurrenceUnit(r.Unit)
}
