// Package entity defines the core business entities for the domain layer.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OccurrenceStatus represents the stored lifecycle status of an occurrence.
type OccurrenceStatus string

const (
	OccurrenceStatusDue       OccurrenceStatus = "due"
	OccurrenceStatusCompleted OccurrenceStatus = "completed"
)

// DisplayStatus is the derived, presentation-facing status of an
// occurrence. It is a function of the stored status and the current
// date and is never persisted.
type DisplayStatus string

const (
	DisplayStatusPending   DisplayStatus = "pending"
	DisplayStatusOverdue   DisplayStatus = "overdue"
	DisplayStatusCompleted DisplayStatus = "completed"
)

// ParseOccurrenceStatus normalizes a loose status string into the closed
// enum. Legacy data carries case variants and truncations ("Completed",
// "complete"); anything unrecognized is rejected, never defaulted.
func ParseOccurrenceStatus(raw string) (OccurrenceStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "due", "pending":
		return OccurrenceStatusDue, true
	case "completed", "complete", "done":
		return OccurrenceStatusCompleted, true
	}
	return "", false
}

// DateKeyLayout is the normalized calendar-date format used for
// occurrence identity.
const DateKeyLayout = "2006-01-02"

// DateKey derives the time-zone-independent calendar-date string used as
// part of occurrence identity.
func DateKey(t time.Time) string {
	return NormalizeDate(t).Format(DateKeyLayout)
}

// NormalizeDate truncates a timestamp to a calendar date in UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OccurrenceComment is one entry in an occurrence's append-only comment log.
type OccurrenceComment struct {
	ID           uuid.UUID
	OccurrenceID uuid.UUID
	Text         string
	CreatedAt    time.Time
}

// OccurrenceFile is one entry in an occurrence's append-only file log.
type OccurrenceFile struct {
	ID           uuid.UUID
	OccurrenceID uuid.UUID
	FileRef      string
	CreatedAt    time.Time
}

// Occurrence represents one concrete, dated instance of a recurring care
// item for one client. Identity is the triple
// (ClientID, CareItemSlug, DateKey); the slug is stored lower-case.
type Occurrence struct {
	ID             uuid.UUID
	ClientID       uuid.UUID
	CareItemSlug   string
	Date           time.Time
	DateKey        string
	Status         OccurrenceStatus
	CompletedAt    *time.Time
	CompletionCost *Money
	Comments       []OccurrenceComment
	Files          []OccurrenceFile
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewOccurrence creates a new Occurrence entity in the Due state with a
// normalized identity.
func NewOccurrence(clientID uuid.UUID, careItemSlug string, date time.Time) *Occurrence {
	now := time.Now().UTC()
	normalized := NormalizeDate(date)

	return &Occurrence{
		ID:           uuid.New(),
		ClientID:     clientID,
		CareItemSlug: NormalizeSlug(careItemSlug),
		Date:         normalized,
		DateKey:      normalized.Format(DateKeyLayout),
		Status:       OccurrenceStatusDue,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsCompleted reports whether the occurrence has been completed.
func (o *Occurrence) IsCompleted() bool {
	return o.Status == OccurrenceStatusCompleted
}
