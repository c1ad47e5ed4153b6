// Package model defines database models for persistence layer.
package model

import (
	"fmt"

	"github.com/google/uuid"

	domainerror "github.com/care-plan/backend/internal/domain/error"
)

// entityStatusError reports a stored status string that cannot be parsed
// into the closed status enum. Bad data is rejected, never defaulted.
func entityStatusError(id uuid.UUID, raw string) error {
	return domainerror.NewOccurrenceError(
		domainerror.ErrCodeInvalidOccurrenceStatus,
		fmt.Sprintf("occurrence %s has unrecognized stored status %q", id, raw),
		domainerror.ErrInvalidOccurrenceStatus,
	)
}
