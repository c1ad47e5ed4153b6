// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"fmt"

	domainerror "github.com/care-plan/backend/internal/domain/error"
)

// translateStorageErr maps transport-level failures (caller-supplied
// timeouts, cancellations) to the retryable storage error kind. A
// timeout surfaces as StorageUnavailable, never as a silent partial
// write: the failed statement was never committed.
func translateStorageErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerror.NewStorageError(
			domainerror.ErrCodeStorageUnavailable,
			fmt.Sprintf("%s timed out", op),
			domainerror.ErrStorageUnavailable,
		)
	}
	return err
}
