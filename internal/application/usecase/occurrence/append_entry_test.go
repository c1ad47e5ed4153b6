package occurrence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
	"github.com/care-plan/backend/internal/integration/persistence/memory"
)

func newAppendFixture(t *testing.T) (*AppendEntryUseCase, uuid.UUID) {
	t.Helper()

	repo := memory.NewOccurrenceRepository()
	occ := entity.NewOccurrence(uuid.New(), "dental-appt", time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC))
	if err := repo.Create(context.Background(), occ); err != nil {
		t.Fatalf("failed to seed occurrence: %v", err)
	}
	return NewAppendEntryUseCase(repo), occ.ID
}

func TestAppendEntryUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("comments keep insertion order, most recent last", func(t *testing.T) {
		uc, id := newAppendFixture(t)

		for i := 1; i <= 3; i++ {
			if _, err := uc.AppendComment(ctx, AppendCommentInput{OccurrenceID: id, Text: fmt.Sprintf("note %d", i)}); err != nil {
				t.Fatalf("append %d: unexpected error: %v", i, err)
			}
		}

		out, err := uc.AppendComment(ctx, AppendCommentInput{OccurrenceID: id, Text: "note 4"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Occurrence.Comments) != 4 {
			t.Fatalf("expected 4 comments, got %d", len(out.Occurrence.Comments))
		}
		for i, comment := range out.Occurrence.Comments {
			if want := fmt.Sprintf("note %d", i+1); comment.Text != want {
				t.Errorf("position %d: expected %q, got %q", i, want, comment.Text)
			}
		}
	})

	t.Run("files and comments are independent logs", func(t *testing.T) {
		uc, id := newAppendFixture(t)

		if _, err := uc.AppendComment(ctx, AppendCommentInput{OccurrenceID: id, Text: "visit went well"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out, err := uc.AppendFile(ctx, AppendFileInput{OccurrenceID: id, FileRef: "uploads/receipt.pdf"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Occurrence.Comments) != 1 || len(out.Occurrence.Files) != 1 {
			t.Errorf("expected 1 comment and 1 file, got %d and %d", len(out.Occurrence.Comments), len(out.Occurrence.Files))
		}
	})

	t.Run("concurrent appends are all retained", func(t *testing.T) {
		uc, id := newAppendFixture(t)

		const appenders = 20
		var wg sync.WaitGroup
		wg.Add(appenders)
		for i := 0; i < appenders; i++ {
			go func(i int) {
				defer wg.Done()
				if _, err := uc.AppendComment(ctx, AppendCommentInput{OccurrenceID: id, Text: fmt.Sprintf("carer %d", i)}); err != nil {
					t.Errorf("goroutine %d: unexpected error: %v", i, err)
				}
			}(i)
		}
		wg.Wait()

		out, err := uc.AppendComment(ctx, AppendCommentInput{OccurrenceID: id, Text: "final"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Occurrence.Comments) != appenders+1 {
			t.Errorf("expected %d comments, got %d", appenders+1, len(out.Occurrence.Comments))
		}
	})

	t.Run("blank comment is rejected", func(t *testing.T) {
		uc, id := newAppendFixture(t)

		_, err := uc.AppendComment(ctx, AppendCommentInput{OccurrenceID: id, Text: "   "})
		if !errors.Is(err, domainerror.ErrEmptyAppendEntry) {
			t.Errorf("expected ErrEmptyAppendEntry, got %v", err)
		}
	})

	t.Run("append to unknown occurrence fails with not found", func(t *testing.T) {
		uc, _ := newAppendFixture(t)

		_, err := uc.AppendFile(ctx, AppendFileInput{OccurrenceID: uuid.New(), FileRef: "uploads/x.pdf"})
		if !errors.Is(err, domainerror.ErrOccurrenceNotFound) {
			t.Errorf("expected ErrOccurrenceNotFound, got %v", err)
		}
	})
}
