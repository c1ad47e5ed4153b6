package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
	"github.com/care-plan/backend/internal/integration/persistence/model"
)

// newBudgetYearDB opens a private in-memory database so concurrency
// scenarios can poke at rows behind the repository's back.
func newBudgetYearDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbSQL, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	dbSQL.SetMaxOpenConns(1)

	// TranslateError is on so unique-constraint hits surface as
	// gorm.ErrDuplicatedKey, matching the postgres setup.
	conn, err := gorm.Open(sqlite.Dialector{Conn: dbSQL}, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&model.BudgetYearModel{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func TestBudgetYearRepositoryMutate(t *testing.T) {
	ctx := context.Background()

	t.Run("retries past a stale version and applies the mutation", func(t *testing.T) {
		db := newBudgetYearDB(t)
		repo := NewBudgetYearRepository(db)
		clientID := uuid.New()

		if _, err := repo.Mutate(ctx, clientID, 2025, func(b *entity.BudgetYear) error {
			b.AnnualAllocated = 60000
			return nil
		}); err != nil {
			t.Fatalf("failed to seed budget year: %v", err)
		}

		// The first attempt loads the row, then a competing writer bumps
		// the version before the guarded update lands. The update must
		// touch zero rows and the loop must reload and go again.
		attempts := 0
		year, err := repo.Mutate(ctx, clientID, 2025, func(b *entity.BudgetYear) error {
			attempts++
			if attempts == 1 {
				if err := db.Exec(
					"UPDATE budget_years SET version = version + 1 WHERE client_id = ? AND year = ?",
					clientID, 2025,
				).Error; err != nil {
					return err
				}
			}
			b.OpeningCarryover = 5000
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 2 {
			t.Errorf("expected 2 attempts, got %d", attempts)
		}
		if year.OpeningCarryover != 5000 {
			t.Errorf("expected carryover 5000, got %d", year.OpeningCarryover)
		}

		reloaded, err := repo.FindByClientAndYear(ctx, clientID, 2025)
		if err != nil {
			t.Fatalf("failed to reload budget year: %v", err)
		}
		if reloaded.OpeningCarryover != 5000 {
			t.Errorf("expected persisted carryover 5000, got %d", reloaded.OpeningCarryover)
		}
		if reloaded.AnnualAllocated != 60000 {
			t.Errorf("expected annual allocation preserved at 60000, got %d", reloaded.AnnualAllocated)
		}
	})

	t.Run("exhausted retries surface the concurrency conflict", func(t *testing.T) {
		db := newBudgetYearDB(t)
		repo := NewBudgetYearRepository(db)
		clientID := uuid.New()

		if _, err := repo.Mutate(ctx, clientID, 2025, func(b *entity.BudgetYear) error {
			b.AnnualAllocated = 60000
			return nil
		}); err != nil {
			t.Fatalf("failed to seed budget year: %v", err)
		}

		// Every attempt loses: the competing writer bumps the version on
		// each pass, so every guarded update sees a stale version.
		attempts := 0
		_, err := repo.Mutate(ctx, clientID, 2025, func(b *entity.BudgetYear) error {
			attempts++
			return db.Exec(
				"UPDATE budget_years SET version = version + 1 WHERE client_id = ? AND year = ?",
				clientID, 2025,
			).Error
		})
		if !errors.Is(err, domainerror.ErrConcurrencyConflict) {
			t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
		}
		if attempts != mutateMaxAttempts {
			t.Errorf("expected %d attempts, got %d", mutateMaxAttempts, attempts)
		}
	})

	t.Run("an expired deadline surfaces as storage unavailable", func(t *testing.T) {
		db := newBudgetYearDB(t)
		repo := NewBudgetYearRepository(db)
		clientID := uuid.New()

		if _, err := repo.Mutate(ctx, clientID, 2025, func(b *entity.BudgetYear) error {
			b.AnnualAllocated = 60000
			return nil
		}); err != nil {
			t.Fatalf("failed to seed budget year: %v", err)
		}

		expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
		defer cancel()

		_, err := repo.FindByClientAndYear(expired, clientID, 2025)
		if !errors.Is(err, domainerror.ErrStorageUnavailable) {
			t.Fatalf("expected ErrStorageUnavailable, got %v", err)
		}

		_, err = repo.Mutate(expired, clientID, 2025, func(b *entity.BudgetYear) error {
			b.OpeningCarryover = 5000
			return nil
		})
		if !errors.Is(err, domainerror.ErrStorageUnavailable) {
			t.Fatalf("expected ErrStorageUnavailable from mutate, got %v", err)
		}
	})
}
