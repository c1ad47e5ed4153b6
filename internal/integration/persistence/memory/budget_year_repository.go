package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
)

type budgetKey struct {
	clientID uuid.UUID
	year     int
}

// BudgetYearRepository is an in-memory adapter.BudgetYearRepository.
// Mutations serialize under the lock, which gives the same lost-update
// guarantee the durable store gets from its optimistic version check.
type BudgetYearRepository struct {
	mu    sync.Mutex
	years map[budgetKey]*entity.BudgetYear
}

// NewBudgetYearRepository creates a new in-memory budget year repository.
func NewBudgetYearRepository() *BudgetYearRepository {
	return &BudgetYearRepository{
		years: make(map[budgetKey]*entity.BudgetYear),
	}
}

var _ adapter.BudgetYearRepository = (*BudgetYearRepository)(nil)

// Create inserts a new budget year, enforcing (clientID, year) uniqueness.
func (r *BudgetYearRepository) Create(_ context.Context, year *entity.BudgetYear) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := budgetKey{clientID: year.ClientID, year: year.Year}
	if _, exists := r.years[key]; exists {
		return domainerror.NewBudgetError(
			domainerror.ErrCodeYearAlreadyRolled,
			fmt.Sprintf("budget year %d already exists for client %s", year.Year, year.ClientID),
			domainerror.ErrYearAlreadyRolled,
		)
	}
	r.years[key] = cloneBudgetYear(year)
	return nil
}

// FindByClientAndYear retrieves a client's budget year.
func (r *BudgetYearRepository) FindByClientAndYear(_ context.Context, clientID uuid.UUID, year int) (*entity.BudgetYear, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.years[budgetKey{clientID: clientID, year: year}]
	if !ok {
		return nil, domainerror.NewBudgetError(
			domainerror.ErrCodeBudgetYearNotFound,
			fmt.Sprintf("budget year %d not found for client %s", year, clientID),
			domainerror.ErrBudgetYearNotFound,
		)
	}
	return cloneBudgetYear(b), nil
}

// FindByClient retrieves all budget years for a client, most recent first.
func (r *BudgetYearRepository) FindByClient(_ context.Context, clientID uuid.UUID) ([]*entity.BudgetYear, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.BudgetYear
	for key, b := range r.years {
		if key.clientID == clientID {
			result = append(result, cloneBudgetYear(b))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Year > result[j].Year })
	return result, nil
}

// Mutate applies fn to the (possibly freshly created) budget year under
// the lock. An error from fn leaves stored state unchanged.
func (r *BudgetYearRepository) Mutate(_ context.Context, clientID uuid.UUID, year int, fn func(*entity.BudgetYear) error) (*entity.BudgetYear, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := budgetKey{clientID: clientID, year: year}
	stored, ok := r.years[key]
	if !ok {
		stored = entity.NewBudgetYear(clientID, year)
	}

	working := cloneBudgetYear(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.Version = stored.Version + 1
	working.UpdatedAt = time.Now().UTC()

	r.years[key] = working
	return cloneBudgetYear(working), nil
}

// cloneBudgetYear deep-copies a budget year so callers never share
// store-owned state.
func cloneBudgetYear(b *entity.BudgetYear) *entity.BudgetYear {
	clone := *b
	if b.RolledFromYear != nil {
		from := *b.RolledFromYear
		clone.RolledFromYear = &from
	}
	clone.Categories = make([]entity.BudgetCategory, len(b.Categories))
	for i, cat := range b.Categories {
		copied := cat
		copied.Items = append([]entity.BudgetItem(nil), cat.Items...)
		clone.Categories[i] = copied
	}
	return &clone
}
