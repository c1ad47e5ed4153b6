// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Money is an amount in integer minor units (cents). All internal
// arithmetic uses Money so that repeated small deltas never accumulate
// floating-point drift; decimal values exist only at the boundary.
type Money int64

// MoneyFromDecimal converts a boundary decimal amount into minor units,
// rounding to the nearest cent.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(2).Round(0).IntPart())
}

// Decimal converts minor units back into a boundary decimal amount.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// BudgetItem is the leaf of the budget tree: spend and allocation for a
// single care item within a category.
type BudgetItem struct {
	CareItemSlug string
	Label        string
	Allocated    Money
	Spent        Money
}

// BudgetCategory groups budget items. Category-level allocation is
// independent of the sum of its item allocations: categories may be
// allocated in bulk before items are itemized.
type BudgetCategory struct {
	CategoryID   string
	CategoryName string
	Allocated    Money
	Spent        Money
	Items        []BudgetItem
}

// BudgetTotals is the cached rollup over categories. Leaves are the
// source of truth; totals is a derived index over them.
type BudgetTotals struct {
	Allocated Money
	Spent     Money
}

// BudgetYear is one client's budget envelope for one calendar year.
// Identity is (ClientID, Year). Historical years are retained for audit.
type BudgetYear struct {
	ID               uuid.UUID
	ClientID         uuid.UUID
	Year             int
	AnnualAllocated  Money
	OpeningCarryover Money
	RolledFromYear   *int
	Surplus          Money
	Categories       []BudgetCategory
	Totals           BudgetTotals
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewBudgetYear creates an empty BudgetYear for a client.
func NewBudgetYear(clientID uuid.UUID, year int) *BudgetYear {
	now := time.Now().UTC()

	return &BudgetYear{
		ID:        uuid.New(),
		ClientID:  clientID,
		Year:      year,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FindCategory returns the category with the given ID, or nil.
func (b *BudgetYear) FindCategory(categoryID string) *BudgetCategory {
	for i := range b.Categories {
		if b.Categories[i].CategoryID == categoryID {
			return &b.Categories[i]
		}
	}
	return nil
}

// FindItem returns the item with the given slug within the category, or nil.
func (c *BudgetCategory) FindItem(careItemSlug string) *BudgetItem {
	slug := NormalizeSlug(careItemSlug)
	for i := range c.Items {
		if c.Items[i].CareItemSlug == slug {
			return &c.Items[i]
		}
	}
	return nil
}

// RecomputeTotals rebuilds category spent rollups, the year totals, and
// the cached surplus from the leaves. It must be called by the same
// mutation that changes any leaf, annual allocation, or carryover.
func (b *BudgetYear) RecomputeTotals() {
	var totalAllocated, totalSpent Money
	for i := range b.Categories {
		cat := &b.Categories[i]
		var catSpent Money
		for _, item := range cat.Items {
			catSpent += item.Spent
		}
		cat.Spent = catSpent
		totalAllocated += cat.Allocated
		totalSpent += cat.Spent
	}
	b.Totals.Allocated = totalAllocated
	b.Totals.Spent = totalSpent
	b.Surplus = b.AnnualAllocated + b.OpeningCarryover - b.Totals.Spent
}

// RollupDrift reports whether the cached totals disagree with the sums
// over the leaves. A drift is an invariant violation and is surfaced,
// never silently repaired.
func (b *BudgetYear) RollupDrift() bool {
	var totalAllocated, totalSpent Money
	for _, cat := range b.Categories {
		var catSpent Money
		for _, item := range cat.Items {
			catSpent += item.Spent
		}
		if cat.Spent != catSpent {
			return true
		}
		totalAllocated += cat.Allocated
		totalSpent += cat.Spent
	}
	return b.Totals.Allocated != totalAllocated || b.Totals.Spent != totalSpent
}

// BudgetCategorySummary is a category with its derived overspend flag.
type BudgetCategorySummary struct {
	Category  BudgetCategory
	Overspent bool
}

// BudgetSummary is the read model for one budget year: the nested
// document plus derived reporting fields. Overspend is reportable, not
// an error.
type BudgetSummary struct {
	Year       *BudgetYear
	Surplus    Money
	Categories []BudgetCategorySummary
}
