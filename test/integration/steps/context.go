// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/application/usecase/budget"
	"github.com/care-plan/backend/internal/application/usecase/occurrence"
	"github.com/care-plan/backend/internal/application/usecase/rollover"
	"github.com/care-plan/backend/internal/domain/entity"
	"github.com/care-plan/backend/internal/infra/server/router"
	"github.com/care-plan/backend/internal/integration/adapters"
	"github.com/care-plan/backend/internal/integration/entrypoint/controller"
	"github.com/care-plan/backend/internal/integration/persistence"
	"github.com/care-plan/backend/internal/integration/persistence/memory"
	"github.com/care-plan/backend/internal/integration/persistence/model"
	"github.com/care-plan/backend/test/integration/mock"
)

// testContext holds the test state for each scenario.
type testContext struct {
	server       *httptest.Server
	engine       *gin.Engine
	client       *http.Client
	responseCode int
	responseBody map[string]any

	db       *mock.Db
	clock    *memory.Clock
	clientID uuid.UUID
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		gin.SetMode(gin.TestMode)
	})
}

// InitializeScenario wires the full stack against in-memory sqlite and
// miniredis, and registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	test := &testContext{
		client: &http.Client{Timeout: 10 * time.Second},
		clock:  memory.NewClock(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)),
		db: mock.NewDb([]any{
			&model.CareItemModel{},
			&model.OccurrenceModel{},
			&model.OccurrenceCommentModel{},
			&model.OccurrenceFileModel{},
			&model.BudgetYearModel{},
		}),
	}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		if err := test.db.Reset(); err != nil {
			return ctx, fmt.Errorf("failed to reset database: %w", err)
		}
		test.clock.Set(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))
		redisClient := mock.NewRedis()
		if err := mock.ClearRedis(redisClient); err != nil {
			return ctx, fmt.Errorf("failed to clear redis: %w", err)
		}

		occurrenceRepo := persistence.NewOccurrenceRepository(test.db.DbConn)
		budgetRepo := persistence.NewBudgetYearRepository(test.db.DbConn)
		catalog := persistence.NewCareItemRepository(test.db.DbConn)
		cache := adapters.NewBudgetSummaryCache(redisClient, time.Minute)

		applySpend := budget.NewApplySpendDeltaUseCase(budgetRepo, cache)
		materialize := occurrence.NewMaterializeOccurrenceUseCase(occurrenceRepo, catalog)

		scheduleController := controller.NewScheduleController(
			occurrence.NewMaterializeScheduleUseCase(catalog, occurrenceRepo, materialize, test.clock),
			materialize,
			occurrence.NewRecordCompletionUseCase(occurrenceRepo, catalog, applySpend),
			occurrence.NewAppendEntryUseCase(occurrenceRepo),
		)
		budgetController := controller.NewBudgetController(
			budget.NewGetBudgetSummaryUseCase(budgetRepo, cache),
			budget.NewSetAllocationUseCase(budgetRepo, cache),
			budget.NewSetAnnualAllocationUseCase(budgetRepo, cache),
			rollover.NewRolloverYearUseCase(budgetRepo, cache, test.clock, rollover.Policy{}),
		)
		healthController := controller.NewHealthController(func() bool { return true }, nil)

		r := router.NewRouter(healthController, scheduleController, budgetController, nil)
		test.engine = r.Setup("test")
		test.server = httptest.NewServer(test.engine)
		test.clientID = uuid.New()
		test.responseCode = 0
		test.responseBody = nil

		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if test.server != nil {
			test.server.Close()
		}
		return ctx, nil
	})

	// Setup steps
	ctx.Given(`^the API server is running$`, test.theAPIServerIsRunning)
	ctx.Step(`^today is "([^"]*)"$`, test.todayIs)
	ctx.Given(`^the client has a care item "([^"]*)" in category "([^"]*)" recurring every (\d+) (day|week|month|year)s? starting "([^"]*)"$`, test.theClientHasACareItem)
	ctx.Given(`^the annual budget for (\d+) is "([^"]*)"$`, test.theAnnualBudgetIs)
	ctx.Given(`^the category "([^"]*)" is allocated "([^"]*)" for (\d+)$`, test.theCategoryIsAllocated)

	// Action steps
	ctx.When(`^I load the schedule up to "([^"]*)"$`, test.iLoadTheSchedule)
	ctx.When(`^I complete the occurrence of "([^"]*)" on "([^"]*)" with cost "([^"]*)"$`, test.iCompleteTheOccurrence)
	ctx.When(`^I complete the occurrence of "([^"]*)" on "([^"]*)" again with cost "([^"]*)"$`, test.iCompleteTheOccurrenceAgain)
	ctx.When(`^I complete the occurrence of "([^"]*)" on "([^"]*)" again with cost "([^"]*)" allowing re-completion$`, test.iCompleteTheOccurrenceAgainAllowed)
	ctx.When(`^I add the comment "([^"]*)" to the occurrence of "([^"]*)" on "([^"]*)"$`, test.iAddTheComment)
	ctx.When(`^I request the budget summary for (\d+)$`, test.iRequestTheBudgetSummary)
	ctx.When(`^I roll the budget year (\d+) over$`, test.iRollTheBudgetYearOver)

	// Assertion steps
	ctx.Then(`^the response status should be (\d+)$`, test.theResponseStatusShouldBe)
	ctx.Then(`^the response code should be "([^"]*)"$`, test.theResponseCodeShouldBe)
	ctx.Then(`^the schedule should contain (\d+) entries$`, test.theScheduleShouldContainEntries)
	ctx.Then(`^the schedule should show "([^"]*)" on "([^"]*)" as "([^"]*)"$`, test.theScheduleShouldShow)
	ctx.Then(`^the summary surplus should be "([^"]*)"$`, test.theSummarySurplusShouldBe)
	ctx.Then(`^the category "([^"]*)" should be overspent$`, test.theCategoryShouldBeOverspent)
	ctx.Then(`^the category "([^"]*)" should not be overspent$`, test.theCategoryShouldNotBeOverspent)
	ctx.Then(`^the occurrence should have (\d+) comments?$`, test.theOccurrenceShouldHaveComments)
	ctx.Then(`^the opening carryover should be "([^"]*)"$`, test.theOpeningCarryoverShouldBe)
}

// HTTP helpers

func (t *testContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, t.server.URL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	t.responseCode = resp.StatusCode
	t.responseBody = nil
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &t.responseBody)
	}
	return nil
}

// findOccurrenceID looks an occurrence up by its identity triple.
func (t *testContext) findOccurrenceID(slug, dateKey string) (uuid.UUID, error) {
	var occ model.OccurrenceModel
	err := t.db.DbConn.
		Where("client_id = ? AND care_item_slug = ? AND date_key = ?", t.clientID, entity.NormalizeSlug(slug), dateKey).
		First(&occ).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("occurrence %s/%s not found: %w", slug, dateKey, err)
	}
	return occ.ID, nil
}

// Setup steps

func (t *testContext) theAPIServerIsRunning() error {
	if t.server == nil {
		return fmt.Errorf("test server is not running")
	}
	return nil
}

func (t *testContext) todayIs(date string) error {
	today, err := time.Parse(entity.DateKeyLayout, date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	t.clock.Set(today)
	return nil
}

func (t *testContext) theClientHasACareItem(slug, categoryID string, count int, unit, start string) error {
	startDate, err := time.Parse(entity.DateKeyLayout, start)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", start, err)
	}

	item := entity.NewCareItem(t.clientID, slug, slug, categoryID, entity.RecurrenceRule{
		Count:     count,
		Unit:      entity.RecurrenceUnit(unit),
		StartDate: &startDate,
	})
	return t.db.DbConn.Create(model.CareItemFromEntity(item)).Error
}

func (t *testContext) theAnnualBudgetIs(year int, amount string) error {
	if err := t.do(http.MethodPut, fmt.Sprintf("/api/v1/clients/%s/budget/%d/annual", t.clientID, year), map[string]any{
		"amount": amount,
	}); err != nil {
		return err
	}
	return t.expectStatus(http.StatusOK)
}

func (t *testContext) theCategoryIsAllocated(categoryID, amount string, year int) error {
	if err := t.do(http.MethodPut, fmt.Sprintf("/api/v1/clients/%s/budget/%d/allocations", t.clientID, year), map[string]any{
		"category_id": categoryID,
		"amount":      amount,
	}); err != nil {
		return err
	}
	return t.expectStatus(http.StatusOK)
}

// Action steps

func (t *testContext) iLoadTheSchedule(horizon string) error {
	return t.do(http.MethodGet, fmt.Sprintf("/api/v1/clients/%s/schedule?horizon=%s", t.clientID, horizon), nil)
}

func (t *testContext) iCompleteTheOccurrence(slug, date, cost string) error {
	return t.complete(slug, date, cost, false)
}

func (t *testContext) iCompleteTheOccurrenceAgain(slug, date, cost string) error {
	return t.complete(slug, date, cost, false)
}

func (t *testContext) iCompleteTheOccurrenceAgainAllowed(slug, date, cost string) error {
	return t.complete(slug, date, cost, true)
}

func (t *testContext) complete(slug, date, cost string, allowRecompletion bool) error {
	id, err := t.findOccurrenceID(slug, date)
	if err != nil {
		return err
	}
	body := map[string]any{
		"completion_date":    date,
		"allow_recompletion": allowRecompletion,
	}
	if cost != "" {
		body["cost"] = cost
	}
	return t.do(http.MethodPost, fmt.Sprintf("/api/v1/occurrences/%s/complete", id), body)
}

func (t *testContext) iAddTheComment(text, slug, date string) error {
	id, err := t.findOccurrenceID(slug, date)
	if err != nil {
		return err
	}
	return t.do(http.MethodPost, fmt.Sprintf("/api/v1/occurrences/%s/comments", id), map[string]any{
		"text": text,
	})
}

func (t *testContext) iRequestTheBudgetSummary(year int) error {
	return t.do(http.MethodGet, fmt.Sprintf("/api/v1/clients/%s/budget/%d", t.clientID, year), nil)
}

func (t *testContext) iRollTheBudgetYearOver(year int) error {
	return t.do(http.MethodPost, fmt.Sprintf("/api/v1/clients/%s/budget/%d/rollover", t.clientID, year), nil)
}

// Assertion steps

func (t *testContext) expectStatus(expected int) error {
	if t.responseCode != expected {
		return fmt.Errorf("expected status %d, got %d. Body: %v", expected, t.responseCode, t.responseBody)
	}
	return nil
}

func (t *testContext) theResponseStatusShouldBe(expected int) error {
	return t.expectStatus(expected)
}

func (t *testContext) theResponseCodeShouldBe(expected string) error {
	code, _ := t.responseBody["code"].(string)
	if code != expected {
		return fmt.Errorf("expected error code %q, got %q. Body: %v", expected, code, t.responseBody)
	}
	return nil
}

func (t *testContext) scheduleEntries() ([]any, error) {
	entries, ok := t.responseBody["entries"].([]any)
	if !ok {
		return nil, fmt.Errorf("response has no entries array: %v", t.responseBody)
	}
	return entries, nil
}

func (t *testContext) theScheduleShouldContainEntries(expected int) error {
	entries, err := t.scheduleEntries()
	if err != nil {
		return err
	}
	if len(entries) != expected {
		return fmt.Errorf("expected %d schedule entries, got %d", expected, len(entries))
	}
	return nil
}

func (t *testContext) theScheduleShouldShow(slug, date, displayStatus string) error {
	entries, err := t.scheduleEntries()
	if err != nil {
		return err
	}
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if entry["care_item_slug"] == entity.NormalizeSlug(slug) && entry["date"] == date {
			if entry["display_status"] != displayStatus {
				return fmt.Errorf("expected %s/%s to be %q, got %q", slug, date, displayStatus, entry["display_status"])
			}
			return nil
		}
	}
	return fmt.Errorf("no schedule entry for %s on %s", slug, date)
}

func (t *testContext) theSummarySurplusShouldBe(expected string) error {
	surplus, _ := t.responseBody["surplus"].(string)
	if surplus != expected {
		return fmt.Errorf("expected surplus %q, got %q. Body: %v", expected, surplus, t.responseBody)
	}
	return nil
}

func (t *testContext) findCategory(categoryID string) (map[string]any, error) {
	categories, ok := t.responseBody["categories"].([]any)
	if !ok {
		return nil, fmt.Errorf("response has no categories array: %v", t.responseBody)
	}
	for _, raw := range categories {
		cat, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if cat["category_id"] == categoryID {
			return cat, nil
		}
	}
	return nil, fmt.Errorf("category %q not found in response", categoryID)
}

func (t *testContext) theCategoryShouldBeOverspent(categoryID string) error {
	cat, err := t.findCategory(categoryID)
	if err != nil {
		return err
	}
	if overspent, _ := cat["overspent"].(bool); !overspent {
		return fmt.Errorf("expected category %q to be overspent: %v", categoryID, cat)
	}
	return nil
}

func (t *testContext) theCategoryShouldNotBeOverspent(categoryID string) error {
	cat, err := t.findCategory(categoryID)
	if err != nil {
		return err
	}
	if overspent, _ := cat["overspent"].(bool); overspent {
		return fmt.Errorf("expected category %q not to be overspent: %v", categoryID, cat)
	}
	return nil
}

func (t *testContext) theOccurrenceShouldHaveComments(expected int) error {
	comments, ok := t.responseBody["comments"].([]any)
	if !ok {
		return fmt.Errorf("response has no comments array: %v", t.responseBody)
	}
	if len(comments) != expected {
		return fmt.Errorf("expected %d comments, got %d", expected, len(comments))
	}
	return nil
}

func (t *testContext) theOpeningCarryoverShouldBe(expected string) error {
	carryover, _ := t.responseBody["opening_carryover"].(string)
	if carryover != expected {
		return fmt.Errorf("expected opening carryover %q, got %q. Body: %v", expected, carryover, t.responseBody)
	}
	return nil
}
