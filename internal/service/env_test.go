package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"dealerstock/internal/dto"
	"dealerstock/internal/infra"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"
	"dealerstock/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Clock ─────────────────────────────────────────────────────────────────────

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ── Test environment ──────────────────────────────────────────────────────────
// Every test gets its own in-memory SQLite database with the real repositories.

type testEnv struct {
	db    *gorm.DB
	clock *fakeClock

	accounts     repository.AccountRepository
	units        repository.UnitRepository
	sales        repository.SaleRepository
	replacements repository.ReplacementRepository
	movements    repository.MovementRepository
	categories   repository.CategoryRepository

	assign  service.AssignmentService
	sell    service.SaleService
	replace service.ReplacementService
	reports service.ReportService

	admin, dealer, dealer2, sub, sub2 model.Actor
	category                          *model.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := infra.NewDatabase("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	e := &testEnv{
		db:           db,
		clock:        &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
		accounts:     repository.NewAccountRepository(db),
		units:        repository.NewUnitRepository(db),
		sales:        repository.NewSaleRepository(db),
		replacements: repository.NewReplacementRepository(db),
		movements:    repository.NewMovementRepository(db),
		categories:   repository.NewCategoryRepository(db),
	}
	now := service.Clock(e.clock.Now)
	e.assign = service.NewAssignmentService(e.units, e.movements, e.accounts, now)
	e.sell = service.NewSaleService(e.units, e.sales, e.movements, e.accounts, now)
	e.replace = service.NewReplacementService(e.units, e.sales, e.replacements, e.movements, e.accounts, now)
	e.reports = service.NewReportService(e.sales, e.replacements, e.accounts, nil, nil)

	e.admin = e.seedAccount(t, model.RoleAdmin, "admin", nil)
	e.dealer = e.seedAccount(t, model.RoleDealer, "dealer-north", nil)
	e.dealer2 = e.seedAccount(t, model.RoleDealer, "dealer-south", nil)
	e.sub = e.seedAccount(t, model.RoleSubDealer, "sub-north-1", &e.dealer.ID)
	e.sub2 = e.seedAccount(t, model.RoleSubDealer, "sub-south-1", &e.dealer2.ID)

	e.category = &model.Category{Name: "Submersible pumps"}
	require.NoError(t, e.categories.Create(context.Background(), e.category))
	return e
}

func (e *testEnv) seedAccount(t *testing.T, role model.Role, username string, parent *uuid.UUID) model.Actor {
	t.Helper()
	acc := &model.Account{
		Role:           role,
		Username:       username,
		Phone:          "555" + username,
		FirstName:      username,
		PasswordHash:   "unused",
		ParentDealerID: parent,
		Active:         true,
	}
	require.NoError(t, e.accounts.Create(context.Background(), acc))
	return model.Actor{Role: role, ID: acc.ID, ParentDealerID: parent}
}

// seedUnit inserts one Unassigned unit with a 12-month warranty.
func (e *testEnv) seedUnit(t *testing.T, serial string) *model.Unit {
	t.Helper()
	u := model.Unit{
		ProductName:      "V4 borehole pump",
		CategoryID:       e.category.ID,
		SerialNumber:     serial,
		Barcode:          "PRD-" + serial,
		WarrantyDuration: 12,
		WarrantyUnit:     "months",
	}
	require.NoError(t, e.units.CreateBatchTx(e.db, []model.Unit{u}))
	stored, err := e.units.FindAvailableTx(e.db, serial, model.Unassigned())
	require.NoError(t, err)
	return stored
}

func (e *testEnv) unit(t *testing.T, id uuid.UUID) *model.Unit {
	t.Helper()
	u, err := e.units.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

// toDealer hands a fresh unit to dealer through the admin.
func (e *testEnv) toDealer(t *testing.T, serial string, dealer model.Actor) *model.Unit {
	t.Helper()
	u := e.seedUnit(t, serial)
	_, err := e.assign.AdminAssign(context.Background(), e.admin, serial, dealer.ID)
	require.NoError(t, err)
	return u
}

// soldByDealer returns the sale of a fresh unit sold by dealer.
func (e *testEnv) soldByDealer(t *testing.T, serial string, dealer model.Actor) *dto.SaleResponse {
	t.Helper()
	e.toDealer(t, serial, dealer)
	sale, err := e.sell.Sell(context.Background(), dealer, serial)
	require.NoError(t, err)
	return sale
}

var listAll = dto.ListFilter{Page: 1, Limit: 100}
