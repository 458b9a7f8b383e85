//go:build integration

package router_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"dealerstock/internal/dto"
	"dealerstock/internal/model"
	"dealerstock/internal/router"
	"dealerstock/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc    *router.Services
	admin  model.Actor
	dealer model.Actor
	cat    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	_, _, svc, _, _ := startStack(t)
	ctx := context.Background()

	admin, err := svc.Accounts.SeedAdmin(ctx, dto.CreateAccountRequest{Username: "root", FirstName: "Root", Password: "root-pass"})
	require.NoError(t, err)
	dealer, err := svc.Accounts.CreateDealer(ctx, dto.CreateAccountRequest{Username: "east", FirstName: "East", Password: "dealer-pass"})
	require.NoError(t, err)
	cat, err := svc.Categories.Create(ctx, dto.CategoryRequest{Name: "Surface pumps"})
	require.NoError(t, err)

	return &fixture{
		svc:    svc,
		admin:  model.Actor{Role: model.RoleAdmin, ID: uuid.MustParse(admin.ID)},
		dealer: model.Actor{Role: model.RoleDealer, ID: uuid.MustParse(dealer.ID)},
		cat:    cat.ID,
	}
}

func (f *fixture) units(t *testing.T, serial string, qty int) []dto.UnitResponse {
	t.Helper()
	units, err := f.svc.Inventory.CreateBatch(context.Background(), dto.CreateUnitsRequest{
		ProductName: "Jet pump", CategoryID: f.cat, SerialNumber: serial,
		Quantity: qty, Power: "1", Warranty: "12", WarrantyUnit: "months",
	})
	require.NoError(t, err)
	require.Len(t, units, qty)
	return units
}

func TestConcurrentAdminAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unit := f.units(t, "RACE", 1)[0]

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		errs      []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Assignments.AdminAssign(ctx, f.admin, unit.SerialNumber, f.dealer.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			errs = append(errs, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	for _, err := range errs {
		assert.ErrorIs(t, err, service.ErrUnitUnavailable)
	}

	got, err := f.svc.Inventory.Get(ctx, uuid.MustParse(unit.ID))
	require.NoError(t, err)
	assert.Equal(t, "at_dealer", got.Placement.State)

	history, err := f.svc.Inventory.History(ctx, uuid.MustParse(unit.ID))
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestConcurrentReplaceOnOneSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sold := f.units(t, "SOLD", 1)[0]
	_, err := f.svc.Assignments.AdminAssign(ctx, f.admin, sold.SerialNumber, f.dealer.ID)
	require.NoError(t, err)
	sale, err := f.svc.Sales.Sell(ctx, f.dealer, sold.SerialNumber)
	require.NoError(t, err)

	spares := f.units(t, "SPARE", 2)

	var wg sync.WaitGroup
	results := make([]error, len(spares))
	start := make(chan struct{})
	for i, spare := range spares {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			<-start
			_, results[i] = f.svc.Replacements.Replace(ctx, f.admin, uuid.MustParse(sale.ID), code)
		}(i, spare.SerialNumber)
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, err := range results {
		if err == nil {
			require.Equal(t, -1, winner, "both replacements committed")
			winner = i
			continue
		}
		assert.True(t, errors.Is(err, service.ErrSaleNotFound) || errors.Is(err, service.ErrUnitUnavailable), err)
	}
	require.NotEqual(t, -1, winner, "no replacement committed")

	sales, err := f.svc.Reports.ListSales(ctx, f.admin, dto.ListFilter{Page: 1, Limit: 100})
	require.NoError(t, err)
	require.EqualValues(t, 1, sales.Total)
	assert.Equal(t, spares[winner].ID, sales.Data[0].Unit.ID)

	for i, spare := range spares {
		got, err := f.svc.Inventory.Get(ctx, uuid.MustParse(spare.ID))
		require.NoError(t, err)
		if i == winner {
			assert.Equal(t, "sold", got.Placement.State)
		} else {
			assert.Equal(t, "unassigned", got.Placement.State)
		}
	}
	original, err := f.svc.Inventory.Get(ctx, uuid.MustParse(sold.ID))
	require.NoError(t, err)
	assert.Equal(t, "retired", original.Placement.State)
}
