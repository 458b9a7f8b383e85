package service_test

import (
	"context"
	"testing"

	"dealerstock/internal/model"
	"dealerstock/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSell_DealerStartsWarranty(t *testing.T) {
	e := newTestEnv(t)
	u := e.toDealer(t, "SP-200-001", e.dealer)

	sale, err := e.sell.Sell(context.Background(), e.dealer, u.Barcode)
	require.NoError(t, err)

	start := e.clock.Now()
	assert.Equal(t, model.SoldByDealer, sale.SoldBy)
	assert.Equal(t, e.dealer.ID.String(), *sale.DealerID)
	assert.Nil(t, sale.SubDealerID)
	assert.Equal(t, "dealer-north", sale.DealerName)
	assert.True(t, sale.WarrantyStartDate.Equal(start))
	assert.True(t, sale.WarrantyEndDate.Equal(start.AddDate(0, 12, 0)))
	assert.Equal(t, "12 months", sale.WarrantyPeriod)

	stored := e.unit(t, u.ID)
	assert.Equal(t, model.PlacementSold, stored.Placement.Kind)
	assert.Nil(t, stored.Placement.HolderID)
	require.NotNil(t, stored.WarrantyEndDate)
	assert.True(t, stored.WarrantyEndDate.Equal(start.AddDate(0, 12, 0)))
}

func TestSell_SubDealerAttributesOriginalDealer(t *testing.T) {
	e := newTestEnv(t)
	u := e.toDealer(t, "SP-201-001", e.dealer)
	_, err := e.assign.DealerToSubDealerAssign(context.Background(), e.dealer, "SP-201-001", e.sub.ID)
	require.NoError(t, err)

	// the dealer no longer holds it
	_, err = e.sell.Sell(context.Background(), e.dealer, "SP-201-001")
	assert.ErrorIs(t, err, service.ErrUnitUnavailable)

	sale, err := e.sell.Sell(context.Background(), e.sub, "SP-201-001")
	require.NoError(t, err)
	assert.Equal(t, model.SoldBySubDealer, sale.SoldBy)
	assert.Equal(t, e.dealer.ID.String(), *sale.DealerID)
	assert.Equal(t, e.sub.ID.String(), *sale.SubDealerID)
	assert.Equal(t, "sub-north-1", sale.SubDealerName)

	history, err := e.movements.ListByUnit(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "sale", history[2].Operation)
	require.NotNil(t, history[2].ReferenceID)
	assert.Equal(t, sale.ID, history[2].ReferenceID.String())
}

func TestSell_OnlyHolderMaySell(t *testing.T) {
	e := newTestEnv(t)
	e.toDealer(t, "SP-202-001", e.dealer)
	e.seedUnit(t, "SP-202-002")

	_, err := e.sell.Sell(context.Background(), e.dealer2, "SP-202-001")
	assert.ErrorIs(t, err, service.ErrUnitUnavailable)

	_, err = e.sell.Sell(context.Background(), e.dealer, "SP-202-002")
	assert.ErrorIs(t, err, service.ErrUnitUnavailable, "unassigned units cannot be sold")

	_, err = e.sell.Sell(context.Background(), e.admin, "SP-202-001")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = e.sell.Sell(context.Background(), e.dealer, "SP-202-001")
	require.NoError(t, err)
	_, err = e.sell.Sell(context.Background(), e.dealer, "SP-202-001")
	assert.ErrorIs(t, err, service.ErrUnitUnavailable, "a sold unit cannot be sold twice")
}

func TestDealerSales_GroupsByOriginalDealer(t *testing.T) {
	e := newTestEnv(t)
	e.soldByDealer(t, "SP-203-001", e.dealer)
	e.soldByDealer(t, "SP-203-002", e.dealer)
	e.soldByDealer(t, "SP-203-003", e.dealer2)

	e.toDealer(t, "SP-203-004", e.dealer)
	_, err := e.assign.DealerToSubDealerAssign(context.Background(), e.dealer, "SP-203-004", e.sub.ID)
	require.NoError(t, err)
	_, err = e.sell.Sell(context.Background(), e.sub, "SP-203-004")
	require.NoError(t, err)

	rows, err := e.reports.DealerSales(context.Background())
	require.NoError(t, err)
	counts := map[string]int64{}
	for _, r := range rows {
		require.NotNil(t, r.DealerID)
		counts[*r.DealerID] = r.UnitsSold
	}
	assert.Equal(t, int64(3), counts[e.dealer.ID.String()])
	assert.Equal(t, int64(1), counts[e.dealer2.ID.String()])
}

func TestListSales_ScopedByRole(t *testing.T) {
	e := newTestEnv(t)
	e.soldByDealer(t, "SP-204-001", e.dealer)
	e.soldByDealer(t, "SP-204-002", e.dealer2)

	all, err := e.reports.ListSales(context.Background(), e.admin, listAll)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	own, err := e.reports.ListSales(context.Background(), e.dealer, listAll)
	require.NoError(t, err)
	require.Len(t, own.Data, 1)
	assert.Equal(t, "SP-204-001", own.Data[0].Unit.SerialNumber)

	none, err := e.reports.ListSales(context.Background(), e.sub, listAll)
	require.NoError(t, err)
	assert.Empty(t, none.Data)

	_, err = e.reports.ListSales(context.Background(), model.Actor{Role: "guest", ID: uuid.New()}, listAll)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}
