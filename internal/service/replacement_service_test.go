package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"dealerstock/internal/model"
	"dealerstock/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplace_DealerCarriesWarrantyForward(t *testing.T) {
	e := newTestEnv(t)
	sale := e.soldByDealer(t, "SP-300-001", e.dealer)
	fresh := e.toDealer(t, "SP-300-002", e.dealer)
	e.clock.Advance(40 * 24 * time.Hour)

	resp, err := e.replace.Replace(context.Background(), e.dealer, uuid.MustParse(sale.ID), fresh.Barcode)
	require.NoError(t, err)

	assert.True(t, resp.Sale.WarrantyStartDate.Equal(sale.WarrantyStartDate))
	assert.True(t, resp.Sale.WarrantyEndDate.Equal(sale.WarrantyEndDate))
	assert.Equal(t, "SP-300-002", resp.Sale.Unit.SerialNumber)
	assert.Equal(t, model.SoldByDealer, resp.Sale.SoldBy)
	assert.NotEqual(t, sale.ID, resp.Sale.ID)

	rep := resp.Replacement
	assert.Equal(t, "SP-300-001", rep.OriginalUnit.SerialNumber)
	assert.Equal(t, "SP-300-002", rep.NewUnit.SerialNumber)
	assert.Equal(t, string(model.RoleDealer), rep.ReplacedBy)
	assert.True(t, rep.ReplacedDate.Equal(e.clock.Now()))
	wantDays := int(sale.WarrantyEndDate.Sub(sale.WarrantyStartDate).Hours() / 24)
	assert.Equal(t, fmt.Sprintf("%d days", wantDays), rep.WarrantyPeriod)

	original := e.unit(t, uuid.MustParse(rep.OriginalUnit.ID))
	assert.Equal(t, model.PlacementRetired, original.Placement.Kind)
	assert.Nil(t, original.WarrantyEndDate)
	assert.Equal(t, e.dealer.ID, *original.OriginalAssignedDealerID, "attribution survives retirement")

	replacement := e.unit(t, fresh.ID)
	assert.Equal(t, model.PlacementSold, replacement.Placement.Kind)
	require.NotNil(t, replacement.WarrantyEndDate)
	assert.True(t, replacement.WarrantyEndDate.Equal(sale.WarrantyEndDate))

	_, err = e.sales.FindByID(context.Background(), uuid.MustParse(sale.ID))
	assert.Error(t, err, "the superseded sale is removed")
}

func TestReplace_SubDealerDrawsFromOwnStock(t *testing.T) {
	e := newTestEnv(t)
	for _, serial := range []string{"SP-301-001", "SP-301-002"} {
		e.toDealer(t, serial, e.dealer)
		_, err := e.assign.DealerToSubDealerAssign(context.Background(), e.dealer, serial, e.sub.ID)
		require.NoError(t, err)
	}
	e.toDealer(t, "SP-301-003", e.dealer)
	sale, err := e.sell.Sell(context.Background(), e.sub, "SP-301-001")
	require.NoError(t, err)

	_, err = e.replace.Replace(context.Background(), e.sub, uuid.MustParse(sale.ID), "SP-301-003")
	assert.ErrorIs(t, err, service.ErrUnitUnavailable, "dealer stock is not the sub-dealer's to use")

	_, err = e.replace.Replace(context.Background(), e.dealer, uuid.MustParse(sale.ID), "SP-301-003")
	assert.ErrorIs(t, err, service.ErrUnauthorized, "the dealer did not make this sale")

	resp, err := e.replace.Replace(context.Background(), e.sub, uuid.MustParse(sale.ID), "SP-301-002")
	require.NoError(t, err)
	assert.Equal(t, model.SoldBySubDealer, resp.Sale.SoldBy)
	assert.Equal(t, e.sub.ID.String(), *resp.Sale.SubDealerID)
	assert.Equal(t, e.dealer.ID.String(), *resp.Sale.DealerID)
}

func TestReplace_AdminUsesUnassignedStockAndKeepsAttribution(t *testing.T) {
	e := newTestEnv(t)
	sale := e.soldByDealer(t, "SP-302-001", e.dealer)
	fresh := e.seedUnit(t, "SP-302-002")

	_, err := e.replace.Replace(context.Background(), e.admin, uuid.MustParse(sale.ID), fresh.SerialNumber)
	require.NoError(t, err)

	replacement := e.unit(t, fresh.ID)
	require.NotNil(t, replacement.OriginalAssignedDealerID)
	assert.Equal(t, e.dealer.ID, *replacement.OriginalAssignedDealerID)

	rows, err := e.reports.DealerSales(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, e.dealer.ID.String(), *rows[0].DealerID)
	assert.Equal(t, int64(1), rows[0].UnitsSold)
}

func TestReplace_ExpiredWarranty(t *testing.T) {
	e := newTestEnv(t)
	sale := e.soldByDealer(t, "SP-303-001", e.dealer)
	e.toDealer(t, "SP-303-002", e.dealer)

	// exactly at the end date the warranty is over
	e.clock.Advance(sale.WarrantyEndDate.Sub(e.clock.Now()))

	_, err := e.replace.Replace(context.Background(), e.dealer, uuid.MustParse(sale.ID), "SP-303-002")
	assert.ErrorIs(t, err, service.ErrWarrantyExpired)

	fresh, err := e.units.FindAvailableTx(e.db, "SP-303-002", model.AtDealer(e.dealer.ID))
	require.NoError(t, err, "a rejected replacement leaves the unit in stock")
	assert.Equal(t, model.PlacementAtDealer, fresh.Placement.Kind)
}

func TestReplace_UnknownSale(t *testing.T) {
	e := newTestEnv(t)
	e.toDealer(t, "SP-304-001", e.dealer)

	_, err := e.replace.Replace(context.Background(), e.dealer, uuid.New(), "SP-304-001")
	assert.ErrorIs(t, err, service.ErrSaleNotFound)
}

func TestReplace_ChainKeepsOriginalWindow(t *testing.T) {
	e := newTestEnv(t)
	first := e.soldByDealer(t, "SP-305-000", e.dealer)
	start, end := first.WarrantyStartDate, first.WarrantyEndDate

	saleID := uuid.MustParse(first.ID)
	for i := 1; i <= 3; i++ {
		serial := fmt.Sprintf("SP-305-%03d", i)
		e.toDealer(t, serial, e.dealer)
		e.clock.Advance(30 * 24 * time.Hour)

		resp, err := e.replace.Replace(context.Background(), e.dealer, saleID, serial)
		require.NoError(t, err, "replacement %d", i)
		assert.True(t, resp.Sale.WarrantyStartDate.Equal(start))
		assert.True(t, resp.Sale.WarrantyEndDate.Equal(end))
		saleID = uuid.MustParse(resp.Sale.ID)
	}

	list, err := e.reports.ListReplacements(context.Background(), e.dealer, listAll)
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)

	sales, err := e.reports.ListSales(context.Background(), e.dealer, listAll)
	require.NoError(t, err)
	require.Len(t, sales.Data, 1, "one live sale per chain")
	assert.Equal(t, "SP-305-003", sales.Data[0].Unit.SerialNumber)

	for i := 0; i < 3; i++ {
		_, err := e.units.FindAvailableTx(e.db, fmt.Sprintf("SP-305-%03d", i), model.Retired())
		assert.NoError(t, err, "unit %d retired", i)
	}
}

func TestRetiredUnitsNeverComeBack(t *testing.T) {
	e := newTestEnv(t)
	sale := e.soldByDealer(t, "SP-306-001", e.dealer)
	e.toDealer(t, "SP-306-002", e.dealer)
	e.toDealer(t, "SP-306-003", e.dealer)

	resp, err := e.replace.Replace(context.Background(), e.dealer, uuid.MustParse(sale.ID), "SP-306-002")
	require.NoError(t, err)

	_, err = e.assign.AdminAssign(context.Background(), e.admin, "SP-306-001", e.dealer.ID)
	assert.ErrorIs(t, err, service.ErrUnitUnavailable)
	_, err = e.assign.DealerManualAssign(context.Background(), e.dealer, "SP-306-001")
	assert.ErrorIs(t, err, service.ErrUnitUnavailable)
	_, err = e.sell.Sell(context.Background(), e.dealer, "SP-306-001")
	assert.ErrorIs(t, err, service.ErrUnitUnavailable)

	// the old sale is gone, so it cannot be replaced a second time
	_, err = e.replace.Replace(context.Background(), e.dealer, uuid.MustParse(sale.ID), "SP-306-003")
	assert.ErrorIs(t, err, service.ErrSaleNotFound)

	// and the retired unit is not a valid replacement either
	_, err = e.replace.Replace(context.Background(), e.dealer, uuid.MustParse(resp.Sale.ID), "SP-306-001")
	assert.ErrorIs(t, err, service.ErrUnitUnavailable)
}
