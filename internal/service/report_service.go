package service

// report_service.go holds the read side: sale and replacement listings with
// account names, the dealer attribution report, spreadsheet exports and
// warranty certificates. None of it runs inside the lifecycle transactions.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"dealerstock/internal/dto"
	"dealerstock/internal/infra"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"
	"dealerstock/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Export kinds.
const (
	ExportSales        = "sales"
	ExportReplacements = "replacements"
)

var ErrUnknownExport = errors.New("unknown export kind")

const exportPageSize = 500

type ReportService interface {
	ListSales(ctx context.Context, actor model.Actor, filter dto.ListFilter) (*dto.SaleListResponse, error)
	ListReplacements(ctx context.Context, actor model.Actor, filter dto.ListFilter) (*dto.ReplacementListResponse, error)
	DealerSales(ctx context.Context) ([]dto.DealerSalesResponse, error)
	// WriteExport renders the workbook for kind. It satisfies worker.ExportRenderer.
	WriteExport(ctx context.Context, kind string, w io.Writer) error
	EnqueueExport(ctx context.Context, actor model.Actor, kind string) (*dto.ExportQueuedResponse, error)
	OpenExport(ctx context.Context, key string) (io.ReadCloser, error)
	Certificate(ctx context.Context, actor model.Actor, saleID uuid.UUID, w io.Writer) error
}

type reportService struct {
	sales        repository.SaleRepository
	replacements repository.ReplacementRepository
	accounts     repository.AccountRepository
	dispatcher   *worker.Dispatcher
	store        ObjectStore
	now          Clock
}

func NewReportService(
	sales repository.SaleRepository,
	replacements repository.ReplacementRepository,
	accounts repository.AccountRepository,
	dispatcher *worker.Dispatcher,
	store ObjectStore,
) ReportService {
	return &reportService{
		sales:        sales,
		replacements: replacements,
		accounts:     accounts,
		dispatcher:   dispatcher,
		store:        store,
		now:          systemClock,
	}
}

// scope narrows a listing to what the actor may see: everything for the
// admin, its own attributed sales for a dealer, its own for a sub-dealer.
func scope(actor model.Actor) (dealerID, subDealerID *uuid.UUID, err error) {
	id := actor.ID
	switch actor.Role {
	case model.RoleAdmin:
		return nil, nil, nil
	case model.RoleDealer:
		return &id, nil, nil
	case model.RoleSubDealer:
		return nil, &id, nil
	}
	return nil, nil, ErrUnauthorized
}

func (s *reportService) ListSales(ctx context.Context, actor model.Actor, filter dto.ListFilter) (*dto.SaleListResponse, error) {
	filter.Page, filter.Limit = repository.NormalizePage(filter.Page, filter.Limit, repository.SalePageSize)
	dealerID, subDealerID, err := scope(actor)
	if err != nil {
		return nil, err
	}
	sales, total, err := s.sales.List(ctx, repository.SaleFilter{
		DealerID:    dealerID,
		SubDealerID: subDealerID,
		Page:        filter.Page,
		Limit:       filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	names, err := s.saleNames(ctx, sales)
	if err != nil {
		return nil, err
	}
	resp := &dto.SaleListResponse{Data: make([]dto.SaleResponse, len(sales)), Total: total, Page: filter.Page, Limit: filter.Limit}
	for i := range sales {
		resp.Data[i] = saleToResponse(&sales[i], names)
	}
	return resp, nil
}

func (s *reportService) saleNames(ctx context.Context, sales []model.Sale) (accountNames, error) {
	ids := make([]*uuid.UUID, 0, len(sales)*3)
	for i := range sales {
		ids = append(ids, sales[i].DealerID, sales[i].SubDealerID)
		if sales[i].Unit != nil {
			ids = append(ids, sales[i].Unit.OriginalAssignedDealerID)
		}
	}
	return loadAccountNames(ctx, s.accounts, ids...)
}

func (s *reportService) ListReplacements(ctx context.Context, actor model.Actor, filter dto.ListFilter) (*dto.ReplacementListResponse, error) {
	filter.Page, filter.Limit = repository.NormalizePage(filter.Page, filter.Limit, repository.SalePageSize)
	dealerID, subDealerID, err := scope(actor)
	if err != nil {
		return nil, err
	}
	reps, total, err := s.replacements.List(ctx, repository.ReplacementFilter{
		DealerID:    dealerID,
		SubDealerID: subDealerID,
		Page:        filter.Page,
		Limit:       filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	names, err := s.replacementNames(ctx, reps)
	if err != nil {
		return nil, err
	}
	resp := &dto.ReplacementListResponse{Data: make([]dto.ReplacementResponse, len(reps)), Total: total, Page: filter.Page, Limit: filter.Limit}
	for i := range reps {
		resp.Data[i] = replacementToResponse(&reps[i], names)
	}
	return resp, nil
}

func (s *reportService) replacementNames(ctx context.Context, reps []model.Replacement) (accountNames, error) {
	ids := make([]*uuid.UUID, 0, len(reps)*2)
	for i := range reps {
		ids = append(ids, reps[i].DealerID, reps[i].SubDealerID)
	}
	return loadAccountNames(ctx, s.accounts, ids...)
}

func (s *reportService) DealerSales(ctx context.Context) ([]dto.DealerSalesResponse, error) {
	rows, err := s.sales.CountByOriginalDealer(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]*uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].DealerID
	}
	names, err := loadAccountNames(ctx, s.accounts, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DealerSalesResponse, len(rows))
	for i, r := range rows {
		out[i] = dto.DealerSalesResponse{
			DealerID:   idPtr(r.DealerID),
			DealerName: names.of(r.DealerID),
			UnitsSold:  r.UnitsSold,
		}
	}
	return out, nil
}

// ── Exports ──────────────────────────────────────────────────────────────────

func (s *reportService) WriteExport(ctx context.Context, kind string, w io.Writer) error {
	switch kind {
	case ExportSales:
		return s.writeSales(ctx, w)
	case ExportReplacements:
		return s.writeReplacements(ctx, w)
	}
	return ErrUnknownExport
}

func (s *reportService) writeSales(ctx context.Context, w io.Writer) error {
	sheet := infra.Sheet{
		Name: "Sales",
		Headers: []string{
			"Sale ID", "Product", "Category", "Serial number", "Barcode",
			"Dealer", "Sub-dealer", "Sold by", "Warranty", "Warranty start", "Warranty end", "Recorded",
		},
		Widths: []float64{38, 28, 18, 20, 24, 24, 24, 12, 14, 16, 16, 20},
	}
	for page := 1; ; page++ {
		sales, _, err := s.sales.List(ctx, repository.SaleFilter{Page: page, Limit: exportPageSize})
		if err != nil {
			return err
		}
		names, err := s.saleNames(ctx, sales)
		if err != nil {
			return err
		}
		for i := range sales {
			r := saleToResponse(&sales[i], names)
			sheet.Rows = append(sheet.Rows, []any{
				r.ID, r.Unit.ProductName, r.Unit.CategoryName, r.Unit.SerialNumber, r.Unit.Barcode,
				r.DealerName, r.SubDealerName, r.SoldBy, r.WarrantyPeriod,
				r.WarrantyStartDate.Format("2006-01-02"), r.WarrantyEndDate.Format("2006-01-02"),
				r.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		if len(sales) < exportPageSize {
			break
		}
	}
	return infra.WriteWorkbook(w, []infra.Sheet{sheet})
}

func (s *reportService) writeReplacements(ctx context.Context, w io.Writer) error {
	sheet := infra.Sheet{
		Name: "Replacements",
		Headers: []string{
			"Replacement ID", "Original serial", "New serial", "Product",
			"Dealer", "Sub-dealer", "Warranty period", "Warranty start", "Warranty end", "Replaced on", "Replaced by",
		},
		Widths: []float64{38, 20, 20, 28, 24, 24, 14, 16, 16, 20, 12},
	}
	for page := 1; ; page++ {
		reps, _, err := s.replacements.List(ctx, repository.ReplacementFilter{Page: page, Limit: exportPageSize})
		if err != nil {
			return err
		}
		names, err := s.replacementNames(ctx, reps)
		if err != nil {
			return err
		}
		for i := range reps {
			r := replacementToResponse(&reps[i], names)
			sheet.Rows = append(sheet.Rows, []any{
				r.ID, r.OriginalUnit.SerialNumber, r.NewUnit.SerialNumber, r.NewUnit.ProductName,
				r.DealerName, r.SubDealerName, r.WarrantyPeriod,
				r.WarrantyStartDate.Format("2006-01-02"), r.WarrantyEndDate.Format("2006-01-02"),
				r.ReplacedDate.Format("2006-01-02 15:04"), r.ReplacedBy,
			})
		}
		if len(reps) < exportPageSize {
			break
		}
	}
	return infra.WriteWorkbook(w, []infra.Sheet{sheet})
}

// EnqueueExport picks the storage key up front so the caller can poll it.
func (s *reportService) EnqueueExport(ctx context.Context, actor model.Actor, kind string) (*dto.ExportQueuedResponse, error) {
	if kind != ExportSales && kind != ExportReplacements {
		return nil, ErrUnknownExport
	}
	key := fmt.Sprintf("exports/%s-%s-%s.xlsx", kind, s.now().Format("20060102T150405"), uuid.NewString()[:8])
	err := s.dispatcher.EnqueueExport(ctx, worker.ExportPayload{
		Kind:        kind,
		Key:         key,
		RequestedBy: actor.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue export: %w", err)
	}
	return &dto.ExportQueuedResponse{Key: key}, nil
}

// OpenExport streams a finished export. A key that is not stored yet is
// ErrFileNotFound; the job may still be running.
func (s *reportService) OpenExport(ctx context.Context, key string) (io.ReadCloser, error) {
	if !strings.HasPrefix(key, "exports/") || strings.Contains(key, "..") {
		return nil, ErrFileNotFound
	}
	rc, err := s.store.Get(ctx, key)
	if errors.Is(err, infra.ErrObjectNotFound) {
		return nil, ErrFileNotFound
	}
	return rc, err
}

// ── Certificate ──────────────────────────────────────────────────────────────

func (s *reportService) Certificate(ctx context.Context, actor model.Actor, saleID uuid.UUID, w io.Writer) error {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return notFoundAs(err, ErrSaleNotFound)
	}
	if !ownsSale(actor, sale) && !(actor.Role == model.RoleDealer && sale.DealerID != nil && *sale.DealerID == actor.ID) {
		return ErrUnauthorized
	}

	names, err := s.saleNames(ctx, []model.Sale{*sale})
	if err != nil {
		return err
	}
	r := saleToResponse(sale, names)
	seller := r.DealerName
	if sale.SoldBy == model.SoldBySubDealer {
		seller = r.SubDealerName
	}
	cert := infra.WarrantyCertificate{
		SaleID:         r.ID,
		ProductName:    r.Unit.ProductName,
		Category:       r.Unit.CategoryName,
		SerialNumber:   r.Unit.SerialNumber,
		Barcode:        r.Unit.Barcode,
		Motor:          r.Unit.Motor,
		SellerName:     seller,
		SoldBy:         r.SoldBy,
		WarrantyPeriod: r.WarrantyPeriod,
		WarrantyStart:  r.WarrantyStartDate,
		WarrantyEnd:    r.WarrantyEndDate,
		IssuedAt:       s.now(),
	}
	rep, err := s.replacements.FindByNewUnitID(ctx, sale.UnitID)
	switch {
	case err == nil && rep.OriginalUnit != nil:
		cert.ReplacesSerial = rep.OriginalUnit.SerialNumber
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return infra.WriteWarrantyCertificatePDF(w, cert)
}
