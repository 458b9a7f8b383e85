package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dealerstock/internal/dto"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"
	"dealerstock/internal/warranty"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InventoryService owns unit records: batch creation, lookup, descriptive
// edits and the read-side placement views.
type InventoryService interface {
	CreateBatch(ctx context.Context, req dto.CreateUnitsRequest) ([]dto.UnitResponse, error)
	// FindAvailable resolves a barcode or serial number to a unit currently in
	// placement filter. Absent and wrong-state units are both ErrUnitUnavailable.
	FindAvailable(ctx context.Context, code string, filter model.Placement) (*dto.UnitResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.UnitResponse, error)
	List(ctx context.Context, filter dto.UnitFilter) (*dto.UnitListResponse, error)
	ListAtDealer(ctx context.Context, actor model.Actor, filter dto.UnitFilter) (*dto.UnitListResponse, error)
	ListAtSubDealer(ctx context.Context, actor model.Actor, subDealerID uuid.UUID, filter dto.UnitFilter) (*dto.UnitListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateUnitRequest) (*dto.UnitResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	History(ctx context.Context, id uuid.UUID) ([]dto.MovementResponse, error)
}

// InventoryOptions tunes batch creation. Zero values take defaults.
type InventoryOptions struct {
	MaxBatchQuantity   int
	BarcodeMaxAttempts int
	NewBarcode         BarcodeGenerator
	Now                Clock
}

type inventoryService struct {
	units      repository.UnitRepository
	categories repository.CategoryRepository
	movements  repository.MovementRepository
	accounts   repository.AccountRepository
	opts       InventoryOptions
}

func NewInventoryService(
	units repository.UnitRepository,
	categories repository.CategoryRepository,
	movements repository.MovementRepository,
	accounts repository.AccountRepository,
	opts InventoryOptions,
) InventoryService {
	if opts.MaxBatchQuantity <= 0 {
		opts.MaxBatchQuantity = 500
	}
	if opts.BarcodeMaxAttempts <= 0 {
		opts.BarcodeMaxAttempts = 5
	}
	if opts.NewBarcode == nil {
		opts.NewBarcode = NewBarcode
	}
	if opts.Now == nil {
		opts.Now = systemClock
	}
	return &inventoryService{
		units:      units,
		categories: categories,
		movements:  movements,
		accounts:   accounts,
		opts:       opts,
	}
}

// ── CreateBatch ──────────────────────────────────────────────────────────────
// Expands req.Quantity into that many Unassigned rows "<serial>-001".."-NNN".
// Each attempt generates a fresh barcode set and inserts it in one
// transaction; a unique violation on barcode retries, on serial fails.

func (s *inventoryService) CreateBatch(ctx context.Context, req dto.CreateUnitsRequest) ([]dto.UnitResponse, error) {
	d, err := warranty.Parse(req.Warranty, req.WarrantyUnit)
	if err != nil {
		return nil, ErrInvalidWarranty
	}
	if req.Quantity < 1 || req.Quantity > s.opts.MaxBatchQuantity {
		return nil, ErrBatchTooLarge
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, ErrCategoryNotFound
	}
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return nil, notFoundAs(err, ErrCategoryNotFound)
	}
	kw, hp, hpText, err := parsePower(req.Power)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSpace(req.SerialNumber)
	if base == "" {
		return nil, ErrInvalidSerialNumber
	}
	inUse, err := s.units.SerialPrefixInUse(ctx, base)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, ErrDuplicateSerialNumber
	}

	template := model.Unit{
		ProductName:       strings.TrimSpace(req.ProductName),
		CategoryID:        category.ID,
		Subcategory:       req.Subcategory,
		SubSubcategory:    req.SubSubcategory,
		Quantity:          1,
		QuantityText:      req.QuantityText,
		PowerKW:           kw,
		PowerHP:           hp,
		Volts:             req.Volts,
		Phase:             req.Phase,
		Stage:             req.Stage,
		MaxDischarge:      req.MaxDischarge,
		MaxHead:           req.MaxHead,
		PipeSize:          req.PipeSize,
		Motor:             motorLabel(hpText, req.Motor),
		OperatorHeadRange: req.OperatorHeadRange,
		MaxCurrent:        req.MaxCurrent,
		Capacitor:         req.Capacitor,
		DutyPoint:         req.DutyPoint,
		NomHead:           req.NomHead,
		NomDis:            req.NomDis,
		OverallEfficiency: req.OverallEfficiency,
		RatedSpeed:        req.RatedSpeed,
		Description:       req.Description,
		WarrantyDuration:  d.Amount,
		WarrantyUnit:      string(d.Unit),
		Placement:         model.Unassigned(),
	}

	for attempt := 1; attempt <= s.opts.BarcodeMaxAttempts; attempt++ {
		units, ok := s.buildBatch(template, base, req.Quantity)
		if !ok {
			continue
		}
		taken, err := s.units.ExistingBarcodes(ctx, barcodesOf(units))
		if err != nil {
			return nil, err
		}
		if len(taken) > 0 {
			log.Warn().Int("attempt", attempt).Int("collisions", len(taken)).Msg("inventory: barcode collision, regenerating")
			continue
		}

		err = runTx(ctx, s.units.DB(), func(tx *gorm.DB) error {
			return s.units.CreateBatchTx(tx, units)
		})
		if err == nil {
			out := make([]dto.UnitResponse, len(units))
			for i := range units {
				units[i].Category = category
				out[i] = unitToResponse(&units[i])
			}
			return out, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create units: %w", err)
		}
		// Either a concurrent batch took the serial prefix or a barcode collided.
		if inUse, cerr := s.units.SerialPrefixInUse(ctx, base); cerr == nil && inUse {
			return nil, ErrDuplicateSerialNumber
		}
		log.Warn().Int("attempt", attempt).Msg("inventory: barcode unique violation on insert, retrying")
	}
	return nil, ErrDuplicateBarcode
}

// buildBatch stamps serials and barcodes onto copies of template. It reports
// false when the generator could not produce distinct barcodes for the batch.
func (s *inventoryService) buildBatch(template model.Unit, base string, qty int) ([]model.Unit, bool) {
	units := make([]model.Unit, qty)
	seen := make(map[string]struct{}, qty)
	for i := range units {
		u := template
		u.SerialNumber = serialFor(base, i+1)
		code := ""
		for try := 0; try < s.opts.BarcodeMaxAttempts; try++ {
			c := s.opts.NewBarcode(s.opts.Now())
			if _, dup := seen[c]; !dup {
				code = c
				break
			}
		}
		if code == "" {
			return nil, false
		}
		seen[code] = struct{}{}
		u.Barcode = code
		units[i] = u
	}
	return units, true
}

func barcodesOf(units []model.Unit) []string {
	codes := make([]string, len(units))
	for i := range units {
		codes[i] = units[i].Barcode
	}
	return codes
}

func (s *inventoryService) FindAvailable(ctx context.Context, code string, filter model.Placement) (*dto.UnitResponse, error) {
	var u *model.Unit
	err := runTx(ctx, s.units.DB(), func(tx *gorm.DB) error {
		var err error
		u, err = s.units.FindAvailableTx(tx, strings.TrimSpace(code), filter)
		return notFoundAs(err, ErrUnitUnavailable)
	})
	if err != nil {
		return nil, err
	}
	resp := unitToResponse(u)
	return &resp, nil
}

func (s *inventoryService) Get(ctx context.Context, id uuid.UUID) (*dto.UnitResponse, error) {
	u, err := s.units.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrUnitNotFound)
	}
	resp := unitToResponse(u)
	return &resp, nil
}

func (s *inventoryService) List(ctx context.Context, filter dto.UnitFilter) (*dto.UnitListResponse, error) {
	f := repository.UnitFilter{Search: filter.Search, Page: filter.Page, Limit: filter.Limit}
	if filter.Placement != "" {
		p := model.Placement{Kind: model.PlacementKind(filter.Placement)}
		f.Placement = &p
	}
	return s.list(ctx, filter, f)
}

func (s *inventoryService) ListAtDealer(ctx context.Context, actor model.Actor, filter dto.UnitFilter) (*dto.UnitListResponse, error) {
	if actor.Role != model.RoleDealer {
		return nil, ErrUnauthorized
	}
	p := model.AtDealer(actor.ID)
	return s.list(ctx, filter, repository.UnitFilter{Search: filter.Search, Placement: &p, Page: filter.Page, Limit: filter.Limit})
}

// ListAtSubDealer shows the units a sub-dealer holds. A sub-dealer sees only
// its own; a dealer sees those of its own sub-dealers.
func (s *inventoryService) ListAtSubDealer(ctx context.Context, actor model.Actor, subDealerID uuid.UUID, filter dto.UnitFilter) (*dto.UnitListResponse, error) {
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleSubDealer:
		if actor.ID != subDealerID {
			return nil, ErrUnauthorized
		}
	case model.RoleDealer:
		sub, err := s.accounts.FindByID(ctx, subDealerID)
		if err != nil {
			return nil, notFoundAs(err, ErrAccountNotFound)
		}
		if sub.Role != model.RoleSubDealer || sub.ParentDealerID == nil || *sub.ParentDealerID != actor.ID {
			return nil, ErrUnauthorized
		}
	default:
		return nil, ErrUnauthorized
	}
	p := model.AtSubDealer(subDealerID)
	return s.list(ctx, filter, repository.UnitFilter{Search: filter.Search, Placement: &p, Page: filter.Page, Limit: filter.Limit})
}

func (s *inventoryService) list(ctx context.Context, filter dto.UnitFilter, f repository.UnitFilter) (*dto.UnitListResponse, error) {
	page, limit := repository.NormalizePage(filter.Page, filter.Limit, repository.UnitPageSize)
	f.Page, f.Limit = page, limit
	empty := &dto.UnitListResponse{Data: []dto.UnitResponse{}, Page: page, Limit: limit}

	if name := strings.TrimSpace(filter.Category); name != "" && !strings.EqualFold(name, "all") {
		c, err := s.categories.FindByName(ctx, name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return empty, nil
		}
		if err != nil {
			return nil, err
		}
		f.CategoryID = &c.ID
	}

	units, total, err := s.units.List(ctx, f)
	if err != nil {
		return nil, err
	}
	resp := empty
	resp.Total = total
	resp.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	for i := range units {
		resp.Data = append(resp.Data, unitToResponse(&units[i]))
	}
	return resp, nil
}

func (s *inventoryService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateUnitRequest) (*dto.UnitResponse, error) {
	u, err := s.units.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrUnitNotFound)
	}

	if req.CategoryID != nil {
		cid, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, ErrCategoryNotFound
		}
		if _, err := s.categories.FindByID(ctx, cid); err != nil {
			return nil, notFoundAs(err, ErrCategoryNotFound)
		}
		u.CategoryID = cid
		u.Category = nil
	}
	if req.Warranty != nil || req.WarrantyUnit != nil {
		amount, unit := fmt.Sprint(u.WarrantyDuration), u.WarrantyUnit
		if req.Warranty != nil {
			amount = *req.Warranty
		}
		if req.WarrantyUnit != nil {
			unit = *req.WarrantyUnit
		}
		d, err := warranty.Parse(amount, unit)
		if err != nil {
			return nil, ErrInvalidWarranty
		}
		u.WarrantyDuration, u.WarrantyUnit = d.Amount, string(d.Unit)
	}
	if req.Power != nil {
		kw, hp, hpText, err := parsePower(*req.Power)
		if err != nil {
			return nil, err
		}
		u.PowerKW, u.PowerHP = kw, hp
		if req.Motor != nil {
			u.Motor = motorLabel(hpText, *req.Motor)
		}
	} else if req.Motor != nil {
		u.Motor = strings.TrimSpace(*req.Motor)
	}

	setIf(&u.ProductName, req.ProductName)
	setIf(&u.Subcategory, req.Subcategory)
	setIf(&u.SubSubcategory, req.SubSubcategory)
	setIf(&u.QuantityText, req.QuantityText)
	setIf(&u.Volts, req.Volts)
	setIf(&u.Phase, req.Phase)
	setIf(&u.Stage, req.Stage)
	setIf(&u.MaxDischarge, req.MaxDischarge)
	setIf(&u.MaxHead, req.MaxHead)
	setIf(&u.PipeSize, req.PipeSize)
	setIf(&u.OperatorHeadRange, req.OperatorHeadRange)
	setIf(&u.MaxCurrent, req.MaxCurrent)
	setIf(&u.Capacitor, req.Capacitor)
	setIf(&u.DutyPoint, req.DutyPoint)
	setIf(&u.NomHead, req.NomHead)
	setIf(&u.NomDis, req.NomDis)
	setIf(&u.OverallEfficiency, req.OverallEfficiency)
	setIf(&u.RatedSpeed, req.RatedSpeed)
	setIf(&u.Description, req.Description)

	if err := s.units.UpdateDetails(ctx, u); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (s *inventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.units.DeleteUnassigned(ctx, id)
	if !errors.Is(err, repository.ErrPlacementChanged) {
		return err
	}
	if _, ferr := s.units.FindByID(ctx, id); ferr != nil {
		return notFoundAs(ferr, ErrUnitNotFound)
	}
	return ErrUnitNotDeletable
}

func (s *inventoryService) History(ctx context.Context, id uuid.UUID) ([]dto.MovementResponse, error) {
	if _, err := s.units.FindByID(ctx, id); err != nil {
		return nil, notFoundAs(err, ErrUnitNotFound)
	}
	moves, err := s.movements.ListByUnit(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, len(moves))
	for i := range moves {
		out[i] = movementToResponse(&moves[i])
	}
	return out, nil
}
