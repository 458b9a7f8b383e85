package service

import (
	"context"
	"errors"

	"dealerstock/internal/dto"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReplacementService swaps the unit behind a live sale for a fresh one while
// keeping the sale's warranty window.
type ReplacementService interface {
	Replace(ctx context.Context, actor model.Actor, saleID uuid.UUID, replacementCode string) (*dto.ReplaceResponse, error)
}

type replacementService struct {
	units        repository.UnitRepository
	sales        repository.SaleRepository
	replacements repository.ReplacementRepository
	movements    repository.MovementRepository
	accounts     repository.AccountRepository
	now          Clock
}

func NewReplacementService(
	units repository.UnitRepository,
	sales repository.SaleRepository,
	replacements repository.ReplacementRepository,
	movements repository.MovementRepository,
	accounts repository.AccountRepository,
	now Clock,
) ReplacementService {
	if now == nil {
		now = systemClock
	}
	return &replacementService{
		units:        units,
		sales:        sales,
		replacements: replacements,
		movements:    movements,
		accounts:     accounts,
		now:          now,
	}
}

// ── Replace ──────────────────────────────────────────────────────────────────
// Single transaction:
//   1. Lock the sale and check ownership (admin bypasses)
//   2. Reject when now >= warranty end
//   3. Lock the replacement unit in the placement the actor may draw from
//   4. Replacement row, replacement unit → Sold, new sale
//   5. Retire the original unit, delete the superseded sale

func (s *replacementService) Replace(ctx context.Context, actor model.Actor, saleID uuid.UUID, replacementCode string) (*dto.ReplaceResponse, error) {
	var (
		rep     model.Replacement
		newSale model.Sale
		source  model.Placement
	)
	err := runTx(ctx, s.units.DB(), func(tx *gorm.DB) error {
		old, err := s.sales.FindByIDForUpdateTx(tx, saleID)
		if err != nil {
			return notFoundAs(err, ErrSaleNotFound)
		}
		if !ownsSale(actor, old) {
			return ErrUnauthorized
		}

		now := s.now()
		if !now.Before(old.WarrantyEndDate) {
			return ErrWarrantyExpired
		}

		from, err := replacementSource(actor)
		if err != nil {
			return err
		}
		source = from
		fresh, err := s.units.FindAvailableTx(tx, replacementCode, from)
		if err != nil {
			return notFoundAs(err, ErrUnitUnavailable)
		}
		original, err := s.units.FindByIDTx(tx, old.UnitID)
		if err != nil {
			return notFoundAs(err, ErrSaleNotFound)
		}

		rep = model.Replacement{
			OriginalUnitID:    original.ID,
			NewUnitID:         fresh.ID,
			DealerID:          old.DealerID,
			SubDealerID:       old.SubDealerID,
			OriginalDealerID:  original.OriginalAssignedDealerID,
			WarrantyStartDate: old.WarrantyStartDate,
			WarrantyEndDate:   old.WarrantyEndDate,
			ReplacedDate:      now,
			ReplacedBy:        actor.Role,
			ReplacedByID:      actor.ID,
		}
		if err := s.replacements.CreateTx(tx, &rep); err != nil {
			// Unique original_unit_id: the original was already replaced.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSaleNotFound
			}
			return err
		}

		changes := map[string]any{
			"warranty_start_date": old.WarrantyStartDate,
			"warranty_end_date":   old.WarrantyEndDate,
		}
		if original.OriginalAssignedDealerID != nil {
			changes["original_assigned_dealer_id"] = gorm.Expr(
				"COALESCE(original_assigned_dealer_id, ?)", *original.OriginalAssignedDealerID)
		}
		if err := s.units.TransitionTx(tx, fresh.ID, from, model.Sold(), changes); err != nil {
			return transitionErr(err)
		}

		newSale = model.Sale{
			UnitID:            fresh.ID,
			DealerID:          old.DealerID,
			SubDealerID:       old.SubDealerID,
			SoldBy:            old.SoldBy,
			WarrantyStartDate: old.WarrantyStartDate,
			WarrantyEndDate:   old.WarrantyEndDate,
			WarrantyPeriod:    old.WarrantyPeriod,
		}
		if err := s.sales.CreateTx(tx, &newSale); err != nil {
			return transitionErr(err)
		}

		if err := s.units.RetireTx(tx, original.ID); err != nil {
			if errors.Is(err, repository.ErrPlacementChanged) {
				return ErrSaleNotFound
			}
			return err
		}
		if err := s.sales.DeleteTx(tx, old.ID); err != nil {
			return notFoundAs(err, ErrSaleNotFound)
		}

		moves := []model.PlacementMovement{
			*movement(fresh.ID, opReplacementIn, from, model.Sold(), actor, &rep.ID),
			*movement(original.ID, opRetire, model.Sold(), model.Retired(), actor, &rep.ID),
		}
		return s.movements.CreateManyTx(tx, moves)
	})
	if err != nil {
		return nil, err
	}
	logTransition(opReplacementIn, rep.NewUnitID, source, model.Sold(), actor)
	logTransition(opRetire, rep.OriginalUnitID, model.Sold(), model.Retired(), actor)

	sale, err := s.sales.FindByID(ctx, newSale.ID)
	if err != nil {
		return nil, notFoundAs(err, ErrSaleNotFound)
	}
	original, err := s.units.FindByID(ctx, rep.OriginalUnitID)
	if err != nil {
		return nil, err
	}
	rep.OriginalUnit = original
	rep.NewUnit = sale.Unit

	var unitDealer *uuid.UUID
	if sale.Unit != nil {
		unitDealer = sale.Unit.OriginalAssignedDealerID
	}
	names, err := loadAccountNames(ctx, s.accounts, sale.DealerID, sale.SubDealerID, unitDealer)
	if err != nil {
		return nil, err
	}
	return &dto.ReplaceResponse{
		Replacement: replacementToResponse(&rep, names),
		Sale:        saleToResponse(sale, names),
	}, nil
}

// ownsSale reports whether actor may replace the unit behind sale.
func ownsSale(actor model.Actor, sale *model.Sale) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleDealer:
		return sale.SoldBy == model.SoldByDealer && sale.DealerID != nil && *sale.DealerID == actor.ID
	case model.RoleSubDealer:
		return sale.SoldBy == model.SoldBySubDealer && sale.SubDealerID != nil && *sale.SubDealerID == actor.ID
	}
	return false
}

// replacementSource is the placement a replacement unit must be drawn from.
func replacementSource(actor model.Actor) (model.Placement, error) {
	switch actor.Role {
	case model.RoleAdmin:
		return model.Unassigned(), nil
	case model.RoleDealer:
		return model.AtDealer(actor.ID), nil
	case model.RoleSubDealer:
		return model.AtSubDealer(actor.ID), nil
	}
	return model.Placement{}, ErrUnauthorized
}
