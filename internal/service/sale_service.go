package service

import (
	"context"

	"dealerstock/internal/dto"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"
	"dealerstock/internal/warranty"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleService records the sale of a unit to an end customer and opens its
// warranty window.
type SaleService interface {
	Sell(ctx context.Context, actor model.Actor, code string) (*dto.SaleResponse, error)
}

type saleService struct {
	units     repository.UnitRepository
	sales     repository.SaleRepository
	movements repository.MovementRepository
	accounts  repository.AccountRepository
	now       Clock
}

func NewSaleService(
	units repository.UnitRepository,
	sales repository.SaleRepository,
	movements repository.MovementRepository,
	accounts repository.AccountRepository,
	now Clock,
) SaleService {
	if now == nil {
		now = systemClock
	}
	return &saleService{units: units, sales: sales, movements: movements, accounts: accounts, now: now}
}

// Sell finds a unit the actor currently holds and marks it sold. A dealer
// sells units AtDealer(self); a sub-dealer sells units AtSubDealer(self) and
// the sale is attributed to the unit's original dealer.
func (s *saleService) Sell(ctx context.Context, actor model.Actor, code string) (*dto.SaleResponse, error) {
	var from model.Placement
	switch actor.Role {
	case model.RoleDealer:
		from = model.AtDealer(actor.ID)
	case model.RoleSubDealer:
		from = model.AtSubDealer(actor.ID)
	default:
		return nil, ErrUnauthorized
	}

	var sale model.Sale
	err := runTx(ctx, s.units.DB(), func(tx *gorm.DB) error {
		u, err := s.units.FindAvailableTx(tx, code, from)
		if err != nil {
			return notFoundAs(err, ErrUnitUnavailable)
		}
		d, err := warranty.New(u.WarrantyDuration, u.WarrantyUnit)
		if err != nil {
			return ErrInvalidWarranty
		}
		start := s.now()
		end := d.EndDate(start)

		sale = model.Sale{
			UnitID:            u.ID,
			WarrantyStartDate: start,
			WarrantyEndDate:   end,
			WarrantyPeriod:    d.String(),
		}
		if actor.Role == model.RoleDealer {
			dealerID := actor.ID
			sale.SoldBy = model.SoldByDealer
			sale.DealerID = &dealerID
		} else {
			subID := actor.ID
			sale.SoldBy = model.SoldBySubDealer
			sale.SubDealerID = &subID
			sale.DealerID = u.OriginalAssignedDealerID
			if sale.DealerID == nil {
				sale.DealerID = actor.ParentDealerID
			}
		}

		to := model.Sold()
		changes := map[string]any{
			"warranty_start_date": start,
			"warranty_end_date":   end,
		}
		if err := s.units.TransitionTx(tx, u.ID, from, to, changes); err != nil {
			return transitionErr(err)
		}
		if err := s.sales.CreateTx(tx, &sale); err != nil {
			return transitionErr(err)
		}
		return s.movements.CreateTx(tx, movement(u.ID, opSale, from, to, actor, &sale.ID))
	})
	if err != nil {
		return nil, err
	}
	logTransition(opSale, sale.UnitID, from, model.Sold(), actor)
	return s.render(ctx, sale.ID)
}

func (s *saleService) render(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrSaleNotFound)
	}
	var unitDealer *uuid.UUID
	if sale.Unit != nil {
		unitDealer = sale.Unit.OriginalAssignedDealerID
	}
	names, err := loadAccountNames(ctx, s.accounts, sale.DealerID, sale.SubDealerID, unitDealer)
	if err != nil {
		return nil, err
	}
	resp := saleToResponse(sale, names)
	return &resp, nil
}
