package service

import (
	"context"

	"dealerstock/internal/dto"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentService moves units down the distribution chain:
// Unassigned → AtDealer → AtSubDealer.
type AssignmentService interface {
	// AdminAssign hands one Unassigned unit, looked up by barcode or serial
	// number, to a dealer.
	AdminAssign(ctx context.Context, actor model.Actor, code string, dealerID uuid.UUID) (*dto.UnitResponse, error)
	// DealerManualAssign lets a dealer claim an Unassigned unit for itself.
	DealerManualAssign(ctx context.Context, actor model.Actor, code string) (*dto.UnitResponse, error)
	// BulkAssign is all-or-nothing: either every id moves or none does.
	BulkAssign(ctx context.Context, actor model.Actor, unitIDs []uuid.UUID, dealerID uuid.UUID) (int, error)
	// DealerToSubDealerAssign moves a unit the dealer holds to one of its own sub-dealers.
	DealerToSubDealerAssign(ctx context.Context, actor model.Actor, code string, subDealerID uuid.UUID) (*dto.UnitResponse, error)
}

type assignmentService struct {
	units     repository.UnitRepository
	movements repository.MovementRepository
	accounts  repository.AccountRepository
	now       Clock
}

func NewAssignmentService(
	units repository.UnitRepository,
	movements repository.MovementRepository,
	accounts repository.AccountRepository,
	now Clock,
) AssignmentService {
	if now == nil {
		now = systemClock
	}
	return &assignmentService{units: units, movements: movements, accounts: accounts, now: now}
}

func (s *assignmentService) AdminAssign(ctx context.Context, actor model.Actor, code string, dealerID uuid.UUID) (*dto.UnitResponse, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrUnauthorized
	}
	if err := s.requireDealer(ctx, dealerID); err != nil {
		return nil, err
	}
	return s.assignToDealer(ctx, actor, code, dealerID, true, opAdminAssign)
}

func (s *assignmentService) DealerManualAssign(ctx context.Context, actor model.Actor, code string) (*dto.UnitResponse, error) {
	if actor.Role != model.RoleDealer {
		return nil, ErrUnauthorized
	}
	return s.assignToDealer(ctx, actor, code, actor.ID, false, opManualAssign)
}

func (s *assignmentService) assignToDealer(ctx context.Context, actor model.Actor, code string, dealerID uuid.UUID, byAdmin bool, op string) (*dto.UnitResponse, error) {
	var unitID uuid.UUID
	err := runTx(ctx, s.units.DB(), func(tx *gorm.DB) error {
		u, err := s.units.FindAvailableTx(tx, code, model.Unassigned())
		if err != nil {
			return notFoundAs(err, ErrUnitUnavailable)
		}
		unitID = u.ID
		to := model.AtDealer(dealerID)
		if err := s.units.TransitionTx(tx, u.ID, model.Unassigned(), to, s.dealerStamp(actor, dealerID, byAdmin)); err != nil {
			return transitionErr(err)
		}
		return s.movements.CreateTx(tx, movement(u.ID, op, model.Unassigned(), to, actor, nil))
	})
	if err != nil {
		return nil, err
	}
	logTransition(op, unitID, model.Unassigned(), model.AtDealer(dealerID), actor)
	return s.reload(ctx, unitID)
}

func (s *assignmentService) BulkAssign(ctx context.Context, actor model.Actor, unitIDs []uuid.UUID, dealerID uuid.UUID) (int, error) {
	if actor.Role != model.RoleAdmin {
		return 0, ErrUnauthorized
	}
	if len(unitIDs) == 0 {
		return 0, ErrPartialAvailability
	}
	if err := s.requireDealer(ctx, dealerID); err != nil {
		return 0, err
	}

	err := runTx(ctx, s.units.DB(), func(tx *gorm.DB) error {
		// Duplicate ids shrink the count below len(unitIDs) and reject the batch.
		n, err := s.units.CountInPlacementTx(tx, unitIDs, model.Unassigned())
		if err != nil {
			return err
		}
		if n != int64(len(unitIDs)) {
			return ErrPartialAvailability
		}
		to := model.AtDealer(dealerID)
		affected, err := s.units.TransitionManyTx(tx, unitIDs, model.Unassigned(), to, s.dealerStamp(actor, dealerID, true))
		if err != nil {
			return err
		}
		if affected != int64(len(unitIDs)) {
			return ErrPartialAvailability
		}
		moves := make([]model.PlacementMovement, 0, len(unitIDs))
		for _, id := range unitIDs {
			moves = append(moves, *movement(id, opBulkAssign, model.Unassigned(), to, actor, nil))
		}
		return s.movements.CreateManyTx(tx, moves)
	})
	if err != nil {
		return 0, err
	}
	for _, id := range unitIDs {
		logTransition(opBulkAssign, id, model.Unassigned(), model.AtDealer(dealerID), actor)
	}
	return len(unitIDs), nil
}

func (s *assignmentService) DealerToSubDealerAssign(ctx context.Context, actor model.Actor, code string, subDealerID uuid.UUID) (*dto.UnitResponse, error) {
	if actor.Role != model.RoleDealer {
		return nil, ErrUnauthorized
	}
	sub, err := s.accounts.FindByID(ctx, subDealerID)
	if err != nil {
		return nil, notFoundAs(err, ErrAccountNotFound)
	}
	if sub.Role != model.RoleSubDealer || !sub.Active {
		return nil, ErrAccountNotFound
	}
	if sub.ParentDealerID == nil || *sub.ParentDealerID != actor.ID {
		return nil, ErrUnauthorized
	}

	var unitID uuid.UUID
	err = runTx(ctx, s.units.DB(), func(tx *gorm.DB) error {
		from := model.AtDealer(actor.ID)
		u, err := s.units.FindAvailableTx(tx, code, from)
		if err != nil {
			return notFoundAs(err, ErrUnitUnavailable)
		}
		unitID = u.ID
		to := model.AtSubDealer(subDealerID)
		changes := map[string]any{"assigned_to_sub_dealer_at": s.now()}
		if err := s.units.TransitionTx(tx, u.ID, from, to, changes); err != nil {
			return transitionErr(err)
		}
		return s.movements.CreateTx(tx, movement(u.ID, opSubDealerAssign, from, to, actor, nil))
	})
	if err != nil {
		return nil, err
	}
	logTransition(opSubDealerAssign, unitID, model.AtDealer(actor.ID), model.AtSubDealer(subDealerID), actor)
	return s.reload(ctx, unitID)
}

// dealerStamp records who assigned the unit. The original dealer is written
// only once; later assignments keep the first value.
func (s *assignmentService) dealerStamp(actor model.Actor, dealerID uuid.UUID, byAdmin bool) map[string]any {
	return map[string]any{
		"original_assigned_dealer_id": gorm.Expr("COALESCE(original_assigned_dealer_id, ?)", dealerID),
		"assigned_by_id":              actor.ID,
		"assigned_by_admin":           byAdmin,
		"assigned_at":                 s.now(),
	}
}

func (s *assignmentService) requireDealer(ctx context.Context, dealerID uuid.UUID) error {
	d, err := s.accounts.FindByID(ctx, dealerID)
	if err != nil {
		return notFoundAs(err, ErrAccountNotFound)
	}
	if d.Role != model.RoleDealer || !d.Active {
		return ErrAccountNotFound
	}
	return nil
}

func (s *assignmentService) reload(ctx context.Context, id uuid.UUID) (*dto.UnitResponse, error) {
	u, err := s.units.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := unitToResponse(u)
	return &resp, nil
}
