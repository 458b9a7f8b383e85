package service

import (
	"context"
	"time"

	"dealerstock/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Clock returns the current time; services take one so tests can pin "now".
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// runTx wraps fn in a DB transaction. When db is nil (stub repositories),
// fn runs with a nil tx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func movement(unitID uuid.UUID, op string, from, to model.Placement, actor model.Actor, ref *uuid.UUID) *model.PlacementMovement {
	return &model.PlacementMovement{
		UnitID:       unitID,
		Operation:    op,
		FromKind:     from.Kind,
		FromHolderID: from.HolderID,
		ToKind:       to.Kind,
		ToHolderID:   to.HolderID,
		ActorRole:    actor.Role,
		ActorID:      actor.ID,
		ReferenceID:  ref,
	}
}

// logTransition records a committed placement change.
func logTransition(op string, unitID uuid.UUID, from, to model.Placement, actor model.Actor) {
	log.Info().
		Str("op", op).
		Str("unit_id", unitID.String()).
		Str("from", from.String()).
		Str("to", to.String()).
		Str("actor_id", actor.ID.String()).
		Str("actor_role", string(actor.Role)).
		Msg("placement transition")
}

// Movement operations.
const (
	opAdminAssign     = "admin_assign"
	opManualAssign    = "manual_assign"
	opBulkAssign      = "bulk_assign"
	opSubDealerAssign = "sub_dealer_assign"
	opSale            = "sale"
	opReplacementIn   = "replacement_in"
	opRetire          = "retire"
)
