package service

import (
	"context"
	"fmt"

	"dealerstock/internal/dto"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"
	"dealerstock/internal/warranty"

	"github.com/google/uuid"
)

func idPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func unitToResponse(u *model.Unit) dto.UnitResponse {
	resp := dto.UnitResponse{
		ID:                       u.ID.String(),
		ProductName:              u.ProductName,
		CategoryID:               u.CategoryID.String(),
		Subcategory:              u.Subcategory,
		SubSubcategory:           u.SubSubcategory,
		SerialNumber:             u.SerialNumber,
		Barcode:                  u.Barcode,
		Quantity:                 u.Quantity,
		QuantityText:             u.QuantityText,
		Power:                    dto.PowerDTO{KW: u.PowerKW, HP: u.PowerHP},
		Volts:                    u.Volts,
		Phase:                    u.Phase,
		Stage:                    u.Stage,
		MaxDischarge:             u.MaxDischarge,
		MaxHead:                  u.MaxHead,
		PipeSize:                 u.PipeSize,
		Motor:                    u.Motor,
		OperatorHeadRange:        u.OperatorHeadRange,
		MaxCurrent:               u.MaxCurrent,
		Capacitor:                u.Capacitor,
		DutyPoint:                u.DutyPoint,
		NomHead:                  u.NomHead,
		NomDis:                   u.NomDis,
		OverallEfficiency:        u.OverallEfficiency,
		RatedSpeed:               u.RatedSpeed,
		Description:              u.Description,
		Images:                   []string(u.Images),
		Warranty:                 u.WarrantyDuration,
		WarrantyUnit:             u.WarrantyUnit,
		Placement:                dto.PlacementDTO{State: string(u.Placement.Kind), HolderID: idPtr(u.Placement.HolderID)},
		IsReplaced:               u.Placement.IsRetired(),
		OriginalAssignedDealerID: idPtr(u.OriginalAssignedDealerID),
		AssignedByAdmin:          u.AssignedByAdmin,
		AssignedAt:               u.AssignedAt,
		AssignedToSubDealerAt:    u.AssignedToSubDealerAt,
		WarrantyStartDate:        u.WarrantyStartDate,
		WarrantyEndDate:          u.WarrantyEndDate,
		CreatedAt:                u.CreatedAt,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if d, err := warranty.New(u.WarrantyDuration, u.WarrantyUnit); err == nil {
		resp.WarrantyDays = d.ApproxDays()
	}
	if u.Category != nil {
		resp.CategoryName = u.Category.Name
	}
	return resp
}

func unitSummary(u *model.Unit) dto.UnitSummary {
	if u == nil {
		return dto.UnitSummary{}
	}
	s := dto.UnitSummary{
		ID:           u.ID.String(),
		ProductName:  u.ProductName,
		SerialNumber: u.SerialNumber,
		Barcode:      u.Barcode,
		Motor:        u.Motor,
	}
	if u.Category != nil {
		s.CategoryName = u.Category.Name
	}
	return s
}

// accountNames resolves display names for the account ids referenced by a
// listing. It is a read-side projection and runs outside any transaction.
type accountNames map[uuid.UUID]string

func loadAccountNames(ctx context.Context, repo repository.AccountRepository, ids ...*uuid.UUID) (accountNames, error) {
	seen := make(map[uuid.UUID]struct{})
	var list []uuid.UUID
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		list = append(list, *id)
	}
	accounts, err := repo.FindByIDs(ctx, list)
	if err != nil {
		return nil, err
	}
	names := make(accountNames, len(accounts))
	for i := range accounts {
		names[accounts[i].ID] = accounts[i].DisplayName()
	}
	return names, nil
}

func (n accountNames) of(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return n[*id]
}

// saleToResponse formats a sale. The dealer shown is the unit's original
// assigned dealer unless the dealer sold it directly.
func saleToResponse(s *model.Sale, names accountNames) dto.SaleResponse {
	dealerID := s.DealerID
	if s.SoldBy != model.SoldByDealer && s.Unit != nil && s.Unit.OriginalAssignedDealerID != nil {
		dealerID = s.Unit.OriginalAssignedDealerID
	}
	return dto.SaleResponse{
		ID:                s.ID.String(),
		Unit:              unitSummary(s.Unit),
		DealerID:          idPtr(dealerID),
		DealerName:        names.of(dealerID),
		SubDealerID:       idPtr(s.SubDealerID),
		SubDealerName:     names.of(s.SubDealerID),
		SoldBy:            s.SoldBy,
		WarrantyStartDate: s.WarrantyStartDate,
		WarrantyEndDate:   s.WarrantyEndDate,
		WarrantyPeriod:    s.WarrantyPeriod,
		CreatedAt:         s.CreatedAt,
	}
}

func replacementToResponse(r *model.Replacement, names accountNames) dto.ReplacementResponse {
	return dto.ReplacementResponse{
		ID:                r.ID.String(),
		OriginalUnit:      unitSummary(r.OriginalUnit),
		NewUnit:           unitSummary(r.NewUnit),
		DealerID:          idPtr(r.DealerID),
		DealerName:        names.of(r.DealerID),
		SubDealerID:       idPtr(r.SubDealerID),
		SubDealerName:     names.of(r.SubDealerID),
		WarrantyStartDate: r.WarrantyStartDate,
		WarrantyEndDate:   r.WarrantyEndDate,
		WarrantyPeriod:    fmt.Sprintf("%d days", warranty.WindowDays(r.WarrantyStartDate, r.WarrantyEndDate)),
		ReplacedDate:      r.ReplacedDate,
		ReplacedBy:        string(r.ReplacedBy),
	}
}

func accountToResponse(a *model.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:                   a.ID.String(),
		Role:                 string(a.Role),
		Username:             a.Username,
		Phone:                a.Phone,
		FirstName:            a.FirstName,
		LastName:             a.LastName,
		BusinessName:         a.BusinessName,
		Address:              a.Address,
		ParentDealerID:       idPtr(a.ParentDealerID),
		PasswordChangeStatus: string(a.PasswordChangeStatus),
		PasswordRequestedAt:  a.PasswordChangeRequestedAt,
		Active:               a.Active,
		CreatedAt:            a.CreatedAt,
	}
}

func movementToResponse(m *model.PlacementMovement) dto.MovementResponse {
	return dto.MovementResponse{
		Operation:    m.Operation,
		From:         string(m.FromKind),
		FromHolderID: idPtr(m.FromHolderID),
		To:           string(m.ToKind),
		ToHolderID:   idPtr(m.ToHolderID),
		ActorRole:    string(m.ActorRole),
		ActorID:      m.ActorID.String(),
		ReferenceID:  idPtr(m.ReferenceID),
		CreatedAt:    m.CreatedAt,
	}
}
