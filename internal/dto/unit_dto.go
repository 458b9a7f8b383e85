package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateUnitsRequest creates Quantity units sharing a base serial number.
// Power is "<kW>/<HP>"; Warranty is kept as entered and validated by the service.
type CreateUnitsRequest struct {
	ProductName       string `json:"product_name"        validate:"required,min=1,max=200"`
	CategoryID        string `json:"category_id"         validate:"required,uuid"`
	Subcategory       string `json:"subcategory"         validate:"omitempty,max=100"`
	SubSubcategory    string `json:"sub_subcategory"     validate:"omitempty,max=100"`
	SerialNumber      string `json:"serial_number"       validate:"required,min=1,max=100"`
	Quantity          int    `json:"quantity"            validate:"required,min=1"`
	QuantityText      string `json:"quantity_text"`
	Power             string `json:"power"`
	Volts             string `json:"volts"`
	Phase             string `json:"phase"`
	Stage             string `json:"stage"`
	MaxDischarge      string `json:"max_discharge"`
	MaxHead           string `json:"max_head"`
	PipeSize          string `json:"pipe_size"`
	Motor             string `json:"motor"`
	OperatorHeadRange string `json:"operator_head_range"`
	MaxCurrent        string `json:"max_current"`
	Capacitor         string `json:"capacitor"`
	DutyPoint         string `json:"duty_point"`
	NomHead           string `json:"nom_head"`
	NomDis            string `json:"nom_dis"`
	OverallEfficiency string `json:"overall_efficiency"`
	RatedSpeed        string `json:"rated_speed"`
	Description       string `json:"description"`
	Warranty          string `json:"warranty"            validate:"required"`
	WarrantyUnit      string `json:"warranty_unit"       validate:"required"`
}

// UpdateUnitRequest edits descriptive fields only.
type UpdateUnitRequest struct {
	ProductName       *string `json:"product_name"    validate:"omitempty,min=1,max=200"`
	CategoryID        *string `json:"category_id"     validate:"omitempty,uuid"`
	Subcategory       *string `json:"subcategory"     validate:"omitempty,max=100"`
	SubSubcategory    *string `json:"sub_subcategory" validate:"omitempty,max=100"`
	QuantityText      *string `json:"quantity_text"`
	Power             *string `json:"power"`
	Volts             *string `json:"volts"`
	Phase             *string `json:"phase"`
	Stage             *string `json:"stage"`
	MaxDischarge      *string `json:"max_discharge"`
	MaxHead           *string `json:"max_head"`
	PipeSize          *string `json:"pipe_size"`
	Motor             *string `json:"motor"`
	OperatorHeadRange *string `json:"operator_head_range"`
	MaxCurrent        *string `json:"max_current"`
	Capacitor         *string `json:"capacitor"`
	DutyPoint         *string `json:"duty_point"`
	NomHead           *string `json:"nom_head"`
	NomDis            *string `json:"nom_dis"`
	OverallEfficiency *string `json:"overall_efficiency"`
	RatedSpeed        *string `json:"rated_speed"`
	Description       *string `json:"description"`
	Warranty          *string `json:"warranty"`
	WarrantyUnit      *string `json:"warranty_unit"`
}

type UnitFilter struct {
	Search    string `form:"search"`
	Category  string `form:"category"` // category name; "all" or empty = any
	Placement string `form:"placement" validate:"omitempty,oneof=unassigned at_dealer at_sub_dealer sold retired"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PowerDTO struct {
	KW decimal.Decimal `json:"kw"`
	HP decimal.Decimal `json:"hp"`
}

type PlacementDTO struct {
	State    string  `json:"state"`
	HolderID *string `json:"holder_id"`
}

type UnitResponse struct {
	ID                       string       `json:"id"`
	ProductName              string       `json:"product_name"`
	CategoryID               string       `json:"category_id"`
	CategoryName             string       `json:"category_name"`
	Subcategory              string       `json:"subcategory"`
	SubSubcategory           string       `json:"sub_subcategory"`
	SerialNumber             string       `json:"serial_number"`
	Barcode                  string       `json:"barcode"`
	Quantity                 int          `json:"quantity"`
	QuantityText             string       `json:"quantity_text"`
	Power                    PowerDTO     `json:"power"`
	Volts                    string       `json:"volts"`
	Phase                    string       `json:"phase"`
	Stage                    string       `json:"stage"`
	MaxDischarge             string       `json:"max_discharge"`
	MaxHead                  string       `json:"max_head"`
	PipeSize                 string       `json:"pipe_size"`
	Motor                    string       `json:"motor"`
	OperatorHeadRange        string       `json:"operator_head_range"`
	MaxCurrent               string       `json:"max_current"`
	Capacitor                string       `json:"capacitor"`
	DutyPoint                string       `json:"duty_point"`
	NomHead                  string       `json:"nom_head"`
	NomDis                   string       `json:"nom_dis"`
	OverallEfficiency        string       `json:"overall_efficiency"`
	RatedSpeed               string       `json:"rated_speed"`
	Description              string       `json:"description"`
	Images                   []string     `json:"images"`
	Warranty                 int          `json:"warranty"`
	WarrantyUnit             string       `json:"warranty_unit"`
	WarrantyDays             int          `json:"warranty_days"` // 30-day months, 365-day years
	Placement                PlacementDTO `json:"placement"`
	IsReplaced               bool         `json:"is_replaced"`
	OriginalAssignedDealerID *string      `json:"original_assigned_dealer_id"`
	AssignedByAdmin          bool         `json:"assigned_by_admin"`
	AssignedAt               *time.Time   `json:"assigned_at"`
	AssignedToSubDealerAt    *time.Time   `json:"assigned_to_sub_dealer_at"`
	WarrantyStartDate        *time.Time   `json:"warranty_start_date"`
	WarrantyEndDate          *time.Time   `json:"warranty_end_date"`
	CreatedAt                time.Time    `json:"created_at"`
}

type UnitListResponse struct {
	Data       []UnitResponse `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

type MovementResponse struct {
	Operation    string    `json:"operation"`
	From         string    `json:"from"`
	FromHolderID *string   `json:"from_holder_id"`
	To           string    `json:"to"`
	ToHolderID   *string   `json:"to_holder_id"`
	ActorRole    string    `json:"actor_role"`
	ActorID      string    `json:"actor_id"`
	ReferenceID  *string   `json:"reference_id"`
	CreatedAt    time.Time `json:"created_at"`
}
