package dto

import "time"

// ─── Assignment requests ─────────────────────────────────────────────────────

type AssignToDealerRequest struct {
	Code     string `json:"code"      validate:"required,min=1"`
	DealerID string `json:"dealer_id" validate:"required,uuid"`
}

type ManualAssignRequest struct {
	Code string `json:"code" validate:"required,min=1"`
}

type BulkAssignRequest struct {
	UnitIDs  []string `json:"unit_ids"  validate:"required,min=1,max=1000,dive,uuid"`
	DealerID string   `json:"dealer_id" validate:"required,uuid"`
}

type AssignToSubDealerRequest struct {
	Code        string `json:"code"          validate:"required,min=1"`
	SubDealerID string `json:"sub_dealer_id" validate:"required,uuid"`
}

type BulkAssignResponse struct {
	Assigned int `json:"assigned"`
}

// ─── Sale / replacement requests ─────────────────────────────────────────────

type SellRequest struct {
	Code string `json:"code" validate:"required,min=1"`
}

type ReplaceRequest struct {
	ReplacementCode string `json:"replacement_code" validate:"required,min=1"`
}

type ListFilter struct {
	Page  int `form:"page,default=1"    validate:"min=1"`
	Limit int `form:"limit,default=100" validate:"min=1,max=500"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type UnitSummary struct {
	ID           string `json:"id"`
	ProductName  string `json:"product_name"`
	CategoryName string `json:"category_name"`
	SerialNumber string `json:"serial_number"`
	Barcode      string `json:"barcode"`
	Motor        string `json:"motor"`
}

type SaleResponse struct {
	ID                string      `json:"id"`
	Unit              UnitSummary `json:"unit"`
	DealerID          *string     `json:"dealer_id"`
	DealerName        string      `json:"dealer_name"`
	SubDealerID       *string     `json:"sub_dealer_id"`
	SubDealerName     string      `json:"sub_dealer_name"`
	SoldBy            string      `json:"sold_by"`
	WarrantyStartDate time.Time   `json:"warranty_start_date"`
	WarrantyEndDate   time.Time   `json:"warranty_end_date"`
	WarrantyPeriod    string      `json:"warranty_period"`
	CreatedAt         time.Time   `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type ReplacementResponse struct {
	ID                string      `json:"id"`
	OriginalUnit      UnitSummary `json:"original_unit"`
	NewUnit           UnitSummary `json:"new_unit"`
	DealerID          *string     `json:"dealer_id"`
	DealerName        string      `json:"dealer_name"`
	SubDealerID       *string     `json:"sub_dealer_id"`
	SubDealerName     string      `json:"sub_dealer_name"`
	WarrantyStartDate time.Time   `json:"warranty_start_date"`
	WarrantyEndDate   time.Time   `json:"warranty_end_date"`
	WarrantyPeriod    string      `json:"warranty_period"` // "<n> days" of the carried window
	ReplacedDate      time.Time   `json:"replaced_date"`
	ReplacedBy        string      `json:"replaced_by"`
}

type ReplacementListResponse struct {
	Data  []ReplacementResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

type ReplaceResponse struct {
	Replacement ReplacementResponse `json:"replacement"`
	Sale        SaleResponse        `json:"sale"`
}

// ─── Reports ─────────────────────────────────────────────────────────────────

type DealerSalesResponse struct {
	DealerID   *string `json:"dealer_id"`
	DealerName string  `json:"dealer_name"`
	UnitsSold  int64   `json:"units_sold"`
}

type ExportRequest struct {
	Kind string `json:"kind" validate:"required,oneof=sales replacements"`
}

type ExportQueuedResponse struct {
	Key string `json:"key"`
}
