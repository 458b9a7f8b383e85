package handler

import (
	"net/http"

	"dealerstock/internal/dto"
	"dealerstock/internal/middleware"
	"dealerstock/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct {
	sales        service.SaleService
	replacements service.ReplacementService
	reports      service.ReportService
}

func NewSalesHandler(sales service.SaleService, replacements service.ReplacementService, reports service.ReportService) *SalesHandler {
	return &SalesHandler{sales: sales, replacements: replacements, reports: reports}
}

// Sell godoc
// @Summary Sell a unit the caller holds and start its warranty
// @Tags sales
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.SellRequest true "Barcode or serial number"
// @Success 201 {object} dto.SaleResponse
// @Failure 404 {object} apierror.APIError "Unit not available to the caller"
// @Router /v1/sales [post]
func (h *SalesHandler) Sell(c *gin.Context) {
	var req dto.SellRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sales.Sell(c.Request.Context(), middleware.GetActor(c), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary List sales visible to the caller
// @Tags sales
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(100)
// @Success 200 {object} dto.SaleListResponse
// @Router /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.ListFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.reports.ListSales(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Replace godoc
// @Summary Replace the unit of a sale, carrying its warranty forward
// @Description The original unit is retired and the sale moves to the replacement unit with the same warranty window.
// @Tags sales
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Sale ID"
// @Param body body dto.ReplaceRequest true "Replacement unit barcode or serial number"
// @Success 200 {object} dto.ReplaceResponse
// @Failure 404 {object} apierror.APIError "Sale not found or replacement unit not available"
// @Failure 409 {object} apierror.APIError "Warranty expired"
// @Router /v1/sales/{id}/replace [post]
func (h *SalesHandler) Replace(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ReplaceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.replacements.Replace(c.Request.Context(), middleware.GetActor(c), id, req.ReplacementCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) Replacements(c *gin.Context) {
	var filter dto.ListFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.reports.ListReplacements(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
