package handler

import (
	"net/http"

	"dealerstock/internal/dto"
	"dealerstock/internal/middleware"
	"dealerstock/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AssignmentsHandler moves units down the distribution chain.
type AssignmentsHandler struct{ svc service.AssignmentService }

func NewAssignmentsHandler(svc service.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{svc: svc}
}

// AssignToDealer godoc
// @Summary Assign an unassigned unit to a dealer
// @Tags assignments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.AssignToDealerRequest true "Barcode or serial number, and dealer"
// @Success 200 {object} dto.UnitResponse
// @Failure 404 {object} apierror.APIError "Unit not available or dealer not found"
// @Router /v1/assignments/dealer [post]
func (h *AssignmentsHandler) AssignToDealer(c *gin.Context) {
	var req dto.AssignToDealerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	dealerID, ok := bodyID(c, "dealer_id", req.DealerID)
	if !ok {
		return
	}
	resp, err := h.svc.AdminAssign(c.Request.Context(), middleware.GetActor(c), req.Code, dealerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ManualAssign godoc
// @Summary Claim an unassigned unit for the calling dealer
// @Tags assignments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.ManualAssignRequest true "Barcode or serial number"
// @Success 200 {object} dto.UnitResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/assignments/dealer/manual [post]
func (h *AssignmentsHandler) ManualAssign(c *gin.Context) {
	var req dto.ManualAssignRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.DealerManualAssign(c.Request.Context(), middleware.GetActor(c), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BulkAssign godoc
// @Summary Assign many unassigned units to a dealer, all or nothing
// @Tags assignments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.BulkAssignRequest true "Unit IDs and dealer"
// @Success 200 {object} dto.BulkAssignResponse
// @Failure 409 {object} apierror.APIError "Some units are not available"
// @Router /v1/assignments/dealer/bulk [post]
func (h *AssignmentsHandler) BulkAssign(c *gin.Context) {
	var req dto.BulkAssignRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ids := make([]uuid.UUID, len(req.UnitIDs))
	for i, raw := range req.UnitIDs {
		id, ok := bodyID(c, "unit_ids", raw)
		if !ok {
			return
		}
		ids[i] = id
	}
	dealerID, ok := bodyID(c, "dealer_id", req.DealerID)
	if !ok {
		return
	}
	n, err := h.svc.BulkAssign(c.Request.Context(), middleware.GetActor(c), ids, dealerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BulkAssignResponse{Assigned: n})
}

// AssignToSubDealer godoc
// @Summary Pass a unit the dealer holds to one of its sub-dealers
// @Tags assignments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.AssignToSubDealerRequest true "Barcode or serial number, and sub-dealer"
// @Success 200 {object} dto.UnitResponse
// @Failure 403 {object} apierror.APIError "Sub-dealer belongs to another dealer"
// @Failure 404 {object} apierror.APIError
// @Router /v1/assignments/sub-dealer [post]
func (h *AssignmentsHandler) AssignToSubDealer(c *gin.Context) {
	var req dto.AssignToSubDealerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	subDealerID, ok := bodyID(c, "sub_dealer_id", req.SubDealerID)
	if !ok {
		return
	}
	resp, err := h.svc.DealerToSubDealerAssign(c.Request.Context(), middleware.GetActor(c), req.Code, subDealerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
