package handler

import (
	"net/http"

	"dealerstock/internal/dto"
	"dealerstock/internal/middleware"
	"dealerstock/internal/service"

	"github.com/gin-gonic/gin"
)

// UnitsHandler serves the unit ledger and the per-holder placement views.
type UnitsHandler struct {
	svc    service.InventoryService
	images service.ImageService
}

func NewUnitsHandler(svc service.InventoryService, images service.ImageService) *UnitsHandler {
	return &UnitsHandler{svc: svc, images: images}
}

// Create godoc
// @Summary Create a batch of units sharing a base serial number
// @Tags units
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CreateUnitsRequest true "Batch"
// @Success 201 {array} dto.UnitResponse
// @Failure 409 {object} apierror.APIError "Serial number or barcode already in use"
// @Failure 422 {object} apierror.APIError
// @Router /v1/units [post]
func (h *UnitsHandler) Create(c *gin.Context) {
	var req dto.CreateUnitsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateBatch(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary List units
// @Tags units
// @Security BearerAuth
// @Produce json
// @Param search query string false "Product name, serial number or barcode"
// @Param category query string false "Category name, or 'all'"
// @Param placement query string false "unassigned, at_dealer, at_sub_dealer, sold, retired"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(50)
// @Success 200 {object} dto.UnitListResponse
// @Router /v1/units [get]
func (h *UnitsHandler) List(c *gin.Context) {
	var filter dto.UnitFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UnitsHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Edit a unit's descriptive fields
// @Description Placement, serial number and barcode cannot be edited.
// @Tags units
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Unit ID"
// @Param body body dto.UpdateUnitRequest true "Fields to change"
// @Success 200 {object} dto.UnitResponse
// @Router /v1/units/{id} [put]
func (h *UnitsHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUnitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete removes a unit that was never assigned.
func (h *UnitsHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UnitsHandler) History(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UploadImages godoc
// @Summary Replace a unit's images
// @Tags units
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Unit ID"
// @Param images formData file true "Up to 5 JPEG, PNG or WebP images"
// @Success 200 {object} dto.UnitResponse
// @Router /v1/units/{id}/images [post]
func (h *UnitsHandler) UploadImages(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	headers, ok := formFiles(c, "images")
	if !ok {
		return
	}
	uploads, closeAll, err := openUploads(headers)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeAll()

	resp, err := h.images.ReplaceUnitImages(c.Request.Context(), id, uploads)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Placement views ──────────────────────────────────────────────────────────

// DealerUnits lists the units the calling dealer holds.
func (h *UnitsHandler) DealerUnits(c *gin.Context) {
	var filter dto.UnitFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListAtDealer(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MySubDealerUnits lists the units the calling sub-dealer holds.
func (h *UnitsHandler) MySubDealerUnits(c *gin.Context) {
	var filter dto.UnitFilter
	if !bindQuery(c, &filter) {
		return
	}
	actor := middleware.GetActor(c)
	resp, err := h.svc.ListAtSubDealer(c.Request.Context(), actor, actor.ID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubDealerUnits lets a dealer (or the admin) look at one sub-dealer's units.
func (h *UnitsHandler) SubDealerUnits(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var filter dto.UnitFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListAtSubDealer(c.Request.Context(), middleware.GetActor(c), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
