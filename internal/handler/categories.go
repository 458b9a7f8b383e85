package handler

import (
	"net/http"

	"dealerstock/internal/dto"
	"dealerstock/internal/service"

	"github.com/gin-gonic/gin"
)

type CategoriesHandler struct {
	svc    service.CategoryService
	images service.ImageService
}

func NewCategoriesHandler(svc service.CategoryService, images service.ImageService) *CategoriesHandler {
	return &CategoriesHandler{svc: svc, images: images}
}

// Create godoc
// @Summary Create a category with its subcategory tree
// @Tags categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CategoryRequest true "Category"
// @Success 201 {object} dto.CategoryResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/categories [post]
func (h *CategoriesHandler) Create(c *gin.Context) {
	var req dto.CategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CategoriesHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoriesHandler) Get(c *gin.Context) {
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

func (h *CategoriesHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CategoryRequest
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

// Delete godoc
// @Summary Delete a category no unit refers to
// @Tags categories
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 204
// @Failure 409 {object} apierror.APIError "Category still in use"
// @Router /v1/categories/{id} [delete]
func (h *CategoriesHandler) Delete(c *gin.Context) {
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

func (h *CategoriesHandler) SetImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	headers, ok := formFiles(c, "image")
	if !ok {
		return
	}
	uploads, closeAll, err := openUploads(headers[:1])
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeAll()

	resp, err := h.images.SetCategoryImage(c.Request.Context(), id, uploads[0])
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoriesHandler) RemoveImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.images.RemoveCategoryImage(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
