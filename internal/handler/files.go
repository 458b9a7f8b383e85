package handler

import (
	"mime"
	"path"
	"strings"

	"dealerstock/internal/service"

	"github.com/gin-gonic/gin"
)

type FilesHandler struct{ images service.ImageService }

func NewFilesHandler(images service.ImageService) *FilesHandler {
	return &FilesHandler{images: images}
}

// Get godoc
// @Summary Stream a stored unit or category image
// @Tags files
// @Security BearerAuth
// @Param key path string true "Object key, e.g. units/<id>/<file>.jpg"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Router /v1/files/{key} [get]
func (h *FilesHandler) Get(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	rc, err := h.images.Open(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, max-age=86400")
	streamObject(c, rc, contentType, "")
}
