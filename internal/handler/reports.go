package handler

import (
	"bytes"
	"net/http"
	"path"
	"strings"
	"time"

	"dealerstock/internal/dto"
	"dealerstock/internal/infra"
	"dealerstock/internal/middleware"
	"dealerstock/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// DealerSales godoc
// @Summary Units sold per originally assigned dealer
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.DealerSalesResponse
// @Router /v1/reports/dealer-sales [get]
func (h *ReportsHandler) DealerSales(c *gin.Context) {
	resp, err := h.svc.DealerSales(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SalesWorkbook renders the sales export synchronously. The workbook is
// built in memory first so a failure still gets a JSON error.
//
// @Summary Download all sales as XLSX
// @Tags reports
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /v1/reports/sales.xlsx [get]
func (h *ReportsHandler) SalesWorkbook(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.WriteExport(c.Request.Context(), service.ExportSales, &buf); err != nil {
		respondError(c, err)
		return
	}
	filename := "sales-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, infra.XLSXContentType, buf.Bytes())
}

// EnqueueExport godoc
// @Summary Queue a spreadsheet export rendered in the background
// @Tags reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.ExportRequest true "Export kind"
// @Success 202 {object} dto.ExportQueuedResponse
// @Router /v1/reports/exports [post]
func (h *ReportsHandler) EnqueueExport(c *gin.Context) {
	var req dto.ExportRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.EnqueueExport(c.Request.Context(), middleware.GetActor(c), req.Kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// DownloadExport streams a finished export. 404 means it is not ready yet
// (or never will be).
func (h *ReportsHandler) DownloadExport(c *gin.Context) {
	key := "exports/" + strings.TrimPrefix(c.Param("key"), "/")
	rc, err := h.svc.OpenExport(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	streamObject(c, rc, infra.XLSXContentType, path.Base(key))
}

// Certificate godoc
// @Summary Warranty certificate for a sale
// @Tags sales
// @Security BearerAuth
// @Produce application/pdf
// @Param id path string true "Sale ID"
// @Success 200 {file} binary
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/{id}/certificate [get]
func (h *ReportsHandler) Certificate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.Certificate(c.Request.Context(), middleware.GetActor(c), id, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="warranty-`+id.String()+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
