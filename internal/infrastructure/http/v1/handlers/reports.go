package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/reports"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// ReportHandler serves spreadsheet exports.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

func NewReportHandler(base *BaseHandler, service *reports.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: base, service: service}
}

// Sales handles GET /reports/sales.xlsx
func (h *ReportHandler) Sales(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	wb, err := h.service.SalesWorkbook(c.Request.Context(), period)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.download(c, wb)
}

// Expenses handles GET /reports/expenses.xlsx
func (h *ReportHandler) Expenses(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	wb, err := h.service.ExpensesWorkbook(c.Request.Context(), period)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.download(c, wb)
}

func (h *ReportHandler) period(c *gin.Context) (reports.Period, bool) {
	var q dto.DateRangeQuery
	if !h.BindQuery(c, &q) {
		return reports.Period{}, false
	}
	from, to, err := q.Bounds()
	if err != nil {
		h.Error(c, err)
		return reports.Period{}, false
	}
	return reports.Period{From: from, To: to}, true
}

func (h *ReportHandler) download(c *gin.Context, wb *reports.Workbook) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, wb.Filename))
	c.Data(http.StatusOK, wb.ContentType, wb.Content)
}
