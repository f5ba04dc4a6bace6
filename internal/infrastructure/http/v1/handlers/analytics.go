package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/analytics"
)

// AnalyticsHandler serves the analytics report and the dashboard.
type AnalyticsHandler struct {
	*BaseHandler
	service *analytics.Service
}

func NewAnalyticsHandler(base *BaseHandler, service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{BaseHandler: base, service: service}
}

// Report handles GET /analytics
func (h *AnalyticsHandler) Report(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Dashboard handles GET /dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}
