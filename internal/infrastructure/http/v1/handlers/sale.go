package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/sales"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// SaleObserver is notified after a sale mutation commits.
type SaleObserver interface {
	SaleCommitted(event string, sale *sales.Sale)
}

// SaleHandler handles sale and reconciliation endpoints.
type SaleHandler struct {
	*BaseHandler
	service  *sales.Service
	observer SaleObserver
}

func NewSaleHandler(base *BaseHandler, service *sales.Service, observer SaleObserver) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service, observer: observer}
}

func (h *SaleHandler) committed(event string, sale *sales.Sale) {
	if h.observer != nil {
		h.observer.SaleCommitted(event, sale)
	}
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	var q dto.SaleListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// ListOpen handles GET /sales/open
func (h *SaleHandler) ListOpen(c *gin.Context) {
	items, err := h.service.ListOpen(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Outstanding handles GET /sales/outstanding
func (h *SaleHandler) Outstanding(c *gin.Context) {
	total, tabs, err := h.service.Outstanding(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.OutstandingResponse{Outstanding: total, OpenTabs: tabs})
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.PathID(c)
	if !ok {
		return
	}

	sale, err := h.service.Get(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

// Create handles POST /sales. It always issues a new invoice.
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	sale, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.committed(sales.EventSaleCreated, sale)
	h.Created(c, sale)
}

// Checkout handles POST /sales/checkout
func (h *SaleHandler) Checkout(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Checkout(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	if result.Consolidated {
		h.committed(sales.EventSaleConsolidated, result.Sale)
		h.OK(c, result)
		return
	}
	h.committed(sales.EventSaleCreated, result.Sale)
	h.Created(c, result)
}

// Consolidate handles POST /sales/:id/consolidate
func (h *SaleHandler) Consolidate(c *gin.Context) {
	saleID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.ConsolidateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	sale, err := h.service.Consolidate(c.Request.Context(), saleID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.committed(sales.EventSaleConsolidated, sale)
	h.OK(c, sale)
}

// Payment handles POST /sales/:id/payment
func (h *SaleHandler) Payment(c *gin.Context) {
	saleID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.ApplyPayment(c.Request.Context(), saleID, req.AdditionalPayment)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.committed(sales.EventPaymentApplied, sale)
	h.OK(c, sale)
}

// Debt handles POST /sales/:id/debt
func (h *SaleHandler) Debt(c *gin.Context) {
	saleID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.DebtRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.AddDebt(c.Request.Context(), saleID, req.AdditionalDebt)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.committed(sales.EventDebtAdded, sale)
	h.OK(c, sale)
}
