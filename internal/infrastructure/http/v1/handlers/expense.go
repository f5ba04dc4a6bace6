package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/expense"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// ExpenseHandler handles expense endpoints.
type ExpenseHandler struct {
	*BaseHandler
	service *expense.Service
}

func NewExpenseHandler(base *BaseHandler, service *expense.Service) *ExpenseHandler {
	return &ExpenseHandler{BaseHandler: base, service: service}
}

// List handles GET /expenses
func (h *ExpenseHandler) List(c *gin.Context) {
	var q dto.ExpenseListQuery
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
	h.OK(c, dto.NewExpenseListResponse(items))
}

// Get handles GET /expenses/:id
func (h *ExpenseHandler) Get(c *gin.Context) {
	expenseID, ok := h.PathID(c)
	if !ok {
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), expenseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Create handles POST /expenses
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req dto.CreateExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	e, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, e)
}

// Update handles PUT /expenses/:id
func (h *ExpenseHandler) Update(c *gin.Context) {
	expenseID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.UpdateExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	e, err := h.service.Edit(c.Request.Context(), expenseID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Delete handles DELETE /expenses/:id
func (h *ExpenseHandler) Delete(c *gin.Context) {
	expenseID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), expenseID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
