package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/infrastructure/http/v1/dto"
	"shopledger/internal/infrastructure/storage/postgres"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HistorySource reads the audit trail.
type HistorySource interface {
	GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

var auditedEntities = map[string]bool{"sale": true, "product": true, "expense": true}

// HistoryHandler serves the change history of sales and catalog records.
type HistoryHandler struct {
	*BaseHandler
	source HistorySource
}

func NewHistoryHandler(base *BaseHandler, source HistorySource) *HistoryHandler {
	return &HistoryHandler{BaseHandler: base, source: source}
}

// Get handles GET /history/:entity/:id
func (h *HistoryHandler) Get(c *gin.Context) {
	entity := c.Param("entity")
	if !auditedEntities[entity] {
		h.Error(c, apperror.NewFieldValidation("entity", "entity must be sale, product or expense").
			WithDetail("value", entity))
		return
	}
	entityID, ok := h.PathID(c)
	if !ok {
		return
	}
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := h.source.GetEntityHistory(c.Request.Context(), entity, entityID, limit)
	if err != nil {
		h.Error(c, apperror.NewDatabase("get entity history", err))
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromAuditEntries(entries)))
}
