package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
)

// AuditService defines the behavior needed by AuditHandler.
type AuditService interface {
	ListAuditLogs(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
	ListEvents(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
}

// AuditHandler serves the audit trail and per-aggregate event history.
type AuditHandler struct {
	audit AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audit AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns audit rows filtered by user_id, action, resource_type,
// resource_id and an inclusive start/end date range.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := parsePage(r)
	filter := domain.AuditFilter{
		UserID:       q.Get("user_id"),
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		Limit:        limit,
		Offset:       offset,
	}

	if q.Get("start") != "" {
		start, err := parseDateQuery(r, "start", time.Time{})
		if err != nil {
			writeDomainError(w, "invalid start date", err)
			return
		}
		filter.StartDate = &start
	}
	if q.Get("end") != "" {
		end, err := parseDateQuery(r, "end", time.Time{})
		if err != nil {
			writeDomainError(w, "invalid end date", err)
			return
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.EndDate = &end
	}

	logs, err := h.audit.ListAuditLogs(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to list audit logs", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.AuditLogResponse]{
		Items:  dto.AuditLogsFromDomain(logs),
		Limit:  limit,
		Offset: offset,
	})
}

// Events returns the events emitted for one register or cheque.
func (h *AuditHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)

	events, err := h.audit.ListEvents(r.Context(), chi.URLParam(r, "aggregateType"), chi.URLParam(r, "aggregateID"), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list events", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.OutboxEventResponse]{
		Items:  dto.OutboxEventsFromDomain(events),
		Limit:  limit,
		Offset: offset,
	})
}
