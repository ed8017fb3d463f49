// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	uierrors "github.com/hakbangquest/hakbangweb/internal/app/features/errors"
	"github.com/hakbangquest/hakbangweb/internal/app/store/audit"
	"github.com/hakbangquest/hakbangweb/internal/app/system/timeouts"
)

const pageSize = 50

const dateLayout = "2006-01-02"

type listResponse struct {
	Items      []audit.Event `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// parseFilter reads category, event_type, outcome, start_date, end_date and
// page. Dates are whole UTC days; end_date includes the whole day. It returns
// the offending parameter name when one cannot be parsed.
func parseFilter(r *http.Request) (audit.QueryFilter, int, string) {
	filter := audit.QueryFilter{
		Category:  query.Get(r, "category"),
		EventType: query.Get(r, "event_type"),
		Limit:     pageSize,
	}

	switch strings.ToLower(query.Get(r, "outcome")) {
	case "":
	case "ok":
		ok := true
		filter.Success = &ok
	case "failed":
		failed := false
		filter.Success = &failed
	default:
		return filter, 0, "outcome"
	}

	if raw := query.Get(r, "start_date"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, 0, "start_date"
		}
		filter.StartTime = &t
	}
	if raw := query.Get(r, "end_date"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, 0, "end_date"
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	page := 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}
	filter.Offset = int64((page - 1) * pageSize)
	return filter, page, ""
}

// ServeList handles GET /api/admin/audit: one page of audit events, newest
// first, with the total match count.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, page, bad := parseFilter(r)
	if bad != "" {
		h.ErrLog.LogBadRequest(w, r, "bad audit filter", nil, bad, bad+" is invalid")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit list")
	defer cancel()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "query audit events failed", err, "The audit log is unavailable. Please try again.")
		return
	}
	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "count audit events failed", err, "The audit log is unavailable. Please try again.")
		return
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	uierrors.WriteJSON(w, http.StatusOK, listResponse{
		Items:      events,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	})
}
