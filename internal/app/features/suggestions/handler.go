// internal/app/features/suggestions/handler.go
package suggestions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	uierrors "github.com/hakbangquest/hakbangweb/internal/app/features/errors"
	"github.com/hakbangquest/hakbangweb/internal/app/suggestion"
	"github.com/hakbangquest/hakbangweb/internal/app/system/auditlog"
	"github.com/hakbangquest/hakbangweb/internal/app/system/csvutil"
	"github.com/hakbangquest/hakbangweb/internal/app/system/normalize"
	"github.com/hakbangquest/hakbangweb/internal/app/system/timeouts"
	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"go.uber.org/zap"
)

// maxBody bounds a submission body. The longest valid payload is well under
// this.
const maxBody = 64 << 10

type Handler struct {
	Repo            *suggestion.Repository
	ErrLog          *uierrors.ErrorLogger
	Audit           *auditlog.Logger
	Log             *zap.Logger
	DefaultPageSize int
	MaxPageSize     int
}

func NewHandler(repo *suggestion.Repository, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, defaultPageSize, maxPageSize int, logger *zap.Logger) *Handler {
	if defaultPageSize <= 0 {
		defaultPageSize = suggestion.DefaultPageSize
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return &Handler{
		Repo:            repo,
		ErrLog:          errLog,
		Audit:           audit,
		Log:             logger,
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/suggestions                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type submitRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// HandleSubmit accepts a guest suggestion as JSON or as a form post and
// answers 201 with the stored document.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var in submitRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			h.ErrLog.LogBadRequest(w, r, "decode suggestion body failed", err, "", "Request body must be a JSON object with name and text.")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "", "Invalid form data.")
			return
		}
		in.Name = r.FormValue("name")
		in.Text = r.FormValue("text")
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, err := h.Repo.Submit(ctx, in.Name, in.Text)
	if err != nil {
		h.ErrLog.Respond(w, r, "submit suggestion failed", err)
		return
	}

	h.Audit.SuggestionSubmitted(ctx, r, s.ID)
	uierrors.WriteJSON(w, http.StatusCreated, s)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/suggestions                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type pageResponse struct {
	Items      []models.Suggestion `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
	HasMore    bool                `json:"has_more"`
}

// pageSize reads page_size. Blank means the default; values above the
// maximum are clamped; anything else that is not a positive integer is a
// validation error.
func (h *Handler) pageSize(r *http.Request) (int, error) {
	raw := query.Get(r, "page_size")
	if raw == "" {
		return h.DefaultPageSize, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, &suggestion.ValidationError{Field: "page_size", Reason: "must be a positive integer"}
	}
	if n > h.MaxPageSize {
		n = h.MaxPageSize
	}
	return n, nil
}

// ServeList returns one page of suggestions, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	size, err := h.pageSize(r)
	if err != nil {
		h.ErrLog.Respond(w, r, "bad page_size", err)
		return
	}
	cursor := suggestion.Cursor(normalize.QueryParam(r.URL.Query().Get("cursor")))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Repo.FetchPage(ctx, cursor, size)
	if err != nil {
		h.ErrLog.Respond(w, r, "fetch suggestion page failed", err)
		return
	}

	resp := pageResponse{
		Items:      page.Items,
		NextCursor: page.NextCursor.String(),
		HasMore:    page.HasMore,
	}
	if resp.Items == nil {
		resp.Items = []models.Suggestion{}
	}
	uierrors.WriteJSON(w, http.StatusOK, resp)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/suggestions/export.csv                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeExport streams every suggestion as CSV. The first page is fetched
// before any output so a store failure still gets a proper error status.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	pager := suggestion.NewPager(h.Repo, h.MaxPageSize)
	defer pager.Close()

	first, err := pager.LoadMore(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "export: first page failed", err)
		return
	}

	csvutil.SetDownloadHeaders(w, csvutil.Filename(r, "suggestions", time.Now()))
	sw, err := csvutil.NewSuggestionWriter(w)
	if err != nil {
		h.Log.Warn("export: write header failed", zap.Error(err))
		return
	}

	complete := true
	err = sw.Write(first)
	if err == nil {
		err = pager.Drain(ctx, sw.Write)
	}
	if err != nil {
		complete = false
		if errors.Is(err, csvutil.ErrRowLimit) {
			h.Log.Warn("export: row limit reached", zap.Int("rows", sw.Rows()))
		} else {
			h.Log.Error("export: stream interrupted", zap.Int("rows", sw.Rows()), zap.Error(err))
		}
	}

	h.Audit.SuggestionsExported(ctx, r, sw.Rows(), complete)
	h.Log.Info("suggestions CSV exported", zap.Int("rows", sw.Rows()), zap.Bool("complete", complete))
}
