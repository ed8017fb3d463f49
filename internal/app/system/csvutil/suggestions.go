// internal/app/system/csvutil/suggestions.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/hakbangquest/hakbangweb/internal/domain/models"
)

// ErrRowLimit is returned by Write once MaxExportRows rows have been written.
var ErrRowLimit = errors.New("csvutil: export row limit reached")

// SuggestionHeader is the header row of a suggestions export.
var SuggestionHeader = []string{"id", "created_at", "name", "text", "submitter_email", "submitter_role"}

// SuggestionWriter streams suggestions as CSV. The output starts with a
// UTF-8 BOM so spreadsheet tools detect the encoding.
type SuggestionWriter struct {
	cw    *csv.Writer
	rows  int
	limit int
}

// NewSuggestionWriter writes the BOM and header row to w.
func NewSuggestionWriter(w io.Writer) (*SuggestionWriter, error) {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return nil, err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(SuggestionHeader); err != nil {
		return nil, err
	}
	return &SuggestionWriter{cw: cw, limit: MaxExportRows}, nil
}

// Write appends one row per suggestion and flushes. Rows past the limit are
// not written and ErrRowLimit is returned.
func (s *SuggestionWriter) Write(items []models.Suggestion) error {
	for _, it := range items {
		if s.rows >= s.limit {
			s.cw.Flush()
			return ErrRowLimit
		}
		rec := []string{
			it.ID.Hex(),
			it.CreatedAt.UTC().Format(time.RFC3339),
			EscapeFormula(it.Name),
			EscapeFormula(it.Text),
			EscapeFormula(it.Submitter.Email),
			EscapeFormula(it.Submitter.Role),
		}
		if err := s.cw.Write(rec); err != nil {
			return err
		}
		s.rows++
	}
	s.cw.Flush()
	return s.cw.Error()
}

// Rows reports how many data rows have been written.
func (s *SuggestionWriter) Rows() int { return s.rows }

// Flush writes any buffered data.
func (s *SuggestionWriter) Flush() error {
	s.cw.Flush()
	return s.cw.Error()
}

// EscapeFormula prefixes values a spreadsheet would evaluate as a formula
// with a single quote.
func EscapeFormula(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

// Filename returns a sanitized CSV filename from the "filename" query
// param, or prefix plus a UTC timestamp when none is given.
func Filename(r *http.Request, prefix string, now time.Time) string {
	name := strings.TrimSpace(r.URL.Query().Get("filename"))
	name = strings.Map(func(c rune) rune {
		if c == '/' || c == '\\' || c == '"' || c < 0x20 {
			return -1
		}
		return c
	}, name)
	if name == "" {
		name = prefix + "_" + now.UTC().Format("20060102_150405")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name
}

// SetDownloadHeaders marks the response as a CSV attachment. Non-ASCII
// names are sent in the RFC 2231 filename* form.
func SetDownloadHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	cd := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if cd == "" {
		cd = "attachment"
	}
	w.Header().Set("Content-Disposition", cd)
}
