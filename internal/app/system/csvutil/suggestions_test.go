package csvutil

import (
	"bytes"
	"encoding/csv"
	"errors"
	"mime"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sample(name, text string) models.Suggestion {
	return models.Suggestion{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Text:      text,
		CreatedAt: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
		Submitter: models.GuestSubmitter(),
	}
}

func readAll(t *testing.T, b []byte) [][]string {
	t.Helper()
	if !bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("expected UTF-8 BOM")
	}
	recs, err := csv.NewReader(bytes.NewReader(b[3:])).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	return recs
}

func TestSuggestionWriter_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	sw, err := NewSuggestionWriter(&buf)
	if err != nil {
		t.Fatalf("NewSuggestionWriter() error = %v", err)
	}
	s := sample("Ana", "Line one\nline two, with comma")
	if err := sw.Write([]models.Suggestion{s}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	recs := readAll(t, buf.Bytes())
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if strings.Join(recs[0], ",") != strings.Join(SuggestionHeader, ",") {
		t.Errorf("header = %v", recs[0])
	}
	want := []string{s.ID.Hex(), "2025-03-04T05:06:07Z", "Ana", "Line one\nline two, with comma", "guest", "user"}
	for i := range want {
		if recs[1][i] != want[i] {
			t.Errorf("col %d = %q, want %q", i, recs[1][i], want[i])
		}
	}
	if sw.Rows() != 1 {
		t.Errorf("Rows() = %d, want 1", sw.Rows())
	}
}

func TestSuggestionWriter_EmptyExport(t *testing.T) {
	var buf bytes.Buffer
	sw, err := NewSuggestionWriter(&buf)
	if err != nil {
		t.Fatalf("NewSuggestionWriter() error = %v", err)
	}
	if err := sw.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if recs := readAll(t, buf.Bytes()); len(recs) != 1 {
		t.Errorf("got %d records, want header only", len(recs))
	}
}

func TestSuggestionWriter_RowLimit(t *testing.T) {
	var buf bytes.Buffer
	sw, err := NewSuggestionWriter(&buf)
	if err != nil {
		t.Fatalf("NewSuggestionWriter() error = %v", err)
	}
	sw.limit = 2

	err = sw.Write([]models.Suggestion{sample("a", "1"), sample("b", "2"), sample("c", "3")})
	if !errors.Is(err, ErrRowLimit) {
		t.Fatalf("Write() error = %v, want ErrRowLimit", err)
	}
	if sw.Rows() != 2 {
		t.Errorf("Rows() = %d, want 2", sw.Rows())
	}
	if recs := readAll(t, buf.Bytes()); len(recs) != 3 {
		t.Errorf("got %d records, want header + 2", len(recs))
	}
}

func TestEscapeFormula(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"hello", "hello"},
		{"=SUM(A1:A2)", "'=SUM(A1:A2)"},
		{"+1", "'+1"},
		{"-1", "'-1"},
		{"@cmd", "'@cmd"},
		{"a=b", "a=b"},
	}
	for _, tt := range tests {
		if got := EscapeFormula(tt.in); got != tt.want {
			t.Errorf("EscapeFormula(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	r := httptest.NewRequest("GET", "/export.csv", nil)
	if got := Filename(r, "suggestions", now); got != "suggestions_20250102_030405.csv" {
		t.Errorf("default = %q", got)
	}

	r = httptest.NewRequest("GET", "/export.csv?filename=feedback", nil)
	if got := Filename(r, "suggestions", now); got != "feedback.csv" {
		t.Errorf("custom = %q", got)
	}

	r = httptest.NewRequest("GET", `/export.csv?filename=..%2Fx%22.CSV`, nil)
	if got := Filename(r, "suggestions", now); got != "..x.CSV" {
		t.Errorf("sanitized = %q", got)
	}
}

func TestSetDownloadHeaders_Filename(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"field trip.csv", `attachment; filename="field trip.csv"`},
		{"suggestions_20261019_080000.csv", "attachment; filename=suggestions_20261019_080000.csv"},
		{"mga mungkahi ñ.csv", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			SetDownloadHeaders(rec, tt.name)

			cd := rec.Header().Get("Content-Disposition")
			if tt.header != "" && cd != tt.header {
				t.Errorf("Content-Disposition = %q, want %q", cd, tt.header)
			}
			if strings.Contains(cd, "%20") && !strings.Contains(cd, "filename*=") {
				t.Errorf("plain filename was percent-encoded: %q", cd)
			}
			disp, params, err := mime.ParseMediaType(cd)
			if err != nil {
				t.Fatalf("ParseMediaType(%q): %v", cd, err)
			}
			if disp != "attachment" || params["filename"] != tt.name {
				t.Errorf("parsed %q %q, want attachment %q", disp, params["filename"], tt.name)
			}
		})
	}
}
