package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hakbangquest/hakbangweb/internal/app/system/metrics"
)

func TestHandler_ExposesCounters(t *testing.T) {
	metrics.SuggestionSubmitted(metrics.OutcomeOK)
	metrics.SuggestionPageFetched(metrics.OutcomeInvalid)
	metrics.AdminLogin(metrics.OutcomeDenied)
	metrics.InstallerDownloaded()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`hakbang_suggestions_submitted_total{outcome="ok"}`,
		`hakbang_suggestion_pages_fetched_total{outcome="invalid"}`,
		`hakbang_admin_logins_total{outcome="denied"}`,
		`hakbang_installer_downloads_total`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
