package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hakbangquest/hakbangweb/internal/app/features/health"
	"github.com/hakbangquest/hakbangweb/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context, rp *readpref.ReadPref) error { return f.err }

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
	Message  string `json:"message"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	health.Routes(h).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestServe_DatabaseConnected(t *testing.T) {
	rec, body := serve(t, health.NewHandler(fakePinger{}, "1.4.0", zap.NewNop()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	if body.Status != "ok" || body.Database != "connected" {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Version != "1.4.0" {
		t.Errorf("version: got %q", body.Version)
	}
}

func TestServe_DatabaseDown(t *testing.T) {
	rec, body := serve(t, health.NewHandler(fakePinger{err: errors.New("no reachable servers")}, "", zap.NewNop()))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if body.Status != "error" || body.Database != "disconnected" {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Message != "Database unavailable" {
		t.Errorf("message: got %q", body.Message)
	}
}

func TestServe_RealDatabase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rec, _ := serve(t, health.NewHandler(db.Client(), "", zap.NewNop()))
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}
