package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"predictive-sim/internal/config"
	"predictive-sim/internal/sim"
	"predictive-sim/internal/telemetry"
)

func newTestServer(t *testing.T, secret string) (*Server, *sim.Simulator) {
	t.Helper()
	cfg := telemetry.DefaultConfig().WithSeed(7)
	cfg.SampleCount = 50
	s := sim.NewSimulator(sim.Options{
		MachineID: "press-7",
		Settings:  config.NewSettings(cfg),
		ReportDir: t.TempDir(),
	})
	return NewServer(s, secret), s
}

func do(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestTelemetryAndSummaryBeforeRun(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.Handler()
	w := do(h, http.MethodGet, "/telemetry", "", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("telemetry = %d %q", w.Code, w.Body.String())
	}
	if w := do(h, http.MethodGet, "/summary", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("summary before run = %d", w.Code)
	}
	if w := do(h, http.MethodGet, "/report.pdf", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("report before run = %d", w.Code)
	}
}

func TestRegenerateAndRead(t *testing.T) {
	srv, s := newTestServer(t, "")
	h := srv.Handler()
	w := do(h, http.MethodPost, "/regenerate", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("regenerate = %d %s", w.Code, w.Body.String())
	}
	var sum telemetry.RunSummaryRow
	if err := json.NewDecoder(w.Body).Decode(&sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Summary.Samples != 50 || sum.MachineID != "press-7" {
		t.Fatalf("summary = %+v", sum)
	}
	if s.Runs() != 1 {
		t.Fatalf("runs = %d", s.Runs())
	}

	w = do(h, http.MethodGet, "/telemetry", "", "")
	var rows []telemetry.TelemetryRow
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 50 || rows[0].RunID != sum.RunID {
		t.Fatalf("rows = %d", len(rows))
	}

	w = do(h, http.MethodGet, "/report.pdf", "", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("report = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Fatalf("body is not a PDF")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "maintenance_report_") {
		t.Fatalf("content disposition = %q", cd)
	}

	w = do(h, http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "press-7") || !strings.Contains(w.Body.String(), "General Statistics") {
		t.Fatalf("index = %d", w.Code)
	}
}

func TestSettingsUpdate(t *testing.T) {
	srv, s := newTestServer(t, "")
	h := srv.Handler()
	w := do(h, http.MethodPut, "/settings", `{"thresholds":{"temperature":70,"vibration":40,"load":85},"policy":"extended"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("put = %d %s", w.Code, w.Body.String())
	}
	cfg := s.Settings().Snapshot()
	want := telemetry.Thresholds{Temperature: 70, Vibration: 40, Load: 85}
	if cfg.Thresholds != want || cfg.Policy != telemetry.PolicyExtended {
		t.Fatalf("settings = %+v", cfg)
	}
	if cfg.SampleCount != 50 {
		t.Fatalf("untouched field changed: %d", cfg.SampleCount)
	}

	w = do(h, http.MethodGet, "/settings", "", "")
	var v settingsView
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Thresholds != want || v.Policy != telemetry.PolicyExtended {
		t.Fatalf("view = %+v", v)
	}
}

func TestSettingsRejectsInvalid(t *testing.T) {
	srv, s := newTestServer(t, "")
	h := srv.Handler()
	tests := []struct {
		name string
		body string
	}{
		{"negative count", `{"sample_count":-1}`},
		{"unknown policy", `{"policy":"nope"}`},
		{"unknown field", `{"colour":"red"}`},
		{"bad json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(h, http.MethodPut, "/settings", tt.body, ""); w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
		})
	}
	if s.Settings().Snapshot().SampleCount != 50 {
		t.Fatalf("rejected update was applied")
	}
}

func TestTokenGuard(t *testing.T) {
	srv, s := newTestServer(t, "s3cret")
	h := srv.Handler()
	if w := do(h, http.MethodPost, "/regenerate", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token = %d", w.Code)
	}
	bad, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops"}).SignedString([]byte("other"))
	if w := do(h, http.MethodPost, "/regenerate", "", bad); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key = %d", w.Code)
	}
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	if w := do(h, http.MethodPut, "/settings", `{"sample_count":10}`, expired); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token = %d", w.Code)
	}
	good, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops"}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if w := do(h, http.MethodPost, "/regenerate", "", good); w.Code != http.StatusOK {
		t.Fatalf("valid token = %d", w.Code)
	}
	if s.Runs() != 1 {
		t.Fatalf("runs = %d", s.Runs())
	}
	if w := do(h, http.MethodGet, "/settings", "", ""); w.Code != http.StatusOK {
		t.Fatalf("reads should stay open, got %d", w.Code)
	}
}
