package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"predictive-sim/internal/logging"
	"predictive-sim/internal/report"
	"predictive-sim/internal/sim"
	"predictive-sim/internal/telemetry"
)

type Server struct {
	Sim    *sim.Simulator
	secret []byte
	tpl    *template.Template
	now    func() time.Time
}

//go:embed templates/index.html
var content embed.FS

// NewServer creates the admin UI. A non-empty secret requires an HS256 bearer
// token on every mutating route.
func NewServer(s *sim.Simulator, secret string) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	srv := &Server{Sim: s, tpl: tpl, now: time.Now}
	if secret != "" {
		srv.secret = []byte(secret)
	}
	return srv
}

// Handler returns the routed admin handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /telemetry", s.handleTelemetry)
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("PUT /settings", s.requireToken(s.handlePutSettings))
	mux.HandleFunc("POST /regenerate", s.requireToken(s.handleRegenerate))
	mux.HandleFunc("GET /report.pdf", s.handleReport)
	return mux
}

// Start serves the admin UI on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()
	logging.FromContext(ctx).Info("admin UI listening", "addr", addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.secret == nil {
			next(w, r)
			return
		}
		if err := s.verify(r.Header.Get("Authorization")); err != nil {
			logging.FromContext(r.Context()).Warn("rejected admin request", "path", r.URL.Path, "err", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) verify(header string) error {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return errors.New("missing bearer token")
	}
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

type indexData struct {
	MachineID       string
	Settings        settingsView
	Run             *sim.Run
	Statistics      string
	Recommendations []string
	Failures        string
	ModelSummary    string
	Protected       bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		MachineID: s.Sim.MachineID(),
		Settings:  viewOf(s.Sim.Settings().Snapshot()),
		Protected: s.secret != nil,
	}
	if run := s.Sim.Latest(); run != nil {
		rep := run.Report(s.now())
		data.Run = run
		data.Statistics = report.Statistics(rep.Summary)
		data.Recommendations = rep.Recommendations
		data.Failures = rep.Failures.String()
		if rep.Model != nil {
			data.ModelSummary = report.ModelSummary(*rep.Model)
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("render index", "err", err)
	}
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	rows := []telemetry.TelemetryRow{}
	if run := s.Sim.Latest(); run != nil {
		rows = run.Rows
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	run := s.Sim.Latest()
	if run == nil {
		http.Error(w, "no run available yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run.Summary)
}

// settingsView is the JSON shape of the current settings.
type settingsView struct {
	Policy      string               `json:"policy"`
	FeatureSet  string               `json:"feature_set"`
	SampleCount int                  `json:"sample_count"`
	NoiseStdDev float64              `json:"noise_stddev"`
	Thresholds  telemetry.Thresholds `json:"thresholds"`
}

// settingsUpdate holds the fields a PUT may change.
type settingsUpdate struct {
	Policy      *string               `json:"policy"`
	FeatureSet  *string               `json:"feature_set"`
	SampleCount *int                  `json:"sample_count"`
	NoiseStdDev *float64              `json:"noise_stddev"`
	Thresholds  *telemetry.Thresholds `json:"thresholds"`
}

func viewOf(c telemetry.Config) settingsView {
	return settingsView{
		Policy:      c.PolicyName(),
		FeatureSet:  string(c.Features),
		SampleCount: c.SampleCount,
		NoiseStdDev: c.NoiseStdDev,
		Thresholds:  c.Thresholds,
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(s.Sim.Settings().Snapshot()))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var u settingsUpdate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	err := s.Sim.Settings().Update(func(c *telemetry.Config) {
		if u.Policy != nil {
			c.Policy = *u.Policy
			c.Label = nil
		}
		if u.FeatureSet != nil {
			c.Features = telemetry.FeatureSet(*u.FeatureSet)
		}
		if u.SampleCount != nil {
			c.SampleCount = *u.SampleCount
		}
		if u.NoiseStdDev != nil {
			c.NoiseStdDev = *u.NoiseStdDev
		}
		if u.Thresholds != nil {
			c.Thresholds = *u.Thresholds
		}
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, telemetry.ErrInvalidConfiguration) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	logging.FromContext(r.Context()).Info("settings updated via admin UI")
	writeJSON(w, http.StatusOK, viewOf(s.Sim.Settings().Snapshot()))
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	run, err := s.Sim.RunOnce(r.Context())
	if run == nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Warn("regenerated with sink errors", "err", err)
	}
	writeJSON(w, http.StatusOK, run.Summary)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	run := s.Sim.Latest()
	if run == nil {
		http.Error(w, "no run available yet", http.StatusNotFound)
		return
	}
	rep := run.Report(s.now())
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(rep)))
	if err := report.WritePDF(w, rep); err != nil {
		logging.FromContext(r.Context()).Error("render pdf", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
