// Package dashboard renders Grafana dashboards for the simulator's tables.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"predictive-sim/internal/sim"
	"predictive-sim/internal/telemetry"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

var templateFiles = []string{
	"grafana-dashboard.json.tmpl",
	"grafana-dashboard-sql.json.tmpl",
}

// Render parses dashboard templates and writes rendered dashboards to outDir.
// Datasource uids are read from GREPTIMEDB_DATASOURCE_UID and
// POSTGRES_DATASOURCE_UID.
func Render(outDir string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}
	data := struct {
		TelemetryTable    string
		SummaryTable      string
		SQLTelemetryTable string
		SQLSummaryTable   string
	}{
		TelemetryTable:    telemetry.TelemetryTableName,
		SummaryTable:      telemetry.SummaryTableName,
		SQLTelemetryTable: sim.TelemetrySample{}.TableName(),
		SQLSummaryTable:   sim.RunSummary{}.TableName(),
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, tplName := range templateFiles {
		t, err := template.New(tplName).Funcs(funcMap).ParseFS(templates, path.Join("templates", tplName))
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(tplName, ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, data); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", tplName, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
