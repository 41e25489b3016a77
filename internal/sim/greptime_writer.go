package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"predictive-sim/internal/telemetry"
)

const defaultGreptimePort = 4001

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes telemetry and run summaries to GreptimeDB via the
// ingester client. Tables are created on first write.
type GreptimeDBWriter struct {
	client       greptimeClient
	table        string
	summaryTable string
	timeout      time.Duration
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port").
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptimedb client: %w", err)
	}
	return &GreptimeDBWriter{
		client:       client,
		table:        telemetry.TelemetryTableName,
		summaryTable: telemetry.SummaryTableName,
		timeout:      10 * time.Second,
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, p, err := net.SplitHostPort(endpoint)
	if err != nil {
		// no port given
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid greptimedb port %q: %w", p, err)
	}
	return host, port, nil
}

// Write inserts a single telemetry row.
func (w *GreptimeDBWriter) Write(row telemetry.TelemetryRow) error {
	return w.WriteBatch([]telemetry.TelemetryRow{row})
}

// WriteBatch inserts multiple telemetry rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := telemetryTable(w.table, rows)
	if err != nil {
		return err
	}
	if err := w.send(tbl); err != nil {
		slog.Error("greptimedb write failed", "table", w.table, "err", err)
		return err
	}
	slog.Debug("greptimedb wrote rows", "table", w.table, "rows", len(rows))
	return nil
}

// WriteSummary inserts one run summary row.
func (w *GreptimeDBWriter) WriteSummary(row telemetry.RunSummaryRow) error {
	tbl, err := summaryTable(w.summaryTable, row)
	if err != nil {
		return err
	}
	if err := w.send(tbl); err != nil {
		slog.Error("greptimedb summary write failed", "table", w.summaryTable, "err", err)
		return err
	}
	return nil
}

func (w *GreptimeDBWriter) send(tbl *table.Table) error {
	timeout := w.timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err := w.client.Write(ctx, tbl)
	return err
}

func telemetryTable(name string, rows []telemetry.TelemetryRow) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	columns := []struct {
		add  func(string, types.ColumnType) error
		name string
		typ  types.ColumnType
	}{
		{tbl.AddTagColumn, "run_id", types.STRING},
		{tbl.AddTagColumn, "machine_id", types.STRING},
		{tbl.AddFieldColumn, telemetry.ColTimeIndex, types.INT64},
		{tbl.AddFieldColumn, telemetry.ColTemperature, types.FLOAT64},
		{tbl.AddFieldColumn, telemetry.ColVibration, types.FLOAT64},
		{tbl.AddFieldColumn, telemetry.ColLoad, types.FLOAT64},
		{tbl.AddFieldColumn, telemetry.ColAmbientTemp, types.FLOAT64},
		{tbl.AddFieldColumn, telemetry.ColHumidity, types.FLOAT64},
		{tbl.AddFieldColumn, telemetry.ColMachineAge, types.FLOAT64},
		{tbl.AddFieldColumn, telemetry.ColFailure, types.BOOLEAN},
		{tbl.AddTimestampColumn, "ts", types.TIMESTAMP_MILLISECOND},
	}
	for _, c := range columns {
		if err := c.add(c.name, c.typ); err != nil {
			return nil, err
		}
	}
	for _, r := range rows {
		err := tbl.AddRow(
			r.RunID, r.MachineID, int64(r.TimeIndex),
			r.Temperature, r.Vibration, r.LoadPct,
			r.AmbientTemp, r.HumidityPct, r.MachineAgeYears,
			r.Failure, r.Timestamp,
		)
		if err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func summaryTable(name string, row telemetry.RunSummaryRow) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	for _, tag := range []string{"run_id", "machine_id", "policy"} {
		if err := tbl.AddTagColumn(tag, types.STRING); err != nil {
			return nil, err
		}
	}
	values := []any{row.RunID, row.MachineID, row.Policy}
	field := func(name string, typ types.ColumnType, v any) {
		if err == nil {
			err = tbl.AddFieldColumn(name, typ)
			values = append(values, v)
		}
	}
	field("samples", types.INT64, int64(row.Summary.Samples))
	field("failures", types.INT64, int64(row.Summary.Failures))
	field("failure_rate", types.FLOAT64, row.Summary.FailureRate)
	field("threshold_temperature", types.FLOAT64, row.Thresholds.Temperature)
	field("threshold_vibration", types.FLOAT64, row.Thresholds.Vibration)
	field("threshold_load", types.FLOAT64, row.Thresholds.Load)
	for _, ch := range []string{telemetry.ColTemperature, telemetry.ColVibration, telemetry.ColLoad} {
		st := row.Summary.Channel(ch)
		field(ch+"_min", types.FLOAT64, st.Min)
		field(ch+"_max", types.FLOAT64, st.Max)
		field(ch+"_mean", types.FLOAT64, st.Mean)
	}
	if row.Accuracy != nil {
		field("accuracy", types.FLOAT64, *row.Accuracy)
	}
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	values = append(values, row.Timestamp)
	if err := tbl.AddRow(values...); err != nil {
		return nil, err
	}
	return tbl, nil
}
