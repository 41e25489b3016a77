// Telemetry rows and column metadata
package telemetry

import (
	"os"
	"time"
)

// Sample is one time step of simulated machine readings plus its failure label.
type Sample struct {
	TimeIndex       int     `json:"time_index"`
	Temperature     float64 `json:"temperature"`
	Vibration       float64 `json:"vibration"`
	LoadPct         float64 `json:"load_pct"`
	AmbientTemp     float64 `json:"ambient_temp"`
	HumidityPct     float64 `json:"humidity_pct"`
	MachineAgeYears float64 `json:"machine_age_years"`
	Failure         bool    `json:"failure"`
}

// TelemetryRow represents one sample as written to the output sinks.
type TelemetryRow struct {
	RunID     string    `json:"run_id"`     // TAG
	MachineID string    `json:"machine_id"` // TAG
	Sample              // FIELDS
	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// TelemetryTableName holds the table name used when writing samples to GreptimeDB.
// It defaults to "machine_telemetry" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var TelemetryTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "machine_telemetry"
}()

func (TelemetryRow) TableName() string {
	return TelemetryTableName
}

// Column describes one column of the generated table.
type Column struct {
	Name  string
	Label string
	Unit  string
}

// Column names. They are stable for the lifetime of the process.
const (
	ColTimeIndex   = "time_index"
	ColTemperature = "temperature"
	ColVibration   = "vibration"
	ColLoad        = "load_pct"
	ColAmbientTemp = "ambient_temp"
	ColHumidity    = "humidity_pct"
	ColMachineAge  = "machine_age_years"
	ColFailure     = "failure"
)

// Columns lists the table schema in output order.
var Columns = []Column{
	{Name: ColTimeIndex, Label: "Time", Unit: "s"},
	{Name: ColTemperature, Label: "Temperature", Unit: "°C"},
	{Name: ColVibration, Label: "Vibration", Unit: ""},
	{Name: ColLoad, Label: "Load", Unit: "%"},
	{Name: ColAmbientTemp, Label: "Ambient Temp", Unit: "°C"},
	{Name: ColHumidity, Label: "Humidity", Unit: "%"},
	{Name: ColMachineAge, Label: "Machine Age", Unit: "years"},
	{Name: ColFailure, Label: "Failure", Unit: ""},
}

// Channels lists the six simulated sensor channels.
var Channels = []string{ColTemperature, ColVibration, ColLoad, ColAmbientTemp, ColHumidity, ColMachineAge}

// Value returns the reading of the named channel. Unknown names yield 0.
func (s Sample) Value(channel string) float64 {
	switch channel {
	case ColTimeIndex:
		return float64(s.TimeIndex)
	case ColTemperature:
		return s.Temperature
	case ColVibration:
		return s.Vibration
	case ColLoad:
		return s.LoadPct
	case ColAmbientTemp:
		return s.AmbientTemp
	case ColHumidity:
		return s.HumidityPct
	case ColMachineAge:
		return s.MachineAgeYears
	case ColFailure:
		if s.Failure {
			return 1
		}
	}
	return 0
}
