package sim

import (
	"encoding/json"
	"os"

	"predictive-sim/internal/telemetry"
)

// FileWriter writes telemetry rows and run summaries to JSONL files.
type FileWriter struct {
	teleFile *os.File
	sumFile  *os.File
	teleEnc  *json.Encoder
	sumEnc   *json.Encoder
}

// NewFileWriter creates a FileWriter. summaryPath may be empty to skip the summary log.
func NewFileWriter(telemetryPath, summaryPath string) (*FileWriter, error) {
	tf, err := os.Create(telemetryPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{teleFile: tf, teleEnc: json.NewEncoder(tf)}
	if summaryPath != "" {
		sf, err := os.Create(summaryPath)
		if err != nil {
			tf.Close()
			return nil, err
		}
		fw.sumFile = sf
		fw.sumEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// Write logs a single telemetry row.
func (f *FileWriter) Write(row telemetry.TelemetryRow) error {
	return f.teleEnc.Encode(row)
}

// WriteBatch logs multiple telemetry rows.
func (f *FileWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary logs a run summary, if enabled.
func (f *FileWriter) WriteSummary(row telemetry.RunSummaryRow) error {
	if f.sumEnc == nil {
		return nil
	}
	return f.sumEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.teleFile != nil {
		if e := f.teleFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.sumFile != nil {
		if e := f.sumFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
