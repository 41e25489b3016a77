package sim

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"predictive-sim/internal/telemetry"
)

// TelemetrySample is the SQL form of a telemetry row.
type TelemetrySample struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	RunID           string    `gorm:"uniqueIndex:idx_run_time;not null;size:36"`
	MachineID       string    `gorm:"index;not null;size:64"`
	TimeIndex       int       `gorm:"uniqueIndex:idx_run_time;not null"`
	Temperature     float64   `gorm:"not null"`
	Vibration       float64   `gorm:"not null"`
	LoadPct         float64   `gorm:"not null"`
	AmbientTemp     float64   `gorm:"not null"`
	HumidityPct     float64   `gorm:"not null"`
	MachineAgeYears float64   `gorm:"not null"`
	Failure         bool      `gorm:"not null"`
	Timestamp       time.Time `gorm:"index;not null"`
}

// TableName customizes the table name
func (TelemetrySample) TableName() string { return "telemetry_samples" }

// RunSummary is the SQL form of a run summary.
type RunSummary struct {
	ID                   uint   `gorm:"primaryKey;autoIncrement"`
	RunID                string `gorm:"uniqueIndex;not null;size:36"`
	MachineID            string `gorm:"index;not null;size:64"`
	Policy               string `gorm:"size:32"`
	Samples              int
	Failures             int
	FailureRate          float64
	ThresholdTemperature float64
	ThresholdVibration   float64
	ThresholdLoad        float64
	TemperatureMax       float64
	TemperatureMean      float64
	VibrationMax         float64
	VibrationMean        float64
	LoadMax              float64
	LoadMean             float64
	Accuracy             *float64
	Timestamp            time.Time `gorm:"index;not null"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
}

// TableName customizes the table name
func (RunSummary) TableName() string { return "run_summaries" }

// OpenDatabase opens a gorm connection for driver sqlite, postgres or mysql.
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// SQLWriter stores telemetry rows and summaries through gorm.
type SQLWriter struct {
	db        *gorm.DB
	batchSize int
}

// NewSQLWriter migrates the schema and returns a writer.
func NewSQLWriter(db *gorm.DB) (*SQLWriter, error) {
	if err := db.AutoMigrate(&TelemetrySample{}, &RunSummary{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLWriter{db: db, batchSize: 500}, nil
}

// Write inserts a single telemetry row.
func (w *SQLWriter) Write(row telemetry.TelemetryRow) error {
	return w.WriteBatch([]telemetry.TelemetryRow{row})
}

// WriteBatch inserts rows in one transaction.
func (w *SQLWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	if len(rows) == 0 {
		return nil
	}
	recs := make([]TelemetrySample, len(rows))
	for i, r := range rows {
		recs[i] = TelemetrySample{
			RunID:           r.RunID,
			MachineID:       r.MachineID,
			TimeIndex:       r.TimeIndex,
			Temperature:     r.Temperature,
			Vibration:       r.Vibration,
			LoadPct:         r.LoadPct,
			AmbientTemp:     r.AmbientTemp,
			HumidityPct:     r.HumidityPct,
			MachineAgeYears: r.MachineAgeYears,
			Failure:         r.Failure,
			Timestamp:       r.Timestamp,
		}
	}
	return w.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(recs, w.batchSize).Error; err != nil {
			return fmt.Errorf("insert telemetry: %w", err)
		}
		return nil
	})
}

// WriteSummary inserts a run summary.
func (w *SQLWriter) WriteSummary(row telemetry.RunSummaryRow) error {
	t := row.Summary.Channel(telemetry.ColTemperature)
	v := row.Summary.Channel(telemetry.ColVibration)
	l := row.Summary.Channel(telemetry.ColLoad)
	rec := RunSummary{
		RunID:                row.RunID,
		MachineID:            row.MachineID,
		Policy:               row.Policy,
		Samples:              row.Summary.Samples,
		Failures:             row.Summary.Failures,
		FailureRate:          row.Summary.FailureRate,
		ThresholdTemperature: row.Thresholds.Temperature,
		ThresholdVibration:   row.Thresholds.Vibration,
		ThresholdLoad:        row.Thresholds.Load,
		TemperatureMax:       t.Max,
		TemperatureMean:      t.Mean,
		VibrationMax:         v.Max,
		VibrationMean:        v.Mean,
		LoadMax:              l.Max,
		LoadMean:             l.Mean,
		Accuracy:             row.Accuracy,
		Timestamp:            row.Timestamp,
	}
	if err := w.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (w *SQLWriter) Close() error {
	sqlDB, err := w.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
