package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"predictive-sim/internal/logging"
	"predictive-sim/internal/model"
	"predictive-sim/internal/telemetry"
)

var errNoRun = errors.New("no run available yet")

// Run generates one table immediately and then one per tick until ctx is done.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "machine_id", s.machineID, "tick_interval", s.tickInterval)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			log.Error("run failed", "err", err)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			log.Info("stopping simulator")
			return
		}
	}
}

// RunOnce generates a table from the current settings snapshot, optionally
// trains the classifier and writes rows and summary. The run is stored as
// Latest even when a writer fails; write errors are returned joined.
func (s *Simulator) RunOnce(ctx context.Context) (*Run, error) {
	log := logging.FromContext(ctx)
	s.runMu.Lock()
	defer s.runMu.Unlock()

	cfg := s.settings.Snapshot()
	runID, start, rows, err := s.gen.Rows(cfg)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	samples := telemetry.Samples(rows)
	sum := telemetry.Summarize(samples)
	run := &Run{
		Config: cfg,
		Rows:   rows,
		Summary: telemetry.RunSummaryRow{
			RunID:      runID,
			MachineID:  s.machineID,
			Policy:     cfg.PolicyName(),
			Thresholds: cfg.Thresholds,
			Summary:    sum,
			Timestamp:  start,
		},
	}

	if s.train && len(samples) > 0 {
		opts := s.modelOpts
		opts.Features = cfg.Features
		res, err := model.Train(samples, opts)
		if err != nil {
			log.Warn("training failed", "err", err)
		} else {
			run.Model = &res
			run.Summary.Accuracy = &res.Accuracy
			if res.SingleClass {
				log.Warn("training labels contain a single class", "run_id", run.Summary.RunID)
			}
		}
	}

	s.mu.Lock()
	s.latest = run
	s.runs++
	s.mu.Unlock()

	log.Debug("generated run", "run_id", run.Summary.RunID, "samples", sum.Samples, "failures", sum.Failures)
	return run, s.write(ctx, run)
}

func (s *Simulator) write(ctx context.Context, run *Run) error {
	if s.writer == nil {
		return nil
	}
	log := logging.FromContext(ctx)
	var errs []error

	// Batch support if writer implements WriteBatch
	if bw, ok := s.writer.(batchWriter); ok {
		if err := bw.WriteBatch(run.Rows); err != nil {
			log.Error("batch write failed", "err", err)
			errs = append(errs, err)
		}
	} else {
		for _, row := range run.Rows {
			if err := s.writer.Write(row); err != nil {
				log.Error("write failed", "time_index", row.TimeIndex, "err", err)
				errs = append(errs, err)
				break
			}
		}
	}
	if sw, ok := s.writer.(SummaryWriter); ok {
		if err := sw.WriteSummary(run.Summary); err != nil {
			log.Error("summary write failed", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
