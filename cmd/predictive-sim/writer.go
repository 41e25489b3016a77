package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"predictive-sim/internal/config"
	"predictive-sim/internal/logging"
	"predictive-sim/internal/notify"
	"predictive-sim/internal/sim"
)

type writerOptions struct {
	PrintOnly bool
	Color     bool
	LogFile   string
	// TUI replaces the STDOUT writer when set.
	TUI *sim.TUIWriter
}

// newWriters sets up telemetry and summary writers based on flags, config and
// env vars. It returns the writer and a cleanup function to close any resources.
func newWriters(ctx context.Context, cfg *config.SimulationConfig, opts writerOptions) (sim.TelemetryWriter, func(), error) {
	log := logging.FromContext(ctx)
	var (
		tws     []sim.TelemetryWriter
		sws     []sim.SummaryWriter
		closers []io.Closer
	)
	fail := func(err error) (sim.TelemetryWriter, func(), error) {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, nil, err
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	switch {
	case opts.TUI != nil:
		tws = append(tws, opts.TUI)
	case opts.PrintOnly || endpoint == "":
		log.Debug("print mode: telemetry will be printed to STDOUT")
		tws = append(tws, sim.NewStdoutWriter(cfg.Telemetry(), opts.Color))
	}

	if !opts.PrintOnly {
		if endpoint != "" {
			database := os.Getenv("GREPTIMEDB_DATABASE")
			if database == "" {
				database = "public"
			}
			gw, err := sim.NewGreptimeDBWriter(endpoint, database)
			if err != nil {
				return fail(fmt.Errorf("greptimedb writer: %w", err))
			}
			tws = append(tws, gw)
		}
		if cfg.Storage.Driver != "" {
			db, err := sim.OpenDatabase(cfg.Storage.Driver, cfg.Storage.DSN)
			if err != nil {
				return fail(err)
			}
			sqlw, err := sim.NewSQLWriter(db)
			if err != nil {
				return fail(err)
			}
			closers = append(closers, sqlw)
			tws = append(tws, sqlw)
		}
		if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
			kw, err := sim.NewKafkaWriter(brokers, os.Getenv("KAFKA_TOPIC"), os.Getenv("KAFKA_SUMMARY_TOPIC"))
			if err != nil {
				return fail(err)
			}
			closers = append(closers, kw)
			tws = append(tws, kw)
		}
	}

	n, err := slackFromEnv()
	if err != nil {
		return fail(err)
	}
	if n != nil {
		sws = append(sws, n)
	}

	if opts.LogFile != "" {
		fw, err := sim.NewFileWriter(opts.LogFile, opts.LogFile+".summary")
		if err != nil {
			return fail(err)
		}
		closers = append(closers, fw)
		tws = append(tws, fw)
	}

	if len(tws) == 1 && len(sws) == 0 {
		w := tws[0]
		return w, func() { closeWriter(ctx, w) }, nil
	}
	mw := sim.NewMultiWriter(tws, sws)
	return mw, func() { closeWriter(ctx, mw) }, nil
}

// slackFromEnv returns a notifier for SLACK_WEBHOOK_URL, or nil when unset.
func slackFromEnv() (*notify.SlackNotifier, error) {
	hook := os.Getenv("SLACK_WEBHOOK_URL")
	if hook == "" {
		return nil, nil
	}
	cooldown := notify.DefaultCooldown
	if v := os.Getenv("ALERT_COOLDOWN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ALERT_COOLDOWN: %w", err)
		}
		cooldown = d
	}
	return notify.NewSlackNotifier(hook, os.Getenv("SLACK_CHANNEL"), notify.WithCooldown(cooldown))
}

// announce posts a plain notice to Slack. Failures are logged only.
func announce(ctx context.Context, n *notify.SlackNotifier, msg string) {
	if n == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := n.SendNotification(ctx, msg); err != nil {
		logging.FromContext(ctx).Warn("slack notice failed", "err", err)
	}
}

func closeWriter(ctx context.Context, w sim.TelemetryWriter) {
	if c, ok := w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logging.FromContext(ctx).Warn("closing writers", "err", err)
		}
	}
}
