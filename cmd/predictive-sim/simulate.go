package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"predictive-sim/internal/admin"
	"predictive-sim/internal/logging"
	"predictive-sim/internal/sim"
)

var (
	simPrintOnly bool
	simColor     bool
	simLogFile   string
	simTick      time.Duration
	simAdminAddr string
	simTUI       bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the periodic machine simulator",
	Long:  "simulate regenerates a labelled table on every tick, serves the admin UI and optionally renders the terminal dashboard.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		tickInterval := simTick
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return err
			}
			tickInterval = d
		}
		addr := cfg.Admin.Addr
		if cmd.Flags().Changed("admin-addr") {
			addr = simAdminAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var tui *sim.TUIWriter
		if simTUI {
			// the dashboard owns the terminal; keep only file logging
			log := logging.New(logging.Options{
				Level:      cfg.Logging.Level,
				File:       cfg.Logging.File,
				MaxSizeMB:  cfg.Logging.MaxSizeMB,
				MaxBackups: cfg.Logging.MaxBackups,
				Output:     io.Discard,
			})
			ctx = logging.NewContext(ctx, log)
			tui = sim.NewTUIWriter(cfg.MachineID, cfg.Telemetry())
		}

		writer, cleanup, err := newWriters(ctx, cfg, writerOptions{
			PrintOnly: simPrintOnly,
			Color:     simColor,
			LogFile:   simLogFile,
			TUI:       tui,
		})
		if err != nil {
			if tui != nil {
				_ = tui.Close()
			}
			return err
		}
		defer cleanup()

		simulator := newSimulator(cfg, writer, tickInterval)
		notifier, err := slackFromEnv()
		if err != nil {
			return err
		}
		announce(ctx, notifier, fmt.Sprintf("Machine %s: simulation started, regenerating every %s", cfg.MachineID, tickInterval))

		if addr != "" {
			srv := admin.NewServer(simulator, os.Getenv("ADMIN_JWT_SECRET"))
			go func() {
				if tui != nil {
					tui.SetAdminStatus(true)
				}
				if err := srv.Start(ctx, addr); err != nil {
					logging.FromContext(ctx).Error("admin server failed", "err", err)
					if tui != nil {
						tui.SetAdminStatus(false)
					}
				}
			}()
		}

		simulator.Run(ctx)
		announce(ctx, notifier, fmt.Sprintf("Machine %s: simulation stopped after %d runs", cfg.MachineID, simulator.Runs()))
		logging.FromContext(ctx).Info("machine simulation stopped")
		return nil
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to the configured sinks")
	simulateCmd.Flags().BoolVar(&simColor, "color", false, "Colorize STDOUT output when attached to a terminal")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export telemetry logs (JSONL)")
	simulateCmd.Flags().DurationVar(&simTick, "tick", 10*time.Second, "Regeneration interval (e.g. 5s, 1m)")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin UI listen address (empty disables)")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Render the terminal dashboard")
}
