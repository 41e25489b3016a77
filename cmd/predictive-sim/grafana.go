package main

import (
	"github.com/spf13/cobra"

	"predictive-sim/internal/dashboard"
	"predictive-sim/internal/logging"
)

var grafanaOut string

var grafanaCmd = &cobra.Command{
	Use:   "grafana",
	Short: "Render Grafana dashboards",
	Long:  "grafana renders dashboards for the GreptimeDB and SQL tables using GREPTIMEDB_DATASOURCE_UID and POSTGRES_DATASOURCE_UID.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := dashboard.Render(grafanaOut); err != nil {
			return err
		}
		logging.FromContext(cmd.Context()).Info("rendered dashboards", "dir", grafanaOut)
		return nil
	},
}

func init() {
	grafanaCmd.Flags().StringVar(&grafanaOut, "out", "build", "Output directory")
}
