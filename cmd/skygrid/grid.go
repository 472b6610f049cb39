package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/skygrid/core"
	"github.com/signalsfoundry/skygrid/internal/config"
	"github.com/signalsfoundry/skygrid/internal/logging"
	"github.com/signalsfoundry/skygrid/internal/report"
	"github.com/signalsfoundry/skygrid/model"
)

// NewGridCmd creates the grid command.
func NewGridCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Build a sky grid and write its points",
		Long: `Build the sky grid described by the configuration and flags and write
one "alpha delta" line per point (radians). The output can be fed back in with
--grid-type file.`,
		Example: `  skygrid grid --grid-type isotropic --region allsky --d-alpha 0.1 --d-delta 0.1
  skygrid grid -g metric -r "(0.1,0.1),(0.3,0.1),(0.3,0.3)" --freq 100 -o grid.dat`,
		Args: cobra.NoArgs,
		RunE: runGrid,
	}

	addGridFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Write grid points to this file instead of stdout")
	cmd.Flags().String("report", "", "Write a markdown summary to this file")

	return cmd
}

func runGrid(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	skyCfg, err := cfg.ToSkyScanConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sess, err := newSession(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { err = sess.close(ctx, cmd, err) }()

	skyCfg.Logger = sess.log
	skyCfg.Metrics = sess.collector

	start := time.Now()
	scan, err := core.InitSkyScan(ctx, skyCfg)
	if err != nil {
		return err
	}
	buildTime := time.Since(start)

	grid := make(core.SkyGrid, 0, scan.NumPoints())
	for {
		p, ok, err := scan.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		grid = append(grid, model.SkyPosition{
			Longitude: p.Alpha,
			Latitude:  p.Delta,
			System:    model.CoordinateSystemEquatorial,
		})
	}
	if err := scan.Close(ctx); err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		if err := core.WriteSkyGridFile(output, grid); err != nil {
			return err
		}
		sess.log.Info(ctx, "sky grid written",
			logging.String("path", output),
			logging.Int("points", len(grid)),
		)
	} else if err := core.WriteSkyGrid(cmd.OutOrStdout(), grid); err != nil {
		return err
	}

	return writeReport(cmd, report.Summary{
		GridType:    cfg.GridType,
		MetricType:  cfg.MetricType,
		Source:      gridSource(cfg),
		Points:      len(grid),
		DFreq:       scan.DFreq,
		DF1dot:      scan.DF1dot,
		BuildTime:   buildTime,
		GeneratedAt: time.Now(),
	})
}

// gridSource names where the sky points come from.
func gridSource(cfg *config.Config) string {
	if cfg.SkyGridFile != "" && (cfg.GridType == "file" || cfg.GridType == "metric-skyfile") {
		return cfg.SkyGridFile
	}
	return cfg.SkyRegion
}

// writeReport writes s to the --report path, if one was given.
func writeReport(cmd *cobra.Command, s report.Summary) error {
	path, _ := cmd.Flags().GetString("report")
	if path == "" {
		return nil
	}
	f, err := os.Create(path) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.WriteMarkdown(f, s); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
