package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/skygrid/internal/config"
	"github.com/signalsfoundry/skygrid/internal/logging"
	"github.com/signalsfoundry/skygrid/internal/observability"
)

// addGridFlags registers the flags shared by every command that builds a grid.
// Flag defaults mirror config defaults; only flags set on the command line
// override the configuration file.
func addGridFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("grid-type", "g", config.DefaultGridType,
		"Grid type: flat, isotropic, metric, file or metric-skyfile")
	cmd.Flags().StringP("region", "r", "", `Sky region "(a1,d1),(a2,d2),..." in radians, or "allsky"`)
	cmd.Flags().String("grid-file", "", "Sky-grid file for the file grid types")
	cmd.Flags().Float64("d-alpha", config.DefaultDAlpha, "Longitude step of flat/isotropic grids (rad)")
	cmd.Flags().Float64("d-delta", config.DefaultDDelta, "Latitude step of flat/isotropic grids (rad)")
	cmd.Flags().String("metric", config.DefaultMetricType, "Metric type: none or ptole-numeric")
	cmd.Flags().Float64P("mismatch", "m", config.DefaultMismatch, "Maximal metric mismatch")
	cmd.Flags().String("mesh-order", config.DefaultMeshOrder, "Metric mesh order: delta-alpha or alpha-delta")
	cmd.Flags().String("detector", config.DefaultDetector, "Detector site: LHO, LLO or GEO")
	cmd.Flags().String("epoch", "", "Observation start (RFC 3339)")
	cmd.Flags().Duration("duration", config.DefaultDuration, "Observation span")
	cmd.Flags().Float64("freq", 0, "Start of the frequency band (Hz)")
	cmd.Flags().Float64("freq-band", 0, "Width of the frequency band (Hz)")
	cmd.Flags().Float64("f1dot", 0, "Start of the first spin-down band (Hz/s)")
	cmd.Flags().Float64("f1dot-band", 0, "Width of the first spin-down band (Hz/s)")
	cmd.Flags().Float64("dfreq", 0, "Frequency step; 0 uses the computed spacing")
	cmd.Flags().Float64("df1dot", 0, "Spin-down step; 0 uses the computed spacing")
}

// buildConfig loads the configuration file, if any, and applies the flags
// set on the command line.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	if path := config.FindConfigFile(cfgPath); path != "" {
		if cfg, err = config.LoadConfigFile(path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	} else if cfgPath != "" {
		return nil, fmt.Errorf("%s: %w", cfgPath, config.ErrConfigNotFound)
	}

	flags := cmd.Flags()
	strFlags := map[string]*string{
		"grid-type":  &cfg.GridType,
		"region":     &cfg.SkyRegion,
		"grid-file":  &cfg.SkyGridFile,
		"metric":     &cfg.MetricType,
		"mesh-order": &cfg.MeshOrder,
		"detector":   &cfg.Detector,
	}
	for name, dst := range strFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetString(name); err != nil {
				return nil, err
			}
		}
	}

	floatFlags := map[string]*float64{
		"d-alpha":  &cfg.DAlpha,
		"d-delta":  &cfg.DDelta,
		"mismatch": &cfg.Mismatch,
	}
	for name, dst := range floatFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetFloat64(name); err != nil {
				return nil, err
			}
		}
	}

	if flags.Changed("duration") {
		if cfg.Duration, err = flags.GetDuration("duration"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("epoch") {
		raw, _ := flags.GetString("epoch")
		if cfg.Epoch, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, fmt.Errorf("--epoch: %w", err)
		}
	}

	spinFlags := []struct {
		name  string
		dst   *[]float64
		order int
	}{
		{"freq", &cfg.Fkdot, 0},
		{"f1dot", &cfg.Fkdot, 1},
		{"freq-band", &cfg.FkdotBand, 0},
		{"f1dot-band", &cfg.FkdotBand, 1},
		{"dfreq", &cfg.FkdotSteps, 0},
		{"df1dot", &cfg.FkdotSteps, 1},
	}
	for _, f := range spinFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetFloat64(f.name)
		if err != nil {
			return nil, err
		}
		setSpin(f.dst, f.order, v)
	}

	return cfg, nil
}

// setSpin stores v at index k, growing the slice as needed.
func setSpin(dst *[]float64, k int, v float64) {
	for len(*dst) <= k {
		*dst = append(*dst, 0)
	}
	(*dst)[k] = v
}

func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// session holds the logger, metrics and tracing shared by a command run.
type session struct {
	log       logging.Logger
	collector *observability.GridCollector
	shutdown  func(context.Context) error
}

func newSession(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*session, error) {
	format, _ := cmd.Flags().GetString("log-format")
	level := "info"
	if getVerboseFlag(cmd) {
		level = "debug"
	}
	log := logging.NewWithWriter(cmd.ErrOrStderr(), logging.Config{Level: level, Format: format})

	collector, err := observability.NewGridCollector(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	tracing := cfg.TracingConfig()
	tracing.Writer = cmd.ErrOrStderr()
	shutdown, err := observability.InitTracing(ctx, tracing, log)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	return &session{log: log, collector: collector, shutdown: shutdown}, nil
}

// close flushes spans and writes the metrics file if one was requested. The
// first error wins.
func (r *session) close(ctx context.Context, cmd *cobra.Command, runErr error) error {
	observability.ShutdownWithTimeout(ctx, r.shutdown, r.log)

	path, _ := cmd.Flags().GetString("metrics-out")
	if path == "" {
		return runErr
	}
	if err := r.collector.WriteTextfile(path); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
