package main

import (
	"bufio"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/skygrid/core"
	"github.com/signalsfoundry/skygrid/internal/logging"
	"github.com/signalsfoundry/skygrid/internal/report"
	"github.com/signalsfoundry/skygrid/model"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Step through the sky grid combined with frequency and spin-down ranges",
		Long: `Build the sky grid and step through its product with the frequency and
spin-down bands. Each template is written as "alpha delta f0 f1dot f2dot f3dot".
A spin order whose band or step is zero keeps its start value.`,
		Example: `  skygrid scan -r allsky -g isotropic --d-alpha 0.5 --d-delta 0.5 \
      --freq 100 --freq-band 0.01 --f1dot -1e-9 --f1dot-band 1e-9
  skygrid scan -c survey.yaml --count-only --report survey.md`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}

	addGridFlags(cmd)
	cmd.Flags().Bool("count-only", false, "Print only the number of templates")
	cmd.Flags().String("report", "", "Write a markdown summary to this file")

	return cmd
}

func runScan(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	fullCfg, err := cfg.ToFullScanConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sess, err := newSession(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { err = sess.close(ctx, cmd, err) }()

	fullCfg.Logger = sess.log
	fullCfg.Metrics = sess.collector

	start := time.Now()
	scan, err := core.InitFullScan(ctx, fullCfg)
	if err != nil {
		return err
	}
	buildTime := time.Since(start)
	points := scan.SkyScan().NumPoints()
	dFreq, df1dot := scan.SkyScan().DFreq, scan.SkyScan().DF1dot

	countOnly, _ := cmd.Flags().GetBool("count-only")
	out := bufio.NewWriter(cmd.OutOrStdout())

	templates := 0
	for {
		p, ok, err := scan.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		templates++
		if !countOnly {
			writeTemplate(out, p)
		}
	}
	if countOnly {
		fmt.Fprintln(out, templates)
	}
	if err := out.Flush(); err != nil {
		return err
	}

	steps := scan.Steps()
	bands := scan.SpinRange().FkdotBand
	if err := scan.Close(ctx); err != nil {
		return err
	}
	sess.log.Info(ctx, "scan finished",
		logging.Int("sky_points", points),
		logging.Int("templates", templates),
	)

	return writeReport(cmd, report.Summary{
		GridType:    cfg.GridType,
		MetricType:  cfg.MetricType,
		Source:      gridSource(cfg),
		Points:      points,
		Templates:   templates,
		DFreq:       dFreq,
		DF1dot:      df1dot,
		Steps:       steps,
		Bands:       bands,
		BuildTime:   buildTime,
		GeneratedAt: time.Now(),
	})
}

func writeTemplate(w *bufio.Writer, p model.DopplerParams) {
	w.WriteString(strconv.FormatFloat(p.Alpha, 'g', -1, 64))
	w.WriteByte(' ')
	w.WriteString(strconv.FormatFloat(p.Delta, 'g', -1, 64))
	for _, f := range p.Fkdot {
		w.WriteByte(' ')
		w.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	w.WriteByte('\n')
}
