package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ersim/app"
	"github.com/kilianp07/ersim/config"
	"github.com/kilianp07/ersim/core/monitoring"
	"github.com/kilianp07/ersim/core/simulation"
	"github.com/kilianp07/ersim/core/topology"
	"github.com/kilianp07/ersim/infra/ingest"
	"github.com/kilianp07/ersim/infra/logger"
	"github.com/kilianp07/ersim/pkg/export"
)

var runOpts struct {
	input        string
	output       string
	format       string
	demoStations bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate an arrival stream and write the tick stream",
	RunE:  runSimulation,
}

func init() {
	runCmd.Flags().StringVarP(&runOpts.input, "input", "i", "", "arrival records CSV")
	runCmd.Flags().StringVarP(&runOpts.output, "output", "o", "-", "tick stream destination, - for stdout")
	runCmd.Flags().StringVarP(&runOpts.format, "format", "f", "", "output format: csv or jsonl (default from extension, else csv)")
	runCmd.Flags().BoolVar(&runOpts.demoStations, "demo-stations", false, "use the built-in demo stations when none are configured")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}

// loadConfig reads the configuration and applies the demo topology when asked.
func loadConfig(demo bool) (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if demo && len(cfg.Stations) == 0 {
		cfg.Stations = topology.DefaultStations()
	}
	return cfg, nil
}

func outputFormat(format, path string) (string, error) {
	if format == "" {
		if strings.EqualFold(filepath.Ext(path), ".jsonl") {
			return "jsonl", nil
		}
		return "csv", nil
	}
	switch strings.ToLower(format) {
	case "csv", "jsonl":
		return strings.ToLower(format), nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer monitoring.Recover()

	format, err := outputFormat(runOpts.format, runOpts.output)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(runOpts.demoStations)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	batch, err := ingest.ReadFile(runOpts.input, logger.New("ingest"))
	if err != nil {
		return fmt.Errorf("read %s: %w", runOpts.input, err)
	}
	if batch.Skipped > 0 || batch.Unknown > 0 {
		logger.New("ingest").Warnf("%s: %d rows skipped, %d unknown categories", runOpts.input, batch.Skipped, batch.Unknown)
	}

	res, err := svc.Run(ctx, batch.Records)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if runOpts.output != "-" && runOpts.output != "" {
		f, err := os.Create(runOpts.output)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	switch format {
	case "jsonl":
		err = export.WriteJSONL(w, res.Ticks)
	default:
		err = export.WriteCSV(w, res.UnitIDs, res.Ticks)
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	printSummary(cmd.ErrOrStderr(), res.Summary)
	return nil
}

func printSummary(w io.Writer, s simulation.Summary) {
	fmt.Fprintf(w, "run %s\n", s.RunID)
	fmt.Fprintf(w, "  ticks %d, emergencies %d, skipped records %d\n", s.Ticks, s.Emergencies, s.Skipped)
	fmt.Fprintf(w, "  resolved %d, expired %d, unassigned at arrival %d, open %d\n", s.Resolved, s.Expired, s.Unassigned, s.Open)
	fmt.Fprintf(w, "  score %d\n", s.Score)
	fmt.Fprintf(w, "  response time mean %.2f stddev %.2f, mean slack %.2f min\n", s.MeanResponse, s.StdDevResponse, s.MeanSlackMinutes)
	for _, c := range s.Categories() {
		cc := s.ByCategory[c]
		fmt.Fprintf(w, "  %-8s resolved %d expired %d\n", c, cc.Resolved, cc.Expired)
	}
}
