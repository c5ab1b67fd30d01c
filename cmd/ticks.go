package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ersim/core/ticklog"
)

var ticksOpts struct {
	path      string
	runID     string
	from      float64
	to        float64
	emergency string
}

var ticksCmd = &cobra.Command{
	Use:   "ticks",
	Short: "Query the persisted tick log as JSONL",
	RunE:  queryTicks,
}

func init() {
	ticksCmd.Flags().StringVar(&ticksOpts.path, "path", "", "tick log location (default tick_log.path)")
	ticksCmd.Flags().StringVar(&ticksOpts.runID, "run", "", "only ticks of this run id")
	ticksCmd.Flags().Float64Var(&ticksOpts.from, "from", 0, "earliest simulated time, inclusive")
	ticksCmd.Flags().Float64Var(&ticksOpts.to, "to", 0, "latest simulated time, inclusive")
	ticksCmd.Flags().StringVar(&ticksOpts.emergency, "emergency", "", "only ticks where this emergency arrived or closed")
	rootCmd.AddCommand(ticksCmd)
}

func queryTicks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	logCfg := cfg.TickLog
	if ticksOpts.path != "" {
		logCfg.Path = ticksOpts.path
	}
	// Opening a store creates a missing file.
	if _, err := os.Stat(logCfg.Path); err != nil {
		return fmt.Errorf("tick log: %w", err)
	}
	store, err := ticklog.Open(logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	q := ticklog.LogQuery{RunID: ticksOpts.runID, EmergencyID: ticksOpts.emergency}
	if cmd.Flags().Changed("from") {
		from := ticksOpts.from
		q.From = &from
	}
	if cmd.Flags().Changed("to") {
		to := ticksOpts.to
		q.To = &to
	}
	if q.From != nil && q.To != nil && *q.From > *q.To {
		return fmt.Errorf("--from must not exceed --to")
	}
	records, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
