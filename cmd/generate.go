package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ersim/core/generator"
)

var genOpts struct {
	count  int
	seed   int64
	mean   float64
	output string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic arrival stream as CSV",
	RunE:  generateArrivals,
}

func init() {
	generateCmd.Flags().IntVarP(&genOpts.count, "count", "n", 100, "number of records")
	generateCmd.Flags().Int64Var(&genOpts.seed, "seed", 1, "random seed")
	generateCmd.Flags().Float64Var(&genOpts.mean, "mean-gap", 10, "mean time between arrivals")
	generateCmd.Flags().StringVarP(&genOpts.output, "output", "o", "-", "destination, - for stdout")
	rootCmd.AddCommand(generateCmd)
}

func generateArrivals(cmd *cobra.Command, args []string) error {
	if genOpts.count < 0 {
		return fmt.Errorf("count must be >= 0")
	}
	g, err := generator.New(generator.Config{Seed: genOpts.seed, MeanInterArrival: genOpts.mean})
	if err != nil {
		return err
	}
	var w io.Writer = cmd.OutOrStdout()
	if genOpts.output != "-" && genOpts.output != "" {
		f, err := os.Create(genOpts.output)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"t", "id", "x", "y", "etype", "priority_s"}); err != nil {
		return err
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
	for _, r := range g.Generate(genOpts.count) {
		if err := cw.Write([]string{ff(r.Time), r.ID, ff(r.X), ff(r.Y), r.Category.String(), ff(r.Priority)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
