package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ersim/core/model"
	"github.com/kilianp07/ersim/core/topology"
)

var stationsDemo bool

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List the configured stations and their units in dispatch order",
	RunE:  listStations,
}

func init() {
	stationsCmd.Flags().BoolVar(&stationsDemo, "demo-stations", false, "use the built-in demo stations when none are configured")
	rootCmd.AddCommand(stationsCmd)
}

func listStations(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(stationsDemo)
	if err != nil {
		return err
	}
	topo, err := topology.New(cfg.Stations)
	if err != nil {
		return err
	}
	units, err := topo.BuildUnits(cfg.Simulation.DefaultSpeed)
	if err != nil {
		return err
	}
	byStation := make(map[string][]string)
	for _, u := range units {
		byStation[u.StationID] = append(byStation[u.StationID], u.ID)
	}
	out := cmd.OutOrStdout()
	for _, s := range topo.Stations() {
		speed := s.Speed
		if speed <= 0 {
			speed = cfg.Simulation.DefaultSpeed
		}
		fmt.Fprintf(out, "%-6s %-8s (%g, %g) speed %g units: %s\n",
			s.ID, s.Category, s.Home.X, s.Home.Y, speed, strings.Join(byStation[s.ID], " "))
	}
	fmt.Fprintln(out)
	printCoverage(out, topo.Stations())
	return nil
}

// printCoverage shows, per emergency category, which unit categories may
// respond and how many stations field one.
func printCoverage(out io.Writer, stations []model.Station) {
	for _, c := range []model.Category{model.CategoryFire, model.CategoryPolice, model.CategoryMedical, model.CategoryOther} {
		responders := c.Responders()
		if len(responders) == 0 {
			fmt.Fprintf(out, "%-8s no responders, always expires\n", c)
			continue
		}
		names := make([]string, len(responders))
		for i, r := range responders {
			names[i] = r.String()
		}
		n := 0
		for _, s := range stations {
			if s.Units > 0 && slices.Contains(responders, s.Category) {
				n++
			}
		}
		if n == 0 {
			fmt.Fprintf(out, "%-8s served by %s: no station, always expires\n", c, strings.Join(names, ", "))
			continue
		}
		fmt.Fprintf(out, "%-8s served by %s: %d stations\n", c, strings.Join(names, ", "), n)
	}
}
