package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/shuttle/app"
	"github.com/kilianp07/shuttle/pkg/export"
)

var simOpts app.SimulateOptions

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate one day of a route with a fixed fleet",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&simOpts.Route, "route", "r", "", "route to simulate (default simulation.route)")
	simulateCmd.Flags().IntVarP(&simOpts.FleetSize, "buses", "b", 0, "fleet size, 1 to 10 (default fleet.size)")
	simulateCmd.Flags().Uint64Var(&simOpts.Seed, "seed", 0, "random seed (default simulation.seed)")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		res, err := svc.Simulate(ctx, simOpts)
		if err != nil {
			return err
		}
		w, closeOut, err := output(cmd)
		if err != nil {
			return err
		}
		if outPath == "" && f == export.JSON {
			// Human-readable log on a terminal.
			fmt.Fprintln(w, strings.Join(res.Lines(), "\n"))
		} else if err := export.WriteLog(w, f, res.Log); err != nil {
			_ = closeOut()
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Total number of trips: %d\nMissed departures: %d\n", res.TotalTrips, res.Missed)
		return closeOut()
	})
}
