package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/shuttle/app"
	"github.com/kilianp07/shuttle/infra/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Simulate every route, optimize, then expose metrics until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			log := logger.New("serve")
			for _, id := range svc.RouteIDs() {
				res, err := svc.Simulate(ctx, app.SimulateOptions{Route: id})
				if err != nil {
					return err
				}
				log.Infof("route %s: %d trips, %d missed", id, res.TotalTrips, res.Missed)
			}
			if len(svc.Demand()) > 0 {
				if _, err := svc.Optimize(ctx, app.OptimizeOptions{}); err != nil {
					return err
				}
			}
			if err := svc.ServeMetrics(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		})
	},
}

func init() { rootCmd.AddCommand(serveCmd) }
