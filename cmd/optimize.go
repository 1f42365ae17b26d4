package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/shuttle/app"
	"github.com/kilianp07/shuttle/pkg/export"
)

var optOpts app.OptimizeOptions

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Rank express candidates and size the fleet",
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&optOpts.Day, "day", "", "day of week (default optimization.day)")
	optimizeCmd.Flags().StringVar(&optOpts.Start, "start", "", "window start HH:MM")
	optimizeCmd.Flags().StringVar(&optOpts.End, "end", "", "window end HH:MM")
	optimizeCmd.Flags().IntVarP(&optOpts.TopK, "top", "k", 0, "number of express candidates")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		res, err := svc.Optimize(ctx, optOpts)
		if err != nil {
			return err
		}
		w, closeOut, err := output(cmd)
		if err != nil {
			return err
		}
		if f == export.JSON {
			err = export.WriteJSON(w, res)
		} else {
			err = export.WritePlan(w, f, res.Plan())
		}
		if err != nil {
			_ = closeOut()
			return err
		}
		writeSummary(cmd.ErrOrStderr(), res)
		return closeOut()
	})
}

// writeSummary prints the chosen express setup. When no ratio beats running
// without an express route it says so instead of recommending one.
func writeSummary(w io.Writer, res *app.Optimization) {
	x := res.Express
	fmt.Fprintf(w, "Express stops: %v\n", res.Candidates)
	if !x.Beneficial {
		fmt.Fprintf(w, "No express route: the best ratio %.1f needs %.0f buses, running without one needs %.0f\n",
			x.Ratio, x.Total, x.Baseline)
		return
	}
	fmt.Fprintf(w, "Optimal ratio: %.1f\nTotal buses: %.0f (baseline %.0f)\n", x.Ratio, x.Total, x.Baseline)
}
