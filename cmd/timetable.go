package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/shuttle/app"
	"github.com/kilianp07/shuttle/pkg/export"
)

var timetableCmd = &cobra.Command{
	Use:   "timetable",
	Short: "Print the departures generated from the frequency bands",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		return withService(func(_ context.Context, svc *app.Service) error {
			w, closeOut, err := output(cmd)
			if err != nil {
				return err
			}
			if err := export.WriteTimetables(w, f, svc.Timetables()); err != nil {
				_ = closeOut()
				return err
			}
			return closeOut()
		})
	},
}

func init() { rootCmd.AddCommand(timetableCmd) }
