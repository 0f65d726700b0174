package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/schedule"
)

type windowReport struct {
	Time   string `json:"time" yaml:"time"`
	Window string `json:"window" yaml:"window"`
	Now    string `json:"now" yaml:"now"`
	Within bool   `json:"within" yaml:"within"`
}

// now is swapped in tests.
var now = time.Now

func newWindowCommand(root *rootOptions) *cobra.Command {
	var width time.Duration
	cmd := &cobra.Command{
		Use:   "window HH:MM[:SS]",
		Short: "Print the activation window around a time of day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := intersection.ParseScheduleTime(args[0])
			if err != nil {
				return err
			}
			if !at.IsSet() {
				return fmt.Errorf("%w: empty time", intersection.ErrInvalidScheduleTime)
			}
			if width <= 0 {
				width = schedule.DefaultWindow
			}
			t := now()
			report := windowReport{
				Time:   at.String(),
				Window: schedule.FormatWindow(at, width),
				Now:    t.Format(time.TimeOnly),
				Within: schedule.Within(at, t, width),
			}
			return root.render(cmd.OutOrStdout(), report, func(w io.Writer) error {
				state := "outside"
				if report.Within {
					state = "inside"
				}
				_, err := fmt.Fprintf(w, "%s  (now %s, %s)\n", report.Window, report.Now, state)
				return err
			})
		},
	}
	cmd.Flags().DurationVar(&width, "width", schedule.DefaultWindow, "half-width of the window")
	return cmd
}
