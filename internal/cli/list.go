package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpggio/crossing/internal/app"
	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/schedule"
)

type listRow struct {
	ID           int64  `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	ScheduleTime string `json:"scheduleTime" yaml:"scheduleTime"`
	Window       string `json:"window" yaml:"window"`
	Within       bool   `json:"within" yaml:"within"`
	Green        int    `json:"green" yaml:"green"`
	Yellow       int    `json:"yellow" yaml:"yellow"`
	Red          int    `json:"red" yaml:"red"`
}

func newListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the stored intersections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger, closeLog, err := newLogger(cfg.Log.Level, cfg.Log.Path, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := app.New(cfg, logger, app.WithVersion(Version))
			if err != nil {
				return err
			}
			defer a.Close()

			rows := listRows(a.Registry.List(), time.Now(), cfg.Schedule.Window)
			return root.render(cmd.OutOrStdout(), rows, func(w io.Writer) error {
				return writeListText(w, rows)
			})
		},
	}
}

func listRows(items []intersection.Intersection, now time.Time, window time.Duration) []listRow {
	rows := make([]listRow, 0, len(items))
	for _, rec := range items {
		rows = append(rows, listRow{
			ID:           rec.ID,
			Name:         rec.Name,
			ScheduleTime: rec.ScheduleTime.String(),
			Window:       schedule.FormatWindow(rec.ScheduleTime, window),
			Within:       schedule.Within(rec.ScheduleTime, now, window),
			Green:        rec.Durations.Green,
			Yellow:       rec.Durations.Yellow,
			Red:          rec.Durations.Red,
		})
	}
	return rows
}

func writeListText(w io.Writer, rows []listRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no intersections")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTIME\tWINDOW\tACTIVE\tG/Y/R")
	for _, r := range rows {
		at := r.ScheduleTime
		if at == "" {
			at = "--:--:--"
		}
		active := "no"
		if r.Within {
			active = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d/%d/%d\n", r.ID, r.Name, at, r.Window, active, r.Green, r.Yellow, r.Red)
	}
	return tw.Flush()
}
