package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastygo/roadmap/internal/projector"
)

type viewFlags struct {
	status string
	query  string
	sort   string
	dir    string
	group  string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "all", "planned, active, waiting, done or all")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "search title, description and tags")
	cmd.Flags().StringVar(&f.sort, "sort", "date", "date, status, title, tags or owner")
	cmd.Flags().StringVar(&f.dir, "dir", "desc", "asc or desc")
	cmd.Flags().StringVar(&f.group, "group", "month", "timeline buckets: month or week")
}

func (f *viewFlags) options(mode string) (projector.ViewOptions, error) {
	opts := projector.DefaultViewOptions()
	var ok bool
	if opts.Mode, ok = projector.ParseMode(mode); !ok {
		return opts, fmt.Errorf("unknown view %q", mode)
	}
	if opts.Criteria.Status, ok = projector.ParseStatusFilter(f.status); !ok {
		return opts, fmt.Errorf("unknown status %q", f.status)
	}
	opts.Criteria.Query = f.query
	if opts.Sort, ok = projector.ParseSortField(f.sort); !ok {
		return opts, fmt.Errorf("unknown sort field %q", f.sort)
	}
	if opts.Dir, ok = projector.ParseDirection(f.dir, projector.Desc); !ok {
		return opts, fmt.Errorf("unknown direction %q", f.dir)
	}
	if opts.Group, ok = projector.ParseGroupBy(f.group); !ok {
		return opts, fmt.Errorf("unknown grouping %q", f.group)
	}
	return opts, nil
}

func newViewCmd(app *App, mode, short string) *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   mode,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(mode)
			if err != nil {
				return err
			}
			items, err := app.Roadmap.ListItems(cmd.Context())
			if err != nil {
				return err
			}
			view := projector.Project(items, opts, app.ViewOptions...)
			_, err = fmt.Fprint(app.out(), renderView(app.theme(), view))
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newSummaryCmd(app *App) *cobra.Command {
	var upcoming int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show progress per status and the next planned items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.Roadmap.ListItems(cmd.Context())
			if err != nil {
				return err
			}
			out := renderSummary(app.theme(), projector.Summarize(items), projector.Upcoming(items, upcoming))
			_, err = fmt.Fprint(app.out(), out)
			return err
		},
	}
	cmd.Flags().IntVar(&upcoming, "upcoming", projector.DefaultUpcoming, "number of upcoming items")
	return cmd
}

func newActivityCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the most recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				limit = app.ActivityLimit
			}
			events, err := app.Roadmap.RecentEvents(cmd.Context(), limit)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(app.out(), renderActivity(app.theme(), events, app.now()))
			return err
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of events (default from ACTIVITY_LIMIT)")
	return cmd
}
