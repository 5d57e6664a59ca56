package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/live"
)

var dayLayouts = []string{"2006-01-02", time.RFC3339}

func parseDay(flag, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("--%s: %q is not a date (want YYYY-MM-DD)", flag, raw)
}

func parseStatusFlag(raw string) (domain.Status, error) {
	status, ok := domain.ParseStatus(raw)
	if !ok {
		return "", fmt.Errorf("unknown status %q (want %s)", raw, strings.Join(statusNames(), ", "))
	}
	return status, nil
}

// itemFields holds the flags shared by add and edit.
type itemFields struct {
	title       string
	description string
	start       string
	end         string
	status      string
	tags        string
}

func (f *itemFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "longer description")
	cmd.Flags().StringVar(&f.start, "start", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "end date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.status, "status", "", "planned, active, waiting or done")
	cmd.Flags().StringVar(&f.tags, "tags", "", "comma separated tags")
}

func newAddCmd(app *App) *cobra.Command {
	var fields itemFields
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add an item to the roadmap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.member(ctx)
			if err != nil {
				return err
			}

			in := domain.ItemInput{
				Title:       args[0],
				Description: fields.description,
				Tags:        domain.SplitTags(fields.tags),
			}
			if fields.start != "" {
				if in.StartDate, err = parseDay("start", fields.start); err != nil {
					return err
				}
			}
			if fields.end != "" {
				if in.EndDate, err = parseDay("end", fields.end); err != nil {
					return err
				}
			}
			if fields.status != "" {
				if in.Status, err = parseStatusFlag(fields.status); err != nil {
					return err
				}
			}

			session := live.New(actor, app.Roadmap, app.logger())
			defer session.Close()
			item, err := session.CreateItem(ctx, in)
			if err != nil {
				return err
			}
			t := app.theme()
			_, err = fmt.Fprintf(app.out(), "Toegevoegd: %s %s %s\n", t.bold(item.Title), t.status(item.Status), t.dim(item.ID))
			return err
		},
	}
	fields.register(cmd)
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var (
		fields     itemFields
		clearStart bool
		clearEnd   bool
	)
	cmd := &cobra.Command{
		Use:   "edit <item>",
		Short: "Change the fields of an item",
		Long: "Change only the fields passed as flags. The item can be given as its id,\n" +
			"an id prefix or its title.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.member(ctx)
			if err != nil {
				return err
			}

			var patch domain.ItemPatch
			changed := cmd.Flags().Changed
			if changed("title") {
				patch.Title = &fields.title
			}
			if changed("description") {
				patch.Description = &fields.description
			}
			if changed("start") {
				if patch.StartDate, err = parseDay("start", fields.start); err != nil {
					return err
				}
			}
			if changed("end") {
				if patch.EndDate, err = parseDay("end", fields.end); err != nil {
					return err
				}
			}
			patch.ClearStart = clearStart
			patch.ClearEnd = clearEnd
			if changed("status") {
				status, err := parseStatusFlag(fields.status)
				if err != nil {
					return err
				}
				patch.Status = &status
			}
			if changed("tags") {
				patch.Tags = domain.SplitTags(fields.tags)
				patch.SetTags = true
			}
			if patch.Empty() {
				return errors.New("nothing to change; pass at least one field flag")
			}

			session := live.New(actor, app.Roadmap, app.logger())
			defer session.Close()
			if err := session.Load(ctx); err != nil {
				return err
			}
			id, err := resolveItemID(session.Store().Snapshot(), args[0])
			if err != nil {
				return err
			}

			item, err := session.UpdateItem(ctx, id, patch)
			if err != nil {
				return err
			}
			t := app.theme()
			_, err = fmt.Fprintf(app.out(), "Bijgewerkt: %s %s %s\n", t.bold(item.Title), t.status(item.Status), dateRange(*item))
			return err
		},
	}
	cmd.Flags().StringVar(&fields.title, "title", "", "new title")
	fields.register(cmd)
	cmd.Flags().BoolVar(&clearStart, "clear-start", false, "remove the start date")
	cmd.Flags().BoolVar(&clearEnd, "clear-end", false, "remove the end date")
	return cmd
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <item>",
		Aliases: []string{"remove"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.member(ctx)
			if err != nil {
				return err
			}

			session := live.New(actor, app.Roadmap, app.logger())
			defer session.Close()
			if err := session.Load(ctx); err != nil {
				return err
			}
			id, err := resolveItemID(session.Store().Snapshot(), args[0])
			if err != nil {
				return err
			}
			item, _ := session.Store().Get(id)

			if err := session.DeleteItem(ctx, id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(app.out(), "Verwijderd: %s\n", app.theme().bold(item.Title))
			return err
		},
	}
}
