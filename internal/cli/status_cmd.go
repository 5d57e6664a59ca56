package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/live"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <item> <status>",
		Short: "Move an item to another status",
		Long: "Move an item to planned, active, waiting or done. The item can be given\n" +
			"as its id, an id prefix or its title.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.member(ctx)
			if err != nil {
				return err
			}
			status, ok := domain.ParseStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown status %q (want %s)", args[1], strings.Join(statusNames(), ", "))
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

			item, err := session.SetStatus(ctx, id, status)
			if err != nil {
				return err
			}
			t := app.theme()
			_, err = fmt.Fprintf(app.out(), "%s → %s\n", t.bold(item.Title), t.status(item.Status))
			return err
		},
	}
}

func statusNames() []string {
	out := make([]string, 0, 4)
	for _, st := range domain.Statuses() {
		out = append(out, string(st))
	}
	return out
}
