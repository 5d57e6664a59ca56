package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var errUserRequired = errors.New("--user is required for this command")

// NewRootCmd creates the top-level "roadmap" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "roadmap",
		Short:         "Family roadmap dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&app.actor.UserID, "user", "", "acting member id")
	root.PersistentFlags().StringVar(&app.actor.Email, "email", "", "acting member email")
	root.PersistentFlags().StringVar(&app.actor.Name, "name", "", "acting member display name")
	root.PersistentFlags().BoolVar(&app.Styled, "color", app.Styled, "colorize output")

	root.AddCommand(
		newViewCmd(app, "list", "Show all items as a sortable list"),
		newViewCmd(app, "timeline", "Show items grouped by month or week"),
		newViewCmd(app, "kanban", "Show items per status column"),
		newSummaryCmd(app),
		newActivityCmd(app),
		newStatusCmd(app),
		newAddCmd(app),
		newEditCmd(app),
		newRemoveCmd(app),
		newWatchCmd(app),
	)

	return root
}
