package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/roadmap/internal/itemstore"
	"github.com/fastygo/roadmap/internal/live"
	"github.com/fastygo/roadmap/internal/notifier"
)

const clearScreen = "\033[H\033[2J"

func newWatchCmd(app *App) *cobra.Command {
	var (
		flags  viewFlags
		mode   string
		notify bool
		bell   bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the roadmap live and get notified about changes by others",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.member(ctx)
			if err != nil {
				return err
			}
			opts, err := flags.options(mode)
			if err != nil {
				return err
			}
			if app.Bus == nil {
				return errors.New("realtime bus is not configured")
			}

			t := app.theme()
			sink := notifier.NewWriterSink(app.errOut(), bell, func(n notifier.Notification) string {
				return t.bold(n.Title) + "  " + n.Body
			})
			sink.SetEnabled(notify)

			var (
				session *live.Session
				drawn   uint64
			)
			redraw := func() {
				version := session.Store().Version()
				if version == drawn {
					return
				}
				drawn = version
				var frame string
				if app.Styled {
					frame = clearScreen
				}
				frame += renderView(t, session.View(opts))
				if _, err := fmt.Fprint(app.out(), frame); err != nil {
					app.logger().Warn("render failed", zap.Error(err))
				}
			}
			session = live.New(actor, app.Roadmap, app.logger(),
				live.WithNotifier(notifier.New(sink, app.logger())),
				live.WithProjectorOptions(app.ViewOptions...),
				live.WithOnChange(func(out itemstore.Outcome) {
					if out.Applied {
						redraw()
					}
				}),
			)
			defer session.Close()

			// Subscribe before loading so nothing committed in between is missed.
			in, closeFn, err := app.Bus.Subscribe(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := session.Load(ctx); err != nil {
				return err
			}
			redraw()

			err = session.Run(ctx, in)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&mode, "view", "timeline", "list, timeline or kanban")
	cmd.Flags().BoolVar(&notify, "notify", true, "print notifications for changes by others")
	cmd.Flags().BoolVar(&bell, "bell", false, "ring the terminal bell on notifications")
	return cmd
}
