package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/xdoubleu/essentia/v2/pkg/communication/httptools"
	"github.com/xdoubleu/essentia/v2/pkg/database"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"schedulesync.xdoubleu.com/internal/models"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedulesync",
		Short: "Keep Google Calendars in sync with the SumDU schedule",
		// errors are reported by the commands themselves
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newSyncCommand())
	cmd.AddCommand(newPreviewCommand())
	cmd.AddCommand(newUsersCommand())

	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled passes and serve health, status and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.Close()

			return app.serve(cmd.Context())
		},
	}
}

func (app *Application) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.calendarSync.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := app.calendarSync.Shutdown(); err != nil {
			app.logger.Error("failed to stop scheduler", logging.ErrAttr(err))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,  //nolint:mnd //no magic number
		WriteTimeout: 10 * time.Second, //nolint:mnd //no magic number
	}

	err := httptools.Serve(app.logger, srv, app.config.Env)
	if err != nil {
		app.logger.Error("failed to serve server", logging.ErrAttr(err))
	}
	return err
}

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single pass and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.calendarSync.SyncOnce(cmd.Context())
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(report)
		},
	}
}

func newPreviewCommand() *cobra.Command {
	var groupCode int
	var days int
	var reminder int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the schedule of a group as an iCalendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.Close()

			if days <= 0 {
				days = app.config.DefaultFetchDays
			}
			if reminder < 0 {
				reminder = app.config.DefaultReminderMinutes
			}

			feed, err := app.calendarSync.Services.Preview.Render(
				cmd.Context(),
				groupCode,
				days,
				reminder,
			)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), feed)
			return err
		},
	}

	cmd.Flags().IntVar(&groupCode, "group", 0, "group code")
	cmd.Flags().IntVar(&days, "days", 0, "days ahead, 0 uses DEFAULT_FETCH_DAYS")
	cmd.Flags().IntVar(&reminder, "reminder", -1, "popup lead in minutes")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func newUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List subjects of every stored user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.Close()

			return app.listSubjects(cmd)
		},
	}

	cmd.AddCommand(newUsersAddCommand())

	return cmd
}

func (app *Application) listSubjects(cmd *cobra.Command) error {
	subjects, err := app.calendarSync.Services.Subjects.ListSubjects(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd //padding
	fmt.Fprintln(w, "USER\tGROUP\tDAYS\tREMINDER\tCALENDAR")
	for _, subject := range subjects {
		fmt.Fprintf(
			w,
			"%s\t%d\t%d\t%d\t%s\n",
			subject.User.Email,
			subject.GroupCode,
			subject.FetchDays,
			subject.ReminderMinutes,
			subject.CalendarLabel(app.config.CalendarPrefix),
		)
	}
	return w.Flush()
}

func newUsersAddCommand() *cobra.Command {
	var user models.User
	var fetchDays int
	var reminder int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a user with a refresh token and group subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.Close()

			if cmd.Flags().Changed("days") {
				user.FetchDays = &fetchDays
			}
			if cmd.Flags().Changed("reminder") {
				user.PopupReminder = &reminder
			}

			return addUser(
				cmd.Context(),
				cmd.OutOrStdout(),
				app.calendarSync.Repositories.Users,
				user,
			)
		},
	}

	cmd.Flags().StringVar(&user.Email, "email", "", "account email")
	cmd.Flags().IntSliceVar(&user.GroupCodes, "groups", nil, "group codes")
	cmd.Flags().StringVar(&user.RefreshToken, "refresh-token", "", "OAuth refresh token")
	cmd.Flags().IntVar(&fetchDays, "days", 0, "days ahead to sync")
	cmd.Flags().IntVar(&reminder, "reminder", 0, "popup lead in minutes")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("refresh-token")

	return cmd
}

type userRegistry interface {
	GetUser(ctx context.Context, email string) (*models.User, error)
	Upsert(ctx context.Context, user models.User) error
}

// addUser stores user and reports whether it was created or updated.
func addUser(
	ctx context.Context,
	w io.Writer,
	users userRegistry,
	user models.User,
) error {
	_, err := users.GetUser(ctx, user.Email)
	created := errors.Is(err, database.ErrResourceNotFound)
	if err != nil && !created {
		return err
	}

	if err = users.Upsert(ctx, user); err != nil {
		return err
	}

	action := "updated"
	if created {
		action = "created"
	}

	_, err = fmt.Fprintf(w, "%s user %s\n", action, user.Email)
	return err
}
