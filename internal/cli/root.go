package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/muse/internal/config"
	"github.com/mithrel/muse/internal/wire"
	"github.com/mithrel/muse/pkg/api"
)

type ctxKey string

const appKey ctxKey = "app"

// skipApp marks commands that run without config or a database.
const skipApp = "muse/skip-app"

var errNoUser = errors.New("no acting user: pass --as <email> or set user.email")

// Execute is the entrypoint: it builds the root cobra.Command and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "muse",
		Short:         "Muse: markdown documents with a formatting toolbar, sharing and previews",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipApp] != "" {
				return nil
			}
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			if as, _ := cmd.Flags().GetString("as"); as != "" {
				v.Set("user.email", as)
			}
			app, err := wire.BuildApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app, ok := appFrom(cmd); ok {
				return app.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (toml)")
	cmd.PersistentFlags().String("as", "", "act as the account with this email (overrides user.email)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newDocCmd())
	cmd.AddCommand(newShareCmd())
	cmd.AddCommand(newFmtCmd())
	cmd.AddCommand(newCompletionCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func appFrom(cmd *cobra.Command) (*wire.App, bool) {
	if cmd.Context() == nil {
		return nil, false
	}
	app, ok := cmd.Context().Value(appKey).(*wire.App)
	return app, ok
}

func getApp(cmd *cobra.Command) *wire.App {
	app, ok := appFrom(cmd)
	if !ok {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return app
}

// actingUser resolves the account document commands run as.
func actingUser(cmd *cobra.Command) (api.User, error) {
	app := getApp(cmd)
	email := strings.TrimSpace(app.Cfg.GetString("user.email"))
	if email == "" {
		return api.User{}, errNoUser
	}
	u, err := app.Service.UserByEmail(cmd.Context(), email)
	if err != nil {
		return api.User{}, fmt.Errorf("%s: %w (create it with: muse user add %s)", email, err, email)
	}
	return u, nil
}
