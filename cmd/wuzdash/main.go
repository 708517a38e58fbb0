package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/wuzdash/internal/app"
	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/config"
	"github.com/matheus3301/wuzdash/internal/dashboard"
	"github.com/matheus3301/wuzdash/internal/lock"
	"github.com/matheus3301/wuzdash/internal/profile"
	"github.com/matheus3301/wuzdash/internal/tui"
	"github.com/matheus3301/wuzdash/internal/tui/ui"
)

func main() {
	flags := pflag.NewFlagSet("wuzdash", pflag.ContinueOnError)
	profileFlag := flags.StringP("profile", "p", "", "profile name (overrides config default)")
	debug := flags.Bool("debug", false, "debug logging")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	settings, err := config.LoadSettings(profile.SettingsPath(name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	flash := ui.NewFlashModel()
	var (
		ctrl   *dashboard.Controller
		events *bus.Bus
		logger *zap.Logger
	)
	fxApp := app.New(app.Params{
		Profile:  name,
		Binary:   "wuzdash",
		Settings: settings,
		Debug:    *debug,
		Notifier: flash,
	}, fx.Populate(&ctrl, &events, &logger))

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		var held *lock.HeldError
		if errors.As(err, &held) {
			fmt.Fprintf(os.Stderr, "error: %v\nanother dashboard or wuzd is polling profile %q\n", held, name)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}

	t := tui.NewApp(tui.Options{
		Controller: ctrl,
		Bus:        events,
		Flash:      flash,
		Profile:    name,
		Gateway:    settings.BaseURL,
		Logger:     logger.Named("tui"),
	})
	runErr := t.Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
