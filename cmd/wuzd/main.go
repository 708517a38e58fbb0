package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/matheus3301/wuzdash/internal/app"
	"github.com/matheus3301/wuzdash/internal/config"
	"github.com/matheus3301/wuzdash/internal/notify"
	"github.com/matheus3301/wuzdash/internal/profile"
)

func main() {
	flags := pflag.NewFlagSet("wuzd", pflag.ContinueOnError)
	profileFlag := flags.StringP("profile", "p", "", "profile name (overrides config default)")
	metricsAddr := flags.String("metrics-addr", "", "listen address for /metrics and /healthz (overrides profile.toml)")
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
	if *metricsAddr != "" {
		settings.MetricsAddr = *metricsAddr
	}

	app.New(app.Params{
		Profile:      name,
		Binary:       "wuzd",
		Settings:     settings,
		Console:      true,
		Debug:        *debug,
		ServeMetrics: true,
		Notifier:     notify.NewWriter(os.Stderr),
	}).Run()
}
