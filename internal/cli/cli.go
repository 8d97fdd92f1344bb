// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cli implements the gpupanic command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/gogpu/gpupanic"
	"github.com/gogpu/gpupanic/internal/config"
	"github.com/gogpu/gpupanic/internal/console"
	"github.com/gogpu/gpupanic/internal/gpucore"
	"github.com/gogpu/gpupanic/internal/logging"
	"github.com/gogpu/gpupanic/internal/tdr"
)

const name = "gpupanic"

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Flag names.
const (
	flagSafe       = "safe"
	flagMedium     = "medium"
	flagNuclear    = "nuclear"
	flagList       = "list"
	flagDisableTDR = "disable-tdr"
	flagEnableTDR  = "enable-tdr"
	flagHelp       = "help"
	flagVendor     = "vendor"
	flagLogLevel   = "log-level"
	flagNoColor    = "no-color"
	flagFormat     = "format"
)

var modeFlags = []struct {
	flag string
	mode gpupanic.Mode
}{
	{flagSafe, gpupanic.Safe},
	{flagMedium, gpupanic.Medium},
	{flagNuclear, gpupanic.Nuclear},
}

// Watchdog toggles the driver watchdog.
type Watchdog interface {
	Disable() error
	Enable() error
}

// Deps are the process resources and collaborators Run uses. Nil fields fall
// back to the process defaults where one exists.
type Deps struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Platform is called only when an adapter query or run is requested.
	Platform func() (gpucore.Platform, error)
	Watchdog Watchdog
	// Probe resolves adapter memory for --list; it may be nil.
	Probe func() gpupanic.MemoryProbe
	// Sleep replaces time.Sleep in the engine.
	Sleep func(time.Duration)

	Config  config.Config
	NoColor bool
}

func (d *Deps) defaults() {
	if d.Stdin == nil {
		d.Stdin = os.Stdin
	}
	if d.Stdout == nil {
		d.Stdout = os.Stdout
	}
	if d.Stderr == nil {
		d.Stderr = os.Stderr
	}
	if d.Watchdog == nil {
		d.Watchdog = tdr.New()
	}
	if d.Config == (config.Config{}) {
		d.Config = config.Default()
	}
}

// errUsage marks a command line that could not be parsed; usage has already
// been printed.
var errUsage = errors.New("gpupanic: invalid usage")

// Run executes the command line args (args[0] is the program name) and
// returns the process exit code.
func Run(ctx context.Context, args []string, d Deps) int {
	d.defaults()
	code := ExitOK
	printer := console.New(d.Stdout, printerOptions(d, d.Config.Vendor)...)

	cmd := &cli.Command{
		Name:      name,
		Usage:     "make your gpu cry",
		HideHelp:  true,
		Reader:    d.Stdin,
		Writer:    d.Stdout,
		ErrWriter: d.Stderr,
		Flags:     flags(d.Config),
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			printer.Warnf("%v", err)
			printer.Help()
			return errUsage
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			code = run(ctx, cmd, d)
			return nil
		},
	}

	if err := cmd.Run(ctx, args); err != nil {
		if !errors.Is(err, errUsage) {
			printer.Error(err)
		}
		return ExitFailure
	}
	return code
}

func flags(cfg config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: flagSafe, Usage: "~2 sec hang, auto-recovers"},
		&cli.BoolFlag{Name: flagMedium, Usage: "~20 sec hang, auto-recovers"},
		&cli.BoolFlag{Name: flagNuclear, Usage: "infinite hang, need hard reboot"},
		&cli.BoolFlag{Name: flagDisableTDR, Usage: "turn off TDR (needs admin + reboot)"},
		&cli.BoolFlag{Name: flagEnableTDR, Usage: "turn TDR back on"},
		&cli.BoolFlag{Name: flagList, Usage: "show your gpus"},
		&cli.BoolFlag{Name: flagHelp, Aliases: []string{"h"}, Usage: "this"},
		&cli.StringFlag{Name: flagVendor, Value: cfg.Vendor, Usage: "vendor token of the gpu to target"},
		&cli.StringFlag{Name: flagLogLevel, Value: cfg.LogLevel, Usage: "log level (debug, info, warn, error)"},
		&cli.BoolFlag{Name: flagNoColor, Usage: "disable colored output"},
		&cli.StringFlag{Name: flagFormat, Value: string(console.FormatText), Usage: "list format (text, json, yaml)"},
	}
}

func printerOptions(d Deps, vendor string) []console.Option {
	opts := []console.Option{console.WithVendor(vendor)}
	if d.NoColor {
		opts = append(opts, console.WithoutColor())
	}
	return opts
}

// run dispatches a parsed command line. Priority: help, disable-tdr,
// enable-tdr, list, mode.
func run(ctx context.Context, cmd *cli.Command, d Deps) int {
	if cmd.Bool(flagNoColor) {
		d.NoColor = true
	}
	vendor := cmd.String(flagVendor)
	p := console.New(d.Stdout, printerOptions(d, vendor)...)

	if cmd.Bool(flagHelp) {
		p.Help()
		return ExitOK
	}
	if cmd.Args().Len() > 0 {
		p.Unknown(cmd.Args().First())
		return ExitFailure
	}

	var modes []gpupanic.Mode
	for _, m := range modeFlags {
		if cmd.Bool(m.flag) {
			modes = append(modes, m.mode)
		}
	}
	if len(modes) > 1 {
		p.Warnf("pick one mode, got %d", len(modes))
		p.Help()
		return ExitFailure
	}

	log := logging.New(d.Stderr, cmd.String(flagLogLevel))
	gpupanic.SetLogger(log)
	defer gpupanic.SetLogger(nil)

	switch {
	case cmd.Bool(flagDisableTDR):
		return toggleWatchdog(p, d.Watchdog.Disable, p.TDRDisabled)
	case cmd.Bool(flagEnableTDR):
		return toggleWatchdog(p, d.Watchdog.Enable, p.TDREnabled)
	case cmd.Bool(flagList):
		return list(p, d, vendor, cmd.String(flagFormat))
	case len(modes) == 1:
		return runMode(ctx, p, d, vendor, modes[0])
	default:
		p.Help()
		return ExitOK
	}
}

func toggleWatchdog(p *console.Printer, toggle func() error, report func()) int {
	err := toggle()
	switch {
	case err == nil:
		report()
		return ExitOK
	case errors.Is(err, tdr.ErrUnsupported):
		p.Error(err)
	default:
		p.Warnf("failed to update %s (run as admin)", tdr.ValueName)
		gpupanic.Logger().Error("gpupanic: watchdog toggle failed", "err", err)
	}
	return ExitFailure
}

func list(p *console.Printer, d Deps, vendor, format string) int {
	f, err := console.ParseFormat(format)
	if err != nil {
		p.Error(err)
		return ExitFailure
	}
	platform, err := openPlatform(d)
	if err != nil {
		p.Error(err)
		return ExitFailure
	}
	var probe gpupanic.MemoryProbe
	if d.Probe != nil {
		probe = d.Probe()
	}
	summaries, err := gpupanic.New(platform, gpupanic.WithVendor(vendor)).List(probe)
	if err != nil {
		p.Error(err)
		return ExitFailure
	}
	if err := p.ListAs(f, summaries); err != nil {
		p.Error(err)
		return ExitFailure
	}
	return ExitOK
}

func runMode(ctx context.Context, p *console.Printer, d Deps, vendor string, mode gpupanic.Mode) int {
	if mode == gpupanic.Nuclear && !p.ConfirmNuclear(d.Stdin) {
		return ExitOK
	}
	platform, err := openPlatform(d)
	if err != nil {
		p.Error(err)
		return ExitFailure
	}
	p.Loading()

	opts := []gpupanic.Option{
		gpupanic.WithVendor(vendor),
		gpupanic.WithCountdown(d.Config.Countdown),
		gpupanic.WithPollInterval(d.Config.PollInterval),
		gpupanic.WithObserver(p.Observe),
	}
	if d.Sleep != nil {
		opts = append(opts, gpupanic.WithSleep(d.Sleep))
	}

	result, err := gpupanic.New(platform, opts...).Run(ctx, mode)
	if err != nil {
		var be *gpupanic.BuildError
		if !errors.Is(err, gpupanic.ErrNotFound) && !errors.As(err, &be) {
			p.Error(err)
		}
		return ExitFailure
	}
	gpupanic.Logger().Info("gpupanic: finished", "mode", result.Mode, "adapter", result.Adapter, "state", result.State)
	return ExitOK
}

func openPlatform(d Deps) (gpucore.Platform, error) {
	if d.Platform == nil {
		return nil, fmt.Errorf("%w: no gpu platform", gpupanic.ErrEnumeration)
	}
	p, err := d.Platform()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gpupanic.ErrEnumeration, err)
	}
	return p, nil
}
