// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package console renders gpupanic's terminal output: banners, status
// markers, the adapter list and the nuclear confirmation prompt.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/gogpu/gpupanic"
)

// ConfirmWord must be typed exactly to arm nuclear mode.
const ConfirmWord = "PANIC"

// Printer writes human-readable output to a single writer.
type Printer struct {
	out    io.Writer
	vendor string

	info *color.Color
	ok   *color.Color
	warn *color.Color

	box    lipgloss.Style
	danger lipgloss.Style
	title  lipgloss.Style
}

// Option configures a Printer.
type Option func(*Printer)

// WithoutColor strips ANSI escapes from status markers.
func WithoutColor() Option {
	return func(p *Printer) {
		p.info.DisableColor()
		p.ok.DisableColor()
		p.warn.DisableColor()
	}
}

// WithVendor names the target vendor in "not found" messages.
func WithVendor(vendor string) Option {
	return func(p *Printer) {
		if vendor != "" {
			p.vendor = vendor
		}
	}
}

// New returns a Printer writing to w.
func New(w io.Writer, opts ...Option) *Printer {
	r := lipgloss.NewRenderer(w)
	p := &Printer{
		out:    w,
		vendor: gpupanic.DefaultVendor,
		info:   color.New(color.FgCyan),
		ok:     color.New(color.FgGreen, color.Bold),
		warn:   color.New(color.FgRed, color.Bold),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Padding(0, 2).
			Align(lipgloss.Center),
		danger: r.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("196")).
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Padding(0, 2).
			Align(lipgloss.Center),
		title: r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Printer) line(format string, args ...any) {
	fmt.Fprintf(p.out, "  "+format+"\n", args...)
}

func (p *Printer) status(c *color.Color, marker, format string, args ...any) {
	fmt.Fprint(p.out, "  ")
	c.Fprint(p.out, marker)
	fmt.Fprintf(p.out, " "+format+"\n", args...)
}

// Infof prints a "[*]" progress line.
func (p *Printer) Infof(format string, args ...any) { p.status(p.info, "[*]", format, args...) }

// Okf prints a "[+]" success line.
func (p *Printer) Okf(format string, args ...any) { p.status(p.ok, "[+]", format, args...) }

// Warnf prints a "[!]" failure line.
func (p *Printer) Warnf(format string, args ...any) { p.status(p.warn, "[!]", format, args...) }

func (p *Printer) boxed(style lipgloss.Style, lines ...string) {
	fmt.Fprintf(p.out, "\n%s\n\n", style.Render(strings.Join(lines, "\n")))
}

// Banner prints the title box.
func (p *Printer) Banner() { p.boxed(p.box, "gpupanic - make your gpu cry") }

// Loading prints the box shown before a run starts.
func (p *Printer) Loading() { p.boxed(p.box, "GPU PANIC LOADING") }

// Help prints the title box and usage.
func (p *Printer) Help() {
	p.Banner()
	p.line("usage: gpupanic [mode]")
	fmt.Fprintln(p.out)
	p.line("%s", p.title.Render("modes:"))
	p.line("  --safe          ~2 sec hang, auto-recovers")
	p.line("  --medium        ~20 sec hang, auto-recovers")
	p.line("  --nuclear       infinite hang, need hard reboot")
	fmt.Fprintln(p.out)
	p.line("%s", p.title.Render("other:"))
	p.line("  --disable-tdr   turn off TDR (needs admin + reboot)")
	p.line("  --enable-tdr    turn TDR back on")
	p.line("  --list          show your gpus")
	p.line("  --format F      list as text, json or yaml")
	p.line("  --vendor NAME   gpu to target (default %s)", gpupanic.DefaultVendor)
	p.line("  --log-level L   debug, info, warn or error")
	p.line("  --no-color      plain output")
	p.line("  --help, -h      this")
	fmt.Fprintln(p.out)
	p.line("tip: plug monitor into motherboard (igpu) so screen stays on when %s dies",
		strings.ToLower(p.vendor))
}

// Unknown reports an unrecognized argument and prints usage.
func (p *Printer) Unknown(arg string) {
	p.Warnf("unknown: %s", arg)
	p.Help()
}

// Error prints err as a failure line.
func (p *Printer) Error(err error) { p.Warnf("%v", err) }
