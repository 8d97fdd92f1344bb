// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadConfirmation reads one line from r and reports whether it is exactly
// ConfirmWord. The line terminator (LF or CRLF) is stripped; nothing else is.
func ReadConfirmation(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line == ConfirmWord
}

// ConfirmNuclear prints the nuclear warning, reads the answer from r and
// prints "aborted." unless it matches.
func (p *Printer) ConfirmNuclear(r io.Reader) bool {
	fmt.Fprintln(p.out)
	p.warn.Fprintln(p.out, "  !!! NUCLEAR MODE !!!")
	p.line("your %s gpu will freeze until you hard reboot.", strings.ToLower(p.vendor))
	p.line("make sure display is on igpu or remote access ready.")
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "  type '%s' to continue: ", ConfirmWord)

	if ReadConfirmation(r) {
		return true
	}
	fmt.Fprintln(p.out)
	p.line("aborted.")
	return false
}
