// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package console

import (
	"fmt"

	"github.com/gogpu/gpupanic"
)

const mib = 1024 * 1024

// List prints the adapter inventory.
func (p *Printer) List(summaries []gpupanic.AdapterSummary) {
	fmt.Fprintln(p.out)
	p.line("%s", p.title.Render("your gpus:"))
	p.line("----------")
	for _, s := range summaries {
		p.line("[%d] %s", s.Index, s.Info.Name)
		if s.Info.DedicatedMemory > 0 {
			p.line("    vram: %d MB", s.Info.DedicatedMemory/mib)
		} else {
			p.line("    vram: unknown")
		}
		switch s.Annotation {
		case gpupanic.AnnotationTarget:
			p.line("    ^ TARGET")
		case gpupanic.AnnotationSafeDisplay:
			p.line("    ^ safe (display stays here)")
		}
	}
	fmt.Fprintln(p.out)
}

// TDRDisabled reports a successful watchdog disable.
func (p *Printer) TDRDisabled() {
	p.Okf("TDR disabled - reboot for it to take effect")
	p.Warnf("after reboot, gpu hangs wont recover automatically")
}

// TDREnabled reports a successful watchdog restore.
func (p *Printer) TDREnabled() {
	p.Okf("TDR restored - reboot for it to take effect")
}
