// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package console

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/gpupanic"
)

// Format selects how the adapter list is written.
type Format string

// Supported list formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("console: unknown format %q (want text, json or yaml)", s)
	}
}

// adapterRecord is the machine-readable form of an adapter summary.
type adapterRecord struct {
	Index      int    `json:"index" yaml:"index"`
	Name       string `json:"name" yaml:"name"`
	Vendor     string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	MemoryMB   uint64 `json:"memory_mb,omitempty" yaml:"memory_mb,omitempty"`
	Annotation string `json:"annotation" yaml:"annotation"`
}

func records(summaries []gpupanic.AdapterSummary) []adapterRecord {
	out := make([]adapterRecord, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, adapterRecord{
			Index:      s.Index,
			Name:       s.Info.Name,
			Vendor:     s.Info.Vendor,
			Type:       s.Info.DeviceType,
			MemoryMB:   s.Info.DedicatedMemory / mib,
			Annotation: s.Annotation.String(),
		})
	}
	return out
}

// ListAs writes the adapter inventory in format f.
func (p *Printer) ListAs(f Format, summaries []gpupanic.AdapterSummary) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(records(summaries))
	case FormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(records(summaries)); err != nil {
			return err
		}
		return enc.Close()
	default:
		p.List(summaries)
		return nil
	}
}
