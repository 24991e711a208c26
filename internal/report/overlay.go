package report

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// scheduleDisabled is the sentinel a definitions file uses to strip a
// builtin's schedule (an empty schedule would inherit instead).
const scheduleDisabled = "-"

type fileDoc struct {
	Reports []Definition `yaml:"reports"`
}

// LoadFile parses a YAML definitions file and validates every entry.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read definitions file: %w", err)
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse definitions file %s: %w", path, err)
	}

	for _, def := range doc.Reports {
		if err := def.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Reports, nil
}

// Merge overlays defs onto the catalog. When a name matches an existing
// definition, set fields replace and unset fields inherit, so a file can
// adjust a single schedule or filter list. Param lists replace whole-key
// (no element merging). Unknown names append in file order.
func (c *Catalog) Merge(defs []Definition) {
	for _, d := range defs {
		if base, ok := c.defs[d.Name]; ok {
			c.Put(base.overlay(d))
		} else {
			c.Put(d.normalize())
		}
	}
}

func (d Definition) overlay(o Definition) Definition {
	merged := d
	merged.Params = make(map[string][]string, len(d.Params)+len(o.Params))
	for k, v := range d.Params {
		merged.Params[k] = append([]string(nil), v...)
	}
	for k, v := range o.Params {
		merged.Params[k] = append([]string(nil), v...)
	}

	if o.ReportID != 0 {
		merged.ReportID = o.ReportID
	}
	if o.FilePrefix != "" {
		merged.FilePrefix = o.FilePrefix
	}
	if o.Timezone != "" {
		merged.Timezone = o.Timezone
	}
	if o.Format != "" {
		merged.Format = o.Format
	}
	if o.Schedule == scheduleDisabled {
		merged.Schedule = ""
	} else if o.Schedule != "" {
		merged.Schedule = o.Schedule
	}
	if o.Window != "" {
		merged.Window = o.Window
	}
	return merged
}

// Load returns the builtin catalog, overlaid with the definitions file at
// path when one is given. Empty path means builtins only; a path that does
// not exist is an error (the operator asked for a file).
func Load(path string) (*Catalog, error) {
	cat := Builtin()
	if path == "" {
		return cat, nil
	}
	defs, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cat.Merge(defs)
	return cat, nil
}
