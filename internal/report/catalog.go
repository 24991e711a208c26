// Package report defines the report catalog: which reports can be pulled,
// with which filters, and on what schedule. The built-in catalog carries the
// two production reports (inventory snapshot, month-to-date returns detail);
// a YAML definitions file can override or extend it without recompiling.
package report

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// WindowKind selects a date-window computation applied when the request is
// built, so every submission covers the period as of that moment.
type WindowKind string

const (
	// WindowNone applies no window; Params are submitted as-is.
	WindowNone WindowKind = ""
	// WindowReturnsMonthToDate fills returnCreatedFrom/returnCreatedTo with
	// the current calendar month in IST, expressed as UTC instants.
	WindowReturnsMonthToDate WindowKind = "returns-month-to-date"
)

// Definition describes one pullable report.
type Definition struct {
	Name       string              `yaml:"name"`
	ReportID   int                 `yaml:"report-id"`
	FilePrefix string              `yaml:"file-prefix"`
	Timezone   string              `yaml:"timezone"`
	Format     string              `yaml:"file-format"`
	Params     map[string][]string `yaml:"params"`
	Schedule   string              `yaml:"schedule"` // cron expression; empty = manual only
	Window     WindowKind          `yaml:"window"`
}

// Validate checks a definition loaded from a file.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("report definition: name is required")
	}
	if d.ReportID <= 0 {
		return fmt.Errorf("report %q: report-id is required", d.Name)
	}
	switch d.Window {
	case WindowNone, WindowReturnsMonthToDate:
	default:
		return fmt.Errorf("report %q: unknown window %q", d.Name, d.Window)
	}
	if d.Schedule != "" && d.Schedule != scheduleDisabled {
		if _, err := cron.ParseStandard(d.Schedule); err != nil {
			return fmt.Errorf("report %q: invalid schedule %q: %w", d.Name, d.Schedule, err)
		}
	}
	return nil
}

// normalize fills derivable defaults on a file-loaded definition.
func (d Definition) normalize() Definition {
	if d.FilePrefix == "" {
		d.FilePrefix = d.Name
	}
	if d.Timezone == "" {
		d.Timezone = "Asia/Calcutta"
	}
	if d.Format == "" {
		d.Format = "XLSX"
	}
	if d.Schedule == scheduleDisabled {
		d.Schedule = ""
	}
	return d
}

// Catalog is an ordered set of report definitions keyed by name.
type Catalog struct {
	names []string
	defs  map[string]Definition
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{defs: make(map[string]Definition)}
}

// Put inserts or replaces a definition, preserving first-seen order.
func (c *Catalog) Put(def Definition) {
	if _, ok := c.defs[def.Name]; !ok {
		c.names = append(c.names, def.Name)
	}
	c.defs[def.Name] = def
}

// Get returns the definition for name.
func (c *Catalog) Get(name string) (Definition, bool) {
	def, ok := c.defs[name]
	return def, ok
}

// List returns all definitions in catalog order.
func (c *Catalog) List() []Definition {
	out := make([]Definition, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.defs[name])
	}
	return out
}

// Names returns the definition names in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Builtin returns the built-in catalog with the production filter sets.
func Builtin() *Catalog {
	c := New()

	c.Put(Definition{
		Name:       "inventory",
		ReportID:   106899,
		FilePrefix: "inventory_report",
		Timezone:   "Asia/Calcutta",
		Format:     "XLSX",
		Params: map[string][]string{
			"fulfillmentLocations": {"1101210185", "1101214370", "1101205510"},
			"client":               {"1101201064", "1101210390"},
			"brand":                {},
			"QCStatus":             {},
			"GlobalSKUId":          {},
			"Style":                {},
			"EAN":                  {},
			"VirtualSKU":           {},
			"ReservationPool":      {},
			"customSkuAttributes":  {},
		},
		Schedule: "0 7 * * *",
	})

	// returnCreatedFrom/returnCreatedTo are filled by the window at request
	// build time, not listed here.
	c.Put(Definition{
		Name:       "returns",
		ReportID:   107071,
		FilePrefix: "return_report",
		Timezone:   "Asia/Calcutta",
		Format:     "XLSX",
		Window:     WindowReturnsMonthToDate,
		Params: map[string][]string{
			"client":                          {"1101201064", "1101210390"},
			"fulfillmentLocations":            {"1101210185", "1101214370", "1101205510"},
			"childSKU":                        {"1. Child+Standalone SKUs (ITEM LEVEL)"},
			"returnsWithoutFwd":               {"ALL"},
			"expectedReturns":                 {"ALL"},
			"retOrdID":                        {},
			"retOrdItemID":                    {},
			"returnProcessedFrom":             {},
			"returnProcessedTo":               {},
			"returnGateEntryId":               {},
			"returnGateEntryCreatedFrom":      {},
			"returnGateEntryCreatedTo":        {},
			"returnGateEntryItemId":           {},
			"outwardOrderId":                  {},
			"uploadedChOrdID":                 {},
			"roStatus":                        {},
			"salesChannel":                    {},
			"brand":                           {},
			"standardSkuAttributes":           {},
			"customSkuAttributes":             {},
			"customReturnOrderAttribute":      {},
			"CustomReturnOrderItemAttributes": {},
		},
		Schedule: "30 7 * * *",
	})

	return c
}
