// Package numerator defines how human-facing invoice numbers are produced.
package numerator

import (
	"fmt"
	"strconv"
	"time"
)

// Reset periods.
const (
	ResetNever = "never"
	ResetYear  = "year"
	ResetMonth = "month"
)

// Config describes one numbered series.
type Config struct {
	// Prefix, e.g. "INV"
	Prefix string

	// IncludeYear renders PREFIX-YYYY-NNNN
	IncludeYear bool

	// PadWidth is the minimum digit count
	PadWidth int

	// ResetPeriod is one of ResetNever, ResetYear, ResetMonth
	ResetPeriod string
}

// InvoiceConfig is the sale invoice series: INV-0001, INV-0002, ...
func InvoiceConfig(prefix string, padWidth int) Config {
	if prefix == "" {
		prefix = "INV"
	}
	if padWidth <= 0 {
		padWidth = 4
	}
	return Config{
		Prefix:      prefix,
		PadWidth:    padWidth,
		ResetPeriod: ResetNever,
	}
}

// SequenceKey identifies the counter row for cfg in the given period.
func SequenceKey(cfg Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case ResetYear:
		return fmt.Sprintf("%s_%d", cfg.Prefix, period.Year())
	case ResetMonth:
		return fmt.Sprintf("%s_%d_%02d", cfg.Prefix, period.Year(), period.Month())
	default:
		return cfg.Prefix
	}
}

// Format renders value as a number of the series.
func Format(cfg Config, period time.Time, value int64) string {
	digits := fmt.Sprintf("%0*d", cfg.PadWidth, value)
	if cfg.IncludeYear {
		return cfg.Prefix + "-" + strconv.Itoa(period.Year()) + "-" + digits
	}
	return cfg.Prefix + "-" + digits
}
