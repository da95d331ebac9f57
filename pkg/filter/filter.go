// Package filter provides post-scoring filters for scored matches
package filter

import (
	"fmt"
	"regexp"

	"github.com/ChrisMcGann/tdafdr/pkg/fdr"
)

// Config holds filtering configuration
type Config struct {
	MaxQValue       float64 // Keep only matches with QValue at or below this (0 = no cutoff)
	MaxPepQValue    float64 // Keep only matches with PepQValue at or below this (0 = no cutoff)
	DropUnvalidated bool    // Drop lower-ranked hits that carry no q-values
	ExcludeProteins string  // Drop matches whose protein name matches this regexp ("" = none)

	exclude *regexp.Regexp
}

// Enabled reports whether any filter is configured
func (c *Config) Enabled() bool {
	return c.MaxQValue > 0 || c.MaxPepQValue > 0 || c.DropUnvalidated || c.ExcludeProteins != ""
}

// Compile checks the configuration and prepares the protein pattern
func (c *Config) Compile() error {
	if c.MaxQValue < 0 {
		return fmt.Errorf("invalid q-value cutoff: %g", c.MaxQValue)
	}
	if c.MaxPepQValue < 0 {
		return fmt.Errorf("invalid peptide q-value cutoff: %g", c.MaxPepQValue)
	}

	c.exclude = nil
	if c.ExcludeProteins != "" {
		re, err := regexp.Compile(c.ExcludeProteins)
		if err != nil {
			return fmt.Errorf("invalid protein pattern: %w", err)
		}
		c.exclude = re
	}
	return nil
}

// keep reports whether m passes every filter. Unscored hits compare by their
// serialized sentinel and so fail any cutoff.
func (c *Config) keep(m *fdr.ScoredMatch) bool {
	if c.DropUnvalidated && !m.Validated() {
		return false
	}
	if c.MaxQValue > 0 && m.QValue.Output() > c.MaxQValue {
		return false
	}
	if c.MaxPepQValue > 0 && m.PepQValue.Output() > c.MaxPepQValue {
		return false
	}
	if c.exclude != nil && c.exclude.MatchString(m.ProteinName) {
		return false
	}
	return true
}

// Writer passes the matches that survive the filters on to the next writer
type Writer struct {
	config  *Config
	next    fdr.TableWriter
	dropped int
}

// NewWriter wraps next with the configured filters
func NewWriter(c *Config, next fdr.TableWriter) (*Writer, error) {
	if err := c.Compile(); err != nil {
		return nil, err
	}
	return &Writer{config: c, next: next}, nil
}

// WriteMatch forwards m if it passes every filter
func (w *Writer) WriteMatch(m fdr.ScoredMatch) error {
	if !w.config.keep(&m) {
		w.dropped++
		return nil
	}
	return w.next.WriteMatch(m)
}

// Dropped returns the number of matches removed so far
func (w *Writer) Dropped() int {
	return w.dropped
}
