// Package core provides the match record model and validation logic shared by
// the target-decoy FDR engine, its readers and its writers.
package core

import (
	"fmt"
	"math"
	"strings"
)

// Match is one peptide-to-spectrum match as produced by the upstream search.
//
// Scores are never stored here; the engine annotates copies of matches with
// q-values of its own (see package fdr).
type Match struct {
	// Assigned by the engine during ingestion
	ResultID int

	// Required fields
	ScanNum     int     // Spectrum identifier, not unique across matches
	EValue      float64 // Lower is better; primary ranking key
	Probability float64 // Higher is better; tie-break ranking key
	ProteinName string  // Decoys carry the decoy prefix
	Sequence    string  // Bare peptide sequence
	Pre         string  // Flanking residue before the peptide ("-" at protein N-term)
	Post        string  // Flanking residue after the peptide ("-" at protein C-term)

	// Pass-through columns
	Modifications         []Modification
	Composition           string
	ProteinDesc           string
	ProteinLength         int
	Start                 int
	End                   int
	Charge                int
	MostAbundantIsotopeMz float64
	Mass                  float64
	Ms1Features           string
	NumMatchedFragments   int
	SpecEValue            float64
}

// Modification represents a residue modification at a 1-based position.
type Modification struct {
	Name     string
	Position int     // 1-based residue index; 0 for N-term
	Mass     float64 // Mass shift, 0 if the name is unknown
}

// ValidationError represents an error found during match validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// SequenceWithEnds returns the peptide with its flanking residues, e.g. "K.PEPTIDE.R".
// It is the peptide identity key for peptide-level aggregation.
func (m *Match) SequenceWithEnds() string {
	return m.Pre + "." + m.Sequence + "." + m.Post
}

// Validate checks that a match carries everything the engine ranks on.
func (m *Match) Validate() error {
	var errs []string

	if m.ScanNum <= 0 {
		errs = append(errs, "scan number must be positive")
	}
	if math.IsNaN(m.EValue) || math.IsInf(m.EValue, 0) {
		errs = append(errs, "e-value must be finite")
	} else if m.EValue < 0 {
		errs = append(errs, "e-value must be non-negative")
	}
	if math.IsNaN(m.Probability) || math.IsInf(m.Probability, 0) {
		errs = append(errs, "probability must be finite")
	}
	if m.ProteinName == "" {
		errs = append(errs, "protein name is required")
	}
	if m.Sequence == "" {
		errs = append(errs, "sequence is required")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Match",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// ModString returns modifications in the "Name Pos,Name Pos" form used by result files.
func (m *Match) ModString() string {
	if len(m.Modifications) == 0 {
		return ""
	}

	parts := make([]string, 0, len(m.Modifications))
	for _, mod := range m.Modifications {
		parts = append(parts, fmt.Sprintf("%s %d", mod.Name, mod.Position))
	}
	return strings.Join(parts, ",")
}

// TotalModMass returns the sum of all modification masses.
func (m *Match) TotalModMass() float64 {
	total := 0.0
	for _, mod := range m.Modifications {
		total += mod.Mass
	}
	return total
}

// Name returns the match name in format "Scan:SequenceWithEnds"
func (m *Match) Name() string {
	return fmt.Sprintf("%d:%s", m.ScanNum, m.SequenceWithEnds())
}

// DecoyClassifier reports whether a protein name belongs to the decoy database.
type DecoyClassifier func(proteinName string) bool

// PrefixClassifier returns a DecoyClassifier testing for the given prefix.
func PrefixClassifier(prefix string) DecoyClassifier {
	return func(proteinName string) bool {
		return strings.HasPrefix(proteinName, prefix)
	}
}
