package fdr

import "github.com/ChrisMcGann/tdafdr/pkg/core"

const (
	// SignificanceThreshold is the q-value at or below which PSMs and peptides are counted.
	SignificanceThreshold = 0.01

	// UndefinedQValue is written for scores that were not computed, i.e. lower-ranked
	// hits appended in multiple-hits-per-scan mode.
	UndefinedQValue = 10
)

// Score is a q-value that may be absent.
type Score struct {
	Value   float64
	Defined bool
}

func defined(v float64) Score {
	return Score{Value: v, Defined: true}
}

// Output returns the value to serialize: the q-value, or UndefinedQValue.
func (s Score) Output() float64 {
	if !s.Defined {
		return UndefinedQValue
	}
	return s.Value
}

// ScoredMatch is a match annotated with its PSM-level and peptide-level q-values.
type ScoredMatch struct {
	core.Match
	QValue    Score
	PepQValue Score
}

// Validated reports whether the match was scored at the PSM level, as opposed to
// being a lower-ranked hit carried along in multiple-hits-per-scan mode.
func (s *ScoredMatch) Validated() bool {
	return s.QValue.Defined
}
