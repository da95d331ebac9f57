package fdr

import (
	"errors"
	"fmt"
	"path/filepath"
)

const errorBase = "Cannot compute FDR Scores; "

var (
	// ErrEmptyInput is matched by errors for a missing or empty target or decoy set.
	ErrEmptyInput = errors.New(errorBase + "results file is empty")

	// ErrNoResults is returned when the merged collection is empty.
	// Downstream log scanners look for "No results found"; do not change this text.
	ErrNoResults = errors.New("No results found; cannot compute FDR Scores")

	// ErrSourceNotFound is matched by errors for a missing result file.
	ErrSourceNotFound = errors.New(errorBase + "results file not found")

	// ErrMissingPeptideMapping is matched when a scored match has no peptide-level q-value.
	ErrMissingPeptideMapping = errors.New("no peptide q-value for sequence")
)

// EmptyInputError reports which result set was missing or empty.
type EmptyInputError struct {
	Set string // "target" or "decoy"
}

func (e *EmptyInputError) Error() string {
	return errorBase + e.Set + " results file is empty"
}

func (e *EmptyInputError) Is(target error) bool {
	return target == ErrEmptyInput
}

// SourceNotFoundError reports a result file that does not exist.
type SourceNotFoundError struct {
	Set  string
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return errorBase + e.Set + " results file not found, " + filepath.Base(e.Path)
}

func (e *SourceNotFoundError) Is(target error) bool {
	return target == ErrSourceNotFound
}

// MissingPeptideMappingError is an internal-consistency failure: a match kept
// at the PSM level whose peptide was never scored at the peptide level.
type MissingPeptideMappingError struct {
	Sequence string
}

func (e *MissingPeptideMappingError) Error() string {
	return fmt.Sprintf("%s %s", ErrMissingPeptideMapping.Error(), e.Sequence)
}

func (e *MissingPeptideMappingError) Is(target error) bool {
	return target == ErrMissingPeptideMapping
}
