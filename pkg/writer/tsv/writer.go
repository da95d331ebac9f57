// Package tsv writes scored matches as a tab-separated result table with
// QValue and PepQValue columns appended.
package tsv

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"

	"github.com/ChrisMcGann/tdafdr/pkg/fdr"
)

// Header lists the output columns in order.
var Header = []string{
	"Scan", "Pre", "Sequence", "Post", "Modifications", "Composition",
	"ProteinName", "ProteinDesc", "ProteinLength", "Start", "End", "Charge",
	"MostAbundantIsotopeMz", "Mass", "Ms1Features", "#MatchedFragments",
	"Probability", "SpecEValue", "EValue", "QValue", "PepQValue",
}

// Writer handles writing scored matches to a tabular stream
type Writer struct {
	w           *bufio.Writer
	closer      io.Closer
	wroteHeader bool
	count       int
}

// NewWriter creates a writer on w. The header is written with the first match
// or on Flush, whichever comes first.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Create opens path for writing; a ".gz" suffix produces gzip output.
func Create(path string) (*Writer, error) {
	fh, err := xopen.Wopen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &Writer{w: bufio.NewWriter(fh), closer: fh}, nil
}

func (w *Writer) writeHeader() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	_, err := w.w.WriteString(strings.Join(Header, "\t") + "\n")
	return err
}

// WriteMatch writes a single scored match
func (w *Writer) WriteMatch(m fdr.ScoredMatch) error {
	if err := w.writeHeader(); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	fields := []string{
		strconv.Itoa(m.ScanNum),
		m.Pre,
		m.Sequence,
		m.Post,
		m.ModString(),
		m.Composition,
		m.ProteinName,
		m.ProteinDesc,
		strconv.Itoa(m.ProteinLength),
		strconv.Itoa(m.Start),
		strconv.Itoa(m.End),
		strconv.Itoa(m.Charge),
		formatFixed(m.MostAbundantIsotopeMz),
		formatFixed(m.Mass),
		m.Ms1Features,
		strconv.Itoa(m.NumMatchedFragments),
		formatFixed(m.Probability),
		formatScientific(m.SpecEValue),
		formatScientific(m.EValue),
		formatScore(m.QValue),
		formatScore(m.PepQValue),
	}

	if _, err := w.w.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of matches written
func (w *Writer) Count() int {
	return w.count
}

// Flush writes any buffered data, including the header of an empty table
func (w *Writer) Flush() error {
	if err := w.writeHeader(); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return w.w.Flush()
}

// Close flushes and closes the underlying file, if the writer owns one
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil {
			return fmt.Errorf("failed to close output file: %w", err)
		}
	}
	return nil
}

func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatScientific(v float64) string {
	return strconv.FormatFloat(v, 'E', 6, 64)
}

func formatScore(s fdr.Score) string {
	return strconv.FormatFloat(s.Output(), 'g', 7, 64)
}
