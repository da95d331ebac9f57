// Package ictarget provides a streaming reader for tab-separated search result
// files (one peptide-to-spectrum match per row, named columns in a header row).
package ictarget

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/tdafdr/pkg/core"
)

// Column names understood by the reader.
const (
	ColScan                  = "Scan"
	ColPre                   = "Pre"
	ColSequence              = "Sequence"
	ColPost                  = "Post"
	ColPeptide               = "Peptide"
	ColModifications         = "Modifications"
	ColComposition           = "Composition"
	ColProteinName           = "ProteinName"
	ColProteinDesc           = "ProteinDesc"
	ColProteinLength         = "ProteinLength"
	ColStart                 = "Start"
	ColEnd                   = "End"
	ColCharge                = "Charge"
	ColMostAbundantIsotopeMz = "MostAbundantIsotopeMz"
	ColMass                  = "Mass"
	ColMs1Features           = "Ms1Features"
	ColNumMatchedFragments   = "#MatchedFragments"
	ColProbability           = "Probability"
	ColSpecEValue            = "SpecEValue"
	ColEValue                = "EValue"
)

const maxLineSize = 16 * 1024 * 1024

// Reader provides streaming access to search result files
type Reader struct {
	scanner      *bufio.Scanner
	modDB        *core.ModDatabase
	logger       *zap.Logger
	lineNum      int
	columns      map[string]int
	currentMatch *core.Match
	skipped      int
	err          error
}

// NewReader creates a new result reader. A nil modDB uses the default
// modification table; a nil logger discards warnings.
func NewReader(r io.Reader, modDB *core.ModDatabase, logger *zap.Logger) *Reader {
	if modDB == nil {
		modDB = core.DefaultModDatabase()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Reader{
		scanner: scanner,
		modDB:   modDB,
		logger:  logger,
	}
}

// Next advances to the next valid match. Returns false when no more matches or error.
// Rows that fail core.Match validation are skipped and counted.
func (r *Reader) Next() bool {
	r.currentMatch = nil
	if r.err != nil {
		return false
	}

	for {
		m, err := r.readMatch()
		if err != nil {
			if err != io.EOF {
				r.err = err
			}
			return false
		}

		if err := m.Validate(); err != nil {
			r.skipped++
			r.logger.Warn("Skipping invalid match",
				zap.Int("line", r.lineNum),
				zap.Error(err))
			continue
		}

		r.currentMatch = m
		return true
	}
}

// Match returns the current match
func (r *Reader) Match() *core.Match {
	return r.currentMatch
}

// Skipped returns the number of rows skipped as invalid so far
func (r *Reader) Skipped() int {
	return r.skipped
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// readMatch reads the next data row, consuming the header first if needed
func (r *Reader) readMatch() (*core.Match, error) {
	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimRight(r.scanner.Text(), "\r\n")

		if strings.TrimSpace(line) == "" {
			continue
		}

		if r.columns == nil {
			if err := r.parseHeader(line); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			continue
		}

		// Comment lines are only recognized after the header; "#MatchedFragments"
		// is itself a column name.
		if strings.HasPrefix(line, "#") {
			continue
		}

		m, err := r.parseRow(strings.Split(line, "\t"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		return m, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// An empty file holds no matches
	return nil, io.EOF
}

// parseHeader maps column names to indexes and checks the required columns
func (r *Reader) parseHeader(line string) error {
	fields := strings.Split(line, "\t")
	columns := make(map[string]int, len(fields))
	for i, f := range fields {
		columns[strings.TrimSpace(f)] = i
	}

	var missing []string
	for _, col := range []string{ColScan, ColProteinName, ColProbability} {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if !hasAny(columns, ColEValue, ColSpecEValue) {
		missing = append(missing, ColEValue)
	}
	if !hasAny(columns, ColSequence, ColPeptide) {
		missing = append(missing, ColSequence)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	r.columns = columns
	return nil
}

func hasAny(columns map[string]int, names ...string) bool {
	for _, n := range names {
		if _, ok := columns[n]; ok {
			return true
		}
	}
	return false
}

// parseRow converts one tab-separated row into a match
func (r *Reader) parseRow(fields []string) (*core.Match, error) {
	row := rowView{fields: fields, columns: r.columns}
	m := &core.Match{
		ProteinName: row.str(ColProteinName),
		ProteinDesc: row.str(ColProteinDesc),
		Composition: row.str(ColComposition),
		Ms1Features: row.str(ColMs1Features),
	}

	if _, ok := r.columns[ColSequence]; ok {
		m.Pre = row.str(ColPre)
		m.Sequence = row.str(ColSequence)
		m.Post = row.str(ColPost)
	} else {
		m.Pre, m.Sequence, m.Post = splitPeptide(row.str(ColPeptide))
	}

	var err error
	if m.ScanNum, err = row.integer(ColScan); err != nil {
		return nil, err
	}
	if m.Probability, err = row.float(ColProbability); err != nil {
		return nil, err
	}
	if m.SpecEValue, err = row.float(ColSpecEValue); err != nil {
		return nil, err
	}
	if _, ok := r.columns[ColEValue]; ok {
		if m.EValue, err = row.float(ColEValue); err != nil {
			return nil, err
		}
	} else {
		m.EValue = m.SpecEValue
	}
	if m.ProteinLength, err = row.integer(ColProteinLength); err != nil {
		return nil, err
	}
	if m.Start, err = row.integer(ColStart); err != nil {
		return nil, err
	}
	if m.End, err = row.integer(ColEnd); err != nil {
		return nil, err
	}
	if m.Charge, err = row.integer(ColCharge); err != nil {
		return nil, err
	}
	if m.NumMatchedFragments, err = row.integer(ColNumMatchedFragments); err != nil {
		return nil, err
	}
	if m.MostAbundantIsotopeMz, err = row.float(ColMostAbundantIsotopeMz); err != nil {
		return nil, err
	}

	mods, unknown, err := r.modDB.ParseModString(row.str(ColModifications))
	if err != nil {
		return nil, err
	}
	for _, name := range unknown {
		r.logger.Debug("Unknown modification", zap.String("name", name), zap.Int("line", r.lineNum))
	}
	m.Modifications = mods

	if row.str(ColMass) == "" {
		m.Mass = core.NeutralMass(m.Sequence, m.Modifications)
	} else if m.Mass, err = row.float(ColMass); err != nil {
		return nil, err
	}

	return m, nil
}

// splitPeptide splits a full annotation such as "K.PEPTIDE.R" into its parts.
// An annotation without two dots is taken as a bare sequence.
func splitPeptide(annotation string) (pre, seq, post string) {
	first := strings.Index(annotation, ".")
	last := strings.LastIndex(annotation, ".")
	if first < 0 || first == last {
		return "", annotation, ""
	}
	return annotation[:first], annotation[first+1 : last], annotation[last+1:]
}

// rowView looks up fields by column name; absent columns read as empty.
type rowView struct {
	fields  []string
	columns map[string]int
}

func (v rowView) str(col string) string {
	i, ok := v.columns[col]
	if !ok || i >= len(v.fields) {
		return ""
	}
	return strings.TrimSpace(v.fields[i])
}

func (v rowView) integer(col string) (int, error) {
	s := v.str(col)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value '%s': %w", col, s, err)
	}
	return n, nil
}

func (v rowView) float(col string) (float64, error) {
	s := v.str(col)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value '%s': %w", col, s, err)
	}
	return f, nil
}

// ReadFile reads every valid match from a result file. Gzip-compressed files
// are decompressed transparently.
func ReadFile(path string, modDB *core.ModDatabase, logger *zap.Logger) ([]core.Match, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		if errors.Is(err, xopen.ErrNoContent) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open result file: %w", err)
	}
	defer fh.Close()

	reader := NewReader(fh, modDB, logger)
	var matches []core.Match
	for reader.Next() {
		matches = append(matches, *reader.Match())
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	if reader.Skipped() > 0 && logger != nil {
		logger.Warn("Skipped invalid matches",
			zap.String("file", path),
			zap.Int("skipped", reader.Skipped()))
	}

	return matches, nil
}
