package fdr

import "fmt"

// TableWriter serializes scored matches; see pkg/writer/tsv and pkg/writer/sqlite.
type TableWriter interface {
	WriteMatch(m ScoredMatch) error
}

// Emit returns the matches to write. Decoys are dropped unless includeDecoy is
// set. In multiple-hits mode matches are grouped by scan, groups in the order
// their scan first appears and matches within a group in internal order.
func (r *Result) Emit(includeDecoy bool) []ScoredMatch {
	out := make([]ScoredMatch, 0, len(r.matches))
	for _, m := range r.matches {
		if !includeDecoy && r.IsDecoy(&m.Match) {
			continue
		}
		out = append(out, m)
	}

	if !r.multipleHits {
		return out
	}
	return groupByScan(out)
}

func groupByScan(matches []ScoredMatch) []ScoredMatch {
	var scanOrder []int
	byScan := make(map[int][]ScoredMatch)
	for _, m := range matches {
		if _, ok := byScan[m.ScanNum]; !ok {
			scanOrder = append(scanOrder, m.ScanNum)
		}
		byScan[m.ScanNum] = append(byScan[m.ScanNum], m)
	}

	grouped := make([]ScoredMatch, 0, len(matches))
	for _, scan := range scanOrder {
		grouped = append(grouped, byScan[scan]...)
	}
	return grouped
}

// WriteTo hands the emitted matches to w in order. A failed run writes nothing.
func (r *Result) WriteTo(w TableWriter, includeDecoy bool) error {
	if r.HasError() {
		return fmt.Errorf("failed to write results: %w", r.Err)
	}

	for _, m := range r.Emit(includeDecoy) {
		if err := w.WriteMatch(m); err != nil {
			return fmt.Errorf("failed to write match %s: %w", m.Name(), err)
		}
	}
	return nil
}
