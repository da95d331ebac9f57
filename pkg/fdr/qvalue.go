package fdr

import (
	"slices"

	"github.com/ChrisMcGann/tdafdr/pkg/core"
)

// rank returns the matches best first across all scans. The sort is stable, so
// exact score ties keep collection order.
func rank(matches []core.Match) []*core.Match {
	ranked := make([]*core.Match, len(matches))
	for i := range matches {
		ranked[i] = &matches[i]
	}
	slices.SortStableFunc(ranked, compareScore)
	return ranked
}

// distinctBy keeps the first match seen for each key, preserving order.
func distinctBy[K comparable](ranked []*core.Match, key func(*core.Match) K) []*core.Match {
	seen := make(map[K]struct{}, len(ranked))
	out := make([]*core.Match, 0, len(ranked))
	for _, m := range ranked {
		k := key(m)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}

func byScan(m *core.Match) int { return m.ScanNum }

func bySequence(m *core.Match) string { return m.SequenceWithEnds() }

// qValues walks a ranked sequence counting decoys and targets, takes the
// running decoy/target ratio capped at 1 as the instantaneous FDR, and turns it
// into q-values with a right-to-left running minimum. The result is
// non-decreasing along the ranking.
func qValues(ranked []*core.Match, isDecoy core.DecoyClassifier) []float64 {
	if len(ranked) == 0 {
		return nil
	}

	fdr := make([]float64, len(ranked))
	numDecoy, numTarget := 0, 0
	for i, m := range ranked {
		if isDecoy(m.ProteinName) {
			numDecoy++
		} else {
			numTarget++
		}

		// Only decoys so far
		if numTarget == 0 {
			fdr[i] = 1.0
			continue
		}
		fdr[i] = min(float64(numDecoy)/float64(numTarget), 1.0)
	}

	q := make([]float64, len(fdr))
	last := len(fdr) - 1
	q[last] = fdr[last]
	for i := last - 1; i >= 0; i-- {
		q[i] = min(q[i+1], fdr[i])
	}
	return q
}

func countSignificant(q []float64) int {
	n := 0
	for _, v := range q {
		if v <= SignificanceThreshold {
			n++
		}
	}
	return n
}
