package fdr

import (
	"cmp"
	"slices"

	"github.com/ChrisMcGann/tdafdr/pkg/core"
)

// merge checks that both result sets carry evidence and returns one engine-owned
// collection: decoys first, then targets, in their given order. Result IDs are
// assigned from 1 in (scan, e-value, descending probability) order; the
// collection itself is not reordered.
func merge(target, decoy []core.Match) ([]core.Match, error) {
	if len(target) == 0 {
		return nil, &EmptyInputError{Set: "target"}
	}
	if len(decoy) == 0 {
		return nil, &EmptyInputError{Set: "decoy"}
	}

	merged := make([]core.Match, 0, len(target)+len(decoy))
	merged = append(merged, decoy...)
	merged = append(merged, target...)

	order := make([]*core.Match, len(merged))
	for i := range merged {
		order[i] = &merged[i]
	}
	slices.SortStableFunc(order, func(a, b *core.Match) int {
		if c := cmp.Compare(a.ScanNum, b.ScanNum); c != 0 {
			return c
		}
		return compareScore(a, b)
	})
	for i, m := range order {
		m.ResultID = i + 1
	}

	if len(merged) == 0 {
		return nil, ErrNoResults
	}

	return merged, nil
}

// compareScore orders better matches first: lower e-value, then higher probability.
func compareScore(a, b *core.Match) int {
	if c := cmp.Compare(a.EValue, b.EValue); c != 0 {
		return c
	}
	return cmp.Compare(b.Probability, a.Probability)
}
