package fdr

import "github.com/ChrisMcGann/tdafdr/pkg/core"

// lowerRankedHits returns, in collection order, every match that was not chosen
// as its scan's best hit. These are carried to the output unscored.
func lowerRankedHits(merged []core.Match, psm psmLevel) []*core.Match {
	var out []*core.Match
	for i := range merged {
		if !psm.selected(&merged[i]) {
			out = append(out, &merged[i])
		}
	}
	return out
}
