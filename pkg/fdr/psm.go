package fdr

import "github.com/ChrisMcGann/tdafdr/pkg/core"

// psmLevel is the outcome of PSM-level scoring.
type psmLevel struct {
	best    []*core.Match   // best hit per scan, ranked
	qValues map[int]float64 // result ID -> q-value, only for best hits
	numPSMs int
}

// scorePSMs ranks every match globally, keeps each scan's best hit and assigns
// it a q-value.
func scorePSMs(merged []core.Match, isDecoy core.DecoyClassifier) psmLevel {
	best := distinctBy(rank(merged), byScan)
	q := qValues(best, isDecoy)

	level := psmLevel{
		best:    best,
		qValues: make(map[int]float64, len(best)),
		numPSMs: countSignificant(q),
	}
	for i, m := range best {
		level.qValues[m.ResultID] = q[i]
	}
	return level
}

func (l psmLevel) selected(m *core.Match) bool {
	_, ok := l.qValues[m.ResultID]
	return ok
}
