package fdr

import "github.com/ChrisMcGann/tdafdr/pkg/core"

// peptideLevel is the outcome of peptide-level scoring.
type peptideLevel struct {
	qValues     map[string]float64 // SequenceWithEnds -> peptide q-value
	numPeptides int
}

// scorePeptides ranks the full merged collection again and reduces it to one
// representative per peptide before computing q-values. With a single hit per
// scan only the scans' best hits compete; with multiple hits every hit does.
func scorePeptides(merged []core.Match, psm psmLevel, multipleHits bool, isDecoy core.DecoyClassifier) peptideLevel {
	candidates := rank(merged)
	if !multipleHits {
		kept := make([]*core.Match, 0, len(psm.best))
		for _, m := range candidates {
			if psm.selected(m) {
				kept = append(kept, m)
			}
		}
		candidates = distinctBy(kept, byScan)
	}

	peptides := distinctBy(candidates, bySequence)
	q := qValues(peptides, isDecoy)

	level := peptideLevel{
		qValues:     make(map[string]float64, len(peptides)),
		numPeptides: countSignificant(q),
	}
	for i, m := range peptides {
		level.qValues[m.SequenceWithEnds()] = q[i]
	}
	return level
}

// lookup returns the peptide q-value for a match.
func (l peptideLevel) lookup(m *core.Match) (float64, error) {
	q, ok := l.qValues[m.SequenceWithEnds()]
	if !ok {
		return 0, &MissingPeptideMappingError{Sequence: m.SequenceWithEnds()}
	}
	return q, nil
}
