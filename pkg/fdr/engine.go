// Package fdr estimates target-decoy false discovery rates for peptide-to-spectrum
// matches. It merges target and decoy search results, computes q-values at the
// PSM level (best hit per scan) and at the distinct-peptide level, and orders the
// scored matches for output.
//
// Each call works on its own copy of the input, so independent runs can proceed
// in parallel. Callers must not mutate the input slices during a call.
package fdr

import (
	"go.uber.org/zap"

	"github.com/ChrisMcGann/tdafdr/pkg/core"
)

// DefaultDecoyPrefix marks decoy proteins unless Options.DecoyPrefix says otherwise.
const DefaultDecoyPrefix = "XXX_"

// Options configures one engine run.
type Options struct {
	DecoyPrefix         string // Protein name prefix of decoys; DefaultDecoyPrefix if empty
	MultipleHitsPerScan bool   // Keep lower-ranked hits per scan in the output
	Logger              *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) classifier() core.DecoyClassifier {
	prefix := o.DecoyPrefix
	if prefix == "" {
		prefix = DefaultDecoyPrefix
	}
	return core.PrefixClassifier(prefix)
}

// Result holds the scored matches and summary counters of one run.
type Result struct {
	NumPSMs     int // PSMs with q-value <= SignificanceThreshold
	NumPeptides int // Peptides with q-value <= SignificanceThreshold

	// Err is set by Run and RunFiles when the run failed.
	Err error

	matches      []ScoredMatch
	multipleHits bool
	isDecoy      core.DecoyClassifier
}

// HasError reports whether the run failed.
func (r *Result) HasError() bool {
	return r.Err != nil
}

// ErrorMessage returns the failure message, or "" after a successful run.
func (r *Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Matches returns a copy of the scored matches in internal order: best hits by
// rank, followed by unscored lower-ranked hits in multiple-hits mode.
func (r *Result) Matches() []ScoredMatch {
	out := make([]ScoredMatch, len(r.matches))
	copy(out, r.matches)
	return out
}

// IsDecoy classifies a match with the run's decoy prefix.
func (r *Result) IsDecoy(m *core.Match) bool {
	return r.isDecoy != nil && r.isDecoy(m.ProteinName)
}

// peptideScorer is replaced in tests.
var peptideScorer = scorePeptides

// Compute runs the full pipeline over target and decoy matches. The inputs are
// copied; their ResultID fields are left untouched.
func Compute(target, decoy []core.Match, opts Options) (*Result, error) {
	log := opts.logger()
	isDecoy := opts.classifier()

	merged, err := merge(target, decoy)
	if err != nil {
		return nil, err
	}
	log.Debug("Merged search results",
		zap.Int("targets", len(target)),
		zap.Int("decoys", len(decoy)))

	psm := scorePSMs(merged, isDecoy)
	log.Debug("Computed PSM q-values",
		zap.Int("scans", len(psm.best)),
		zap.Int("num_psms", psm.numPSMs))

	var extra []*core.Match
	if opts.MultipleHitsPerScan {
		extra = lowerRankedHits(merged, psm)
		log.Debug("Appending lower-ranked hits", zap.Int("count", len(extra)))
	}

	pep := peptideScorer(merged, psm, opts.MultipleHitsPerScan, isDecoy)
	log.Debug("Computed peptide q-values",
		zap.Int("peptides", len(pep.qValues)),
		zap.Int("num_peptides", pep.numPeptides))

	matches := make([]ScoredMatch, 0, len(psm.best)+len(extra))
	for _, m := range psm.best {
		pq, err := pep.lookup(m)
		if err != nil {
			return nil, err
		}
		matches = append(matches, ScoredMatch{
			Match:     *m,
			QValue:    defined(psm.qValues[m.ResultID]),
			PepQValue: defined(pq),
		})
	}
	for _, m := range extra {
		matches = append(matches, ScoredMatch{Match: *m})
	}

	log.Info("FDR computation complete",
		zap.Int("num_psms", psm.numPSMs),
		zap.Int("num_peptides", pep.numPeptides),
		zap.Int("matches", len(matches)))

	return &Result{
		NumPSMs:      psm.numPSMs,
		NumPeptides:  pep.numPeptides,
		matches:      matches,
		multipleHits: opts.MultipleHitsPerScan,
		isDecoy:      isDecoy,
	}, nil
}

// Run is Compute for batch callers: a failure is recorded on the returned
// Result instead of being returned, and the Result then holds no matches.
func Run(target, decoy []core.Match, opts Options) *Result {
	res, err := Compute(target, decoy, opts)
	if err != nil {
		return failed(err, opts)
	}
	return res
}

func failed(err error, opts Options) *Result {
	opts.logger().Warn("FDR computation failed", zap.Error(err))
	return &Result{Err: err, multipleHits: opts.MultipleHitsPerScan, isDecoy: opts.classifier()}
}
