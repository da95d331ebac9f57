package cmd

import (
	"errors"
	"fmt"

	"github.com/ChrisMcGann/tdafdr/pkg/config"
	"github.com/ChrisMcGann/tdafdr/pkg/core"
	"github.com/ChrisMcGann/tdafdr/pkg/fdr"
	"github.com/ChrisMcGann/tdafdr/pkg/filter"
	"github.com/ChrisMcGann/tdafdr/pkg/writer/sqlite"
	"github.com/ChrisMcGann/tdafdr/pkg/writer/tsv"
)

// outputTarget names where the matches of one run go
type outputTarget struct {
	TargetFile string
	DecoyFile  string
	TSV        string
	SQLite     string // optional
}

// outputStats summarizes what was written
type outputStats struct {
	Written int
	Dropped int
	RunID   string // SQLite run id, if any
}

// fanOut writes each match to every writer in order
type fanOut []fdr.TableWriter

func (f fanOut) WriteMatch(m fdr.ScoredMatch) error {
	for _, w := range f {
		if err := w.WriteMatch(m); err != nil {
			return err
		}
	}
	return nil
}

// writeOutputs filters the emitted matches of res and writes them to the TSV
// file and, if requested, the SQLite database
func writeOutputs(res *fdr.Result, out outputTarget, cfg *config.Config) (outputStats, error) {
	var stats outputStats

	tsvWriter, err := tsv.Create(out.TSV)
	if err != nil {
		return stats, err
	}
	sinks := fanOut{tsvWriter}

	var dbWriter *sqlite.Writer
	if out.SQLite != "" {
		dbWriter, err = sqlite.NewWriter(out.SQLite, core.PrefixClassifier(cfg.DecoyPrefix))
		if err != nil {
			tsvWriter.Close()
			return stats, fmt.Errorf("failed to create output database: %w", err)
		}
		sinks = append(sinks, dbWriter)
		stats.RunID = dbWriter.RunID()
	}

	abort := func(err error) (outputStats, error) {
		closeErr := tsvWriter.Close()
		if dbWriter != nil {
			closeErr = errors.Join(closeErr, dbWriter.Close())
		}
		return stats, errors.Join(err, closeErr)
	}

	filtered, err := filter.NewWriter(cfg.FilterConfig(), sinks)
	if err != nil {
		return abort(err)
	}

	if err := res.WriteTo(filtered, cfg.IncludeDecoy); err != nil {
		return abort(err)
	}

	if err := tsvWriter.Close(); err != nil {
		if dbWriter != nil {
			dbWriter.Close()
		}
		return stats, err
	}

	if dbWriter != nil {
		info := sqlite.RunInfo{
			TargetFile:          out.TargetFile,
			DecoyFile:           out.DecoyFile,
			DecoyPrefix:         cfg.DecoyPrefix,
			MultipleHitsPerScan: cfg.MultipleHits,
			IncludeDecoy:        cfg.IncludeDecoy,
			NumPSMs:             res.NumPSMs,
			NumPeptides:         res.NumPeptides,
		}
		if err := dbWriter.Finalize(info); err != nil {
			return stats, fmt.Errorf("failed to finalize database: %w", err)
		}
	}

	stats.Written = tsvWriter.Count()
	stats.Dropped = filtered.Dropped()
	return stats, nil
}
