package cmd

import (
	"errors"
	"fmt"
	"math"

	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/tdafdr/pkg/core"
	"github.com/ChrisMcGann/tdafdr/pkg/reader/ictarget"
)

func init() {
	validateCmd.Flags().StringVar(&decoyPrefix, "decoy-prefix", "XXX_", "Protein name prefix marking decoys")
	validateCmd.Flags().StringVar(&modsCSV, "mods-csv", "", "Path to extra modification CSV (name,mass)")
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a search result file",
	Long: `Read a search result file and report how many rows are valid, how many
were skipped, and how the valid matches split into targets and decoys.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

// fileSummary collects statistics over the valid matches of one file
type fileSummary struct {
	matches   int
	skipped   int
	targets   int
	decoys    int
	scans     map[int]bool
	peptides  map[string]bool
	minEValue float64
	maxEValue float64
}

func (s *fileSummary) add(m *core.Match, isDecoy core.DecoyClassifier) {
	s.matches++
	if isDecoy(m.ProteinName) {
		s.decoys++
	} else {
		s.targets++
	}
	s.scans[m.ScanNum] = true
	s.peptides[m.SequenceWithEnds()] = true
	s.minEValue = math.Min(s.minEValue, m.EValue)
	s.maxEValue = math.Max(s.maxEValue, m.EValue)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg := runConfig

	modDB, err := loadModDatabase(cfg.ModsCSV)
	if err != nil {
		return err
	}

	summary, err := summarizeFile(path, modDB, core.PrefixClassifier(cfg.DecoyPrefix))
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Valid matches: %d\n", summary.matches)
	if summary.skipped > 0 {
		fmt.Printf("Skipped: %d rows (validation errors)\n", summary.skipped)
	}
	if summary.matches == 0 {
		fmt.Printf("No matches found\n")
		return nil
	}
	fmt.Printf("Targets: %d\n", summary.targets)
	fmt.Printf("Decoys: %d (prefix %s)\n", summary.decoys, cfg.DecoyPrefix)
	fmt.Printf("Scans: %d\n", len(summary.scans))
	fmt.Printf("Peptides: %d\n", len(summary.peptides))
	fmt.Printf("EValue range: %.6E - %.6E\n", summary.minEValue, summary.maxEValue)

	return nil
}

func summarizeFile(path string, modDB *core.ModDatabase, isDecoy core.DecoyClassifier) (*fileSummary, error) {
	summary := &fileSummary{
		scans:     make(map[int]bool),
		peptides:  make(map[string]bool),
		minEValue: math.Inf(1),
		maxEValue: math.Inf(-1),
	}

	fh, err := xopen.Ropen(path)
	if err != nil {
		if errors.Is(err, xopen.ErrNoContent) {
			return summary, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fh.Close()

	reader := ictarget.NewReader(fh, modDB, logger)
	for reader.Next() {
		summary.add(reader.Match(), isDecoy)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	summary.skipped = reader.Skipped()

	return summary, nil
}
