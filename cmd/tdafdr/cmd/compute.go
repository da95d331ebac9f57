package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/tdafdr/pkg/config"
	"github.com/ChrisMcGann/tdafdr/pkg/fdr"
)

var (
	// Flags for compute command
	targetFile string
	decoyFile  string
	outputFile string
	sqliteFile string
)

func init() {
	computeCmd.Flags().StringVarP(&targetFile, "target", "t", "", "Target search results (required)")
	computeCmd.Flags().StringVarP(&decoyFile, "decoy", "d", "", "Decoy search results (required)")
	computeCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output file (default <target>_fdr.tsv)")
	computeCmd.Flags().StringVar(&sqliteFile, "sqlite", "", "Also write results to this SQLite database")
	addRunFlags(computeCmd)

	computeCmd.MarkFlagRequired("target")
	computeCmd.MarkFlagRequired("decoy")
}

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute q-values for one target/decoy pair",
	Long: `Merge target and decoy search results and compute PSM-level and
peptide-level q-values.

Examples:
  # Compute with default settings
  tdafdr compute --target run_IcTarget.tsv --decoy run_IcDecoy.tsv

  # Keep all hits per scan and write decoys too
  tdafdr compute -t run_IcTarget.tsv -d run_IcDecoy.tsv --multiple-hits --include-decoy -o run_fdr.tsv.gz

  # Keep matches at 1% FDR and export to SQLite
  tdafdr compute -t run_IcTarget.tsv -d run_IcDecoy.tsv --max-qvalue 0.01 --sqlite run.db`,
	RunE: runCompute,
}

func runCompute(cmd *cobra.Command, args []string) error {
	cfg := runConfig

	out := outputFile
	if out == "" {
		out = config.DefaultOutput(targetFile)
	}

	modDB, err := loadModDatabase(cfg.ModsCSV)
	if err != nil {
		return err
	}

	fmt.Printf("Computing FDR for %s and %s...\n", targetFile, decoyFile)
	fmt.Printf("Decoy prefix: %s\n", cfg.DecoyPrefix)
	if cfg.MultipleHits {
		fmt.Printf("Multiple hits per scan: enabled\n")
	}
	if cfg.Filter.MaxQValue > 0 {
		fmt.Printf("QValue cutoff: %g\n", cfg.Filter.MaxQValue)
	}
	if cfg.Filter.MaxPepQValue > 0 {
		fmt.Printf("PepQValue cutoff: %g\n", cfg.Filter.MaxPepQValue)
	}

	res, err := fdr.ComputeFiles(targetFile, decoyFile, modDB, cfg.EngineOptions(logger))
	if err != nil {
		return err
	}

	stats, err := writeOutputs(res, outputTarget{
		TargetFile: targetFile,
		DecoyFile:  decoyFile,
		TSV:        out,
		SQLite:     sqliteFile,
	}, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("\nFDR computation complete!\n")
	fmt.Printf("PSMs at %g FDR: %d\n", fdr.SignificanceThreshold, res.NumPSMs)
	fmt.Printf("Peptides at %g FDR: %d\n", fdr.SignificanceThreshold, res.NumPeptides)
	fmt.Printf("Written: %d matches\n", stats.Written)
	if stats.Dropped > 0 {
		fmt.Printf("Filtered: %d matches\n", stats.Dropped)
	}
	fmt.Printf("Output: %s\n", out)
	if sqliteFile != "" {
		fmt.Printf("Database: %s (run %s)\n", sqliteFile, stats.RunID)
	}

	return nil
}
