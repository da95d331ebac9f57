package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/tdafdr/pkg/config"
	"github.com/ChrisMcGann/tdafdr/pkg/core"
	"github.com/ChrisMcGann/tdafdr/pkg/fdr"
)

var threads int

func init() {
	batchCmd.Flags().IntVar(&threads, "threads", 1, "Number of datasets processed in parallel")
	addRunFlags(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch [manifest]",
	Short: "Compute q-values for every dataset of a YAML manifest",
	Long: `Run the FDR computation for each target/decoy pair listed in a YAML manifest.
Datasets are independent; a failing dataset is reported and does not stop
the others.

Manifest example:
  decoy_prefix: XXX_
  threads: 4
  datasets:
    - name: run1
      target: run1_IcTarget.tsv
      decoy: run1_IcDecoy.tsv
    - name: run2
      target: run2_IcTarget.tsv.gz
      decoy: run2_IcDecoy.tsv.gz
      out: run2_fdr.tsv.gz
      sqlite: run2.db`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// batchOutcome is the result of one dataset
type batchOutcome struct {
	dataset     config.Dataset
	numPSMs     int
	numPeptides int
	stats       outputStats
	err         error
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := runConfig
	if err := cfg.ValidateDatasets(); err != nil {
		return fmt.Errorf("invalid manifest %s: %w", args[0], err)
	}

	modDB, err := loadModDatabase(cfg.ModsCSV)
	if err != nil {
		return err
	}

	batchID := uuid.NewString()
	log := logger.With(zap.String("batch", batchID))
	log.Info("Starting batch",
		zap.Int("datasets", len(cfg.Datasets)),
		zap.Int("threads", cfg.Threads))

	fmt.Printf("Processing %d datasets with %d threads (batch %s)...\n", len(cfg.Datasets), cfg.Threads, batchID)

	outcomes := make([]batchOutcome, len(cfg.Datasets))

	var g errgroup.Group
	g.SetLimit(cfg.Threads)
	for i, d := range cfg.Datasets {
		g.Go(func() error {
			outcomes[i] = runDataset(d, cfg, modDB, log.With(zap.String("dataset", d.Name)))
			return nil
		})
	}
	g.Wait()

	failed := printBatchSummary(outcomes)
	if failed > 0 {
		return fmt.Errorf("%d of %d datasets failed", failed, len(outcomes))
	}
	return nil
}

func runDataset(d config.Dataset, cfg *config.Config, modDB *core.ModDatabase, log *zap.Logger) batchOutcome {
	outcome := batchOutcome{dataset: d}

	res := fdr.RunFiles(d.Target, d.Decoy, modDB, cfg.EngineOptions(log))
	if res.HasError() {
		outcome.err = res.Err
		return outcome
	}
	outcome.numPSMs = res.NumPSMs
	outcome.numPeptides = res.NumPeptides

	outcome.stats, outcome.err = writeOutputs(res, outputTarget{
		TargetFile: d.Target,
		DecoyFile:  d.Decoy,
		TSV:        d.Out,
		SQLite:     d.SQLite,
	}, cfg)
	if outcome.err != nil {
		log.Error("Failed to write results", zap.Error(outcome.err))
	}
	return outcome
}

// printBatchSummary prints one line per dataset in manifest order and returns
// the number of failed datasets
func printBatchSummary(outcomes []batchOutcome) int {
	fmt.Printf("\nBatch complete!\n")
	fmt.Printf("%-20s %10s %10s %10s  %s\n", "Dataset", "PSMs", "Peptides", "Written", "Output")

	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			fmt.Printf("%-20s %10s %10s %10s  ERROR: %v\n", o.dataset.Name, "-", "-", "-", o.err)
			continue
		}
		fmt.Printf("%-20s %10d %10d %10d  %s\n",
			o.dataset.Name, o.numPSMs, o.numPeptides, o.stats.Written, o.dataset.Out)
	}

	return failed
}
