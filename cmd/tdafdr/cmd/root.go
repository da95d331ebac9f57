// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/tdafdr/pkg/config"
	"github.com/ChrisMcGann/tdafdr/pkg/core"
)

// Custom modification definitions picked up from the working directory
const customModsCSV = "unimod_custom.csv"

var (
	// Global flags
	configFile string
	verbose    bool

	// Run options shared by compute and batch
	decoyPrefix     string
	multipleHits    bool
	includeDecoy    bool
	modsCSV         string
	maxQValue       float64
	maxPepQValue    float64
	dropUnvalidated bool
	excludeProteins string

	runConfig *config.Config
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tdafdr",
	Short: "tdafdr - Target-decoy FDR estimation",
	Long: `tdafdr merges target and decoy database search results and estimates
false discovery rates by the target-decoy approach.

It reports for every match:
- QValue: the PSM-level q-value of the best hit of each scan
- PepQValue: the q-value of the matched peptide

Results are written as tab-separated text (gzip when the name ends in .gz)
and optionally to a SQLite database.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(validateCmd)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// addRunFlags registers the engine and output options on c
func addRunFlags(c *cobra.Command) {
	c.Flags().StringVar(&decoyPrefix, "decoy-prefix", "XXX_", "Protein name prefix marking decoys")
	c.Flags().BoolVar(&multipleHits, "multiple-hits", false, "Keep lower-ranked hits per scan in the output")
	c.Flags().BoolVar(&includeDecoy, "include-decoy", false, "Write decoy matches to the output")
	c.Flags().StringVar(&modsCSV, "mods-csv", "", "Path to extra modification CSV (name,mass)")
	c.Flags().Float64Var(&maxQValue, "max-qvalue", 0, "Write only matches with QValue at or below this (0 = no cutoff)")
	c.Flags().Float64Var(&maxPepQValue, "max-pepqvalue", 0, "Write only matches with PepQValue at or below this (0 = no cutoff)")
	c.Flags().BoolVar(&dropUnvalidated, "drop-unvalidated", false, "Drop lower-ranked hits that carry no q-values")
	c.Flags().StringVar(&excludeProteins, "exclude-proteins", "", "Drop matches whose protein name matches this regexp")
}

// setup loads the run configuration and builds the logger. Flags given on the
// command line override values from the configuration file.
func setup(cmd *cobra.Command, args []string) error {
	path := configFile
	if cmd.Name() == "batch" && len(args) == 1 {
		path = args[0]
	}

	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("decoy-prefix") {
		cfg.DecoyPrefix = decoyPrefix
	}
	if flags.Changed("multiple-hits") {
		cfg.MultipleHits = multipleHits
	}
	if flags.Changed("include-decoy") {
		cfg.IncludeDecoy = includeDecoy
	}
	if flags.Changed("mods-csv") {
		cfg.ModsCSV = modsCSV
	}
	if flags.Changed("max-qvalue") {
		cfg.Filter.MaxQValue = maxQValue
	}
	if flags.Changed("max-pepqvalue") {
		cfg.Filter.MaxPepQValue = maxPepQValue
	}
	if flags.Changed("drop-unvalidated") {
		cfg.Filter.DropUnvalidated = dropUnvalidated
	}
	if flags.Changed("exclude-proteins") {
		cfg.Filter.ExcludeProteins = excludeProteins
	}
	if flags.Changed("threads") {
		cfg.Threads = max(threads, 1)
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	runConfig = cfg
	logger = log
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

// loadModDatabase returns the default modification table extended with path,
// or with unimod_custom.csv from the working directory when path is empty
func loadModDatabase(path string) (*core.ModDatabase, error) {
	modDB := core.DefaultModDatabase()

	if path == "" {
		if _, err := os.Stat(customModsCSV); err != nil {
			return modDB, nil
		}
		path = customModsCSV
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open modification CSV: %w", err)
	}
	defer f.Close()

	if err := modDB.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	logger.Debug("Loaded custom modifications", zap.String("file", path))

	return modDB, nil
}
