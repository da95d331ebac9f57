// Package config loads run configuration and batch manifests from YAML files
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/tdafdr/pkg/fdr"
	"github.com/ChrisMcGann/tdafdr/pkg/filter"
)

// Config holds run configuration
type Config struct {
	DecoyPrefix  string `yaml:"decoy_prefix"`
	MultipleHits bool   `yaml:"multiple_hits"`
	IncludeDecoy bool   `yaml:"include_decoy"`
	ModsCSV      string `yaml:"mods_csv"` // Extra modification definitions (Name,Mass)
	Threads      int    `yaml:"threads"`
	Verbose      bool   `yaml:"verbose"`

	Filter struct {
		MaxQValue       float64 `yaml:"max_qvalue"`
		MaxPepQValue    float64 `yaml:"max_pepqvalue"`
		DropUnvalidated bool    `yaml:"drop_unvalidated"`
		ExcludeProteins string  `yaml:"exclude_proteins"`
	} `yaml:"filter"`

	// Batch manifest entries; ignored by single-run commands
	Datasets []Dataset `yaml:"datasets"`
}

// Dataset is one target/decoy pair of a batch manifest
type Dataset struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
	Decoy  string `yaml:"decoy"`
	Out    string `yaml:"out"`
	SQLite string `yaml:"sqlite"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()

	// Manifest paths are relative to the manifest itself
	base := filepath.Dir(configPath)
	for i := range config.Datasets {
		d := &config.Datasets[i]
		d.Target = resolve(base, d.Target)
		d.Decoy = resolve(base, d.Decoy)
		d.Out = resolve(base, d.Out)
		d.SQLite = resolve(base, d.SQLite)
	}
	config.ModsCSV = resolve(base, config.ModsCSV)

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.DecoyPrefix == "" {
		c.DecoyPrefix = fdr.DefaultDecoyPrefix
	}

	if c.Threads <= 0 {
		c.Threads = 1
	}

	for i := range c.Datasets {
		d := &c.Datasets[i]
		if d.Name == "" {
			d.Name = fmt.Sprintf("dataset%d", i+1)
		}
		if d.Out == "" && d.Target != "" {
			d.Out = DefaultOutput(d.Target)
		}
	}
}

// ValidateDatasets checks a batch manifest before any run starts
func (c *Config) ValidateDatasets() error {
	if len(c.Datasets) == 0 {
		return fmt.Errorf("manifest lists no datasets")
	}

	names := make(map[string]bool, len(c.Datasets))
	outputs := make(map[string]string, len(c.Datasets))
	databases := make(map[string]string, len(c.Datasets))
	for _, d := range c.Datasets {
		if names[d.Name] {
			return fmt.Errorf("duplicate dataset name '%s'", d.Name)
		}
		names[d.Name] = true

		if d.Target == "" || d.Decoy == "" {
			return fmt.Errorf("dataset '%s': target and decoy are required", d.Name)
		}
		if other, ok := outputs[d.Out]; ok {
			return fmt.Errorf("datasets '%s' and '%s' write the same output %s", other, d.Name, d.Out)
		}
		outputs[d.Out] = d.Name

		// A SQLite writer holds its database's write lock for the whole run
		if d.SQLite == "" {
			continue
		}
		if other, ok := databases[d.SQLite]; ok {
			return fmt.Errorf("datasets '%s' and '%s' write the same database %s", other, d.Name, d.SQLite)
		}
		databases[d.SQLite] = d.Name
	}
	return nil
}

// EngineOptions returns the engine options for this configuration
func (c *Config) EngineOptions(logger *zap.Logger) fdr.Options {
	return fdr.Options{
		DecoyPrefix:         c.DecoyPrefix,
		MultipleHitsPerScan: c.MultipleHits,
		Logger:              logger,
	}
}

// FilterConfig returns the post-scoring filter for this configuration
func (c *Config) FilterConfig() *filter.Config {
	return &filter.Config{
		MaxQValue:       c.Filter.MaxQValue,
		MaxPepQValue:    c.Filter.MaxPepQValue,
		DropUnvalidated: c.Filter.DropUnvalidated,
		ExcludeProteins: c.Filter.ExcludeProteins,
	}
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// DefaultOutput derives "<target>_fdr.tsv" from the target path, keeping a .gz suffix
func DefaultOutput(target string) string {
	gz := strings.HasSuffix(target, ".gz")
	stem := strings.TrimSuffix(target, ".gz")
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	out := stem + "_fdr.tsv"
	if gz {
		out += ".gz"
	}
	return out
}
