package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChrisMcGann/tdafdr/pkg/config"
	"github.com/ChrisMcGann/tdafdr/pkg/core"
	"github.com/ChrisMcGann/tdafdr/pkg/fdr"
	"github.com/ChrisMcGann/tdafdr/pkg/reader/ictarget"
)

const resultHeader = "Scan\tPre\tSequence\tPost\tModifications\tProteinName\tProbability\tEValue\n"

func writeResults(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := resultHeader + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func fixtures(t *testing.T) (dir, target, decoy string) {
	t.Helper()
	dir = t.TempDir()
	target = writeResults(t, dir, "run_IcTarget.tsv",
		"1\tK\tPEPTIDE\tR\t\tP1\t0.9\t1e-10",
		"2\tK\tPEPTIDEK\tR\tOxidation 3\tP2\t0.8\t1e-9",
	)
	decoy = writeResults(t, dir, "run_IcDecoy.tsv",
		"3\t-\tEDITPEP\t-\t\tXXX_P3\t0.5\t1e-8",
	)
	return dir, target, decoy
}

func TestWriteOutputs(t *testing.T) {
	_, target, decoy := fixtures(t)
	cfg := config.Default()

	res, err := fdr.ComputeFiles(target, decoy, nil, cfg.EngineOptions(nil))
	if err != nil {
		t.Fatalf("ComputeFiles() error = %v", err)
	}
	if res.NumPSMs != 2 || res.NumPeptides != 2 {
		t.Fatalf("counts = (%d, %d), want (2, 2)", res.NumPSMs, res.NumPeptides)
	}

	tests := []struct {
		name         string
		includeDecoy bool
		maxQValue    float64
		wantWritten  int
		wantDropped  int
	}{
		{"targets only", false, 0, 2, 0},
		{"with decoys", true, 0, 3, 0},
		{"with decoys at 1%", true, 0.01, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.Default()
			c.IncludeDecoy = tt.includeDecoy
			c.Filter.MaxQValue = tt.maxQValue

			out := filepath.Join(t.TempDir(), "out.tsv.gz")
			stats, err := writeOutputs(res, outputTarget{
				TargetFile: target,
				DecoyFile:  decoy,
				TSV:        out,
				SQLite:     filepath.Join(t.TempDir(), "out.db"),
			}, c)
			if err != nil {
				t.Fatalf("writeOutputs() error = %v", err)
			}
			if stats.Written != tt.wantWritten || stats.Dropped != tt.wantDropped {
				t.Errorf("stats = %+v, want written %d dropped %d", stats, tt.wantWritten, tt.wantDropped)
			}
			if stats.RunID == "" {
				t.Error("expected a SQLite run id")
			}

			// The output is itself a readable result file
			matches, err := ictarget.ReadFile(out, nil, nil)
			if err != nil {
				t.Fatalf("ReadFile(%s) error = %v", out, err)
			}
			if len(matches) != tt.wantWritten {
				t.Errorf("read back %d matches, want %d", len(matches), tt.wantWritten)
			}
		})
	}
}

func TestRunDataset(t *testing.T) {
	dir, target, decoy := fixtures(t)
	cfg := config.Default()

	ok := runDataset(config.Dataset{
		Name:   "ok",
		Target: target,
		Decoy:  decoy,
		Out:    filepath.Join(dir, "ok_fdr.tsv"),
	}, cfg, core.DefaultModDatabase(), logger)
	if ok.err != nil {
		t.Fatalf("runDataset() error = %v", ok.err)
	}
	if ok.numPSMs != 2 || ok.stats.Written != 2 {
		t.Errorf("outcome = %+v", ok)
	}

	missing := runDataset(config.Dataset{
		Name:   "missing",
		Target: target,
		Decoy:  filepath.Join(dir, "absent_IcDecoy.tsv"),
		Out:    filepath.Join(dir, "missing_fdr.tsv"),
	}, cfg, core.DefaultModDatabase(), logger)
	if missing.err == nil {
		t.Fatal("runDataset() with a missing decoy file should fail")
	}
	want := "Cannot compute FDR Scores; decoy results file not found, absent_IcDecoy.tsv"
	if missing.err.Error() != want {
		t.Errorf("error = %q, want %q", missing.err.Error(), want)
	}
	if _, err := os.Stat(filepath.Join(dir, "missing_fdr.tsv")); !os.IsNotExist(err) {
		t.Error("a failed dataset should not create its output")
	}
}

func TestSummarizeFile(t *testing.T) {
	dir := t.TempDir()
	path := writeResults(t, dir, "mixed.tsv",
		"1\tK\tPEPTIDE\tR\t\tP1\t0.9\t1e-10",
		"1\tK\tPEPTIDE\tR\t\tXXX_P1\t0.2\t1e-3",
		"2\tK\tAAA\tR\t\tP2\t0.7\t1e-5",
		"0\tK\tBAD\tR\t\tP3\t0.7\t1e-5",
	)

	s, err := summarizeFile(path, core.DefaultModDatabase(), core.PrefixClassifier("XXX_"))
	if err != nil {
		t.Fatalf("summarizeFile() error = %v", err)
	}

	if s.matches != 3 || s.skipped != 1 {
		t.Errorf("matches/skipped = %d/%d, want 3/1", s.matches, s.skipped)
	}
	if s.targets != 2 || s.decoys != 1 {
		t.Errorf("targets/decoys = %d/%d, want 2/1", s.targets, s.decoys)
	}
	if len(s.scans) != 2 || len(s.peptides) != 2 {
		t.Errorf("scans/peptides = %d/%d, want 2/2", len(s.scans), len(s.peptides))
	}
	if s.minEValue != 1e-10 || s.maxEValue != 1e-3 {
		t.Errorf("evalue range = %g - %g", s.minEValue, s.maxEValue)
	}
}

func TestComputeCommand(t *testing.T) {
	dir, target, decoy := fixtures(t)
	out := filepath.Join(dir, "cli_fdr.tsv")

	rootCmd.SetArgs([]string{"compute", "-t", target, "-d", decoy, "-o", out, "--include-decoy"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("compute error = %v", err)
	}

	matches, err := ictarget.ReadFile(out, nil, nil)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(matches) != 3 {
		t.Errorf("got %d matches, want 3", len(matches))
	}
}
