package fdr

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/tdafdr/pkg/core"
	"github.com/ChrisMcGann/tdafdr/pkg/reader/ictarget"
)

// ComputeFiles reads target and decoy result files and runs Compute on them.
// modDB may be nil.
func ComputeFiles(targetPath, decoyPath string, modDB *core.ModDatabase, opts Options) (*Result, error) {
	if !fileExists(targetPath) {
		return nil, &SourceNotFoundError{Set: "target", Path: targetPath}
	}
	if !fileExists(decoyPath) {
		return nil, &SourceNotFoundError{Set: "decoy", Path: decoyPath}
	}

	log := opts.logger()

	target, err := ictarget.ReadFile(targetPath, modDB, log)
	if err != nil {
		return nil, fmt.Errorf("failed to read target results: %w", err)
	}
	decoy, err := ictarget.ReadFile(decoyPath, modDB, log)
	if err != nil {
		return nil, fmt.Errorf("failed to read decoy results: %w", err)
	}

	log.Debug("Read result files",
		zap.String("target", targetPath),
		zap.Int("target_matches", len(target)),
		zap.String("decoy", decoyPath),
		zap.Int("decoy_matches", len(decoy)))

	return Compute(target, decoy, opts)
}

// RunFiles is ComputeFiles with the failure recorded on the Result.
func RunFiles(targetPath, decoyPath string, modDB *core.ModDatabase, opts Options) *Result {
	res, err := ComputeFiles(targetPath, decoyPath, modDB, opts)
	if err != nil {
		return failed(err, opts)
	}
	return res
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
