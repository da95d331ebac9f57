// Package sqlite provides SQLite database export of scored matches
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/tdafdr/pkg/core"
	"github.com/ChrisMcGann/tdafdr/pkg/fdr"
)

// Date format for RunTable (ISO 8601)
const runDateFormat = "2006-01-02 15:04:05"

// RunInfo describes the engine run recorded in RunTable
type RunInfo struct {
	TargetFile          string
	DecoyFile           string
	DecoyPrefix         string
	MultipleHitsPerScan bool
	IncludeDecoy        bool
	NumPSMs             int
	NumPeptides         int
}

// Writer handles writing scored matches to SQLite database files
type Writer struct {
	db        *sql.DB
	tx        *sql.Tx
	matchStmt *sql.Stmt
	isDecoy   core.DecoyClassifier
	runID     string
	count     int
	finalized bool
}

// NewWriter creates a new SQLite writer. isDecoy fills the IsDecoy column; nil
// marks every row as a target.
func NewWriter(outputPath string, isDecoy core.DecoyClassifier) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if isDecoy == nil {
		isDecoy = func(string) bool { return false }
	}

	w := &Writer{
		db:      db,
		isDecoy: isDecoy,
		runID:   uuid.NewString(),
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		CreationDate TEXT,
		TargetFile TEXT,
		DecoyFile TEXT,
		DecoyPrefix TEXT,
		MultipleHitsPerScan BOOL,
		IncludeDecoy BOOL,
		NumPSMs INTEGER,
		NumPeptides INTEGER,
		NumMatches INTEGER
	);

	CREATE TABLE IF NOT EXISTS MatchTable (
		RunId TEXT REFERENCES RunTable(RunId),
		ResultId INTEGER,
		Scan INTEGER,
		Pre TEXT,
		Sequence TEXT,
		Post TEXT,
		Modifications TEXT,
		ModMass DOUBLE,
		Composition TEXT,
		ProteinName TEXT,
		ProteinDesc TEXT,
		ProteinLength INTEGER,
		StartPos INTEGER,
		EndPos INTEGER,
		Charge INTEGER,
		MostAbundantIsotopeMz DOUBLE,
		Mass DOUBLE,
		MonoisotopicMz DOUBLE,
		NumMatchedFragments INTEGER,
		Probability DOUBLE,
		SpecEValue DOUBLE,
		EValue DOUBLE,
		QValue DOUBLE,
		PepQValue DOUBLE,
		IsDecoy BOOL,
		PRIMARY KEY (RunId, ResultId)
	);

	CREATE INDEX IF NOT EXISTS idx_match_sequence ON MatchTable(Pre, Sequence, Post);
	CREATE INDEX IF NOT EXISTS idx_match_qvalue ON MatchTable(QValue);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements opens the insert transaction and prepares the match statement
func (w *Writer) prepareStatements() error {
	var err error

	w.tx, err = w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	w.matchStmt, err = w.tx.Prepare(`
		INSERT INTO MatchTable (
			RunId, ResultId, Scan, Pre, Sequence, Post, Modifications, ModMass,
			Composition, ProteinName, ProteinDesc, ProteinLength, StartPos, EndPos,
			Charge, MostAbundantIsotopeMz, Mass, MonoisotopicMz, NumMatchedFragments,
			Probability, SpecEValue, EValue, QValue, PepQValue, IsDecoy
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		return fmt.Errorf("failed to prepare match statement: %w", err)
	}

	return nil
}

// RunID returns the identifier of the run recorded by this writer
func (w *Writer) RunID() string {
	return w.runID
}

// WriteMatch writes a single scored match to the database
func (w *Writer) WriteMatch(m fdr.ScoredMatch) error {
	mz := core.RoundFloat(core.MassToMz(m.Mass, m.Charge), 6)

	_, err := w.matchStmt.Exec(
		w.runID,                  // RunId
		m.ResultID,               // ResultId
		m.ScanNum,                // Scan
		m.Pre,                    // Pre
		m.Sequence,               // Sequence
		m.Post,                   // Post
		m.ModString(),            // Modifications
		m.TotalModMass(),         // ModMass
		m.Composition,            // Composition
		m.ProteinName,            // ProteinName
		m.ProteinDesc,            // ProteinDesc
		m.ProteinLength,          // ProteinLength
		m.Start,                  // StartPos
		m.End,                    // EndPos
		m.Charge,                 // Charge
		m.MostAbundantIsotopeMz,  // MostAbundantIsotopeMz
		m.Mass,                   // Mass
		mz,                       // MonoisotopicMz
		m.NumMatchedFragments,    // NumMatchedFragments
		m.Probability,            // Probability
		m.SpecEValue,             // SpecEValue
		m.EValue,                 // EValue
		m.QValue.Output(),        // QValue
		m.PepQValue.Output(),     // PepQValue
		w.isDecoy(m.ProteinName), // IsDecoy
	)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	w.count++
	return nil
}

// Finalize writes the run row, commits and closes the database
func (w *Writer) Finalize(info RunInfo) error {
	if w.finalized {
		return nil
	}
	w.finalized = true

	_, err := w.tx.Exec(`
		INSERT INTO RunTable (RunId, CreationDate, TargetFile, DecoyFile, DecoyPrefix,
			MultipleHitsPerScan, IncludeDecoy, NumPSMs, NumPeptides, NumMatches)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, w.runID, time.Now().Format(runDateFormat), info.TargetFile, info.DecoyFile, info.DecoyPrefix,
		info.MultipleHitsPerScan, info.IncludeDecoy, info.NumPSMs, info.NumPeptides, w.count)
	if err != nil {
		w.abort()
		return fmt.Errorf("failed to insert run: %w", err)
	}

	w.matchStmt.Close()

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit: %w", err)
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close discards uncommitted matches if Finalize was not called
func (w *Writer) Close() error {
	if w.finalized {
		return nil
	}
	w.finalized = true
	return w.abort()
}

func (w *Writer) abort() error {
	w.matchStmt.Close()
	w.tx.Rollback()
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
