package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/ChrisMcGann/tdafdr/pkg/core"
	"github.com/ChrisMcGann/tdafdr/pkg/fdr"
)

func testMatches() []fdr.ScoredMatch {
	return []fdr.ScoredMatch{
		{
			Match: core.Match{
				ResultID: 1, ScanNum: 10, Pre: "K", Sequence: "PEPTIDE", Post: "R",
				ProteinName: "P1", Charge: 2, Mass: 799.36, Probability: 0.9, EValue: 1e-5,
				Modifications: []core.Modification{{Name: "Oxidation", Position: 3, Mass: 15.994915}},
			},
			QValue:    fdr.Score{Value: 0, Defined: true},
			PepQValue: fdr.Score{Value: 0, Defined: true},
		},
		{
			Match: core.Match{
				ResultID: 2, ScanNum: 10, Pre: "-", Sequence: "DECOY", Post: "-",
				ProteinName: "XXX_P2", Charge: 2, Mass: 500, Probability: 0.1, EValue: 1,
			},
		},
	}
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	w, err := NewWriter(path, core.PrefixClassifier("XXX_"))
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	runID := w.RunID()

	for _, m := range testMatches() {
		if err := w.WriteMatch(m); err != nil {
			t.Fatalf("WriteMatch() error = %v", err)
		}
	}
	info := RunInfo{TargetFile: "t.tsv", DecoyFile: "d.tsv", DecoyPrefix: "XXX_", NumPSMs: 1, NumPeptides: 1}
	if err := w.Finalize(info); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() after Finalize error = %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var numMatches, numPSMs int
	var target string
	err = db.QueryRow(`SELECT NumMatches, NumPSMs, TargetFile FROM RunTable WHERE RunId = ?`, runID).
		Scan(&numMatches, &numPSMs, &target)
	if err != nil {
		t.Fatalf("query RunTable: %v", err)
	}
	if numMatches != 2 || numPSMs != 1 || target != "t.tsv" {
		t.Errorf("RunTable = (%d, %d, %q), want (2, 1, \"t.tsv\")", numMatches, numPSMs, target)
	}

	rows, err := db.Query(`SELECT ResultId, Modifications, QValue, PepQValue, IsDecoy FROM MatchTable ORDER BY ResultId`)
	if err != nil {
		t.Fatalf("query MatchTable: %v", err)
	}
	defer rows.Close()

	type row struct {
		id      int
		mods    string
		q, pepQ float64
		decoy   bool
	}
	want := []row{
		{1, "Oxidation 3", 0, 0, false},
		{2, "", fdr.UndefinedQValue, fdr.UndefinedQValue, true},
	}

	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.mods, &r.q, &r.pepQ, &r.decoy); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWriterCloseWithoutFinalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aborted.db")

	w, err := NewWriter(path, nil)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if err := w.WriteMatch(testMatches()[0]); err != nil {
		t.Fatalf("WriteMatch() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM MatchTable`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("MatchTable has %d rows after rollback, want 0", n)
	}
}
