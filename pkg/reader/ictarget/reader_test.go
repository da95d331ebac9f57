package ictarget

import (
	"compress/gzip"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleHeader = "Scan\tPre\tSequence\tPost\tModifications\tComposition\tProteinName\tProteinDesc\tProteinLength\tStart\tEnd\tCharge\tMostAbundantIsotopeMz\tMass\tMs1Features\t#MatchedFragments\tProbability\tSpecEValue\tEValue\n"

const sampleRows = "" +
	"12\tK\tPEPTIDE\tR\tOxidation 3\tC(34) H(53) N(7) O(15)\tsp|P12345\tSome protein\t300\t10\t16\t2\t400.7\t799.36\t1\t12\t0.95\t1E-10\t1E-06\n" +
	"13\t-\tPEPTIDEK\t-\t\t\tXXX_sp|P12345\t\t300\t20\t27\t3\t309.1\t\t0\t5\t0.2\t1E-03\t0.5\n"

func TestReaderParsesRows(t *testing.T) {
	reader := NewReader(strings.NewReader(sampleHeader+sampleRows), nil, nil)

	var got []string
	for reader.Next() {
		got = append(got, reader.Match().Name())
	}
	if err := reader.Err(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{"12:K.PEPTIDE.R", "13:-.PEPTIDEK.-"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d matches, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Match %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestReaderFieldValues(t *testing.T) {
	reader := NewReader(strings.NewReader(sampleHeader+sampleRows), nil, nil)
	if !reader.Next() {
		t.Fatalf("Expected a match, err = %v", reader.Err())
	}
	m := reader.Match()

	if m.ScanNum != 12 || m.Charge != 2 || m.NumMatchedFragments != 12 {
		t.Errorf("Unexpected integer fields: scan %d charge %d fragments %d", m.ScanNum, m.Charge, m.NumMatchedFragments)
	}
	if m.EValue != 1e-6 || m.SpecEValue != 1e-10 || m.Probability != 0.95 {
		t.Errorf("Unexpected scores: evalue %g spec %g prob %g", m.EValue, m.SpecEValue, m.Probability)
	}
	if m.ProteinDesc != "Some protein" || m.ProteinLength != 300 {
		t.Errorf("Unexpected protein fields: %q %d", m.ProteinDesc, m.ProteinLength)
	}
	if len(m.Modifications) != 1 || m.Modifications[0].Name != "Oxidation" || m.Modifications[0].Position != 3 {
		t.Errorf("Unexpected modifications: %+v", m.Modifications)
	}

	// Second row has no Mass value; it is computed from the sequence
	if !reader.Next() {
		t.Fatalf("Expected a second match, err = %v", reader.Err())
	}
	if math.Abs(reader.Match().Mass-927.455) > 0.01 {
		t.Errorf("Expected computed mass ~927.455, got %.3f", reader.Match().Mass)
	}
}

func TestReaderPeptideColumnAndSpecEValueFallback(t *testing.T) {
	data := "Scan\tPeptide\tProteinName\tProbability\tSpecEValue\n" +
		"7\tR.AAAK.G\tsp|Q1\t0.5\t0.001\n" +
		"8\tAAAK\tsp|Q2\t0.4\t0.002\n"

	reader := NewReader(strings.NewReader(data), nil, nil)

	if !reader.Next() {
		t.Fatalf("Expected a match, err = %v", reader.Err())
	}
	m := reader.Match()
	if m.Pre != "R" || m.Sequence != "AAAK" || m.Post != "G" {
		t.Errorf("Unexpected peptide split: %q %q %q", m.Pre, m.Sequence, m.Post)
	}
	if m.EValue != 0.001 {
		t.Errorf("Expected EValue to fall back to SpecEValue 0.001, got %g", m.EValue)
	}

	if !reader.Next() {
		t.Fatalf("Expected a second match, err = %v", reader.Err())
	}
	if got := reader.Match().SequenceWithEnds(); got != ".AAAK." {
		t.Errorf("Expected .AAAK., got %s", got)
	}
}

func TestReaderSkipsInvalidRowsAndComments(t *testing.T) {
	data := "Scan\tSequence\tProteinName\tProbability\tEValue\n" +
		"# produced by a test\n" +
		"\n" +
		"1\tPEPTIDE\tsp|P1\t0.9\t0.01\n" +
		"0\tPEPTIDE\tsp|P1\t0.9\t0.01\n" +
		"2\t\tsp|P1\t0.9\t0.01\n" +
		"3\tPEPTIDE\tsp|P1\t0.9\tNaN\n" +
		"4\tPEPTIDE\tsp|P1\t0.9\t0.02\n"

	reader := NewReader(strings.NewReader(data), nil, nil)
	count := 0
	for reader.Next() {
		count++
	}
	if err := reader.Err(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 valid matches, got %d", count)
	}
	if reader.Skipped() != 3 {
		t.Errorf("Expected 3 skipped rows, got %d", reader.Skipped())
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing required columns", "Scan\tSequence\n1\tPEPTIDE\n"},
		{"bad scan number", "Scan\tSequence\tProteinName\tProbability\tEValue\nx\tPEPTIDE\tsp|P1\t0.9\t0.01\n"},
		{"bad evalue", "Scan\tSequence\tProteinName\tProbability\tEValue\n1\tPEPTIDE\tsp|P1\t0.9\tabc\n"},
		{"bad modification", "Scan\tSequence\tProteinName\tProbability\tEValue\tModifications\n1\tPEPTIDE\tsp|P1\t0.9\t0.01\tOxidation\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewReader(strings.NewReader(tt.data), nil, nil)
			for reader.Next() {
			}
			if reader.Err() == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "target.tsv")
	if err := os.WriteFile(plain, []byte(sampleHeader+sampleRows), 0o644); err != nil {
		t.Fatal(err)
	}

	compressed := filepath.Join(dir, "target.tsv.gz")
	f, err := os.Create(compressed)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	if _, err := gw.Write([]byte(sampleHeader + sampleRows)); err != nil {
		t.Fatal(err)
	}
	gw.Close()
	f.Close()

	empty := filepath.Join(dir, "empty.tsv")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, compressed} {
		matches, err := ReadFile(path, nil, nil)
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", path, err)
		}
		if len(matches) != 2 {
			t.Errorf("ReadFile(%s): expected 2 matches, got %d", path, len(matches))
		}
	}

	matches, err := ReadFile(empty, nil, nil)
	if err != nil {
		t.Fatalf("ReadFile(empty) error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Expected no matches from empty file, got %d", len(matches))
	}
}
