// Package core provides modification parsing and management
package core

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ModDatabase stores modification definitions
type ModDatabase struct {
	mods map[string]float64 // name -> mass shift
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]float64),
	}
}

// LoadFromCSV loads modifications from a CSV file (format: mod,massshift[,aa])
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// header
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		modName := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		db.mods[modName] = mass
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// GetMass returns the mass shift for a modification name
func (db *ModDatabase) GetMass(name string) (float64, bool) {
	mass, ok := db.mods[name]
	return mass, ok
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, mass float64) {
	db.mods[name] = mass
}

// ParseModString parses a result-file modification column such as
// "Oxidation 7,Carbamidomethyl 3". Entries are separated by commas and each
// entry is a name (or a numeric mass shift) followed by its residue position.
//
// Unknown names are kept with a zero mass and reported in unknown, so that a
// custom modification never prevents a match from being scored.
func (db *ModDatabase) ParseModString(modStr string) (mods []Modification, unknown []string, err error) {
	modStr = strings.TrimSpace(modStr)
	if modStr == "" {
		return nil, nil, nil
	}

	for _, part := range strings.Split(modStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		fields := strings.Fields(part)
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("invalid modification format '%s', expected 'name position'", part)
		}

		position, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid position in modification '%s': %w", part, err)
		}

		mod := Modification{Name: fields[0], Position: position}
		if mass, err := strconv.ParseFloat(fields[0], 64); err == nil {
			mod.Mass = mass
		} else if mass, ok := db.GetMass(fields[0]); ok {
			mod.Mass = mass
		} else {
			unknown = append(unknown, fields[0])
		}

		mods = append(mods, mod)
	}

	return mods, unknown, nil
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()

	// Common modifications from unimod
	db.Add("Acetyl", 42.010565)
	db.Add("Amidated", -0.984016)
	db.Add("Carbamidomethyl", 57.021464)
	db.Add("Carbamyl", 43.005814)
	db.Add("Deamidated", 0.984016)
	db.Add("Dehydro", -1.007825)
	db.Add("Dehydrated", -18.010565)
	db.Add("Dimethyl", 28.0313)
	db.Add("Formyl", 27.994915)
	db.Add("Gln->pyro-Glu", -17.026549)
	db.Add("Glu->pyro-Glu", -18.010565)
	db.Add("Methyl", 14.01565)
	db.Add("Nitrosyl", 28.990164)
	db.Add("Oxidation", 15.994915)
	db.Add("Phospho", 79.966331)
	db.Add("Sulfo", 79.956815)
	db.Add("Trimethyl", 42.04695)
	db.Add("TMT6plex", 229.162932)
	db.Add("iTRAQ4plex", 144.102063)

	return db
}
