// Package core provides residue masses used to fill in a missing precursor mass
package core

import "math"

const (
	// MassWater is the monoisotopic mass of H2O added to every peptide
	MassWater = 18.0105646863

	// ProtonMass for charge calculations
	ProtonMass = 1.00727646688
)

// ResidueMasses maps amino acid one-letter codes to monoisotopic residue masses
var ResidueMasses = map[rune]float64{
	'A': 71.037114,
	'R': 156.101111,
	'N': 114.042927,
	'D': 115.026943,
	'C': 103.009185,
	'E': 129.042593,
	'Q': 128.058578,
	'G': 57.021464,
	'H': 137.058912,
	'I': 113.084064,
	'L': 113.084064,
	'K': 128.094963,
	'M': 131.040485,
	'F': 147.068414,
	'P': 97.052764,
	'S': 87.032028,
	'T': 101.047679,
	'W': 186.079313,
	'Y': 163.06332,
	'V': 99.068414,
	'U': 150.953633,
}

// NeutralMass computes the neutral monoisotopic mass of a match's peptide,
// modifications included. Unknown residues contribute nothing.
func NeutralMass(sequence string, modifications []Modification) float64 {
	mass := MassWater
	for _, aa := range sequence {
		mass += ResidueMasses[aa]
	}
	for _, mod := range modifications {
		mass += mod.Mass
	}
	return mass
}

// MassToMz converts a neutral mass to m/z at the given charge. Non-positive
// charges yield 0.
func MassToMz(mass float64, charge int) float64 {
	if charge <= 0 {
		return 0
	}
	return (mass + float64(charge)*ProtonMass) / float64(charge)
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
