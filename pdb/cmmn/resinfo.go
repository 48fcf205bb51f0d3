package cmmn

import "strings"

type resKind byte

const (
	kindUnknown resKind = iota
	kindAmino
	kindDNA
	kindRNA
	kindWater
)

// resKinds is a small table of residue names we recognise. Anything
// else is treated as a ligand unless it sits in the middle of a polymer.
var resKinds = map[string]resKind{
	"ALA": kindAmino, "ARG": kindAmino, "ASN": kindAmino, "ASP": kindAmino,
	"CYS": kindAmino, "GLN": kindAmino, "GLU": kindAmino, "GLY": kindAmino,
	"HIS": kindAmino, "ILE": kindAmino, "LEU": kindAmino, "LYS": kindAmino,
	"MET": kindAmino, "PHE": kindAmino, "PRO": kindAmino, "SER": kindAmino,
	"THR": kindAmino, "TRP": kindAmino, "TYR": kindAmino, "VAL": kindAmino,
	"SEC": kindAmino, "PYL": kindAmino, "MSE": kindAmino, "UNK": kindAmino,
	"ASX": kindAmino, "GLX": kindAmino,
	"DA": kindDNA, "DC": kindDNA, "DG": kindDNA, "DT": kindDNA, "DI": kindDNA, "DU": kindDNA,
	"A": kindRNA, "C": kindRNA, "G": kindRNA, "U": kindRNA, "I": kindRNA, "N": kindRNA,
	"HOH": kindWater, "WAT": kindWater, "DOD": kindWater, "H2O": kindWater,
	"TIP": kindWater, "TIP3": kindWater, "SOL": kindWater,
}

func kindOf(name string) resKind {
	return resKinds[strings.ToUpper(strings.TrimSpace(name))]
}

// IsWater says if a residue name is one of the usual water names
func IsWater(name string) bool { return kindOf(name) == kindWater }

// IsPolymerResidue says if we know the name as an amino acid or nucleotide
func IsPolymerResidue(name string) bool {
	k := kindOf(name)
	return k == kindAmino || k == kindDNA || k == kindRNA
}

// GuessPolymerType looks at residue names and decides what sort
// of polymer we have. The majority wins, but DNA and RNA together
// make a hybrid.
func GuessPolymerType(names []string) PolymerType {
	var nAmino, nDNA, nRNA int
	for _, n := range names {
		switch kindOf(n) {
		case kindAmino:
			nAmino++
		case kindDNA:
			nDNA++
		case kindRNA:
			nRNA++
		}
	}
	switch {
	case nAmino == 0 && nDNA == 0 && nRNA == 0:
		return PolyUnknown
	case nAmino >= nDNA+nRNA:
		return PolyPeptideL
	case nDNA > 0 && nRNA > 0:
		return PolyDNARNAHybrid
	case nDNA > 0:
		return PolyDNA
	}
	return PolyRNA
}
