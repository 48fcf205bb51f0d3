// Package pdb/cmmn has the common definitions for a macromolecular
// structure. Both the old pdb format reader and the mmcif reader fill
// out a Structure and both writers take one.
// The hierarchy is models -> chains -> residues -> atoms. Next to that
// there are entities, secondary structure records, connections and a
// loose map of information keyed by mmcif tags.
package cmmn

import (
	"strconv"
	"strings"
)

// Xyz is a set of coordinates
type Xyz struct{ X, Y, Z float64 }

type Atom struct {
	Name    string
	AltLoc  byte // 0 if there is none
	Element string
	Charge  int8
	Serial  int
	Pos     Xyz
	Occ     float32
	B       float32
}

// SeqID is the author's residue number and insertion code.
// ICode is ' ' if there is no insertion code.
type SeqID struct {
	Num   int
	ICode byte
}

func (s SeqID) String() string {
	if s.ICode == ' ' || s.ICode == 0 {
		return strconv.Itoa(s.Num)
	}
	return strconv.Itoa(s.Num) + string(s.ICode)
}

// HasICode says if there is a real insertion code
func (s SeqID) HasICode() bool { return s.ICode != ' ' && s.ICode != 0 }

type EntityType byte

const (
	EntityUnknown EntityType = iota
	EntityPolymer
	EntityNonPolymer
	EntityBranched
	EntityWater
)

// String gives the names used in _entity.type
func (e EntityType) String() string {
	switch e {
	case EntityPolymer:
		return "polymer"
	case EntityNonPolymer:
		return "non-polymer"
	case EntityBranched:
		return "branched"
	case EntityWater:
		return "water"
	}
	return "?"
}

// EntityTypeFromString is the reverse of String
func EntityTypeFromString(s string) EntityType {
	switch strings.ToLower(s) {
	case "polymer":
		return EntityPolymer
	case "non-polymer":
		return EntityNonPolymer
	case "branched":
		return EntityBranched
	case "water":
		return EntityWater
	}
	return EntityUnknown
}

type PolymerType byte

const (
	PolyUnknown PolymerType = iota
	PolyPeptideL
	PolyDNA
	PolyRNA
	PolyDNARNAHybrid
	PolyOther
)

// String gives the names used in _entity_poly.type
func (p PolymerType) String() string {
	switch p {
	case PolyPeptideL:
		return "polypeptide(L)"
	case PolyDNA:
		return "polydeoxyribonucleotide"
	case PolyRNA:
		return "polyribonucleotide"
	case PolyDNARNAHybrid:
		return "polydeoxyribonucleotide/polyribonucleotide hybrid"
	case PolyOther:
		return "other"
	}
	return "?"
}

// PolymerTypeFromString is the reverse of String
func PolymerTypeFromString(s string) PolymerType {
	for _, p := range []PolymerType{PolyPeptideL, PolyDNA, PolyRNA, PolyDNARNAHybrid, PolyOther} {
		if strings.EqualFold(s, p.String()) {
			return p
		}
	}
	return PolyUnknown
}

type Residue struct {
	Name       string
	SeqID      SeqID
	Subchain   string // label_asym_id in mmcif
	LabelSeq   int    // label_seq_id, 0 if not known
	EntityType EntityType
	Het        bool // HETATM rather than ATOM
	Atoms      []Atom
}

// FindAtom returns the first atom with a name, or nil
func (r *Residue) FindAtom(name string) *Atom {
	for i := range r.Atoms {
		if r.Atoms[i].Name == name {
			return &r.Atoms[i]
		}
	}
	return nil
}

// ResidueSpan is a contiguous run of residues from one chain.
type ResidueSpan []Residue

// Subchain returns the subchain name of the first residue
func (rs ResidueSpan) Subchain() string {
	if len(rs) == 0 {
		return ""
	}
	return rs[0].Subchain
}

// ExtractSequence gives the residue names in order. Where there is
// microheterogeneity (two residues with the same sequence id one after
// the other), only the first is kept.
func (rs ResidueSpan) ExtractSequence() []string {
	seq := make([]string, 0, len(rs))
	for i := range rs {
		if i > 0 && rs[i].SeqID == rs[i-1].SeqID {
			continue
		}
		seq = append(seq, rs[i].Name)
	}
	return seq
}

type Chain struct {
	Name     string
	Residues []Residue
}

// Polymer returns the residues of the polymer part of the chain.
// This is the run of residues belonging to the subchain of the first
// polymer residue. If the chain has no polymer, the span is empty.
func (ch *Chain) Polymer() ResidueSpan {
	start := -1
	for i := range ch.Residues {
		if ch.Residues[i].EntityType == EntityPolymer {
			start = i
			break
		}
	}
	if start == -1 {
		return nil
	}
	sub := ch.Residues[start].Subchain
	end := start + 1
	for end < len(ch.Residues) && ch.Residues[end].EntityType == EntityPolymer &&
		ch.Residues[end].Subchain == sub {
		end++
	}
	return ResidueSpan(ch.Residues[start:end])
}

type Model struct {
	Name   string // usually "1", "2", ...
	Chains []Chain
}

// FindChain returns the first chain with the given name, or nil
func (m *Model) FindChain(name string) *Chain {
	for i := range m.Chains {
		if m.Chains[i].Name == name {
			return &m.Chains[i]
		}
	}
	return nil
}

type Entity struct {
	Name         string
	Subchains    []string
	EntityType   EntityType
	PolymerType  PolymerType
	FullSequence []string // residue names, SEQRES or _entity_poly_seq
}

// ResidueID identifies a residue by chain, author number and name.
type ResidueID struct {
	Chain string
	SeqID SeqID
	Name  string
}

// AtomAddress points at an atom in a residue
type AtomAddress struct {
	ResidueID
	Atom   string
	AltLoc byte
}

// Helix classes from the PDB format description
const (
	HelixRightAlpha = 1
	HelixRightPi    = 3
	HelixRight310   = 5
	HelixPolyPro    = 10
)

type Helix struct {
	Start, End ResidueID
	Class      int
	Length     int // -1 if not known
}

// Strand sense. The first strand of a sheet has sense 0 and so
// does a strand whose sense we do not know.
const (
	SenseFirst     = 0
	SenseParallel  = 1
	SenseAntiParal = -1
)

type Strand struct {
	Start, End ResidueID
	Hbond0     AtomAddress // registration: atom in this strand
	Hbond1     AtomAddress // registration: atom in previous strand
	Sense      int
}

type Sheet struct {
	Name    string
	Strands []Strand
}

type ConnectionType byte

const (
	ConnCovale ConnectionType = iota
	ConnDisulf
	ConnMetalC
	ConnHydrog
	ConnUnknown
)

// String gives the _struct_conn.conn_type_id values
func (c ConnectionType) String() string {
	switch c {
	case ConnCovale:
		return "covale"
	case ConnDisulf:
		return "disulf"
	case ConnMetalC:
		return "metalc"
	case ConnHydrog:
		return "hydrog"
	}
	return "?"
}

// ConnectionTypeFromString is the reverse of String
func ConnectionTypeFromString(s string) ConnectionType {
	for _, c := range []ConnectionType{ConnCovale, ConnDisulf, ConnMetalC, ConnHydrog} {
		if strings.EqualFold(s, c.String()) {
			return c
		}
	}
	return ConnUnknown
}

// Connection is an SSBOND or LINK record.
type Connection struct {
	Name       string
	Type       ConnectionType
	Partner1   AtomAddress
	Partner2   AtomAddress
	Sym1, Sym2 string // symmetry operators, like 1555
	Length     float64
}

// CisPep is a cis peptide between two residues
type CisPep struct {
	Partner1, Partner2 ResidueID
	Model              string
	Omega              float64
}

type UnitCell struct {
	A, B, C            float64
	Alpha, Beta, Gamma float64
}

// IsSet is false if no cell has been read
func (u UnitCell) IsSet() bool { return u.A > 0 && u.B > 0 && u.C > 0 }

// Standard keys for Info
const (
	InfoEntryID  = "_entry.id"
	InfoTitle    = "_struct.title"
	InfoKeywords = "_struct_keywords.pdbx_keywords"
	InfoKeyText  = "_struct_keywords.text"
	InfoMethod   = "_exptl.method"
)

type Structure struct {
	Name         string
	Cell         UnitCell
	SpacegroupHM string
	Models       []Model
	Entities     []Entity
	Connections  []Connection
	Helices      []Helix
	Sheets       []Sheet
	CisPeps      []CisPep
	Info         map[string]string // keyed by mmcif tags
	RawRemarks   []string          // REMARK lines, as read
}

// New returns an empty structure with its info map made
func New(name string) *Structure {
	return &Structure{Name: name, Info: make(map[string]string)}
}

// GetInfo returns the value for a tag or "" if it is not there
func (st *Structure) GetInfo(tag string) string {
	if st.Info == nil {
		return ""
	}
	return st.Info[tag]
}

// SetInfo sets a tag. An empty value removes it.
func (st *Structure) SetInfo(tag, value string) {
	if st.Info == nil {
		st.Info = make(map[string]string)
	}
	if value == "" {
		delete(st.Info, tag)
		return
	}
	st.Info[tag] = value
}

// SetInfoIfEmpty sets a tag only if there is no value yet and
// reports if it did anything.
func (st *Structure) SetInfoIfEmpty(tag, value string) bool {
	if st.GetInfo(tag) != "" {
		return false
	}
	st.SetInfo(tag, value)
	return true
}

// FindEntity returns the entity with a name, or nil
func (st *Structure) FindEntity(name string) *Entity {
	for i := range st.Entities {
		if st.Entities[i].Name == name {
			return &st.Entities[i]
		}
	}
	return nil
}

// EntityOfSubchain returns the entity which lists the subchain, or nil
func (st *Structure) EntityOfSubchain(sub string) *Entity {
	if sub == "" {
		return nil
	}
	for i := range st.Entities {
		for _, s := range st.Entities[i].Subchains {
			if s == sub {
				return &st.Entities[i]
			}
		}
	}
	return nil
}

// EntityOf returns the entity for a span of residues, or nil.
func (st *Structure) EntityOf(span ResidueSpan) *Entity {
	return st.EntityOfSubchain(span.Subchain())
}

// Counts is the topology of a structure
type Counts struct {
	Models, Chains, Residues, Atoms int
}

// Count sums up models, chains, residues and atoms over all models.
func (st *Structure) Count() Counts {
	var c Counts
	c.Models = len(st.Models)
	for _, m := range st.Models {
		c.Chains += len(m.Chains)
		for _, ch := range m.Chains {
			c.Residues += len(ch.Residues)
			for _, r := range ch.Residues {
				c.Atoms += len(r.Atoms)
			}
		}
	}
	return c
}

// FirstModel returns the first model or nil if there are none
func (st *Structure) FirstModel() *Model {
	if len(st.Models) == 0 {
		return nil
	}
	return &st.Models[0]
}
