package cmmn_test

import (
	"testing"

	. "github.com/andrew-torda/dsspconv/pdb/cmmn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// res makes a residue with one CA atom
func res(name string, num int, het bool) Residue {
	return Residue{
		Name:  name,
		SeqID: SeqID{Num: num, ICode: ' '},
		Het:   het,
		Atoms: []Atom{{Name: "CA", Element: "C"}},
	}
}

// twoChains has two chains with the same peptide, a ligand in A and
// some water in B
func twoChains() *Structure {
	st := New("test")
	chA := Chain{Name: "A", Residues: []Residue{
		res("MET", 1, false), res("ALA", 2, false), res("GLY", 3, false),
		res("HEM", 101, true), res("HOH", 201, true)}}
	chB := Chain{Name: "B", Residues: []Residue{
		res("MET", 1, false), res("ALA", 2, false), res("GLY", 3, false),
		res("HOH", 202, true)}}
	st.Models = []Model{{Name: "1", Chains: []Chain{chA, chB}}}
	return st
}

func TestSeqID(t *testing.T) {
	assert.Equal(t, "12", SeqID{12, ' '}.String())
	assert.Equal(t, "12A", SeqID{12, 'A'}.String())
	assert.False(t, SeqID{1, 0}.HasICode())
}

func TestInfo(t *testing.T) {
	var st Structure
	assert.Equal(t, "", st.GetInfo(InfoTitle))
	assert.True(t, st.SetInfoIfEmpty(InfoTitle, "first"))
	assert.False(t, st.SetInfoIfEmpty(InfoTitle, "second"))
	assert.Equal(t, "first", st.GetInfo(InfoTitle))
	st.SetInfo(InfoTitle, "")
	_, ok := st.Info[InfoTitle]
	assert.False(t, ok)
}

func TestExtractSequenceMicrohet(t *testing.T) {
	span := ResidueSpan{res("ALA", 1, false), res("SER", 2, false), res("THR", 2, false), res("GLY", 3, false)}
	assert.Equal(t, []string{"ALA", "SER", "GLY"}, span.ExtractSequence())
}

func TestSetupEntities(t *testing.T) {
	st := twoChains()
	SetupEntities(st)
	chA := &st.Models[0].Chains[0]
	assert.Equal(t, EntityPolymer, chA.Residues[2].EntityType)
	assert.Equal(t, EntityNonPolymer, chA.Residues[3].EntityType)
	assert.Equal(t, EntityWater, chA.Residues[4].EntityType)
	assert.Equal(t, "Axp", chA.Residues[0].Subchain)
	assert.Equal(t, "Ax1", chA.Residues[3].Subchain)
	assert.Equal(t, "Aw", chA.Residues[4].Subchain)

	poly := chA.Polymer()
	require.Len(t, poly, 3)
	ent := st.EntityOf(poly)
	require.NotNil(t, ent)
	assert.Equal(t, "1", ent.Name)
	assert.Equal(t, PolyPeptideL, ent.PolymerType)
	assert.Empty(t, ent.FullSequence)

	// polymer A, HEM, water, polymer B (no sequence, so not merged)
	require.Len(t, st.Entities, 4)
	assert.Equal(t, EntityWater, st.Entities[2].EntityType)
	assert.Equal(t, []string{"Aw", "Bw"}, st.Entities[2].Subchains)
}

func TestSetupEntitiesSeqres(t *testing.T) {
	st := twoChains()
	seq := []string{"MET", "ALA", "GLY"}
	st.Entities = []Entity{
		{Name: "A", EntityType: EntityPolymer, FullSequence: seq},
		{Name: "B", EntityType: EntityPolymer, FullSequence: seq},
	}
	SetupEntities(st)
	polyA := st.Models[0].Chains[0].Polymer()
	polyB := st.Models[0].Chains[1].Polymer()
	entA, entB := st.EntityOf(polyA), st.EntityOf(polyB)
	require.NotNil(t, entA)
	assert.Same(t, entA, entB, "identical sequences should share an entity")
	assert.Equal(t, []string{"Axp", "Bxp"}, entA.Subchains)
	assert.Equal(t, PolyPeptideL, entA.PolymerType)
}

func TestSetupEntitiesAfterTer(t *testing.T) {
	st := twoChains()
	// An amino acid after TER is not part of the polymer
	st.Models[0].Chains[0].Residues[3] = res("ALA", 101, true)
	st.Models[0].Chains[0].Residues[3].EntityType = EntityNonPolymer
	SetupEntities(st)
	assert.Len(t, st.Models[0].Chains[0].Polymer(), 3)
}

func TestApplySeqres(t *testing.T) {
	st := twoChains()
	SetupEntities(st)
	n := ApplySeqres(st)
	assert.Equal(t, 2, n)
	ent := st.EntityOf(st.Models[0].Chains[0].Polymer())
	assert.Equal(t, []string{"MET", "ALA", "GLY"}, ent.FullSequence)

	// A second call must not change anything
	assert.Equal(t, 0, ApplySeqres(st))
	assert.Equal(t, []string{"MET", "ALA", "GLY"}, ent.FullSequence)
}

func TestApplySeqresKeepsExisting(t *testing.T) {
	st := twoChains()
	st.Entities = []Entity{{Name: "A", EntityType: EntityPolymer, FullSequence: []string{"GLY"}}}
	SetupEntities(st)
	ApplySeqres(st)
	ent := st.EntityOf(st.Models[0].Chains[0].Polymer())
	assert.Equal(t, []string{"GLY"}, ent.FullSequence)
}

// When two chains share an entity with no sequence, the first chain
// processed fills it.
func TestApplySeqresFirstChainWins(t *testing.T) {
	st := twoChains()
	st.Models[0].Chains[1].Residues[2].Name = "SER"
	SetupEntities(st)
	entB := st.EntityOf(st.Models[0].Chains[1].Polymer())
	entB.Subchains = nil
	entA := st.EntityOf(st.Models[0].Chains[0].Polymer())
	entA.Subchains = append(entA.Subchains, "Bxp")
	ApplySeqres(st)
	assert.Equal(t, []string{"MET", "ALA", "GLY"}, entA.FullSequence)
}

func TestCount(t *testing.T) {
	st := twoChains()
	assert.Equal(t, Counts{Models: 1, Chains: 2, Residues: 9, Atoms: 9}, st.Count())
}

func TestGuessPolymerType(t *testing.T) {
	assert.Equal(t, PolyDNA, GuessPolymerType([]string{"DA", "DC", "DG"}))
	assert.Equal(t, PolyRNA, GuessPolymerType([]string{"A", "U"}))
	assert.Equal(t, PolyDNARNAHybrid, GuessPolymerType([]string{"DA", "U"}))
	assert.Equal(t, PolyUnknown, GuessPolymerType([]string{"HEM"}))
}
