package cmmn

import "strconv"

// SetupEntities makes sure every residue has an entity type and a
// subchain, that every subchain belongs to an entity and that polymer
// entities with identical sequences are merged. Entities are then
// numbered from 1 in the order they were found.
// Values that are already there (from SEQRES or from an mmcif file)
// are kept.
func SetupEntities(st *Structure) {
	for im := range st.Models {
		for ic := range st.Models[im].Chains {
			addEntityTypes(&st.Models[im].Chains[ic])
			assignSubchains(&st.Models[im].Chains[ic])
		}
	}
	ensureEntities(st)
	deduplicateEntities(st)
	renumberEntities(st)
}

// addEntityTypes fills in the entity type of residues that do not have
// one. The polymer runs from the start of the chain to the last residue
// that looks like part of a polymer. It must stop before any residue
// that was already marked as something else, like residues after TER.
func addEntityTypes(ch *Chain) {
	limit := len(ch.Residues)
	for i, r := range ch.Residues {
		if r.EntityType != EntityUnknown && r.EntityType != EntityPolymer {
			limit = i
			break
		}
	}
	lastPoly := -1
	for i := 0; i < limit; i++ {
		r := &ch.Residues[i]
		if IsWater(r.Name) {
			continue
		}
		if !r.Het || IsPolymerResidue(r.Name) || r.EntityType == EntityPolymer {
			lastPoly = i
		}
	}
	for i := range ch.Residues {
		r := &ch.Residues[i]
		if r.EntityType != EntityUnknown {
			continue
		}
		switch {
		case IsWater(r.Name):
			r.EntityType = EntityWater
		case i <= lastPoly:
			r.EntityType = EntityPolymer
		default:
			r.EntityType = EntityNonPolymer
		}
	}
}

// assignSubchains gives names to residues without a subchain.
// Polymer gets chain+"xp", water chain+"w" and each ligand its own
// numbered subchain.
func assignSubchains(ch *Chain) {
	nonPoly := 0
	for i := range ch.Residues {
		r := &ch.Residues[i]
		if r.Subchain != "" {
			continue
		}
		switch r.EntityType {
		case EntityPolymer:
			r.Subchain = ch.Name + "xp"
		case EntityWater:
			r.Subchain = ch.Name + "w"
		default:
			nonPoly++
			r.Subchain = ch.Name + "x" + strconv.Itoa(nonPoly)
		}
	}
}

// subchainRuns splits a chain into runs of residues with the same subchain.
func subchainRuns(ch *Chain) []ResidueSpan {
	var runs []ResidueSpan
	start := 0
	for i := 1; i <= len(ch.Residues); i++ {
		if i == len(ch.Residues) || ch.Residues[i].Subchain != ch.Residues[start].Subchain {
			runs = append(runs, ResidueSpan(ch.Residues[start:i]))
			start = i
		}
	}
	return runs
}

func (st *Structure) freeEntityName() string {
	for n := len(st.Entities) + 1; ; n++ {
		s := strconv.Itoa(n)
		if st.FindEntity(s) == nil {
			return s
		}
	}
}

// ensureEntities looks at the first model and makes sure each subchain
// has an entity. A polymer entity which came from SEQRES has the chain's
// name and no subchains yet.
func ensureEntities(st *Structure) {
	mdl := st.FirstModel()
	if mdl == nil {
		return
	}
	ligands := make(map[string]string) // residue name -> entity name
	var water string
	for _, e := range st.Entities {
		if e.EntityType == EntityWater {
			water = e.Name
		}
	}
	for ic := range mdl.Chains {
		ch := &mdl.Chains[ic]
		for _, run := range subchainRuns(ch) {
			if len(run) == 0 || st.EntityOf(run) != nil {
				continue
			}
			sub := run.Subchain()
			switch run[0].EntityType {
			case EntityPolymer:
				if e := st.FindEntity(ch.Name); e != nil && e.EntityType == EntityPolymer && len(e.Subchains) == 0 {
					e.Subchains = append(e.Subchains, sub)
					if e.PolymerType == PolyUnknown {
						e.PolymerType = GuessPolymerType(e.FullSequence)
					}
					continue
				}
				st.Entities = append(st.Entities, Entity{
					Name:        st.freeEntityName(),
					Subchains:   []string{sub},
					EntityType:  EntityPolymer,
					PolymerType: GuessPolymerType(run.ExtractSequence()),
				})
			case EntityWater:
				if water == "" {
					water = st.freeEntityName()
					st.Entities = append(st.Entities, Entity{Name: water, EntityType: EntityWater})
				}
				e := st.FindEntity(water)
				e.Subchains = append(e.Subchains, sub)
			default:
				name, ok := ligands[run[0].Name]
				if !ok {
					name = st.freeEntityName()
					ligands[run[0].Name] = name
					st.Entities = append(st.Entities, Entity{Name: name, EntityType: run[0].EntityType})
				}
				e := st.FindEntity(name)
				e.Subchains = append(e.Subchains, sub)
			}
		}
	}
}

func sameSequence(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// deduplicateEntities merges polymer entities with the same, non-empty
// sequence.
func deduplicateEntities(st *Structure) {
	for i := 0; i < len(st.Entities); i++ {
		ei := &st.Entities[i]
		if ei.EntityType != EntityPolymer || len(ei.FullSequence) == 0 {
			continue
		}
		for j := i + 1; j < len(st.Entities); {
			ej := &st.Entities[j]
			if ej.EntityType == EntityPolymer && ej.PolymerType == ei.PolymerType &&
				sameSequence(ei.FullSequence, ej.FullSequence) {
				ei.Subchains = append(ei.Subchains, ej.Subchains...)
				st.Entities = append(st.Entities[:j], st.Entities[j+1:]...)
				ei = &st.Entities[i]
				continue
			}
			j++
		}
	}
}

// renumberEntities calls the entities 1, 2, 3 ...
func renumberEntities(st *Structure) {
	for i := range st.Entities {
		st.Entities[i].Name = strconv.Itoa(i + 1)
	}
}
