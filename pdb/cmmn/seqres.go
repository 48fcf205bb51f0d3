package cmmn

// ApplySeqres fills in the sequence of polymer entities which do not
// have one (no SEQRES in the file and no sequence given). The sequence
// is taken from the residues of the chain's polymer. An entity with a
// sequence is never touched, so if two chains share an entity, the first
// chain wins and a second call changes nothing.
// It returns the number of entities which were filled.
func ApplySeqres(st *Structure) int {
	n := 0
	for im := range st.Models {
		for ic := range st.Models[im].Chains {
			polymer := st.Models[im].Chains[ic].Polymer()
			ent := st.EntityOf(polymer)
			if ent == nil || ent.EntityType != EntityPolymer || len(ent.FullSequence) != 0 {
				continue
			}
			ent.FullSequence = append(ent.FullSequence, polymer.ExtractSequence()...)
			if len(ent.FullSequence) > 0 {
				n++
			}
		}
	}
	return n
}
