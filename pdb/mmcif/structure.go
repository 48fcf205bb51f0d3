package mmcif

import (
	"errors"
	"strconv"
	"strings"

	"github.com/andrew-torda/dsspconv/pdb/cmmn"
)

// ErrNoAtoms is returned if a block has no _atom_site
var ErrNoAtoms = errors.New("no _atom_site records found")

// infoCategories are copied into Structure.Info, if they are pairs.
var infoCategories = []string{
	"_entry", "_struct", "_struct_keywords", "_exptl", "_refine",
	"_reflns", "_pdbx_database_status",
}

// helixClasses maps the conformation codes used by DSSP to PDB helix classes
var helixClasses = map[string]int{
	"HELX_RH_AL_P": cmmn.HelixRightAlpha,
	"HELX_RH_3T_P": cmmn.HelixRight310,
	"HELX_RH_PI_P": cmmn.HelixRightPi,
	"HELX_LH_PP_P": cmmn.HelixPolyPro,
}

// atoi turns a value into an int, with nulls as zero
func atoi(s string) (int, error) {
	if IsNull(s) {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func atof(s string) (float64, error) {
	if IsNull(s) {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// icode turns an insertion code value into a byte
func icode(s string) byte {
	if IsNull(s) {
		return ' '
	}
	return s[0]
}

// auth returns a column with auth in its name, falling back to the
// label version if the auth column is missing or null. An empty auth
// value, like a blank pdb chain, is kept.
func (t *Table) auth(row int, tag string) string {
	if s, ok := t.Lookup(row, tag); ok {
		return s
	}
	return t.Get(row, strings.Replace(tag, "auth", "label", 1))
}

// residueID reads a residue from a row. The names are of the auth columns
func (t *Table) residueID(row int, comp, asym, seq, ins string) (cmmn.ResidueID, error) {
	var r cmmn.ResidueID
	var err error
	r.Name = t.auth(row, comp)
	r.Chain = t.auth(row, asym)
	if r.SeqID.Num, err = atoi(t.auth(row, seq)); err != nil {
		return r, t.itemError(row, seq, err)
	}
	r.SeqID.ICode = icode(t.Get(row, ins))
	return r, nil
}

// MakeStructure reads the first block of a document.
func MakeStructure(doc *Document) (*cmmn.Structure, error) {
	b := doc.Sole()
	if b == nil {
		return nil, errors.New("empty document")
	}
	return MakeStructureBlock(b)
}

// MakeStructureBlock builds a structure from a block
func MakeStructureBlock(b *Block) (*cmmn.Structure, error) {
	st := cmmn.New(b.Name)
	if id, ok := b.Find("_entry.id"); ok && !IsNull(id) {
		st.Name = id
	}
	readInfo(b, st)
	if err := readCell(b, st); err != nil {
		return nil, err
	}
	entityTypes := readEntities(b, st)
	if err := readAtoms(b, st, entityTypes); err != nil {
		return nil, err
	}
	steps := []func(*Block, *cmmn.Structure) error{
		readHelices, readSheets, readConnections, readCisPeps,
	}
	for _, f := range steps {
		if err := f(b, st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func readInfo(b *Block, st *cmmn.Structure) {
	for _, cat := range infoCategories {
		t := b.Table(cat)
		if t.Len() != 1 {
			continue
		}
		for i, tag := range t.Tags {
			if v := t.Rows[0][i]; !IsNull(v) {
				st.SetInfo(cat+"."+tag, v)
			}
		}
	}
}

func readCell(b *Block, st *cmmn.Structure) error {
	t := b.Table("_cell")
	if t.Len() > 0 {
		u := &st.Cell
		for _, f := range []struct {
			p   *float64
			tag string
		}{
			{&u.A, "length_a"}, {&u.B, "length_b"}, {&u.C, "length_c"},
			{&u.Alpha, "angle_alpha"}, {&u.Beta, "angle_beta"}, {&u.Gamma, "angle_gamma"},
		} {
			var err error
			if *f.p, err = atof(t.Get(0, f.tag)); err != nil {
				return t.itemError(0, f.tag, err)
			}
		}
	}
	if sg, ok := b.Find("_symmetry.space_group_name_H-M"); ok && !IsNull(sg) {
		st.SpacegroupHM = sg
	}
	return nil
}

// readEntities fills in entities and returns the type of each, by id
func readEntities(b *Block, st *cmmn.Structure) map[string]cmmn.EntityType {
	types := make(map[string]cmmn.EntityType)
	t := b.Table("_entity")
	for i := 0; i < t.Len(); i++ {
		e := cmmn.Entity{
			Name:       t.Get(i, "id"),
			EntityType: cmmn.EntityTypeFromString(t.Get(i, "type")),
		}
		types[e.Name] = e.EntityType
		st.Entities = append(st.Entities, e)
	}
	poly := b.Table("_entity_poly")
	for i := 0; i < poly.Len(); i++ {
		if e := st.FindEntity(poly.Get(i, "entity_id")); e != nil {
			e.PolymerType = cmmn.PolymerTypeFromString(poly.Get(i, "type"))
		}
	}
	seq := b.Table("_entity_poly_seq")
	lastNum := make(map[string]string)
	for i := 0; i < seq.Len(); i++ {
		id, num := seq.Get(i, "entity_id"), seq.Get(i, "num")
		e := st.FindEntity(id)
		if e == nil || lastNum[id] == num { // keep the first of microheterogeneity
			continue
		}
		lastNum[id] = num
		e.FullSequence = append(e.FullSequence, seq.Get(i, "mon_id"))
	}
	asym := b.Table("_struct_asym")
	for i := 0; i < asym.Len(); i++ {
		if e := st.FindEntity(asym.Get(i, "entity_id")); e != nil {
			e.Subchains = append(e.Subchains, asym.Get(i, "id"))
		}
	}
	return types
}

// atomCols are the column numbers in _atom_site, -1 if missing.
type atomCols struct {
	group, symbol, atom, alt, comp, asym, entity, seq, ins int
	x, y, z, occ, b, charge, authSeq, authComp, authAsym, authAtom, model int
}

func newAtomCols(t *Table) atomCols {
	return atomCols{
		group: t.Col("group_PDB"), symbol: t.Col("type_symbol"),
		atom: t.Col("label_atom_id"), alt: t.Col("label_alt_id"),
		comp: t.Col("label_comp_id"), asym: t.Col("label_asym_id"),
		entity: t.Col("label_entity_id"), seq: t.Col("label_seq_id"),
		ins: t.Col("pdbx_PDB_ins_code"),
		x:   t.Col("Cartn_x"), y: t.Col("Cartn_y"), z: t.Col("Cartn_z"),
		occ: t.Col("occupancy"), b: t.Col("B_iso_or_equiv"),
		charge: t.Col("pdbx_formal_charge"), authSeq: t.Col("auth_seq_id"),
		authComp: t.Col("auth_comp_id"), authAsym: t.Col("auth_asym_id"),
		authAtom: t.Col("auth_atom_id"), model: t.Col("pdbx_PDB_model_num"),
	}
}

// value returns a column of a row. Missing columns and nulls are "".
func value(row []string, col int) string {
	if col == -1 || col >= len(row) || IsNull(row[col]) {
		return ""
	}
	return row[col]
}

// prefer returns the value of the first column that is there and not
// ? or . so an empty auth_asym_id beats label_asym_id.
func prefer(row []string, cols ...int) string {
	for _, c := range cols {
		if c == -1 || c >= len(row) || row[c] == "?" || row[c] == "." {
			continue
		}
		return row[c]
	}
	return ""
}

// atomBuilder puts atoms into models, chains and residues as they come
type atomBuilder struct {
	st    *cmmn.Structure
	model *cmmn.Model
	types map[string]cmmn.EntityType
	subs  map[string]string // subchain to entity id
	order []string          // subchains in the order seen
}

func (ab *atomBuilder) setModel(name string) {
	if ab.model != nil && ab.model.Name == name {
		return
	}
	for i := range ab.st.Models {
		if ab.st.Models[i].Name == name {
			ab.model = &ab.st.Models[i]
			return
		}
	}
	ab.st.Models = append(ab.st.Models, cmmn.Model{Name: name})
	ab.model = &ab.st.Models[len(ab.st.Models)-1]
}

func (ab *atomBuilder) chain(name string) *cmmn.Chain {
	m := ab.model
	if n := len(m.Chains); n > 0 && m.Chains[n-1].Name == name {
		return &m.Chains[n-1]
	}
	if ch := m.FindChain(name); ch != nil {
		return ch
	}
	m.Chains = append(m.Chains, cmmn.Chain{Name: name})
	return &m.Chains[len(m.Chains)-1]
}

func readAtoms(b *Block, st *cmmn.Structure, types map[string]cmmn.EntityType) error {
	t := b.Table("_atom_site")
	if t.Len() == 0 {
		return ErrNoAtoms
	}
	c := newAtomCols(t)
	if c.x == -1 || c.y == -1 || c.z == -1 {
		return errors.New("_atom_site has no coordinates")
	}
	ab := &atomBuilder{st: st, types: types, subs: make(map[string]string)}
	for i := range t.Rows {
		if err := ab.add(t, i, c); err != nil {
			return err
		}
	}
	ab.linkSubchains()
	return nil
}

// linkSubchains adds subchains to entities, for files without
// _struct_asym.
func (ab *atomBuilder) linkSubchains() {
	for _, sub := range ab.order {
		if ab.st.EntityOfSubchain(sub) != nil {
			continue
		}
		if e := ab.st.FindEntity(ab.subs[sub]); e != nil {
			e.Subchains = append(e.Subchains, sub)
		}
	}
}

func (ab *atomBuilder) add(t *Table, i int, c atomCols) error {
	row := t.Rows[i]
	var a cmmn.Atom
	var err error
	model := value(row, c.model)
	if model == "" {
		model = "1"
	}
	ab.setModel(model)

	a.Name = prefer(row, c.authAtom, c.atom)
	if s := value(row, c.alt); s != "" {
		a.AltLoc = s[0]
	}
	a.Element = value(row, c.symbol)
	if a.Pos.X, err = atof(row[c.x]); err != nil {
		return t.itemError(i, "Cartn_x", err)
	}
	if a.Pos.Y, err = atof(row[c.y]); err != nil {
		return t.itemError(i, "Cartn_y", err)
	}
	if a.Pos.Z, err = atof(row[c.z]); err != nil {
		return t.itemError(i, "Cartn_z", err)
	}
	a.Occ = 1
	if s := value(row, c.occ); s != "" {
		o, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return t.itemError(i, "occupancy", err)
		}
		a.Occ = float32(o)
	}
	if s := value(row, c.b); s != "" {
		bf, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return t.itemError(i, "B_iso_or_equiv", err)
		}
		a.B = float32(bf)
	}
	if s := value(row, c.charge); s != "" {
		ch, err := strconv.Atoi(s)
		if err != nil {
			return t.itemError(i, "pdbx_formal_charge", err)
		}
		a.Charge = int8(ch)
	}

	var seq cmmn.SeqID
	if seq.Num, err = atoi(prefer(row, c.authSeq, c.seq)); err != nil {
		return t.itemError(i, "auth_seq_id", err)
	}
	seq.ICode = icode(value(row, c.ins))
	resName := prefer(row, c.authComp, c.comp)
	sub := value(row, c.asym)
	if _, ok := ab.subs[sub]; !ok && sub != "" {
		ab.subs[sub] = value(row, c.entity)
		ab.order = append(ab.order, sub)
	}
	ch := ab.chain(prefer(row, c.authAsym, c.asym))
	n := len(ch.Residues)
	if n == 0 || ch.Residues[n-1].SeqID != seq || ch.Residues[n-1].Name != resName ||
		ch.Residues[n-1].Subchain != sub {
		r := cmmn.Residue{
			Name:       resName,
			SeqID:      seq,
			Subchain:   sub,
			EntityType: ab.types[value(row, c.entity)],
			Het:        value(row, c.group) == "HETATM",
		}
		if r.LabelSeq, err = atoi(value(row, c.seq)); err != nil {
			return t.itemError(i, "label_seq_id", err)
		}
		ch.Residues = append(ch.Residues, r)
		n++
	}
	ch.Residues[n-1].Atoms = append(ch.Residues[n-1].Atoms, a)
	return nil
}

// readHelices reads helices from _struct_conf. Strands and turns written
// there by DSSP are skipped, since sheets come from _struct_sheet_range.
func readHelices(b *Block, st *cmmn.Structure) error {
	t := b.Table("_struct_conf")
	for i := 0; i < t.Len(); i++ {
		ctype := t.Get(i, "conf_type_id")
		if !strings.HasPrefix(strings.ToUpper(ctype), "HELX") {
			continue
		}
		var h cmmn.Helix
		var err error
		if h.Start, err = t.residueID(i, "beg_auth_comp_id", "beg_auth_asym_id",
			"beg_auth_seq_id", "pdbx_beg_PDB_ins_code"); err != nil {
			return err
		}
		if h.End, err = t.residueID(i, "end_auth_comp_id", "end_auth_asym_id",
			"end_auth_seq_id", "pdbx_end_PDB_ins_code"); err != nil {
			return err
		}
		if s := t.Get(i, "pdbx_PDB_helix_class"); s != "" {
			if h.Class, err = strconv.Atoi(s); err != nil {
				return t.itemError(i, "pdbx_PDB_helix_class", err)
			}
		} else {
			h.Class = helixClasses[strings.ToUpper(ctype)]
		}
		h.Length = -1
		if s := t.Get(i, "pdbx_PDB_helix_length"); s != "" {
			if h.Length, err = strconv.Atoi(s); err != nil {
				return t.itemError(i, "pdbx_PDB_helix_length", err)
			}
		}
		st.Helices = append(st.Helices, h)
	}
	return nil
}

// hbondAtom reads one side of a _pdbx_struct_sheet_hbond row
func hbondAtom(t *Table, row int, side string) (cmmn.AtomAddress, error) {
	var a cmmn.AtomAddress
	var err error
	p := "range_" + side + "_"
	a.Atom = t.auth(row, p+"auth_atom_id")
	a.ResidueID, err = t.residueID(row, p+"auth_comp_id", p+"auth_asym_id",
		p+"auth_seq_id", p+"PDB_ins_code")
	return a, err
}

// readSheets reads _struct_sheet_range for the strands. Sense comes from
// _struct_sheet_order. If a strand has no entry there, its sense stays 0.
func readSheets(b *Block, st *cmmn.Structure) error {
	type key struct{ sheet, strand string }
	where := make(map[key][2]int) // sheet index, strand index
	sheetIdx := make(map[string]int)
	t := b.Table("_struct_sheet_range")
	for i := 0; i < t.Len(); i++ {
		var s cmmn.Strand
		var err error
		if s.Start, err = t.residueID(i, "beg_auth_comp_id", "beg_auth_asym_id",
			"beg_auth_seq_id", "pdbx_beg_PDB_ins_code"); err != nil {
			return err
		}
		if s.End, err = t.residueID(i, "end_auth_comp_id", "end_auth_asym_id",
			"end_auth_seq_id", "pdbx_end_PDB_ins_code"); err != nil {
			return err
		}
		name := t.Get(i, "sheet_id")
		si, ok := sheetIdx[name]
		if !ok {
			st.Sheets = append(st.Sheets, cmmn.Sheet{Name: name})
			si = len(st.Sheets) - 1
			sheetIdx[name] = si
		}
		st.Sheets[si].Strands = append(st.Sheets[si].Strands, s)
		where[key{name, t.Get(i, "id")}] = [2]int{si, len(st.Sheets[si].Strands) - 1}
	}
	strand := func(sheet, id string) *cmmn.Strand {
		w, ok := where[key{sheet, id}]
		if !ok {
			return nil
		}
		return &st.Sheets[w[0]].Strands[w[1]]
	}
	order := b.Table("_struct_sheet_order")
	for i := 0; i < order.Len(); i++ {
		s := strand(order.Get(i, "sheet_id"), order.Get(i, "range_id_2"))
		if s == nil {
			continue
		}
		switch strings.ToLower(order.Get(i, "sense")) {
		case "parallel":
			s.Sense = cmmn.SenseParallel
		case "anti-parallel":
			s.Sense = cmmn.SenseAntiParal
		}
	}
	hb := b.Table("_pdbx_struct_sheet_hbond")
	for i := 0; i < hb.Len(); i++ {
		s := strand(hb.Get(i, "sheet_id"), hb.Get(i, "range_id_2"))
		if s == nil {
			continue
		}
		var err error
		if s.Hbond0, err = hbondAtom(hb, i, "2"); err != nil {
			return err
		}
		if s.Hbond1, err = hbondAtom(hb, i, "1"); err != nil {
			return err
		}
	}
	return nil
}

// partner reads one end of a _struct_conn row
func partner(t *Table, row int, p string) (cmmn.AtomAddress, error) {
	var a cmmn.AtomAddress
	var err error
	a.ResidueID, err = t.residueID(row, p+"_auth_comp_id", p+"_auth_asym_id",
		p+"_auth_seq_id", "pdbx_"+p+"_PDB_ins_code")
	a.Atom = t.Get(row, p+"_label_atom_id")
	if s := t.Get(row, "pdbx_"+p+"_label_alt_id"); s != "" {
		a.AltLoc = s[0]
	}
	return a, err
}

func readConnections(b *Block, st *cmmn.Structure) error {
	t := b.Table("_struct_conn")
	for i := 0; i < t.Len(); i++ {
		c := cmmn.Connection{
			Name: t.Get(i, "id"),
			Type: cmmn.ConnectionTypeFromString(t.Get(i, "conn_type_id")),
			Sym1: t.Get(i, "ptnr1_symmetry"),
			Sym2: t.Get(i, "ptnr2_symmetry"),
		}
		var err error
		if c.Partner1, err = partner(t, i, "ptnr1"); err != nil {
			return err
		}
		if c.Partner2, err = partner(t, i, "ptnr2"); err != nil {
			return err
		}
		if c.Length, err = atof(t.Get(i, "pdbx_dist_value")); err != nil {
			return t.itemError(i, "pdbx_dist_value", err)
		}
		st.Connections = append(st.Connections, c)
	}
	return nil
}

func readCisPeps(b *Block, st *cmmn.Structure) error {
	t := b.Table("_struct_mon_prot_cis")
	for i := 0; i < t.Len(); i++ {
		var c cmmn.CisPep
		var err error
		if c.Partner1, err = t.residueID(i, "auth_comp_id", "auth_asym_id",
			"auth_seq_id", "pdbx_PDB_ins_code"); err != nil {
			return err
		}
		if c.Partner2, err = t.residueID(i, "pdbx_auth_comp_id_2", "pdbx_auth_asym_id_2",
			"pdbx_auth_seq_id_2", "pdbx_PDB_ins_code_2"); err != nil {
			return err
		}
		c.Model = t.Get(i, "pdbx_PDB_model_num")
		if c.Omega, err = atof(t.Get(i, "pdbx_omega_angle")); err != nil {
			return t.itemError(i, "pdbx_omega_angle", err)
		}
		st.CisPeps = append(st.CisPeps, c)
	}
	return nil
}
