package mmcif

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/andrew-torda/dsspconv/pdb/cmmn"
)

// OutputGroups says which categories UpdateBlock writes.
// AuthAll adds author residue and atom names next to the label ones in
// _atom_site and the categories that give residue ranges.
type OutputGroups struct {
	Entry   bool // _entry
	Info    bool // _struct, _struct_keywords, _exptl, ...
	Cell    bool // _cell and _symmetry
	Entity  bool // _entity, _entity_poly, _entity_poly_seq
	Asym    bool // _struct_asym
	Atoms   bool // _atom_site
	Conf    bool // _struct_conf (helices)
	Sheets  bool // _struct_sheet and friends
	Conn    bool // _struct_conn
	CisPep  bool // _struct_mon_prot_cis
	AuthAll bool
}

// NewOutputGroups sets every group on or off. AuthAll is left off.
func NewOutputGroups(all bool) OutputGroups {
	return OutputGroups{
		Entry: all, Info: all, Cell: all, Entity: all, Asym: all,
		Atoms: all, Conf: all, Sheets: all, Conn: all, CisPep: all,
	}
}

// tableBuilder collects a loop row by row. The tags are taken from the
// first row, so every row must add the same columns in the same order.
type tableBuilder struct {
	tags []string
	rows [][]string
	cur  []string
}

func (tb *tableBuilder) add(tag, val string) {
	if len(tb.rows) == 0 {
		tb.tags = append(tb.tags, tag)
	}
	tb.cur = append(tb.cur, val)
}

func (tb *tableBuilder) endRow() {
	tb.rows = append(tb.rows, tb.cur)
	tb.cur = nil
}

func (tb *tableBuilder) setIn(b *Block, cat string) { b.SetLoop(cat, tb.tags, tb.rows) }

// ridTags are the column names for a residue in one category
type ridTags struct {
	labelComp, labelAsym, labelSeq, ins, authComp, authAsym, authSeq string
}

// prefixed gives names like beg_label_comp_id
func prefixed(p, ins string) ridTags {
	return ridTags{
		p + "label_comp_id", p + "label_asym_id", p + "label_seq_id", ins,
		p + "auth_comp_id", p + "auth_asym_id", p + "auth_seq_id",
	}
}

// suffixed gives names like pdbx_label_comp_id_2
func suffixed(s string) ridTags {
	return ridTags{
		"pdbx_label_comp_id" + s, "pdbx_label_asym_id" + s, "pdbx_label_seq_id" + s,
		"pdbx_PDB_ins_code" + s,
		"pdbx_auth_comp_id" + s, "pdbx_auth_asym_id" + s, "pdbx_auth_seq_id" + s,
	}
}

// label is where a residue sits in label (mmcif) numbering
type label struct {
	sub string
	seq int
}

type updater struct {
	st      *cmmn.Structure
	authAll bool
	labels  map[cmmn.ResidueID]label
}

func orNull(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func insCode(c byte) string {
	if c == ' ' || c == 0 {
		return "?"
	}
	return string(c)
}

func seqOrDot(n int) string {
	if n == 0 {
		return "."
	}
	return strconv.Itoa(n)
}

func ftoa(x float64, prec int) string { return strconv.FormatFloat(x, 'f', prec, 64) }

// labelSeqs numbers the polymer residues of a chain from 1. A residue
// keeps the number it came with. Microheterogeneity shares a number.
func labelSeqs(ch *cmmn.Chain) []int {
	ret := make([]int, len(ch.Residues))
	n := 0
	var prev *cmmn.Residue
	for i := range ch.Residues {
		r := &ch.Residues[i]
		if r.EntityType != cmmn.EntityPolymer {
			continue
		}
		if prev == nil || prev.SeqID != r.SeqID || prev.Subchain != r.Subchain {
			n++
		}
		prev = r
		if r.LabelSeq > 0 {
			n = r.LabelSeq
		}
		ret[i] = n
	}
	return ret
}

func subchainOf(ch *cmmn.Chain, r *cmmn.Residue) string {
	if r.Subchain != "" {
		return r.Subchain
	}
	return ch.Name
}

func newUpdater(st *cmmn.Structure, authAll bool) *updater {
	u := &updater{st: st, authAll: authAll, labels: make(map[cmmn.ResidueID]label)}
	if m := st.FirstModel(); m != nil {
		for ic := range m.Chains {
			ch := &m.Chains[ic]
			seqs := labelSeqs(ch)
			for ir := range ch.Residues {
				r := &ch.Residues[ir]
				id := cmmn.ResidueID{Chain: ch.Name, SeqID: r.SeqID, Name: r.Name}
				if _, ok := u.labels[id]; !ok {
					u.labels[id] = label{sub: subchainOf(ch, r), seq: seqs[ir]}
				}
			}
		}
	}
	return u
}

// residue adds the columns for one residue
func (u *updater) residue(tb *tableBuilder, t ridTags, r cmmn.ResidueID) {
	lb, ok := u.labels[r]
	if !ok {
		lb.sub = r.Chain
	}
	tb.add(t.labelComp, orNull(r.Name))
	tb.add(t.labelAsym, orNull(lb.sub))
	tb.add(t.labelSeq, seqOrDot(lb.seq))
	tb.add(t.ins, insCode(r.SeqID.ICode))
	if u.authAll {
		tb.add(t.authComp, orNull(r.Name))
	}
	tb.add(t.authAsym, r.Chain)
	tb.add(t.authSeq, strconv.Itoa(r.SeqID.Num))
}

// UpdateBlock writes a structure into a block. Each category in the
// chosen groups is replaced, or removed if the structure has nothing
// for it. Other categories are not touched.
func UpdateBlock(st *cmmn.Structure, b *Block, groups OutputGroups) {
	if b.Name == "" {
		b.Name = blockName(st.Name)
	}
	u := newUpdater(st, groups.AuthAll)
	if groups.Entry {
		id := st.Name
		if id == "" {
			id = st.GetInfo(cmmn.InfoEntryID)
		}
		b.SetPair(cmmn.InfoEntryID, orNull(id))
	}
	if groups.Cell {
		u.cell(b)
	}
	if groups.Entity {
		u.entities(b)
	}
	if groups.Info {
		u.info(b)
	}
	if groups.Asym {
		u.asym(b)
	}
	if groups.Conf {
		u.helices(b)
	}
	if groups.Sheets {
		u.sheets(b)
	}
	if groups.Conn {
		u.connections(b)
	}
	if groups.CisPep {
		u.cispeps(b)
	}
	if groups.Atoms {
		u.atoms(b)
	}
}

// blockName makes a name that can follow data_
func blockName(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Join(strings.Fields(s), "_")
}

// WriteStructure writes a structure as a new mmcif file
func WriteStructure(w io.Writer, st *cmmn.Structure, groups OutputGroups) error {
	doc := &Document{Blocks: []Block{{Name: blockName(st.Name)}}}
	UpdateBlock(st, &doc.Blocks[0], groups)
	return Write(w, doc)
}

func (u *updater) cell(b *Block) {
	c := u.st.Cell
	if !c.IsSet() {
		b.RemoveCategory("_cell")
		b.RemoveCategory("_symmetry")
		return
	}
	var tb tableBuilder
	tb.add("entry_id", orNull(u.st.Name))
	tb.add("length_a", ftoa(c.A, 3))
	tb.add("length_b", ftoa(c.B, 3))
	tb.add("length_c", ftoa(c.C, 3))
	tb.add("angle_alpha", ftoa(c.Alpha, 2))
	tb.add("angle_beta", ftoa(c.Beta, 2))
	tb.add("angle_gamma", ftoa(c.Gamma, 2))
	tb.endRow()
	tb.setIn(b, "_cell")
	if u.st.SpacegroupHM == "" {
		b.RemoveCategory("_symmetry")
		return
	}
	b.SetLoop("_symmetry", []string{"entry_id", "space_group_name_H-M"},
		[][]string{{orNull(u.st.Name), u.st.SpacegroupHM}})
}

func (u *updater) entities(b *Block) {
	var ent, poly, seq tableBuilder
	for _, e := range u.st.Entities {
		ent.add("id", e.Name)
		ent.add("type", e.EntityType.String())
		ent.endRow()
		if e.EntityType != cmmn.EntityPolymer {
			continue
		}
		if e.PolymerType != cmmn.PolyUnknown {
			poly.add("entity_id", e.Name)
			poly.add("type", e.PolymerType.String())
			poly.endRow()
		}
		for i, mon := range e.FullSequence {
			seq.add("entity_id", e.Name)
			seq.add("num", strconv.Itoa(i+1))
			seq.add("mon_id", mon)
			seq.add("hetero", "n")
			seq.endRow()
		}
	}
	ent.setIn(b, "_entity")
	poly.setIn(b, "_entity_poly")
	seq.setIn(b, "_entity_poly_seq")
}

// info writes everything in Info except _entry, which has its own group.
// Tags are sorted so the output does not depend on map order.
func (u *updater) info(b *Block) {
	tags := make([]string, 0, len(u.st.Info))
	for t := range u.st.Info {
		if category(t) != "_entry" {
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	for _, t := range tags {
		b.SetPair(t, u.st.Info[t])
	}
}

func (u *updater) asym(b *Block) {
	var tb tableBuilder
	for _, e := range u.st.Entities {
		for _, sub := range e.Subchains {
			tb.add("id", sub)
			tb.add("entity_id", e.Name)
			tb.endRow()
		}
	}
	tb.setIn(b, "_struct_asym")
}

// confTypes goes from helix class to the conformation code
var confTypes = map[int]string{
	cmmn.HelixRightAlpha: "HELX_RH_AL_P",
	cmmn.HelixRight310:   "HELX_RH_3T_P",
	cmmn.HelixRightPi:    "HELX_RH_PI_P",
	cmmn.HelixPolyPro:    "HELX_LH_PP_P",
}

func confType(class int) string {
	if s, ok := confTypes[class]; ok {
		return s
	}
	return "HELX_P"
}

func (u *updater) helices(b *Block) {
	var conf, ctype tableBuilder
	seen := make(map[string]bool)
	for i, h := range u.st.Helices {
		ct := confType(h.Class)
		conf.add("conf_type_id", ct)
		conf.add("id", ct+strconv.Itoa(i+1))
		conf.add("pdbx_PDB_helix_id", strconv.Itoa(i+1))
		u.residue(&conf, prefixed("beg_", "pdbx_beg_PDB_ins_code"), h.Start)
		u.residue(&conf, prefixed("end_", "pdbx_end_PDB_ins_code"), h.End)
		conf.add("pdbx_PDB_helix_class", strconv.Itoa(h.Class))
		length := "?"
		if h.Length >= 0 {
			length = strconv.Itoa(h.Length)
		}
		conf.add("pdbx_PDB_helix_length", length)
		conf.endRow()
		if !seen[ct] {
			seen[ct] = true
			ctype.add("id", ct)
			ctype.add("criteria", "DSSP")
			ctype.endRow()
		}
	}
	conf.setIn(b, "_struct_conf")
	ctype.setIn(b, "_struct_conf_type")
}

func senseString(s int) string {
	switch s {
	case cmmn.SenseParallel:
		return "parallel"
	case cmmn.SenseAntiParal:
		return "anti-parallel"
	}
	return "?"
}

// hbondAtom adds one side of a registration
func (u *updater) hbondAtom(tb *tableBuilder, side string, a cmmn.AtomAddress) {
	p := "range_" + side + "_"
	tb.add(p+"label_atom_id", orNull(a.Atom))
	if u.authAll {
		tb.add(p+"auth_atom_id", orNull(a.Atom))
	}
	u.residue(tb, prefixed(p, p+"PDB_ins_code"), a.ResidueID)
}

func (u *updater) sheets(b *Block) {
	var sheet, order, rng, hbond tableBuilder
	for _, sh := range u.st.Sheets {
		sheet.add("id", sh.Name)
		sheet.add("number_strands", strconv.Itoa(len(sh.Strands)))
		sheet.endRow()
		for i, s := range sh.Strands {
			id := strconv.Itoa(i + 1)
			rng.add("sheet_id", sh.Name)
			rng.add("id", id)
			u.residue(&rng, prefixed("beg_", "pdbx_beg_PDB_ins_code"), s.Start)
			u.residue(&rng, prefixed("end_", "pdbx_end_PDB_ins_code"), s.End)
			rng.endRow()
			if i == 0 {
				continue
			}
			if s.Sense != cmmn.SenseFirst {
				order.add("sheet_id", sh.Name)
				order.add("range_id_1", strconv.Itoa(i))
				order.add("range_id_2", id)
				order.add("sense", senseString(s.Sense))
				order.endRow()
			}
			if s.Hbond0.Atom != "" {
				hbond.add("sheet_id", sh.Name)
				hbond.add("range_id_1", strconv.Itoa(i))
				hbond.add("range_id_2", id)
				u.hbondAtom(&hbond, "1", s.Hbond1)
				u.hbondAtom(&hbond, "2", s.Hbond0)
				hbond.endRow()
			}
		}
	}
	sheet.setIn(b, "_struct_sheet")
	order.setIn(b, "_struct_sheet_order")
	rng.setIn(b, "_struct_sheet_range")
	hbond.setIn(b, "_pdbx_struct_sheet_hbond")
}

func altOrDot(c byte) string {
	if c == 0 || c == ' ' {
		return "?"
	}
	return string(c)
}

func (u *updater) connections(b *Block) {
	var tb tableBuilder
	count := make(map[cmmn.ConnectionType]int)
	for _, c := range u.st.Connections {
		count[c.Type]++
		name := c.Name
		if name == "" {
			name = c.Type.String() + strconv.Itoa(count[c.Type])
		}
		tb.add("id", name)
		tb.add("conn_type_id", c.Type.String())
		for _, p := range []struct {
			pre string
			a   cmmn.AtomAddress
			sym string
		}{{"ptnr1", c.Partner1, c.Sym1}, {"ptnr2", c.Partner2, c.Sym2}} {
			u.residue(&tb, prefixed(p.pre+"_", "pdbx_"+p.pre+"_PDB_ins_code"), p.a.ResidueID)
			tb.add(p.pre+"_label_atom_id", orNull(p.a.Atom))
			tb.add("pdbx_"+p.pre+"_label_alt_id", altOrDot(p.a.AltLoc))
			tb.add(p.pre+"_symmetry", orNull(p.sym))
		}
		tb.add("pdbx_dist_value", ftoa(c.Length, 3))
		tb.endRow()
	}
	tb.setIn(b, "_struct_conn")
}

func (u *updater) cispeps(b *Block) {
	var tb tableBuilder
	for i, c := range u.st.CisPeps {
		tb.add("pdbx_id", strconv.Itoa(i+1))
		u.residue(&tb, prefixed("", "pdbx_PDB_ins_code"), c.Partner1)
		u.residue(&tb, suffixed("_2"), c.Partner2)
		tb.add("pdbx_PDB_model_num", orNull(c.Model))
		tb.add("pdbx_omega_angle", ftoa(c.Omega, 2))
		tb.endRow()
	}
	tb.setIn(b, "_struct_mon_prot_cis")
}

func chargeString(c int8) string {
	if c == 0 {
		return "?"
	}
	return strconv.Itoa(int(c))
}

// atoms writes _atom_site for all models. Atoms are numbered from 1.
func (u *updater) atoms(b *Block) {
	var tb tableBuilder
	serial := 0
	for im := range u.st.Models {
		m := &u.st.Models[im]
		for ic := range m.Chains {
			ch := &m.Chains[ic]
			seqs := labelSeqs(ch)
			for ir := range ch.Residues {
				r := &ch.Residues[ir]
				group := "ATOM"
				if r.Het {
					group = "HETATM"
				}
				entity := "?"
				if e := u.st.EntityOfSubchain(r.Subchain); e != nil {
					entity = e.Name
				}
				for _, a := range r.Atoms {
					serial++
					tb.add("group_PDB", group)
					tb.add("id", strconv.Itoa(serial))
					tb.add("type_symbol", orNull(a.Element))
					tb.add("label_atom_id", a.Name)
					tb.add("label_alt_id", altOrDot(a.AltLoc))
					tb.add("label_comp_id", r.Name)
					tb.add("label_asym_id", subchainOf(ch, r))
					tb.add("label_entity_id", entity)
					tb.add("label_seq_id", seqOrDot(seqs[ir]))
					tb.add("pdbx_PDB_ins_code", insCode(r.SeqID.ICode))
					tb.add("Cartn_x", ftoa(a.Pos.X, 3))
					tb.add("Cartn_y", ftoa(a.Pos.Y, 3))
					tb.add("Cartn_z", ftoa(a.Pos.Z, 3))
					tb.add("occupancy", ftoa(float64(a.Occ), 2))
					tb.add("B_iso_or_equiv", ftoa(float64(a.B), 2))
					tb.add("pdbx_formal_charge", chargeString(a.Charge))
					tb.add("auth_seq_id", strconv.Itoa(r.SeqID.Num))
					if u.authAll {
						tb.add("auth_comp_id", r.Name)
					}
					tb.add("auth_asym_id", ch.Name)
					if u.authAll {
						tb.add("auth_atom_id", a.Name)
					}
					tb.add("pdbx_PDB_model_num", m.Name)
					tb.endRow()
				}
			}
		}
	}
	tb.setIn(b, "_atom_site")
}
