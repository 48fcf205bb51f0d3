// Package oldfmt reads and writes structures in the old, fixed column
// pdb format.
// The reader keeps what we need to write the file back out again. That is
// coordinates, the header information, SEQRES, secondary structure,
// connections and cis peptides. REMARK lines are kept as they are.
// Everything else (COMPND, SOURCE, HET, ...) is dropped.
package oldfmt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andrew-torda/dsspconv/pdb/cmmn"
)

const (
	lineLen   = 80
	maxMsgLen = 70
)

// ErrNoAtoms is returned if there was nothing in the file that looked
// like coordinates.
var ErrNoAtoms = errors.New("no ATOM or HETATM records found")

// ParseError says which line we were on and what we did not like.
type ParseError struct {
	N      int    // line number
	Inline string // the line that provoked the error
	Err    error
}

func firstPart(s string) string {
	if len(s) > maxMsgLen {
		return s[:maxMsgLen]
	}
	return s
}

func (e *ParseError) Error() string {
	return "line " + strconv.Itoa(e.N) + ": " + e.Err.Error() +
		"\nLine starting with\n" + firstPart(e.Inline)
}

func (e *ParseError) Unwrap() error { return e.Err }

// col returns columns from..to of a line, counting from 1 as in the
// pdb format documentation. The line must have been padded.
func col(line string, from, to int) string {
	return line[from-1 : to]
}

func trimCol(line string, from, to int) string {
	return strings.TrimSpace(col(line, from, to))
}

func icode(c byte) byte {
	if c == 0 {
		return ' '
	}
	return c
}

func atoi(line string, from, to int) (int, error) {
	s := trimCol(line, from, to)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// atoiHybrid reads a number that may be in hybrid-36, as big files
// have for serials and residue numbers.
func atoiHybrid(line string, from, to int) (int, error) {
	return decodeHybrid36(to-from+1, col(line, from, to))
}

func atof(line string, from, to int) (float64, error) {
	s := trimCol(line, from, to)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// resid reads a chain, residue number and insertion code. The columns
// are given by the position of the residue name, since the layout
// is the same in HELIX, SHEET, SSBOND and CISPEP
func resid(line string, name, chain, seq int) (cmmn.ResidueID, error) {
	var r cmmn.ResidueID
	var err error
	r.Name = trimCol(line, name, name+2)
	r.Chain = trimCol(line, chain, chain)
	r.SeqID.Num, err = atoiHybrid(line, seq, seq+3)
	r.SeqID.ICode = icode(line[seq+3])
	return r, err
}

// reader holds the state while we go through a file
type reader struct {
	st       *cmmn.Structure
	model    *cmmn.Model
	afterTer map[string]bool // chains which have seen a TER in this model
	sheets   map[string]int  // sheet name to index
	title    []string
	keywds   []string
	natom    int
}

func newReader() *reader {
	return &reader{
		st:       cmmn.New(""),
		afterTer: make(map[string]bool),
		sheets:   make(map[string]int),
	}
}

// Read reads a pdb file. It returns an error if something is broken
// or if no atoms are found.
func Read(r io.Reader) (*cmmn.Structure, error) {
	rdr := newReader()
	scnr := bufio.NewScanner(r)
	scnr.Buffer(make([]byte, 0, 1024), 1024*1024)
	n := 0
	for scnr.Scan() {
		n++
		line := strings.TrimRight(scnr.Text(), "\r")
		if len(line) < 3 {
			continue
		}
		if len(line) < lineLen {
			line += strings.Repeat(" ", lineLen-len(line))
		}
		if err := rdr.line(line); err != nil {
			return nil, &ParseError{N: n, Inline: line, Err: err}
		}
		if strings.HasPrefix(line, "END   ") {
			break
		}
	}
	if err := scnr.Err(); err != nil {
		return nil, &ParseError{N: n, Err: err}
	}
	if rdr.natom == 0 {
		return nil, ErrNoAtoms
	}
	rdr.finish()
	return rdr.st, nil
}

// line is given one padded line and passes it to the right function
func (rdr *reader) line(line string) error {
	rec := strings.TrimSpace(line[:6])
	switch rec {
	case "ATOM", "HETATM":
		return rdr.atom(line, rec == "HETATM")
	case "HEADER":
		rdr.header(line)
	case "TITLE":
		rdr.title = append(rdr.title, trimCol(line, 11, 80))
	case "KEYWDS":
		rdr.keywds = append(rdr.keywds, trimCol(line, 11, 80))
	case "EXPDTA":
		rdr.st.SetInfo(cmmn.InfoMethod, trimCol(line, 11, 79))
	case "REMARK":
		rdr.st.RawRemarks = append(rdr.st.RawRemarks, strings.TrimRight(line, " "))
	case "SEQRES":
		rdr.seqres(line)
	case "HELIX":
		return rdr.helix(line)
	case "SHEET":
		return rdr.sheet(line)
	case "SSBOND":
		return rdr.ssbond(line)
	case "LINK", "LINKR":
		return rdr.link(line)
	case "CISPEP":
		return rdr.cispep(line)
	case "CRYST1":
		return rdr.cryst1(line)
	case "MODEL":
		rdr.newModel(trimCol(line, 11, 14))
	case "ENDMDL":
		rdr.model = nil
	case "TER":
		if rdr.model != nil && len(rdr.model.Chains) > 0 {
			rdr.afterTer[rdr.model.Chains[len(rdr.model.Chains)-1].Name] = true
		}
	}
	return nil
}

func (rdr *reader) header(line string) {
	rdr.st.SetInfo(cmmn.InfoKeywords, trimCol(line, 11, 50))
	if id := trimCol(line, 63, 66); id != "" {
		rdr.st.Name = id
		rdr.st.SetInfo(cmmn.InfoEntryID, id)
	}
}

// joinContinued puts continuation lines together. Words were split
// at spaces, so we join with a space.
func joinContinued(parts []string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func (rdr *reader) newModel(name string) {
	if name == "" {
		name = strconv.Itoa(len(rdr.st.Models) + 1)
	}
	rdr.st.Models = append(rdr.st.Models, cmmn.Model{Name: name})
	rdr.model = &rdr.st.Models[len(rdr.st.Models)-1]
	rdr.afterTer = make(map[string]bool)
}

// chain returns the chain atoms go into. Usually it is the last one.
func (rdr *reader) chain(name string) *cmmn.Chain {
	if rdr.model == nil {
		rdr.newModel("")
	}
	m := rdr.model
	if n := len(m.Chains); n > 0 && m.Chains[n-1].Name == name {
		return &m.Chains[n-1]
	}
	if ch := m.FindChain(name); ch != nil {
		return ch
	}
	m.Chains = append(m.Chains, cmmn.Chain{Name: name})
	return &m.Chains[len(m.Chains)-1]
}

func (rdr *reader) atom(line string, het bool) error {
	var a cmmn.Atom
	var err error
	if a.Serial, err = atoiHybrid(line, 7, 11); err != nil {
		return fmt.Errorf("atom serial: %w", err)
	}
	a.Name = trimCol(line, 13, 16)
	if c := line[16]; c != ' ' {
		a.AltLoc = c
	}
	resName := trimCol(line, 18, 20)
	chainName := trimCol(line, 22, 22)
	var seq cmmn.SeqID
	if seq.Num, err = atoiHybrid(line, 23, 26); err != nil {
		return fmt.Errorf("residue number: %w", err)
	}
	seq.ICode = line[26]
	if a.Pos.X, err = atof(line, 31, 38); err != nil {
		return fmt.Errorf("x coordinate: %w", err)
	}
	if a.Pos.Y, err = atof(line, 39, 46); err != nil {
		return fmt.Errorf("y coordinate: %w", err)
	}
	if a.Pos.Z, err = atof(line, 47, 54); err != nil {
		return fmt.Errorf("z coordinate: %w", err)
	}
	a.Occ = 1
	if s := trimCol(line, 55, 60); s != "" {
		o, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fmt.Errorf("occupancy: %w", err)
		}
		a.Occ = float32(o)
	}
	if s := trimCol(line, 61, 66); s != "" {
		b, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fmt.Errorf("b-factor: %w", err)
		}
		a.B = float32(b)
	}
	a.Element = trimCol(line, 77, 78)
	if a.Element == "" {
		a.Element = elementFromName(line[12:16])
	}
	a.Charge = readCharge(col(line, 79, 80))

	ch := rdr.chain(chainName)
	n := len(ch.Residues)
	if n == 0 || ch.Residues[n-1].SeqID != seq || ch.Residues[n-1].Name != resName {
		r := cmmn.Residue{Name: resName, SeqID: seq, Het: het}
		if rdr.afterTer[chainName] {
			if cmmn.IsWater(resName) {
				r.EntityType = cmmn.EntityWater
			} else {
				r.EntityType = cmmn.EntityNonPolymer
			}
		}
		ch.Residues = append(ch.Residues, r)
		n++
	}
	ch.Residues[n-1].Atoms = append(ch.Residues[n-1].Atoms, a)
	rdr.natom++
	return nil
}

// readCharge turns "2+" or "1-" into a number. Junk gives zero.
func readCharge(s string) int8 {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' {
		return 0
	}
	c := int8(s[0] - '0')
	if s[1] == '-' {
		return -c
	}
	return c
}

// elementFromName guesses an element from the four character atom name
// field when columns 77-78 are empty. Two letter elements are right
// justified in columns 13-14.
func elementFromName(field string) string {
	if len(field) < 2 {
		return ""
	}
	if field[0] != ' ' && (field[0] < '0' || field[0] > '9') {
		if field[0] == 'H' { // Hydrogens with four character names
			return "H"
		}
		return strings.ToUpper(field[:1]) + strings.ToLower(field[1:2])
	}
	if c := field[1]; c >= 'A' && c <= 'Z' {
		return string(c)
	}
	return ""
}

// seqres adds a line of SEQRES to the entity named after the chain
func (rdr *reader) seqres(line string) {
	chain := trimCol(line, 12, 12)
	ent := rdr.st.FindEntity(chain)
	if ent == nil {
		rdr.st.Entities = append(rdr.st.Entities, cmmn.Entity{
			Name:       chain,
			EntityType: cmmn.EntityPolymer,
		})
		ent = &rdr.st.Entities[len(rdr.st.Entities)-1]
	}
	for c := 20; c+2 <= lineLen; c += 4 {
		if name := trimCol(line, c, c+2); name != "" {
			ent.FullSequence = append(ent.FullSequence, name)
		}
	}
}

func (rdr *reader) helix(line string) error {
	var h cmmn.Helix
	var err error
	if h.Start, err = resid(line, 16, 20, 22); err != nil {
		return fmt.Errorf("HELIX start: %w", err)
	}
	if h.End, err = resid(line, 28, 32, 34); err != nil {
		return fmt.Errorf("HELIX end: %w", err)
	}
	if h.Class, err = atoi(line, 39, 40); err != nil {
		return fmt.Errorf("HELIX class: %w", err)
	}
	h.Length = -1
	if s := trimCol(line, 72, 76); s != "" {
		if h.Length, err = strconv.Atoi(s); err != nil {
			return fmt.Errorf("HELIX length: %w", err)
		}
	}
	rdr.st.Helices = append(rdr.st.Helices, h)
	return nil
}

// hbondAtom reads the registration part of a SHEET record
func hbondAtom(line string, atom, name, chain, seq int) cmmn.AtomAddress {
	var a cmmn.AtomAddress
	a.Atom = trimCol(line, atom, atom+3)
	if a.Atom == "" {
		return a
	}
	a.ResidueID, _ = resid(line, name, chain, seq)
	return a
}

func (rdr *reader) sheet(line string) error {
	var s cmmn.Strand
	var err error
	if s.Start, err = resid(line, 18, 22, 23); err != nil {
		return fmt.Errorf("SHEET start: %w", err)
	}
	if s.End, err = resid(line, 29, 33, 34); err != nil {
		return fmt.Errorf("SHEET end: %w", err)
	}
	if s.Sense, err = atoi(line, 39, 40); err != nil {
		return fmt.Errorf("SHEET sense: %w", err)
	}
	s.Hbond0 = hbondAtom(line, 42, 46, 50, 51)
	s.Hbond1 = hbondAtom(line, 57, 61, 65, 66)
	name := trimCol(line, 12, 14)
	i, ok := rdr.sheets[name]
	if !ok {
		rdr.st.Sheets = append(rdr.st.Sheets, cmmn.Sheet{Name: name})
		i = len(rdr.st.Sheets) - 1
		rdr.sheets[name] = i
	}
	rdr.st.Sheets[i].Strands = append(rdr.st.Sheets[i].Strands, s)
	return nil
}

func sym(line string, from int) string {
	if s := trimCol(line, from, from+5); s != "" {
		return s
	}
	return "1555"
}

func (rdr *reader) ssbond(line string) error {
	c := cmmn.Connection{Type: cmmn.ConnDisulf}
	var err error
	if c.Partner1.ResidueID, err = resid(line, 12, 16, 18); err != nil {
		return fmt.Errorf("SSBOND first residue: %w", err)
	}
	if c.Partner2.ResidueID, err = resid(line, 26, 30, 32); err != nil {
		return fmt.Errorf("SSBOND second residue: %w", err)
	}
	c.Partner1.Atom, c.Partner2.Atom = "SG", "SG"
	c.Sym1, c.Sym2 = sym(line, 60), sym(line, 67)
	if c.Length, err = atof(line, 74, 78); err != nil {
		return fmt.Errorf("SSBOND length: %w", err)
	}
	c.Name = "disulf" + strconv.Itoa(rdr.nConn(cmmn.ConnDisulf)+1)
	rdr.st.Connections = append(rdr.st.Connections, c)
	return nil
}

func (rdr *reader) nConn(t cmmn.ConnectionType) int {
	n := 0
	for _, c := range rdr.st.Connections {
		if c.Type == t {
			n++
		}
	}
	return n
}

func (rdr *reader) link(line string) error {
	c := cmmn.Connection{Type: cmmn.ConnCovale}
	var err error
	c.Partner1.Atom = trimCol(line, 13, 16)
	if b := line[16]; b != ' ' {
		c.Partner1.AltLoc = b
	}
	if c.Partner1.ResidueID, err = resid(line, 18, 22, 23); err != nil {
		return fmt.Errorf("LINK first residue: %w", err)
	}
	c.Partner2.Atom = trimCol(line, 43, 46)
	if b := line[46]; b != ' ' {
		c.Partner2.AltLoc = b
	}
	if c.Partner2.ResidueID, err = resid(line, 48, 52, 53); err != nil {
		return fmt.Errorf("LINK second residue: %w", err)
	}
	c.Sym1, c.Sym2 = sym(line, 60), sym(line, 67)
	if c.Length, err = atof(line, 74, 78); err != nil {
		return fmt.Errorf("LINK length: %w", err)
	}
	c.Name = "covale" + strconv.Itoa(rdr.nConn(cmmn.ConnCovale)+1)
	rdr.st.Connections = append(rdr.st.Connections, c)
	return nil
}

func (rdr *reader) cispep(line string) error {
	var c cmmn.CisPep
	var err error
	if c.Partner1, err = resid(line, 12, 16, 18); err != nil {
		return fmt.Errorf("CISPEP first residue: %w", err)
	}
	if c.Partner2, err = resid(line, 26, 30, 32); err != nil {
		return fmt.Errorf("CISPEP second residue: %w", err)
	}
	c.Model = trimCol(line, 44, 46)
	if c.Model == "" || c.Model == "0" {
		c.Model = "1"
	}
	if c.Omega, err = atof(line, 54, 59); err != nil {
		return fmt.Errorf("CISPEP angle: %w", err)
	}
	rdr.st.CisPeps = append(rdr.st.CisPeps, c)
	return nil
}

func (rdr *reader) cryst1(line string) error {
	var err error
	u := &rdr.st.Cell
	fields := []struct {
		p        *float64
		from, to int
	}{
		{&u.A, 7, 15}, {&u.B, 16, 24}, {&u.C, 25, 33},
		{&u.Alpha, 34, 40}, {&u.Beta, 41, 47}, {&u.Gamma, 48, 54},
	}
	for _, f := range fields {
		if *f.p, err = atof(line, f.from, f.to); err != nil {
			return fmt.Errorf("CRYST1: %w", err)
		}
	}
	rdr.st.SpacegroupHM = trimCol(line, 56, 66)
	return nil
}

// finish puts together the continued records once we have seen them all
func (rdr *reader) finish() {
	if len(rdr.title) > 0 {
		rdr.st.SetInfo(cmmn.InfoTitle, joinContinued(rdr.title))
	}
	if len(rdr.keywds) > 0 {
		rdr.st.SetInfo(cmmn.InfoKeyText, joinContinued(rdr.keywds))
	}
	for i := range rdr.st.Entities {
		e := &rdr.st.Entities[i]
		if e.EntityType == cmmn.EntityPolymer && e.PolymerType == cmmn.PolyUnknown {
			e.PolymerType = cmmn.GuessPolymerType(e.FullSequence)
		}
	}
}
