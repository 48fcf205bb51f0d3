package oldfmt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andrew-torda/dsspconv/pdb/cmmn"
)

// WriteOptions says which records go into a file
type WriteOptions struct {
	MinimalFile   bool // no HEADER, TITLE, KEYWDS, EXPDTA or REMARK
	SeqresRecords bool
	SsbondRecords bool
	LinkRecords   bool
	CispepRecords bool
	EndRecord     bool
	TerRecords    bool
}

// DefaultWriteOptions writes everything we know about
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		SeqresRecords: true,
		SsbondRecords: true,
		LinkRecords:   true,
		CispepRecords: true,
		EndRecord:     true,
		TerRecords:    true,
	}
}

// ErrLongChainName is returned for chain names that do not fit in one column.
var ErrLongChainName = errors.New("chain name longer than one character")

// pdbWriter collects the first error, so the record functions do not have
// to check each Fprintf.
type pdbWriter struct {
	w   *bufio.Writer
	err error
}

// line pads to 80 columns and writes.
func (pw *pdbWriter) line(format string, a ...interface{}) {
	if pw.err != nil {
		return
	}
	s := fmt.Sprintf(format, a...)
	if len(s) < lineLen {
		s += strings.Repeat(" ", lineLen-len(s))
	}
	_, pw.err = pw.w.WriteString(s + "\n")
}

// num is n in width columns, in hybrid-36 if it needs it. The first
// number that does not fit becomes the writer's error.
func (pw *pdbWriter) num(width, n int) string {
	s, err := encodeHybrid36(width, n)
	if err != nil && pw.err == nil {
		pw.err = err
	}
	return s
}

// seq is a residue number
func (pw *pdbWriter) seq(n int) string { return pw.num(4, n) }

func checkChains(st *cmmn.Structure) error {
	for _, m := range st.Models {
		for _, ch := range m.Chains {
			if len(ch.Name) > 1 {
				return fmt.Errorf("%w: %q", ErrLongChainName, ch.Name)
			}
		}
	}
	return nil
}

// Write writes a structure in pdb format. The structure is not changed.
// Atoms are numbered from 1, counting TER records as the format wants.
func Write(w io.Writer, st *cmmn.Structure, opts WriteOptions) error {
	if err := checkChains(st); err != nil {
		return err
	}
	pw := &pdbWriter{w: bufio.NewWriter(w)}
	if !opts.MinimalFile {
		pw.header(st)
	}
	if opts.SeqresRecords {
		pw.seqres(st)
	}
	pw.helices(st)
	pw.sheets(st)
	pw.connections(st, opts)
	if opts.CispepRecords {
		pw.cispeps(st)
	}
	if st.Cell.IsSet() {
		u := st.Cell
		pw.line("CRYST1%9.3f%9.3f%9.3f%7.2f%7.2f%7.2f %-11s%4s",
			u.A, u.B, u.C, u.Alpha, u.Beta, u.Gamma, st.SpacegroupHM, "1")
	}
	pw.models(st, opts)
	if opts.EndRecord {
		pw.line("END")
	}
	if pw.err != nil {
		return pw.err
	}
	return pw.w.Flush()
}

// wrap breaks text at spaces into pieces of at most n characters, then
// n-1 for continuation lines.
func wrap(s string, n int) []string {
	var lines []string
	words := strings.Fields(s)
	cur := ""
	for _, w := range words {
		switch {
		case cur == "":
			cur = w
		case len(cur)+1+len(w) <= n:
			cur += " " + w
		default:
			lines = append(lines, cur)
			cur = w
			if n == lineLen-10 {
				n--
			}
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// continued writes TITLE or KEYWDS with continuation numbers
func (pw *pdbWriter) continued(rec, s string) {
	for i, l := range wrap(s, lineLen-10) {
		if i == 0 {
			pw.line("%-6s    %s", rec, l)
		} else {
			pw.line("%-6s  %2d %s", rec, i+1, l)
		}
	}
}

func (pw *pdbWriter) header(st *cmmn.Structure) {
	class := st.GetInfo(cmmn.InfoKeywords)
	id := st.GetInfo(cmmn.InfoEntryID)
	if len(class) > 40 {
		class = class[:40]
	}
	if len(id) > 4 {
		id = id[:4]
	}
	if class != "" || id != "" {
		pw.line("HEADER    %-40s%9s   %4s", class, "", id)
	}
	if t := st.GetInfo(cmmn.InfoTitle); t != "" {
		pw.continued("TITLE", t)
	}
	if k := st.GetInfo(cmmn.InfoKeyText); k != "" {
		pw.continued("KEYWDS", k)
	}
	if m := st.GetInfo(cmmn.InfoMethod); m != "" {
		pw.line("EXPDTA    %s", m)
	}
	for _, r := range st.RawRemarks {
		pw.line("%s", r)
	}
}

// seqres writes the sequence of each polymer chain in the first model
func (pw *pdbWriter) seqres(st *cmmn.Structure) {
	mdl := st.FirstModel()
	if mdl == nil {
		return
	}
	const perLine = 13
	for i := range mdl.Chains {
		ch := &mdl.Chains[i]
		ent := st.EntityOf(ch.Polymer())
		if ent == nil || ent.EntityType != cmmn.EntityPolymer || len(ent.FullSequence) == 0 {
			continue
		}
		seq := ent.FullSequence
		for ser, j := 1, 0; j < len(seq); ser, j = ser+1, j+perLine {
			var b strings.Builder
			fmt.Fprintf(&b, "SEQRES %3d %1s %4d ", ser, ch.Name, len(seq))
			for k := j; k < j+perLine && k < len(seq); k++ {
				fmt.Fprintf(&b, " %3s", seq[k])
			}
			pw.line("%s", b.String())
		}
	}
}

func helixLength(h cmmn.Helix) int {
	if h.Length >= 0 {
		return h.Length
	}
	if h.Start.Chain != h.End.Chain {
		return 0
	}
	return h.End.SeqID.Num - h.Start.SeqID.Num + 1
}

func (pw *pdbWriter) helices(st *cmmn.Structure) {
	for i, h := range st.Helices {
		s, e := h.Start, h.End
		pw.line("HELIX  %3d %3d %3s %1s %4s%c %3s %1s %4s%c%2d%30s %5d",
			i+1, i+1,
			s.Name, s.Chain, pw.seq(s.SeqID.Num), icode(s.SeqID.ICode),
			e.Name, e.Chain, pw.seq(e.SeqID.Num), icode(e.SeqID.ICode),
			h.Class, "", helixLength(h))
	}
}

// padAtom puts short atom names in the right columns. One letter elements
// start in the second column.
func padAtom(name, element string) string {
	if len(name) < 4 && len(element) < 2 {
		return " " + name
	}
	return name
}

func (pw *pdbWriter) sheets(st *cmmn.Structure) {
	for _, sh := range st.Sheets {
		for i, s := range sh.Strands {
			a, b := s.Start, s.End
			l := fmt.Sprintf("SHEET  %3d %3s%2d %3s %1s%4s%c %3s %1s%4s%c%2d",
				i+1, sh.Name, len(sh.Strands),
				a.Name, a.Chain, pw.seq(a.SeqID.Num), icode(a.SeqID.ICode),
				b.Name, b.Chain, pw.seq(b.SeqID.Num), icode(b.SeqID.ICode), s.Sense)
			if s.Hbond0.Atom != "" {
				h0, h1 := s.Hbond0, s.Hbond1
				l += fmt.Sprintf(" %-4s%3s %1s%4s%c %-4s%3s %1s%4s%c",
					padAtom(h0.Atom, ""), h0.Name, h0.Chain, pw.seq(h0.SeqID.Num), icode(h0.SeqID.ICode),
					padAtom(h1.Atom, ""), h1.Name, h1.Chain, pw.seq(h1.SeqID.Num), icode(h1.SeqID.ICode))
			}
			pw.line("%s", l)
		}
	}
}

func symOr1555(s string) string {
	if s == "" {
		return "1555"
	}
	return s
}

func altLoc(c byte) byte {
	if c == 0 {
		return ' '
	}
	return c
}

func (pw *pdbWriter) connections(st *cmmn.Structure, opts WriteOptions) {
	if opts.SsbondRecords {
		n := 0
		for _, c := range st.Connections {
			if c.Type != cmmn.ConnDisulf {
				continue
			}
			n++
			p, q := c.Partner1.ResidueID, c.Partner2.ResidueID
			pw.line("SSBOND %3d %3s %1s %4s%c   %3s %1s %4s%c%23s%6s %6s %5.2f",
				n, p.Name, p.Chain, pw.seq(p.SeqID.Num), icode(p.SeqID.ICode),
				q.Name, q.Chain, pw.seq(q.SeqID.Num), icode(q.SeqID.ICode), "",
				symOr1555(c.Sym1), symOr1555(c.Sym2), c.Length)
		}
	}
	if !opts.LinkRecords {
		return
	}
	for _, c := range st.Connections {
		if c.Type != cmmn.ConnCovale && c.Type != cmmn.ConnMetalC {
			continue
		}
		p, q := c.Partner1, c.Partner2
		pw.line("LINK        %-4s%c%3s %1s%4s%c%15s%-4s%c%3s %1s%4s%c  %6s %6s %5.2f",
			padAtom(p.Atom, ""), altLoc(p.AltLoc), p.Name, p.Chain, pw.seq(p.SeqID.Num), icode(p.SeqID.ICode), "",
			padAtom(q.Atom, ""), altLoc(q.AltLoc), q.Name, q.Chain, pw.seq(q.SeqID.Num), icode(q.SeqID.ICode),
			symOr1555(c.Sym1), symOr1555(c.Sym2), c.Length)
	}
}

func (pw *pdbWriter) cispeps(st *cmmn.Structure) {
	for i, c := range st.CisPeps {
		p, q := c.Partner1, c.Partner2
		model := c.Model
		if model == "" {
			model = "0"
		}
		pw.line("CISPEP %3d %3s %1s %4s%c   %3s %1s %4s%c       %3s       %6.2f",
			i+1, p.Name, p.Chain, pw.seq(p.SeqID.Num), icode(p.SeqID.ICode),
			q.Name, q.Chain, pw.seq(q.SeqID.Num), icode(q.SeqID.ICode), model, c.Omega)
	}
}

func charge(c int8) string {
	switch {
	case c > 0:
		return fmt.Sprintf("%d+", c)
	case c < 0:
		return fmt.Sprintf("%d-", -c)
	}
	return ""
}

// lastPolymer gives the index of the last polymer residue, or -1
func lastPolymer(ch *cmmn.Chain) int {
	last := -1
	for i := range ch.Residues {
		if ch.Residues[i].EntityType == cmmn.EntityPolymer {
			last = i
		}
	}
	return last
}

func (pw *pdbWriter) models(st *cmmn.Structure, opts WriteOptions) {
	multi := len(st.Models) > 1
	for im := range st.Models {
		m := &st.Models[im]
		if multi {
			pw.line("MODEL     %4s", m.Name)
		}
		serial := 0
		for ic := range m.Chains {
			ch := &m.Chains[ic]
			ter := -1
			if opts.TerRecords {
				ter = lastPolymer(ch)
			}
			for ir := range ch.Residues {
				r := &ch.Residues[ir]
				rec := "ATOM"
				if r.Het {
					rec = "HETATM"
				}
				for _, a := range r.Atoms {
					serial++
					pw.line("%-6s%5s %-4s%c%3s %1s%4s%c   %8.3f%8.3f%8.3f%6.2f%6.2f          %2s%2s",
						rec, pw.num(5, serial), padAtom(a.Name, a.Element), altLoc(a.AltLoc),
						r.Name, ch.Name, pw.seq(r.SeqID.Num), icode(r.SeqID.ICode),
						a.Pos.X, a.Pos.Y, a.Pos.Z, a.Occ, a.B,
						strings.ToUpper(a.Element), charge(a.Charge))
				}
				if ir == ter {
					serial++
					pw.line("TER   %5s      %3s %1s%4s%c",
						pw.num(5, serial), r.Name, ch.Name, pw.seq(r.SeqID.Num), icode(r.SeqID.ICode))
				}
			}
		}
		if multi {
			pw.line("ENDMDL")
		}
	}
}
