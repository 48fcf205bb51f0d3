package dssp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andrew-torda/dsspconv/pdb/cmmn"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Policy says what to do when the annotated structure does not look
// like the one we sent.
type Policy int

const (
	PolicyOff   Policy = iota // do not compare
	PolicyWarn                // log the differences and carry on
	PolicyError               // give up, leave the structure alone
)

var policyNames = [...]string{"off", "warn", "error"}

func (p Policy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return fmt.Sprintf("Policy(%d)", int(p))
	}
	return policyNames[p]
}

// ErrBadPolicy is returned by ParsePolicy
var ErrBadPolicy = errors.New("check policy must be off, warn or error")

// ParsePolicy reads a policy name, ignoring case
func ParsePolicy(s string) (Policy, error) {
	for i, n := range policyNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Policy(i), nil
		}
	}
	return PolicyOff, fmt.Errorf("%w, not %q", ErrBadPolicy, s)
}

// ErrDisagreement means the annotator changed the structure it was given.
var ErrDisagreement = errors.New("annotated structure does not match input")

// DefaultTolerance is the largest CA shift (Å) we accept. Coordinates go
// through the pdb format, so they lose anything past three decimals.
const DefaultTolerance = 0.01

// Report is the result of Compare.
type Report struct {
	Chains   int     // chains in the input, first model
	Residues int     // polymer residues compared
	CA       int     // CA atoms compared
	MaxShift float64 // largest CA displacement
	Helices  int     // found by the annotator
	Sheets   int
	Strands  int
	NoSense  int // strands, not first in their sheet, with no sense
	Problems []string
}

func (r *Report) problem(format string, a ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, a...))
}

// OK is true if nothing disagreed. Strands without a sense are not a
// disagreement.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

// Err gives nil or an ErrDisagreement listing the problems.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrDisagreement, strings.Join(r.Problems, "; "))
}

// caCoords puts CA coordinates of a span in the rows of an n x 3 matrix.
// Residues without a CA get no row. The matrix is nil if there are none.
func caCoords(rs cmmn.ResidueSpan) (*mat.Dense, []string) {
	xyz := make([]float64, 0, 3*len(rs))
	keys := make([]string, 0, len(rs))
	for i := range rs {
		a := rs[i].FindAtom("CA")
		if a == nil {
			continue
		}
		xyz = append(xyz, a.Pos.X, a.Pos.Y, a.Pos.Z)
		keys = append(keys, rs[i].SeqID.String())
	}
	if len(keys) == 0 {
		return nil, keys
	}
	return mat.NewDense(len(keys), 3, xyz), keys
}

// shifts gives the distance between corresponding rows of a and b.
func shifts(a, b *mat.Dense) []float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	n, _ := diff.Dims()
	d := make([]float64, n)
	for i := range d {
		d[i] = floats.Norm(diff.RawRowView(i), 2)
	}
	return d
}

// chain compares the polymer part of two chains
func (r *Report) chain(ch0, ch1 *cmmn.Chain, tol float64) {
	p0, p1 := ch0.Polymer(), ch1.Polymer()
	if len(p0) != len(p1) {
		r.problem("chain %s: %d residues in, %d out", ch0.Name, len(p0), len(p1))
		return
	}
	r.Residues += len(p0)
	for i := range p0 {
		if p0[i].Name != p1[i].Name || p0[i].SeqID != p1[i].SeqID {
			r.problem("chain %s: residue %s %s became %s %s", ch0.Name,
				p0[i].Name, p0[i].SeqID, p1[i].Name, p1[i].SeqID)
			return
		}
	}
	ca0, k0 := caCoords(p0)
	ca1, k1 := caCoords(p1)
	if len(k0) != len(k1) {
		r.problem("chain %s: %d CA atoms in, %d out", ch0.Name, len(k0), len(k1))
		return
	}
	for i := range k0 {
		if k0[i] != k1[i] {
			r.problem("chain %s: CA of %s missing", ch0.Name, k0[i])
			return
		}
	}
	if len(k0) == 0 {
		return
	}
	for i, d := range shifts(ca0, ca1) {
		if d > r.MaxShift {
			r.MaxShift = d
		}
		if d > tol {
			r.problem("chain %s: CA of %s moved %.3f", ch0.Name, k0[i], d)
			return
		}
	}
	r.CA += len(k0)
}

// Compare checks that the structure that came back from the annotator is
// the one we sent. Only the first model and polymer residues are
// compared. The input is in, out is the annotator's version.
func Compare(in, out *cmmn.Structure, tol float64) *Report {
	r := &Report{Helices: len(out.Helices), Sheets: len(out.Sheets)}
	for _, sh := range out.Sheets {
		r.Strands += len(sh.Strands)
		for i, s := range sh.Strands {
			if i > 0 && s.Sense == cmmn.SenseFirst {
				r.NoSense++
			}
		}
	}
	m0, m1 := in.FirstModel(), out.FirstModel()
	if m0 == nil || m1 == nil {
		r.problem("no model to compare")
		return r
	}
	r.Chains = len(m0.Chains)
	if len(m0.Chains) != len(m1.Chains) {
		r.problem("%d chains in, %d out", len(m0.Chains), len(m1.Chains))
	}
	for i := range m0.Chains {
		ch0 := &m0.Chains[i]
		ch1 := m1.FindChain(ch0.Name)
		if ch1 == nil {
			r.problem("chain %s missing", ch0.Name)
			continue
		}
		r.chain(ch0, ch1, tol)
	}
	return r
}
