package mmcif

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const (
	squote byte = '\''
	dquote byte = '"'
)

// cmmtScanner is a wrapper around bufio.Scanner that will ignore
// comment lines and remove leading and trailing white space.
// It also counts newlines in n, so we can print out the line
// number in error messages.
type cmmtScanner struct {
	*bufio.Scanner             // standard library scanner
	lErr           SyntaxError // fill this out as soon as an error happens
	ctoken         []byte      // Store the bytes that will be returned by cbytes()
	n              int         // line number in the mmcif file
	cmmt           byte        // Comment character
	Ok             bool        // Are we OK or have we had an error ?
}

// newCmmtScanner is a wrapper around scanner, but
//   - jumps over blank lines
//   - removes leading and trailing space
//   - jumps over lines starting with a comment character
func newCmmtScanner(r io.Reader, cmmt byte) cmmtScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return cmmtScanner{
		Scanner: s,
		cmmt:    cmmt,
		Ok:      true,
	}
}

// cscan is a wrapper around the library Scan(). It adds a newline counter
// for error messages. It jumps over blank lines and lines starting
// with a comment character. Comment characters are only recognised as the
// first character, since they are legitimate elsewhere in the text.
// When finished, it sets "ctoken" to point to the slice.
// On EOF, ctoken is nil, but we return true. False means an error.
func (s *cmmtScanner) cscan() (ok bool) {
	var b []byte
	if !s.Ok { // We have already had an error, but nobody has noticed.
		s.ctoken = nil
		s.fill("pre-existing error missed. Small bug ?", false)
		return false
	}
	for len(b) == 0 {
		if !s.Scan() {
			s.ctoken = nil
			if s.Err() != nil {
				s.fill(s.Err().Error(), true)
				return false
			}
			return true // No error, just EOF
		}
		s.n++
		b = bytes.TrimSpace(s.Bytes())
		if len(b) > 0 && b[0] == s.cmmt {
			b = nil
		}
	}
	s.ctoken = b
	return true
}

// rawscan gets the next line as it is, for the inside of text fields.
// It returns false on EOF or error.
func (s *cmmtScanner) rawscan() bool {
	if !s.Scan() {
		s.ctoken = nil
		if s.Err() != nil {
			s.fill(s.Err().Error(), true)
		}
		return false
	}
	s.n++
	s.ctoken = bytes.TrimRight(s.Bytes(), "\r")
	return true
}

// cbytes is like Bytes from the library, but returns the processed characters
func (s *cmmtScanner) cbytes() []byte {
	return s.ctoken
}

// reader holds the state while we go through a file
type reader struct {
	cmmtScanner
	scrtch [][]byte
	tags   []string // headers of the current loop
	block  *Block
}

// stateFn is the type of state function. It returns the next
// state function that should act on its input.
type stateFn func(*reader, *Document) stateFn

func hasPrefixFold(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && bytes.EqualFold(b[:len(prefix)], []byte(prefix))
}

// stateTop is the general state that looks at the current line and
// decides what state to jump to next.
func stateTop(r *reader, _ *Document) stateFn {
	b := r.cbytes() // Does not advance scanner
	if !r.Ok {
		return nil
	}
	switch {
	case b == nil:
		return nil
	case hasPrefixFold(b, "data_"):
		return stateData
	case hasPrefixFold(b, "loop_"):
		return stateLoop
	case b[0] == '_':
		return stateDItem
	case hasPrefixFold(b, "save_"), hasPrefixFold(b, "global_"):
		return stateSkipLine
	default:
		return stateUnknown
	}
}

// stateUnknown should be reached if we are confused and do not know
// what to do. It is an error and we should stop
func stateUnknown(r *reader, _ *Document) stateFn {
	r.fill("do not know what to do with this line", true)
	return nil
}

// stateSkipLine is for save frame markers which we do not support,
// but which should not stop us.
func stateSkipLine(r *reader, _ *Document) stateFn {
	if !r.cscan() {
		return nil
	}
	return stateTop
}

// stateData starts a new block
func stateData(r *reader, doc *Document) stateFn {
	name := string(r.cbytes()[len("data_"):])
	doc.Blocks = append(doc.Blocks, Block{Name: name})
	r.block = &doc.Blocks[len(doc.Blocks)-1]
	if !r.cscan() {
		return nil
	}
	return stateTop
}

// needBlock complains if there is something before the first data_
func (r *reader) needBlock() bool {
	if r.block == nil {
		r.fill("data found before any data_ line", true)
		return false
	}
	return true
}

// textField reads a multi-line value. We are sitting on the line with
// the opening semicolon. On return, we are on the closing line.
// Line breaks are kept.
func (r *reader) textField() (string, bool) {
	var buf bytes.Buffer
	buf.Write(r.cbytes()[1:])
	for r.rawscan() {
		b := r.cbytes()
		if len(b) > 0 && b[0] == ';' {
			return buf.String(), true
		}
		buf.WriteByte('\n')
		buf.Write(b)
	}
	if r.Ok {
		r.fill("unterminated text field", true)
	}
	return "", false
}

// stateDItem gets a data item. This is often on one line, but
// if there is no value after the tag, the value is on the next line
func stateDItem(r *reader, doc *Document) stateFn {
	if !r.needBlock() {
		return nil
	}
	t, err := splitCifLine(r.cbytes(), r.scrtch)
	if err != nil {
		r.fill(err.Error(), true)
		return nil
	}
	item := Item{Tag: string(t[0])}
	switch len(t) {
	case 2:
		item.Value = string(t[1])
	case 1:
		const msg = "data item without a value"
		if !r.cscan() || r.cbytes() == nil {
			r.fill(msg, true)
			return nil
		}
		b := r.cbytes()
		if b[0] == ';' {
			var ok bool
			if item.Value, ok = r.textField(); !ok {
				return nil
			}
			break
		}
		u, err := splitCifLine(b, r.scrtch)
		if err != nil || len(u) != 1 {
			r.fill(msg, true)
			return nil
		}
		item.Value = string(u[0])
	default:
		r.fill("too many values for a data item", true)
		return nil
	}
	r.block.Items = append(r.block.Items, item)
	if !r.cscan() {
		return nil
	}
	return stateTop
}

// stateLoop is where you are if you have a loop directive.
// You just have to jump over the line and go to reading the
// headers.
func stateLoop(r *reader, _ *Document) stateFn {
	if !r.needBlock() || !r.cscan() {
		return nil
	}
	return stateLoopHdr
}

// stateLoopHdr gets the headers from a loop directive
func stateLoopHdr(r *reader, _ *Document) stateFn {
	if len(r.tags) != 0 {
		r.fill("probable bug, headers slice not empty", false)
		return nil
	}
	for b := r.cbytes(); b != nil && b[0] == '_'; b = r.cbytes() {
		r.tags = append(r.tags, string(bytes.Fields(b)[0]))
		if !r.cscan() {
			return nil
		}
	}
	if len(r.tags) < 1 {
		r.fill("no contents found while reading loop headers", true)
		return nil
	}
	return stateLoopTable
}

// isSpecial returns true if the input in inline is not simply
// more of a table. Usually this means there is a new directive
// coming.
// If we have end of file, we also return true, so a caller knows
// it has to do something special.
func isSpecial(inline []byte) bool {
	switch {
	case inline == nil:
		return true
	case inline[0] == '_':
		return true
	case hasPrefixFold(inline, "loop_"), hasPrefixFold(inline, "data_"):
		return true
	default:
		return false
	}
}

// notNasty returns true if we can use the simple split
// function. That is, there are no quotes.
func notNasty(b []byte) bool {
	return bytes.IndexByte(b, squote) == -1 && bytes.IndexByte(b, dquote) == -1
}

// stateLoopTable reads the values of a loop. They do not have to be
// one row per line.
func stateLoopTable(r *reader, _ *Document) stateFn {
	ncol := len(r.tags)
	var vals []string
	for b := r.cbytes(); !isSpecial(b); b = r.cbytes() {
		if b[0] == ';' {
			s, ok := r.textField()
			if !ok {
				return nil
			}
			vals = append(vals, s)
		} else {
			var t [][]byte
			if notNasty(b) {
				t = fields(b, r.scrtch)
			} else {
				u, err := splitCifLine(b, r.scrtch)
				if err != nil {
					r.fill(err.Error(), true)
					return nil
				}
				t = u
			}
			for _, u := range t {
				vals = append(vals, string(u))
			}
		}
		if !r.cscan() {
			return nil
		}
	}
	if len(vals)%ncol != 0 {
		r.fill("number of values in loop is not a multiple of the number of columns", true)
		return nil
	}
	loop := &Loop{Tags: r.tags, Values: make([][]string, 0, len(vals)/ncol)}
	for i := 0; i < len(vals); i += ncol {
		loop.Values = append(loop.Values, vals[i:i+ncol:i+ncol])
	}
	r.block.Items = append(r.block.Items, Item{Loop: loop})
	r.tags = nil
	return stateTop
}

// Read reads everything from r. It returns an error if the file
// is empty or broken.
func Read(rdr io.Reader) (*Document, error) {
	if rdr == nil {
		return nil, errors.New("nil reader")
	}
	r := &reader{
		cmmtScanner: newCmmtScanner(rdr, '#'),
		scrtch:      make([][]byte, 0, 64),
	}
	if !r.cscan() {
		return nil, &r.lErr
	}
	doc := new(Document)
	for state := stateTop; state != nil && r.Ok; {
		state = state(r, doc)
	}
	if !r.Ok {
		return nil, &r.lErr
	}
	if r.n == 0 {
		return nil, &SyntaxError{Msg: "zero length file"}
	}
	if len(doc.Blocks) == 0 {
		return nil, &SyntaxError{Msg: "no data_ block found"}
	}
	return doc, nil
}
