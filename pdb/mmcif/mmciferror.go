package mmcif

import (
	"strconv"
)

const maxMsgLen = 70

// SyntaxError is a file that could not be split into blocks, categories
// and values.
type SyntaxError struct {
	Line int    // line number, 0 if the problem is the file as a whole
	Text string // start of the line that broke things
	Msg  string
}

func firstPart(s string) string {
	if len(s) > maxMsgLen {
		return s[:maxMsgLen]
	}
	return s
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return "mmcif: " + e.Msg
	}
	s := "mmcif line " + strconv.Itoa(e.Line) + ": " + e.Msg
	if e.Text != "" {
		s += "\nLine starting with\n" + firstPart(e.Text)
	}
	return s
}

// fill records a problem in the scanner. If an earlier problem was never
// collected, both go into the message.
func (s *cmmtScanner) fill(msg string, saveLine bool) {
	if !s.Ok {
		msg = s.lErr.Msg + "\nthen, after line " + strconv.Itoa(s.lErr.Line) + ": " + msg
	}
	s.Ok = false
	if saveLine {
		s.lErr.Line = s.n
	}
	s.lErr.Text = string(s.cbytes())
	s.lErr.Msg = msg
}

// ItemError is a value that the structure builder could not use. The file
// is syntactically fine, but something like a coordinate is not a number.
type ItemError struct {
	Category string // _atom_site, _struct_conf, ...
	Item     string // Cartn_x, pdbx_PDB_helix_length, ...
	Row      int    // counting from 1, 0 for a category written as pairs
	Err      error
}

func (e *ItemError) Error() string {
	s := e.Category + "." + e.Item
	if e.Row > 0 {
		s += " row " + strconv.Itoa(e.Row)
	}
	return s + ": " + e.Err.Error()
}

func (e *ItemError) Unwrap() error { return e.Err }

// itemError names a bad value in a loop. row counts from 0 here.
func (t *Table) itemError(row int, item string, err error) error {
	r := 0
	if t.Loop {
		r = row + 1
	}
	return &ItemError{Category: t.Category, Item: item, Row: r, Err: err}
}
