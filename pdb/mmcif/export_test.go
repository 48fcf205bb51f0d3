package mmcif

import "errors"

// Export some internal functions for testing

func (s *cmmtScanner) Cbytes() []byte   { return s.cbytes() }
func (s *cmmtScanner) Cscan() (ok bool) { return s.cscan() }

var NewCmmtScanner = newCmmtScanner
var SplitCifLine = splitCifLine
var Fields = fields
var Quote = quote

// ErrLine returns the line number of a syntax error, or -1 if it
// is some other kind of error
func ErrLine(err error) int {
	var e *SyntaxError
	if errors.As(err, &e) {
		return e.Line
	}
	return -1
}
