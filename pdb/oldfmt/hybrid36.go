package oldfmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Hybrid-36 lets atom serials and residue numbers grow past what fits in
// their columns. Up to 99999 (9999 for residues) numbers are decimal.
// After that come upper case base-36 numbers starting at A0000 (A000),
// then lower case ones starting at a0000 (a000).

// ErrNumberOverflow is returned for numbers that do not fit in their
// columns, even with hybrid-36.
var ErrNumberOverflow = errors.New("number too big for pdb columns")

const digits36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func pow(b, e int) int {
	n := 1
	for ; e > 0; e-- {
		n *= b
	}
	return n
}

func base36(n, width int, lower bool) string {
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = digits36[n%36]
		n /= 36
	}
	if lower {
		return strings.ToLower(string(b))
	}
	return string(b)
}

// encodeHybrid36 gives n in width columns.
func encodeHybrid36(width, n int) (string, error) {
	dec := pow(10, width)
	if n < 0 {
		if n <= -pow(10, width-1) {
			return "", fmt.Errorf("%w: %d in %d columns", ErrNumberOverflow, n, width)
		}
		return strconv.Itoa(n), nil
	}
	if n < dec {
		return strconv.Itoa(n), nil
	}
	block := 26 * pow(36, width-1) // size of the upper and of the lower range
	off := 10 * pow(36, width-1)   // value of A000...
	n -= dec
	if n < block {
		return base36(n+off, width, false), nil
	}
	n -= block
	if n < block {
		return base36(n+off, width, true), nil
	}
	return "", fmt.Errorf("%w: %d in %d columns", ErrNumberOverflow, n+dec+block, width)
}

// decodeHybrid36 is the reverse of encodeHybrid36. Blank is zero.
func decodeHybrid36(width int, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	c := s[0]
	if c == '-' || (c >= '0' && c <= '9') {
		return strconv.Atoi(s)
	}
	if len(s) != width {
		return 0, fmt.Errorf("hybrid-36 %q is not %d wide", s, width)
	}
	upper := c >= 'A' && c <= 'Z'
	if !upper && !(c >= 'a' && c <= 'z') {
		return 0, fmt.Errorf("bad hybrid-36 number %q", s)
	}
	if (upper && strings.ToUpper(s) != s) || (!upper && strings.ToLower(s) != s) {
		return 0, fmt.Errorf("mixed case hybrid-36 number %q", s)
	}
	v, err := strconv.ParseInt(s, 36, 64)
	if err != nil {
		return 0, fmt.Errorf("bad hybrid-36 number %q", s)
	}
	n := int(v) - 10*pow(36, width-1) + pow(10, width)
	if !upper {
		n += 26 * pow(36, width-1)
	}
	return n, nil
}
