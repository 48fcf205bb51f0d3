package mmcif

import (
	"bufio"
	"io"
	"strings"
)

// needsQuote lists characters that may not start a bare value
const needsQuote = "_#$'\"[];"

// isReserved says if a bare value would be read as a keyword
func isReserved(s string) bool {
	for _, k := range []string{"data_", "loop_", "save_", "global_", "stop_"} {
		if len(s) >= len(k) && strings.EqualFold(s[:len(k)], k) {
			return true
		}
	}
	return false
}

// quote decides how a value has to be written. The second return value
// is true if it must be a text field on lines of its own.
func quote(s string) (string, bool) {
	switch {
	case s == "":
		return "''", false
	case strings.ContainsAny(s, "\n\r"):
		return s, true
	case !strings.ContainsAny(s, " \t") && !strings.ContainsAny(s[:1], needsQuote) && !isReserved(s):
		return s, false
	case !strings.Contains(s, "' ") && !strings.HasSuffix(s, "'"):
		return "'" + s + "'", false
	case !strings.Contains(s, "\" ") && !strings.HasSuffix(s, "\""):
		return "\"" + s + "\"", false
	}
	return s, true
}

// cifWriter holds on to the first error so we do not have to check
// every write.
type cifWriter struct {
	w   *bufio.Writer
	err error
}

func (cw *cifWriter) str(ss ...string) {
	for _, s := range ss {
		if cw.err != nil {
			return
		}
		_, cw.err = cw.w.WriteString(s)
	}
}

// textField writes a value as ;...; on its own lines.
func (cw *cifWriter) textField(s string) {
	cw.str(";", s, "\n;\n")
}

// pairs writes a set of tag value pairs with the values lined up
func (cw *cifWriter) pairs(tags, values []string) {
	width := 0
	for _, t := range tags {
		if len(t) > width {
			width = len(t)
		}
	}
	for i, t := range tags {
		v, text := quote(values[i])
		if text {
			cw.str(t, "\n")
			cw.textField(v)
			continue
		}
		cw.str(t, strings.Repeat(" ", width-len(t)+1), v, "\n")
	}
}

// loop writes a table, one row per line. A loop with one row is
// written as pairs, which is what most programs do.
func (cw *cifWriter) loop(l *Loop) {
	if len(l.Values) == 1 {
		cw.pairs(l.Tags, l.Values[0])
		return
	}
	cw.str("loop_\n")
	for _, t := range l.Tags {
		cw.str(t, "\n")
	}
	for _, row := range l.Values {
		sep := ""
		for _, val := range row {
			v, text := quote(val)
			if text {
				if sep != "" {
					cw.str("\n")
				}
				cw.textField(v)
				sep = ""
				continue
			}
			cw.str(sep, v)
			sep = " "
		}
		if sep != "" {
			cw.str("\n")
		}
	}
}

// Write writes a document. Categories are separated by a line with #
func Write(w io.Writer, doc *Document) error {
	cw := &cifWriter{w: bufio.NewWriter(w)}
	for bi := range doc.Blocks {
		b := &doc.Blocks[bi]
		cw.str("data_", b.Name, "\n#\n")
		for i := 0; i < len(b.Items); {
			it := &b.Items[i]
			if it.Loop != nil {
				cw.loop(it.Loop)
				cw.str("#\n")
				i++
				continue
			}
			var tags, values []string // a run of pairs of one category
			cat := it.category()
			for ; i < len(b.Items) && b.Items[i].Loop == nil && b.Items[i].category() == cat; i++ {
				tags = append(tags, b.Items[i].Tag)
				values = append(values, b.Items[i].Value)
			}
			cw.pairs(tags, values)
			cw.str("#\n")
		}
	}
	if cw.err != nil {
		return cw.err
	}
	return cw.w.Flush()
}
