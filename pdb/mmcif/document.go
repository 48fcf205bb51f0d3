package mmcif

import "strings"

// Loop is a table. Tags have the category prefix, like _atom_site.id
type Loop struct {
	Tags   []string
	Values [][]string // one slice per row
}

// Item is a pair (Tag and Value) or a loop, if Loop is not nil.
type Item struct {
	Tag   string
	Value string
	Loop  *Loop
}

// Block is a data block, data_XXX in the file.
type Block struct {
	Name  string
	Items []Item
}

// Document is everything read from a file
type Document struct {
	Blocks []Block
}

// Sole returns the first block or nil if there is none
func (d *Document) Sole() *Block {
	if d == nil || len(d.Blocks) == 0 {
		return nil
	}
	return &d.Blocks[0]
}

// IsNull says if a value is ? or . or empty.
func IsNull(s string) bool { return s == "" || s == "?" || s == "." }

// category returns the part of a tag before the dot, "_atom_site" from
// "_atom_site.id". Tags are compared without regard to case.
func category(tag string) string {
	if i := strings.IndexByte(tag, '.'); i != -1 {
		return strings.ToLower(tag[:i])
	}
	return strings.ToLower(tag)
}

func (it *Item) category() string {
	if it.Loop != nil {
		if len(it.Loop.Tags) == 0 {
			return ""
		}
		return category(it.Loop.Tags[0])
	}
	return category(it.Tag)
}

// Find returns the value of a pair and whether it was there.
func (b *Block) Find(tag string) (string, bool) {
	for _, it := range b.Items {
		if it.Loop == nil && strings.EqualFold(it.Tag, tag) {
			return it.Value, true
		}
	}
	return "", false
}

// Table is a category read as rows, whether it was written as a loop or
// as a set of pairs. Tags do not have the category prefix.
type Table struct {
	Category string
	Tags     []string
	Rows     [][]string
	Loop     bool // from a loop_ rather than pairs
}

// Len is the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Col returns the column for a tag or -1
func (t *Table) Col(tag string) int {
	if t == nil {
		return -1
	}
	for i, s := range t.Tags {
		if strings.EqualFold(s, tag) {
			return i
		}
	}
	return -1
}

// Has says if there is a column
func (t *Table) Has(tag string) bool { return t.Col(tag) != -1 }

// Lookup returns a value and true if the column is there and the value
// is not ? or . A quoted empty value counts as present.
func (t *Table) Lookup(row int, tag string) (string, bool) {
	i := t.Col(tag)
	if i == -1 || i >= len(t.Rows[row]) {
		return "", false
	}
	if s := t.Rows[row][i]; s != "?" && s != "." {
		return s, true
	}
	return "", false
}

// Get returns a value, or "" if the column is missing or the value is null.
func (t *Table) Get(row int, tag string) string {
	i := t.Col(tag)
	if i == -1 || i >= len(t.Rows[row]) {
		return ""
	}
	if s := t.Rows[row][i]; !IsNull(s) {
		return s
	}
	return ""
}

// shortTag takes the category and the dot off a tag
func shortTag(tag, cat string) string {
	if len(tag) <= len(cat)+1 {
		return ""
	}
	return tag[len(cat)+1:]
}

// Table gathers a category. The category is given with the leading
// underscore, like "_cell". It returns nil if nothing was found.
func (b *Block) Table(cat string) *Table {
	cat = strings.ToLower(cat)
	var t *Table
	for _, it := range b.Items {
		if it.category() != cat {
			continue
		}
		if it.Loop != nil {
			t = &Table{Category: cat, Rows: it.Loop.Values, Loop: true}
			for _, tag := range it.Loop.Tags {
				t.Tags = append(t.Tags, shortTag(tag, cat))
			}
			return t
		}
		if t == nil {
			t = &Table{Category: cat, Rows: [][]string{nil}}
		}
		t.Tags = append(t.Tags, shortTag(it.Tag, cat))
		t.Rows[0] = append(t.Rows[0], it.Value)
	}
	return t
}

// SetPair sets the value for a tag, adding it after the rest of its
// category or at the end of the block. If the category is there as a
// loop, the loop is removed first.
func (b *Block) SetPair(tag, value string) {
	cat := category(tag)
	last := -1
	for i := range b.Items {
		it := &b.Items[i]
		if it.category() != cat {
			continue
		}
		if it.Loop != nil {
			b.Items[i] = Item{Tag: tag, Value: value}
			return
		}
		if strings.EqualFold(it.Tag, tag) {
			it.Value = value
			return
		}
		last = i
	}
	if last == -1 {
		b.Items = append(b.Items, Item{Tag: tag, Value: value})
		return
	}
	b.Items = append(b.Items, Item{})
	copy(b.Items[last+2:], b.Items[last+1:])
	b.Items[last+1] = Item{Tag: tag, Value: value}
}

// SetLoop replaces a category with a loop. Tags are given without the
// category prefix. The loop goes where the category was, or at the end.
// With no rows, the category is just removed.
func (b *Block) SetLoop(cat string, tags []string, rows [][]string) {
	loop := &Loop{Values: rows}
	for _, t := range tags {
		loop.Tags = append(loop.Tags, cat+"."+t)
	}
	pos := b.remove(category(cat))
	if len(rows) == 0 {
		return
	}
	item := Item{Loop: loop}
	if pos == -1 {
		b.Items = append(b.Items, item)
		return
	}
	b.Items = append(b.Items, Item{})
	copy(b.Items[pos+1:], b.Items[pos:])
	b.Items[pos] = item
}

// RemoveCategory takes out all items of a category
func (b *Block) RemoveCategory(cat string) { b.remove(category(cat)) }

// remove takes out a category and returns where it was, or -1
func (b *Block) remove(cat string) int {
	pos := -1
	kept := b.Items[:0]
	for i := range b.Items {
		if b.Items[i].category() == cat {
			if pos == -1 {
				pos = len(kept)
			}
			continue
		}
		kept = append(kept, b.Items[i])
	}
	b.Items = kept
	return pos
}
