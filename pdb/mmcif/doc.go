// Package mmcif reads and writes files in mmcif/cif format.
//
// There are two layers. The lower one knows nothing about chemistry. It
// reads a file into a Document which is a list of data blocks, each
// of which is a list of items. An item is either a tag and value pair
// or a loop (a table).
// Read and Write work on this level.
//
// The upper layer turns a block into a cmmn.Structure (MakeStructure)
// and puts a structure back into a block (UpdateBlock). It only knows
// about the categories we need for coordinates, entities, secondary
// structure and connections. Anything else in a block is left alone, so
// a file can be read, updated and written without losing information.
//
// Notes about the format...
// The first character on the line is decisive. A data item
// has to start with a "_". A loop starts with loop_.
// A question mark, ?, means a missing value.
// A dot, ., means not appropriate or deliberately left out.
// Text fields start with a semicolon in the first column and run until
// the next line starting with a semicolon.
// See https://www.iucr.org/resources/cif/spec/version1.1/cifsyntax
package mmcif
