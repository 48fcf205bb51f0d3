// Package dssp gets secondary structure for a structure from an external
// program and copies the helices and sheets back into the structure.
//
// The program sees a pdb file and answers with an mmcif file. Nothing
// else of its answer is kept.
package dssp

import "context"

// Annotator takes a structure in pdb format and returns it as mmcif,
// with helices and sheets.
type Annotator interface {
	Annotate(ctx context.Context, pdb []byte) ([]byte, error)
}

// AnnotatorFunc lets an ordinary function act as an Annotator.
type AnnotatorFunc func(ctx context.Context, pdb []byte) ([]byte, error)

// Annotate calls f
func (f AnnotatorFunc) Annotate(ctx context.Context, pdb []byte) ([]byte, error) {
	return f(ctx, pdb)
}
