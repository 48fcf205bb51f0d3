// Package pdb is the upper level for reading and writing structures.
// Decide if a file is compressed or not, and what format
// we are going to read. Then call the corresponding pdb or mmcif
// format reader. Writing goes the other way, with the format taken from
// the file name.
package pdb

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrew-torda/dsspconv/pdb/cmmn"
	"github.com/andrew-torda/dsspconv/pdb/mmcif"
	"github.com/andrew-torda/dsspconv/pdb/oldfmt"
	"github.com/andrew-torda/dsspconv/pdb/zwrap"
	"github.com/edsrzf/mmap-go"
)

// Format is the file format of a structure
type Format byte

const (
	FormatUnknown Format = iota
	FormatPDB
	FormatMmcif
)

func (f Format) String() string {
	switch f {
	case FormatPDB:
		return "PDB"
	case FormatMmcif:
		return "mmCIF"
	}
	return "unknown"
}

var (
	// ErrUnsupportedFormat is returned when a file name does not say
	// pdb or mmcif.
	ErrUnsupportedFormat = errors.New("unsupported output format. Use .pdb or .cif")
	// ErrEmpty is returned for zero length input
	ErrEmpty = errors.New("empty file")
)

// FormatOf decides the format from the file extension. A compression
// extension is ignored, so a.cif.gz is mmcif.
func FormatOf(name string) Format {
	_, base := zwrap.KindOf(name)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".pdb", ".ent":
		return FormatPDB
	case ".cif", ".mmcif":
		return FormatMmcif
	}
	return FormatUnknown
}

// sniff reads the start of a stream and guesses if it is in old PDB
// format or in mmcif.
func sniff(r io.Reader) Format {
	pdbWords := []string{"HEADER", "COMPND", "SOURCE", "REMARK", "SEQRES", "CRYST1", "HETATM", "ATOM  ", "MODEL "}
	mmcifWords := []string{"data_", "_entry.id", "loop_"}
	const maxTestLines = 5000
	scnnr := bufio.NewScanner(r)
	for i := 0; scnnr.Scan() && i < maxTestLines; i++ {
		s := scnnr.Text()
		for _, w := range mmcifWords {
			if strings.HasPrefix(s, w) {
				return FormatMmcif
			}
		}
		for _, w := range pdbWords {
			if strings.HasPrefix(s, w) {
				return FormatPDB
			}
		}
	}
	return FormatUnknown
}

// Sniff opens a file and looks inside to decide the format.
func Sniff(name string) (Format, error) {
	fp, err := os.Open(name)
	if err != nil {
		return FormatUnknown, err
	}
	defer fp.Close()
	rdr, err := zwrap.WrapMaybe(fp)
	if err != nil {
		return FormatUnknown, fmt.Errorf("reading %s: %w", name, err)
	}
	return sniff(rdr), nil
}

// readFrom reads one format from a reader
func readFrom(r io.Reader, format Format) (*cmmn.Structure, error) {
	switch format {
	case FormatPDB:
		return oldfmt.Read(r)
	case FormatMmcif:
		doc, err := mmcif.Read(r)
		if err != nil {
			return nil, err
		}
		return mmcif.MakeStructure(doc)
	}
	return nil, errors.New("cannot recognise format")
}

// Stem is the file name without directory or extensions, including
// compression extensions. dir/1abc.pdb.gz gives 1abc
func Stem(name string) string {
	_, base := zwrap.KindOf(filepath.Base(name))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadStructure reads a pdb or mmcif file, which may be compressed.
// The format comes from the name if possible, otherwise from the contents.
// The file is memory mapped, which lets us look at it twice if we
// have to guess the format.
func ReadStructure(name string) (*cmmn.Structure, error) {
	fp, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	info, err := fp.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", name)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	m, err := mmap.Map(fp, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", name, err)
	}
	defer m.Unmap()

	format := FormatOf(name)
	if format == FormatUnknown {
		rdr, err := zwrap.WrapMaybe(bytes.NewReader(m))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if format = sniff(rdr); format == FormatUnknown {
			return nil, fmt.Errorf("%s: cannot recognise format", name)
		}
	}
	rdr, err := zwrap.WrapMaybe(bytes.NewReader(m))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	defer rdr.Close()
	st, err := readFrom(rdr, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if st.Name == "" {
		st.Name = Stem(name)
	}
	return st, nil
}

// WriteConfig has the settings for both writers
type WriteConfig struct {
	PDB    oldfmt.WriteOptions
	Groups mmcif.OutputGroups
}

// DefaultWriteConfig writes everything
func DefaultWriteConfig() WriteConfig {
	return WriteConfig{
		PDB:    oldfmt.DefaultWriteOptions(),
		Groups: mmcif.NewOutputGroups(true),
	}
}

// WriteTo writes a structure to w in one of the formats
func WriteTo(w io.Writer, st *cmmn.Structure, format Format, cfg WriteConfig) error {
	switch format {
	case FormatPDB:
		return oldfmt.Write(w, st, cfg.PDB)
	case FormatMmcif:
		return mmcif.WriteStructure(w, st, cfg.Groups)
	}
	return ErrUnsupportedFormat
}

// WriteStructure writes a file with the format given by its name. If the
// name has no pdb or mmcif extension, we return ErrUnsupportedFormat
// without creating anything. The file is written under a temporary
// name and renamed at the end, so a failure leaves nothing behind.
func WriteStructure(name string, st *cmmn.Structure, cfg WriteConfig) (err error) {
	format := FormatOf(name)
	if format == FormatUnknown {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	zw, err := zwrap.NewWriter(tmp, name)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(zw)
	if err = WriteTo(bw, st, format, cfg); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = zw.Close(); err != nil {
		return err
	}
	if err = tmp.Chmod(0644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}
