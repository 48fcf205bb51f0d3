package dssp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Defaults for running mkdssp
const (
	DefaultPath           = "mkdssp"
	DefaultMinHelixLength = 3
	DefaultTimeout        = 5 * time.Minute
)

// ErrNoOutput means mkdssp finished happily, but wrote nothing.
var ErrNoOutput = errors.New("mkdssp wrote no output")

// MkDSSP runs the mkdssp program. The zero value is not useful, use
// NewMkDSSP.
type MkDSSP struct {
	Path           string
	MinHelixLength int  // shortest polyproline helix
	Accessibility  bool // also calculate accessible surface
	ExtraArgs      []string
	Timeout        time.Duration // zero means no limit
}

// NewMkDSSP gives the settings we normally use.
func NewMkDSSP() *MkDSSP {
	return &MkDSSP{
		Path:           DefaultPath,
		MinHelixLength: DefaultMinHelixLength,
		Accessibility:  true,
		Timeout:        DefaultTimeout,
	}
}

// Args gives the command line, without the program name.
func (m *MkDSSP) Args(in, out string) []string {
	args := []string{"--output-format", "mmcif"}
	if m.MinHelixLength > 0 {
		args = append(args, "--min-pp-helix-length", strconv.Itoa(m.MinHelixLength))
	}
	if m.Accessibility {
		args = append(args, "--calculate-accessibility")
	}
	args = append(args, m.ExtraArgs...)
	return append(args, in, out)
}

// Annotate writes pdb to a temporary directory, runs mkdssp on it and
// returns what mkdssp wrote. If mkdssp fails, its output is in the error.
func (m *MkDSSP) Annotate(ctx context.Context, pdb []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "dssp")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	in := filepath.Join(dir, "in.pdb")
	out := filepath.Join(dir, "out.cif")
	if err := os.WriteFile(in, pdb, 0600); err != nil {
		return nil, err
	}
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	path := m.Path
	if path == "" {
		path = DefaultPath
	}
	cmd := exec.CommandContext(ctx, path, m.Args(in, out)...)
	log.Debug().Str("cmd", cmd.String()).Msg("running mkdssp")
	start := time.Now()
	msg, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, fmt.Errorf("%s: %w\n%s", path, err, bytes.TrimSpace(msg))
	}
	log.Debug().Dur("took", time.Since(start)).Int("bytes_in", len(pdb)).Msg("mkdssp finished")
	result, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoOutput)
	}
	return result, nil
}
