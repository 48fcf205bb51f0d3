// 29 Apr 2020

// Package common has the bits shared by the programs: exit codes,
// configuration and logging.
package common

import (
	"fmt"
	"io"
	"os"
)

const (
	ExitSuccess = iota
	ExitFailure
)

// WrtTemp writes a string to a temporary file and returns
// the filename. It is used all over the place in testing.
// The suffix lets callers pick the file type, like ".pdb".
func WrtTemp(s, suffix string) (string, error) {
	fTmp, err := os.CreateTemp("", "_del_me_testing*"+suffix)
	if err != nil {
		return "", fmt.Errorf("tempfile fail: %w", err)
	}
	name := fTmp.Name()
	if _, err := io.WriteString(fTmp, s); err != nil {
		fTmp.Close()
		return "", fmt.Errorf("writing string to temp file %v: %w", name, err)
	}
	return name, fTmp.Close()
}
