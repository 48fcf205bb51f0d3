package main

import (
	"fmt"
	"os"

	"github.com/andrew-torda/dsspconv/pkg/convert"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("pdbconvert", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Bool("minimal", false, "Leave HEADER, TITLE, KEYWDS, EXPDTA and REMARK out of pdb output")
	fs.String("log-level", "info", "One of debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, convert.Usage)
		fs.PrintDefaults()
	}
	os.Exit(convert.MyMain(fs, os.Args[1:], os.Stdout, os.Stderr))
}
