package main

import (
	"fmt"
	"os"

	"github.com/andrew-torda/dsspconv/pkg/pdbdssp"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("pdbdssp", pflag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	fs.String("log-level", "info", "One of debug, info, warn, error")
	fs.String("check", "warn", "Compare mkdssp's structure with ours: off, warn or error")
	fs.String("mkdssp", "mkdssp", "The mkdssp program")
	fs.Int("min-helix", 3, "Shortest polyproline helix")
	fs.Bool("accessibility", true, "Have mkdssp calculate accessibility")
	fs.Duration("timeout", 0, "Give up on mkdssp after this long")
	fs.String("keywords", "", "_struct_keywords.pdbx_keywords for the output")
	fs.String("title", "", "Title, if the input has none")
	fs.Usage = func() {
		fmt.Println(pdbdssp.Usage)
		fs.PrintDefaults()
	}
	os.Exit(pdbdssp.MyMain(fs, os.Args[1:], os.Stdout, os.Stderr))
}
