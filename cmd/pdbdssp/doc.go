/*
Pdbdssp adds secondary structure to a pdb file.

Usage:
	pdbdssp [options] input.pdb

We run mkdssp on the structure and take its helices and sheets. Any
helices or sheets in the input are thrown away. Polymers without a
SEQRES get one from their residues. The keywords are set and, if the
input has no title, so is the title.
Two files are written next to the input, so 4y5u.pdb gives
4y5u-dssp.pdb and 4y5u-dssp.cif.

mkdssp's structure is compared with ours. --check says what to do if
they differ: off, warn (the default) or error.

Settings can come from a yaml file (--config, default ./dsspconv.yml)
or the environment. For example
	mkdssp:
	  path: /usr/local/bin/mkdssp
	  timeout: 2m
	check: error
is the same as DSSPCONV_MKDSSP_PATH=/usr/local/bin/mkdssp and so on.
Flags beat the environment, which beats the file.
*/
package main
