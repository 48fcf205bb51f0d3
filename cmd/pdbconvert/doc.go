/*
Pdbconvert reads a structure and writes it again.

Usage:
	pdbconvert [options] input.pdb output.[pdb|cif]

The input may be pdb or mmcif, compressed with gzip or zstd or not.
The format of the output comes from its name, so out.pdb gets pdb,
out.cif gets mmcif and out.cif.gz gets compressed mmcif. Anything else
is refused and nothing is written.

Options:
	--minimal      no HEADER, TITLE, KEYWDS, EXPDTA or REMARK records
	--log-level    debug, info, warn or error
	--config       a yaml file with settings (default ./dsspconv.yml)
*/
package main
