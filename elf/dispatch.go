package elf

import "github.com/blacktop/go-elf/elf/types"

// Kind identifies the detected on-disk shape of an input buffer. This
// engine is ELF-only, so Kind only ever distinguishes class/endian;
// non-ELF input is reported as an error by Detect rather than as a
// Kind value.
type Kind struct {
	Class types.Class
	Data  types.Data
}

// Detect peeks at e_ident (magic + class + data byte) and reports the
// class/endian combination without parsing the rest of the file.
func Detect(b []byte) (Kind, error) {
	ident, err := types.ParseIdent(b)
	if err != nil {
		return Kind{}, wrapErr(MalformedHeader, "not a recognizable ELF file", err)
	}
	return Kind{Class: ident.Class, Data: ident.Data}, nil
}
