// Command elfedit loads an ELF object, applies a requested set of
// edits, relays out any sections the edits grew, and writes the
// result. It is this repo's analogue of the gimli-rs/object crate's
// elfcopy example: a thin CLI over build.FromView / edit.Apply /
// mover.Run / writer.Emit.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/blacktop/go-elf/build"
	"github.com/blacktop/go-elf/edit"
	"github.com/blacktop/go-elf/elf"
	"github.com/blacktop/go-elf/mover"
	"github.com/blacktop/go-elf/writer"
)

// stringList collects repeated -flag occurrences into an ordered slice.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// keyValueList collects repeated -flag old=new occurrences into a map,
// used for --replace-needed and the rename options.
type keyValueList map[string]string

func (m keyValueList) String() string {
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (m keyValueList) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("expected OLD=NEW, got %q", v)
	}
	m[k] = val
	return nil
}

func main() {
	var (
		output          string
		addDebug        bool
		delRunpath      bool
		setRunpath      string
		addRunpath      stringList
		useRunpath      bool
		useRpath        bool
		delNeeded       stringList
		addNeeded       stringList
		replaceNeeded   = keyValueList{}
		setSoname       string
		setInterp       string
		delSymbols      stringList
		delDynSymbols   stringList
		renameSymbols   = keyValueList{}
		renameDynSyms   = keyValueList{}
		delSections     stringList
		renameSections  = keyValueList{}
		verbose         bool
	)

	flag.StringVar(&output, "o", "", "output file path (required)")
	flag.BoolVar(&addDebug, "add-dynamic-debug", false, "insert a DT_DEBUG entry if absent")
	flag.BoolVar(&delRunpath, "delete-runpath", false, "remove DT_RUNPATH/DT_RPATH")
	flag.StringVar(&setRunpath, "set-runpath", "", "set every DT_RUNPATH/DT_RPATH to the given value, adding DT_RUNPATH if none exists")
	flag.Var(&addRunpath, "add-runpath", "append a path to DT_RUNPATH (repeatable)")
	flag.BoolVar(&useRunpath, "use-runpath", false, "convert DT_RPATH to DT_RUNPATH")
	flag.BoolVar(&useRpath, "use-rpath", false, "convert DT_RUNPATH to DT_RPATH")
	flag.Var(&delNeeded, "remove-needed", "remove a DT_NEEDED entry (repeatable)")
	flag.Var(&addNeeded, "add-needed", "prepend a DT_NEEDED entry if absent (repeatable)")
	flag.Var(replaceNeeded, "replace-needed", "OLD=NEW, replace a DT_NEEDED entry (repeatable)")
	flag.StringVar(&setSoname, "set-soname", "", "set DT_SONAME")
	flag.StringVar(&setInterp, "set-interpreter", "", "rewrite PT_INTERP/.interp")
	flag.Var(&delSymbols, "delete-symbol", ".symtab entry to delete (repeatable)")
	flag.Var(&delDynSymbols, "delete-dynamic-symbol", ".dynsym entry to delete (repeatable)")
	flag.Var(renameSymbols, "rename-symbol", "OLD=NEW, rename a .symtab entry (repeatable)")
	flag.Var(renameDynSyms, "rename-dynamic-symbol", "OLD=NEW, rename a .dynsym entry (repeatable)")
	flag.Var(&delSections, "delete-section", "section name to delete (repeatable)")
	flag.Var(renameSections, "rename-section", "OLD=NEW, rename a section (repeatable)")
	flag.BoolVar(&verbose, "v", env.Bool("ELF_VERBOSE"), "log each stage to stderr (default from $ELF_VERBOSE)")
	flag.Parse()

	if output == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: elfedit [flags] -o OUTPUT INPUT")
		flag.PrintDefaults()
		os.Exit(2)
	}
	input := flag.Arg(0)

	var logger *log.Logger
	if verbose {
		logger = log.New(os.Stderr, "elfedit: ", log.LstdFlags)
	}

	if err := run(input, output, logger, edit.Options{
		AddDynamicDebug:      addDebug,
		DeleteRunpath:        delRunpath,
		SetRunpath:           setRunpath,
		HasSetRunpath:        setRunpath != "",
		AddRunpath:           addRunpath,
		UseRunpath:           useRunpath,
		UseRpath:             useRpath,
		DeleteNeeded:         delNeeded,
		ReplaceNeeded:        replaceNeeded,
		AddNeeded:            addNeeded,
		SetSoname:            setSoname,
		HasSetSoname:         setSoname != "",
		SetInterpreter:       setInterp,
		HasSetInterp:         setInterp != "",
		DeleteSymbols:        delSymbols,
		DeleteDynamicSymbols: delDynSymbols,
		RenameSymbols:        renameSymbols,
		RenameDynamicSymbols: renameDynSyms,
		DeleteSections:       delSections,
		RenameSections:       renameSections,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "elfedit: %v\n", err)
		os.Exit(1)
	}
}

func run(input, output string, logger *log.Logger, opts edit.Options) error {
	loadAlign := uint64(env.Int64("ELF_LOAD_ALIGN", 0x1000))

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	f, err := elf.Open(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", input, err)
	}
	if logger != nil {
		logger.Printf("parsed %s: class=%s machine=%s sections=%d segments=%d",
			input, f.Ident.Class, f.FileHeader.Machine, len(f.Sections), len(f.Progs))
	}

	b, err := build.FromView(f)
	if err != nil {
		return fmt.Errorf("load build model: %w", err)
	}
	b.LoadAlign = loadAlign

	if err := edit.Apply(b, opts); err != nil {
		return fmt.Errorf("apply edits: %w", err)
	}
	if logger != nil {
		logger.Printf("edits applied, modified=%v", b.Modified)
	}

	if err := mover.Run(b); err != nil {
		return fmt.Errorf("relayout sections: %w", err)
	}
	if logger != nil {
		logger.Printf("section layout settled")
	}

	out, err := writer.Emit(b)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	if logger != nil {
		logger.Printf("wrote %d bytes to %s", len(out), output)
	}

	if err := os.WriteFile(output, out, 0o755); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}
