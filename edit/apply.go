// Package edit implements the editor operations as methods on
// *build.Builder. Each operation is a thin, self-contained mutation;
// Apply enforces a fixed application order when several options are
// requested together.
package edit

import "github.com/blacktop/go-elf/build"

// Options is the full recognized option set, applied in
// the fixed order below regardless of the order its fields are set in.
type Options struct {
	AddDynamicDebug bool
	DeleteRunpath   bool
	SetRunpath      string
	HasSetRunpath   bool
	AddRunpath      []string
	UseRunpath      bool
	UseRpath        bool
	DeleteNeeded    []string
	ReplaceNeeded   map[string]string
	AddNeeded       []string
	SetSoname       string
	HasSetSoname    bool
	SetInterpreter  string
	HasSetInterp    bool

	DeleteSymbols         []string
	DeleteDynamicSymbols  []string
	RenameSymbols         map[string]string
	RenameDynamicSymbols  map[string]string
	DeleteSections        []string
	RenameSections        map[string]string
}

// Apply runs every requested operation against b in a fixed order, so
// later operations deterministically see the results of earlier ones.
func Apply(b *build.Builder, o Options) error {
	if o.AddDynamicDebug {
		if err := AddDynamicDebug(b); err != nil {
			return err
		}
	}
	if o.DeleteRunpath {
		if err := DeleteRunpath(b); err != nil {
			return err
		}
	}
	if o.HasSetRunpath {
		if err := SetRunpath(b, o.SetRunpath); err != nil {
			return err
		}
	}
	if len(o.AddRunpath) > 0 {
		if err := AddRunpath(b, o.AddRunpath); err != nil {
			return err
		}
	}
	if o.UseRunpath {
		if err := UseRunpath(b); err != nil {
			return err
		}
	}
	if o.UseRpath {
		if err := UseRpath(b); err != nil {
			return err
		}
	}
	if len(o.DeleteNeeded) > 0 {
		if err := DeleteNeeded(b, o.DeleteNeeded); err != nil {
			return err
		}
	}
	if len(o.ReplaceNeeded) > 0 {
		if err := ReplaceNeeded(b, o.ReplaceNeeded); err != nil {
			return err
		}
	}
	if len(o.AddNeeded) > 0 {
		if err := AddNeeded(b, o.AddNeeded); err != nil {
			return err
		}
	}
	if o.HasSetSoname {
		if err := SetSoname(b, o.SetSoname); err != nil {
			return err
		}
	}
	if o.HasSetInterp {
		if err := SetInterpreter(b, o.SetInterpreter); err != nil {
			return err
		}
	}

	// Symbol/section operations have no ordering dependency on the
	// dynamic-table operations above; apply them after, in option-list
	// order.
	if len(o.DeleteSymbols) > 0 {
		if err := DeleteSymbols(b, o.DeleteSymbols); err != nil {
			return err
		}
	}
	if len(o.DeleteDynamicSymbols) > 0 {
		if err := DeleteDynamicSymbols(b, o.DeleteDynamicSymbols); err != nil {
			return err
		}
	}
	if len(o.RenameSymbols) > 0 {
		RenameSymbols(b, o.RenameSymbols)
	}
	if len(o.RenameDynamicSymbols) > 0 {
		RenameDynamicSymbols(b, o.RenameDynamicSymbols)
	}
	if len(o.DeleteSections) > 0 {
		DeleteSections(b, o.DeleteSections)
	}
	if len(o.RenameSections) > 0 {
		RenameSections(b, o.RenameSections)
	}
	return nil
}
