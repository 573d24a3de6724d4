package elf

import "github.com/blacktop/go-elf/elf/types"

// VerdefRecord is a version-definition record plus its resolved aux names.
type VerdefRecord struct {
	types.Verdef
	AuxNames []string
}

// VerneedRecord is a needed-version record plus its resolved file name
// and auxiliary (needed-version) entries.
type VerneedRecord struct {
	types.Verneed
	File string
	Aux  []VernauxEntry
}

type VernauxEntry struct {
	types.Vernaux
	Name string
}

func (f *File) dynstrData() []byte {
	s := f.dynstrSection()
	if s == nil {
		return nil
	}
	b, _ := s.Data()
	return b
}

// VersionDefs decodes .gnu.version_d (SHT_GNU_VERDEF), following each
// record's vd_next chain.
func (f *File) VersionDefs() ([]VerdefRecord, error) {
	sec := f.sectionByType(types.SHT_GNU_VERDEF)
	if sec == nil {
		return nil, nil
	}
	raw, err := sec.Data()
	if err != nil {
		return nil, err
	}
	bo := f.ByteOrder.ByteOrder()
	str := f.dynstrData()

	var out []VerdefRecord
	off := uint32(0)
	for {
		if uint64(off)+types.VerdefSize > uint64(len(raw)) {
			return nil, newErr(InvalidSize, "verdef record out of range")
		}
		vd := types.DecodeVerdef(raw[off:], bo)
		rec := VerdefRecord{Verdef: vd}
		auxOff := off + vd.Aux
		for i := uint16(0); i < vd.Cnt; i++ {
			if uint64(auxOff)+types.VerdauxSize > uint64(len(raw)) {
				return nil, newErr(InvalidSize, "verdaux record out of range")
			}
			aux := types.DecodeVerdaux(raw[auxOff:], bo)
			name, _ := cstr(str, uint64(aux.Name))
			rec.AuxNames = append(rec.AuxNames, name)
			if aux.Next == 0 {
				break
			}
			auxOff += aux.Next
		}
		out = append(out, rec)
		if vd.Next == 0 {
			break
		}
		off += vd.Next
	}
	return out, nil
}

// VersionNeeds decodes .gnu.version_r (SHT_GNU_VERNEED).
func (f *File) VersionNeeds() ([]VerneedRecord, error) {
	sec := f.sectionByType(types.SHT_GNU_VERNEED)
	if sec == nil {
		return nil, nil
	}
	raw, err := sec.Data()
	if err != nil {
		return nil, err
	}
	bo := f.ByteOrder.ByteOrder()
	str := f.dynstrData()

	var out []VerneedRecord
	off := uint32(0)
	for {
		if uint64(off)+types.VerneedSize > uint64(len(raw)) {
			return nil, newErr(InvalidSize, "verneed record out of range")
		}
		vn := types.DecodeVerneed(raw[off:], bo)
		rec := VerneedRecord{Verneed: vn}
		rec.File, _ = cstr(str, uint64(vn.File))
		auxOff := off + vn.Aux
		for i := uint16(0); i < vn.Cnt; i++ {
			if uint64(auxOff)+types.VernauxSize > uint64(len(raw)) {
				return nil, newErr(InvalidSize, "vernaux record out of range")
			}
			aux := types.DecodeVernaux(raw[auxOff:], bo)
			name, _ := cstr(str, uint64(aux.Name))
			rec.Aux = append(rec.Aux, VernauxEntry{Vernaux: aux, Name: name})
			if aux.Next == 0 {
				break
			}
			auxOff += aux.Next
		}
		out = append(out, rec)
		if vn.Next == 0 {
			break
		}
		off += vn.Next
	}
	return out, nil
}

// VersionSyms decodes .gnu.version (SHT_GNU_VERSYM): one Versym per
// dynamic symbol, in dynsym order.
func (f *File) VersionSyms() ([]types.Versym, error) {
	sec := f.sectionByType(types.SHT_GNU_VERSYM)
	if sec == nil {
		return nil, nil
	}
	raw, err := sec.Data()
	if err != nil {
		return nil, err
	}
	bo := f.ByteOrder.ByteOrder()
	if len(raw)%2 != 0 {
		return nil, newErr(InvalidSize, "versym section size is odd")
	}
	out := make([]types.Versym, len(raw)/2)
	for i := range out {
		out[i] = types.Versym(bo.Uint16(raw[i*2:]))
	}
	return out, nil
}

func (f *File) sectionByType(t types.SectionType) *Section {
	for _, s := range f.Sections {
		if s.Type == t {
			return s
		}
	}
	return nil
}
