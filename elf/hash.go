package elf

import "github.com/blacktop/go-elf/elf/types"

// HashTable is a decoded SHT_HASH (classic ELF hash) table: symtab index
// i hashes into bucket[hash(name)%len(Bucket)], then follows Chain[i]
// until a zero entry terminates the list, mirroring the writer's side
// of the same layout in writer/hash.go.
type HashTable struct {
	Bucket []uint32
	Chain  []uint32
}

// GNUHashTable is a decoded SHT_GNU_HASH table: a bloom filter over the
// hashed, bucket-sorted dynamic symbol suffix starting at SymNdx.
type GNUHashTable struct {
	SymNdx    uint32
	BloomMask uint32 // shift2 hash bit to fold into the bloom word
	Bloom     []uint64
	Buckets   []uint32
	Chain     []uint32 // one entry per symbol from SymNdx onward
}

// HashTable decodes the SHT_HASH section, if present.
func (f *File) HashTable() (*HashTable, error) {
	sec := f.sectionByType(types.SHT_HASH)
	if sec == nil {
		return nil, nil
	}
	raw, err := sec.Data()
	if err != nil {
		return nil, err
	}
	bo := f.ByteOrder.ByteOrder()
	if len(raw) < 8 {
		return nil, newErr(InvalidSize, "truncated SHT_HASH section")
	}
	nbucket := bo.Uint32(raw[0:4])
	nchain := bo.Uint32(raw[4:8])
	need := 8 + uint64(nbucket)*4 + uint64(nchain)*4
	if need > uint64(len(raw)) {
		return nil, newErr(InvalidSize, "SHT_HASH bucket/chain count out of range")
	}
	ht := &HashTable{Bucket: make([]uint32, nbucket), Chain: make([]uint32, nchain)}
	off := 8
	for i := range ht.Bucket {
		ht.Bucket[i] = bo.Uint32(raw[off:])
		off += 4
	}
	for i := range ht.Chain {
		ht.Chain[i] = bo.Uint32(raw[off:])
		off += 4
	}
	return ht, nil
}

// GNUHashTable decodes the SHT_GNU_HASH section, if present.
func (f *File) GNUHashTable() (*GNUHashTable, error) {
	sec := f.sectionByType(types.SHT_GNU_HASH)
	if sec == nil {
		return nil, nil
	}
	raw, err := sec.Data()
	if err != nil {
		return nil, err
	}
	bo := f.ByteOrder.ByteOrder()
	if len(raw) < 16 {
		return nil, newErr(InvalidSize, "truncated SHT_GNU_HASH section")
	}
	nbuckets := bo.Uint32(raw[0:4])
	symndx := bo.Uint32(raw[4:8])
	maskwords := bo.Uint32(raw[8:12])
	shift2 := bo.Uint32(raw[12:16])

	wordsize := 4 // bloom words are Elfxx_Addr-sized, matching the writer
	if f.Ident.Class.Is64() {
		wordsize = 8
	}
	off := 16
	bloomBytes := uint64(maskwords) * uint64(wordsize)
	if uint64(off)+bloomBytes > uint64(len(raw)) {
		return nil, newErr(InvalidSize, "SHT_GNU_HASH bloom filter out of range")
	}
	bloom := make([]uint64, maskwords)
	for i := range bloom {
		if wordsize == 8 {
			bloom[i] = bo.Uint64(raw[off:])
		} else {
			bloom[i] = uint64(bo.Uint32(raw[off:]))
		}
		off += wordsize
	}

	bucketBytes := uint64(nbuckets) * 4
	if uint64(off)+bucketBytes > uint64(len(raw)) {
		return nil, newErr(InvalidSize, "SHT_GNU_HASH bucket table out of range")
	}
	buckets := make([]uint32, nbuckets)
	for i := range buckets {
		buckets[i] = bo.Uint32(raw[off:])
		off += 4
	}

	chainWords := (len(raw) - off) / 4
	chain := make([]uint32, chainWords)
	for i := range chain {
		chain[i] = bo.Uint32(raw[off:])
		off += 4
	}

	return &GNUHashTable{
		SymNdx:    symndx,
		BloomMask: shift2,
		Bloom:     bloom,
		Buckets:   buckets,
		Chain:     chain,
	}, nil
}
