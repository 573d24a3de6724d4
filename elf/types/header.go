package types

import (
	"encoding/binary"
	"fmt"
)

const EI_NIDENT = 16

// byte offsets within e_ident
const (
	EI_MAG0       = 0
	EI_MAG1       = 1
	EI_MAG2       = 2
	EI_MAG3       = 3
	EI_CLASS      = 4
	EI_DATA       = 5
	EI_VERSION    = 6
	EI_OSABI      = 7
	EI_ABIVERSION = 8
	EI_PAD        = 9
)

const (
	ELFMAG0 = 0x7f
	ELFMAG1 = 'E'
	ELFMAG2 = 'L'
	ELFMAG3 = 'F'
)

// OSABI is the e_ident[EI_OSABI] value.
type OSABI uint8

const (
	ELFOSABI_NONE    OSABI = 0
	ELFOSABI_HPUX    OSABI = 1
	ELFOSABI_NETBSD  OSABI = 2
	ELFOSABI_LINUX   OSABI = 3
	ELFOSABI_SOLARIS OSABI = 6
	ELFOSABI_AIX     OSABI = 7
	ELFOSABI_IRIX    OSABI = 8
	ELFOSABI_FREEBSD OSABI = 9
	ELFOSABI_OPENBSD OSABI = 12
	ELFOSABI_ARM     OSABI = 97
	ELFOSABI_STANDALONE OSABI = 255
)

var osabiStrings = []IntName{
	{uint32(ELFOSABI_NONE), "ELFOSABI_NONE"},
	{uint32(ELFOSABI_HPUX), "ELFOSABI_HPUX"},
	{uint32(ELFOSABI_NETBSD), "ELFOSABI_NETBSD"},
	{uint32(ELFOSABI_LINUX), "ELFOSABI_LINUX"},
	{uint32(ELFOSABI_SOLARIS), "ELFOSABI_SOLARIS"},
	{uint32(ELFOSABI_AIX), "ELFOSABI_AIX"},
	{uint32(ELFOSABI_IRIX), "ELFOSABI_IRIX"},
	{uint32(ELFOSABI_FREEBSD), "ELFOSABI_FREEBSD"},
	{uint32(ELFOSABI_OPENBSD), "ELFOSABI_OPENBSD"},
	{uint32(ELFOSABI_ARM), "ELFOSABI_ARM"},
	{uint32(ELFOSABI_STANDALONE), "ELFOSABI_STANDALONE"},
}

func (o OSABI) String() string { return StringName(uint32(o), osabiStrings, false) }

// Type is the object file type, e_type.
type Type uint16

const (
	ET_NONE Type = 0
	ET_REL  Type = 1
	ET_EXEC Type = 2
	ET_DYN  Type = 3
	ET_CORE Type = 4
)

var typeStrings = []IntName{
	{uint32(ET_NONE), "ET_NONE"},
	{uint32(ET_REL), "ET_REL"},
	{uint32(ET_EXEC), "ET_EXEC"},
	{uint32(ET_DYN), "ET_DYN"},
	{uint32(ET_CORE), "ET_CORE"},
}

func (t Type) String() string { return StringName(uint32(t), typeStrings, false) }

// Machine is e_machine.
type Machine uint16

const (
	EM_NONE    Machine = 0
	EM_386     Machine = 3
	EM_MIPS    Machine = 8
	EM_ARM     Machine = 40
	EM_X86_64  Machine = 62
	EM_AARCH64 Machine = 183
	EM_RISCV   Machine = 243
)

var machineStrings = []IntName{
	{uint32(EM_NONE), "EM_NONE"},
	{uint32(EM_386), "EM_386"},
	{uint32(EM_MIPS), "EM_MIPS"},
	{uint32(EM_ARM), "EM_ARM"},
	{uint32(EM_X86_64), "EM_X86_64"},
	{uint32(EM_AARCH64), "EM_AARCH64"},
	{uint32(EM_RISCV), "EM_RISCV"},
}

func (m Machine) String() string { return StringName(uint32(m), machineStrings, false) }

const EV_CURRENT = 1

// PN_XNUM is the sentinel stored in e_phnum when the real program-header
// count overflows 16 bits; the real count then lives in section 0's sh_info.
const PN_XNUM = 0xffff

// SHN_XINDEX is the sentinel stored in e_shstrndx (or a symbol's st_shndx)
// when the real index overflows 16 bits.
const SHN_XINDEX = 0xffff

const (
	FileHeaderSize32 = 52
	FileHeaderSize64 = 64
)

// Ident is the raw 16-byte e_ident array, decoded.
type Ident struct {
	Class      Class
	Data       Data
	Version    uint8
	OSABI      OSABI
	ABIVersion uint8
}

// ParseIdent validates and decodes e_ident.
func ParseIdent(b []byte) (Ident, error) {
	var id Ident
	if len(b) < EI_NIDENT {
		return id, errAt(0, "file too short for e_ident", len(b))
	}
	if b[EI_MAG0] != ELFMAG0 || b[EI_MAG1] != ELFMAG1 || b[EI_MAG2] != ELFMAG2 || b[EI_MAG3] != ELFMAG3 {
		return id, errAt(0, "bad ELF magic", b[:4])
	}
	id.Class = Class(b[EI_CLASS])
	if id.Class != ELFCLASS32 && id.Class != ELFCLASS64 {
		return id, errAt(EI_CLASS, "unknown ELF class", b[EI_CLASS])
	}
	id.Data = Data(b[EI_DATA])
	if id.Data != ELFDATA2LSB && id.Data != ELFDATA2MSB {
		return id, errAt(EI_DATA, "unknown ELF data encoding", b[EI_DATA])
	}
	id.Version = b[EI_VERSION]
	if id.Version != EV_CURRENT {
		return id, errAt(EI_VERSION, "unsupported ELF version", b[EI_VERSION])
	}
	id.OSABI = OSABI(b[EI_OSABI])
	id.ABIVersion = b[EI_ABIVERSION]
	return id, nil
}

// Header32 is the 32-bit ELF file header, Elf32_Ehdr.
type Header32 struct {
	Ident     [EI_NIDENT]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// Header64 is the 64-bit ELF file header, Elf64_Ehdr.
type Header64 struct {
	Ident     [EI_NIDENT]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// FileHeader is the class/endian-normalized view of either header
// shape, widened to host-sized integers.
type FileHeader struct {
	Ident     Ident
	Type      Type
	Machine   Machine
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

func (h *FileHeader) String() string {
	return fmt.Sprintf(
		"Class    = %s\n"+
			"Data     = %s\n"+
			"Type     = %s\n"+
			"Machine  = %s\n"+
			"Entry    = %#x\n"+
			"Phoff    = %#x Phnum = %d\n"+
			"Shoff    = %#x Shnum = %d Shstrndx = %d\n",
		h.Ident.Class, h.Ident.Data, h.Type, h.Machine, h.Entry,
		h.Phoff, h.Phnum, h.Shoff, h.Shnum, h.Shstrndx)
}

// DecodeHeader32 decodes an Elf32_Ehdr from b in the given order.
func DecodeHeader32(b []byte, order binary.ByteOrder) (*Header32, error) {
	if len(b) < FileHeaderSize32 {
		return nil, errAt(0, "short file header", len(b))
	}
	h := new(Header32)
	copy(h.Ident[:], b[:EI_NIDENT])
	h.Type = order.Uint16(b[16:])
	h.Machine = order.Uint16(b[18:])
	h.Version = order.Uint32(b[20:])
	h.Entry = order.Uint32(b[24:])
	h.Phoff = order.Uint32(b[28:])
	h.Shoff = order.Uint32(b[32:])
	h.Flags = order.Uint32(b[36:])
	h.Ehsize = order.Uint16(b[40:])
	h.Phentsize = order.Uint16(b[42:])
	h.Phnum = order.Uint16(b[44:])
	h.Shentsize = order.Uint16(b[46:])
	h.Shnum = order.Uint16(b[48:])
	h.Shstrndx = order.Uint16(b[50:])
	return h, nil
}

// DecodeHeader64 decodes an Elf64_Ehdr from b in the given order.
func DecodeHeader64(b []byte, order binary.ByteOrder) (*Header64, error) {
	if len(b) < FileHeaderSize64 {
		return nil, errAt(0, "short file header", len(b))
	}
	h := new(Header64)
	copy(h.Ident[:], b[:EI_NIDENT])
	h.Type = order.Uint16(b[16:])
	h.Machine = order.Uint16(b[18:])
	h.Version = order.Uint32(b[20:])
	h.Entry = order.Uint64(b[24:])
	h.Phoff = order.Uint64(b[32:])
	h.Shoff = order.Uint64(b[40:])
	h.Flags = order.Uint32(b[48:])
	h.Ehsize = order.Uint16(b[52:])
	h.Phentsize = order.Uint16(b[54:])
	h.Phnum = order.Uint16(b[56:])
	h.Shentsize = order.Uint16(b[58:])
	h.Shnum = order.Uint16(b[60:])
	h.Shstrndx = order.Uint16(b[62:])
	return h, nil
}

// Put64 encodes h as an Elf64_Ehdr into b.
func (h *FileHeader) Put64(b []byte, order binary.ByteOrder) int {
	var ident [EI_NIDENT]byte
	ident[EI_MAG0], ident[EI_MAG1], ident[EI_MAG2], ident[EI_MAG3] = ELFMAG0, ELFMAG1, ELFMAG2, ELFMAG3
	ident[EI_CLASS] = byte(ELFCLASS64)
	ident[EI_DATA] = byte(h.Ident.Data)
	ident[EI_VERSION] = EV_CURRENT
	ident[EI_OSABI] = byte(h.Ident.OSABI)
	ident[EI_ABIVERSION] = h.Ident.ABIVersion
	copy(b[0:], ident[:])
	order.PutUint16(b[16:], uint16(h.Type))
	order.PutUint16(b[18:], uint16(h.Machine))
	order.PutUint32(b[20:], h.Version)
	order.PutUint64(b[24:], h.Entry)
	order.PutUint64(b[32:], h.Phoff)
	order.PutUint64(b[40:], h.Shoff)
	order.PutUint32(b[48:], h.Flags)
	order.PutUint16(b[52:], h.Ehsize)
	order.PutUint16(b[54:], h.Phentsize)
	order.PutUint16(b[56:], h.Phnum)
	order.PutUint16(b[58:], h.Shentsize)
	order.PutUint16(b[60:], h.Shnum)
	order.PutUint16(b[62:], h.Shstrndx)
	return FileHeaderSize64
}

// Put32 encodes h as an Elf32_Ehdr into b.
func (h *FileHeader) Put32(b []byte, order binary.ByteOrder) int {
	var ident [EI_NIDENT]byte
	ident[EI_MAG0], ident[EI_MAG1], ident[EI_MAG2], ident[EI_MAG3] = ELFMAG0, ELFMAG1, ELFMAG2, ELFMAG3
	ident[EI_CLASS] = byte(ELFCLASS32)
	ident[EI_DATA] = byte(h.Ident.Data)
	ident[EI_VERSION] = EV_CURRENT
	ident[EI_OSABI] = byte(h.Ident.OSABI)
	ident[EI_ABIVERSION] = h.Ident.ABIVersion
	copy(b[0:], ident[:])
	order.PutUint16(b[16:], uint16(h.Type))
	order.PutUint16(b[18:], uint16(h.Machine))
	order.PutUint32(b[20:], h.Version)
	order.PutUint32(b[24:], uint32(h.Entry))
	order.PutUint32(b[28:], uint32(h.Phoff))
	order.PutUint32(b[32:], uint32(h.Shoff))
	order.PutUint32(b[36:], h.Flags)
	order.PutUint16(b[40:], h.Ehsize)
	order.PutUint16(b[42:], h.Phentsize)
	order.PutUint16(b[44:], h.Phnum)
	order.PutUint16(b[46:], h.Shentsize)
	order.PutUint16(b[48:], h.Shnum)
	order.PutUint16(b[50:], h.Shstrndx)
	return FileHeaderSize32
}
