// Package program implements the VM's immutable program container (C2):
// a decoded instruction stream plus a constant pool, together with the
// AiBC1 wire-format loader that populates them from bytes.
package program

import (
	"github.com/aivm-run/aivm/opcodes"
	"github.com/aivm-run/aivm/values"
)

// SectionMeta records one section's type/size as found in the wire
// format, including sections whose type the loader does not interpret.
type SectionMeta struct {
	Type uint32
	Size uint32
}

// Program is an immutable, bounded container of instructions and
// constants. It is borrowed by a VirtualMachine for the duration of a run
// and never mutated by the dispatcher.
type Program struct {
	Instructions []opcodes.Instruction
	Constants    []values.Value
	Sections     []SectionMeta

	FormatVersion uint32
	FormatFlags   uint32

	stringPool []byte
}

// Init wraps an externally constructed instruction slice with empty
// constants and section metadata — used by tests and by callers that
// build programs directly rather than decoding AiBC1 bytes.
func Init(instructions []opcodes.Instruction) *Program {
	return &Program{Instructions: instructions}
}

// Clear zeroes the program back to its empty state.
func (p *Program) Clear() {
	p.Instructions = nil
	p.Constants = nil
	p.Sections = nil
	p.FormatVersion = 0
	p.FormatFlags = 0
	p.stringPool = nil
}

// ResolveString returns the bytes addressed by a StringHandle whose Arena
// is values.ArenaProgram. It is the program-side half of the two-arena
// string resolution scheme described in spec §9.
func (p *Program) ResolveString(h values.StringHandle) (string, bool) {
	if !h.Valid || h.Arena != values.ArenaProgram {
		return "", false
	}
	if h.Offset < 0 || h.Len < 0 || h.Offset+h.Len > len(p.stringPool) {
		return "", false
	}
	return string(p.stringPool[h.Offset : h.Offset+h.Len]), true
}

// internString copies s into the program's own string pool and returns a
// handle addressing it, enforcing the supplied hard byte cap.
func (p *Program) internString(s string, limit int) (values.StringHandle, bool) {
	if len(p.stringPool)+len(s) > limit {
		return values.StringHandle{}, false
	}
	off := len(p.stringPool)
	p.stringPool = append(p.stringPool, s...)
	return values.StringHandle{Arena: values.ArenaProgram, Valid: true, Offset: off, Len: len(s)}, true
}
