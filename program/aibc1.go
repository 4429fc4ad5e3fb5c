package program

import (
	"encoding/binary"

	"github.com/aivm-run/aivm/opcodes"
	"github.com/aivm-run/aivm/values"
)

// LoadStatus enumerates every terminal outcome of LoadAiBC1.
type LoadStatus int

const (
	StatusOK LoadStatus = iota
	StatusNull
	StatusTruncated
	StatusBadMagic
	StatusUnsupported
	StatusSectionOob
	StatusSectionLimit
	StatusInstructionLimit
	StatusInvalidSection
	StatusInvalidOpcode
	StatusConstantLimit
	StatusInvalidConstant
	StatusStringLimit
)

func (s LoadStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNull:
		return "Null"
	case StatusTruncated:
		return "Truncated"
	case StatusBadMagic:
		return "BadMagic"
	case StatusUnsupported:
		return "Unsupported"
	case StatusSectionOob:
		return "SectionOob"
	case StatusSectionLimit:
		return "SectionLimit"
	case StatusInstructionLimit:
		return "InstructionLimit"
	case StatusInvalidSection:
		return "InvalidSection"
	case StatusInvalidOpcode:
		return "InvalidOpcode"
	case StatusConstantLimit:
		return "ConstantLimit"
	case StatusInvalidConstant:
		return "InvalidConstant"
	case StatusStringLimit:
		return "StringLimit"
	default:
		return "Unknown"
	}
}

// LoadResult is the outcome of LoadAiBC1: a status and the byte offset at
// which the first defect was noticed (meaningful only when status != OK).
type LoadResult struct {
	Status      LoadStatus
	ErrorOffset int
}

// Limits bounds a single AiBC1 decode. The zero value is not usable;
// DefaultLimits returns the recommended minima from the wire-format spec.
type Limits struct {
	MaxSections     int
	MaxInstructions int
	MaxConstants    int
	MaxStringBytes  int
}

// DefaultLimits returns the fixed capacities recommended for program
// storage: 4096 instructions, 1024 constants, 8 KiB of constant string
// bytes, 32 sections.
func DefaultLimits() Limits {
	return Limits{
		MaxSections:     32,
		MaxInstructions: 4096,
		MaxConstants:    1024,
		MaxStringBytes:  8 * 1024,
	}
}

const (
	sectionTypeInstructions = 1
	sectionTypeConstants    = 2

	constKindInt    = 1
	constKindBool   = 2
	constKindString = 3
	constKindVoid   = 4
)

// LoadAiBC1 parses the AiBC1 wire format (little-endian; header
// "AIBC" + format_version:u32 + format_flags:u32 + section_count:u32,
// followed by section_count sections of {type:u32, size:u32, payload})
// into p, which is cleared first and cleared again on any failure. See
// spec §6 for the exact byte layout of the instructions (type 1) and
// constants (type 2) sections; other section types are recorded in
// p.Sections but otherwise ignored.
func LoadAiBC1(bytes []byte, p *Program, limits Limits) (res LoadResult) {
	p.Clear()
	defer func() {
		if res.Status != StatusOK {
			p.Clear()
		}
	}()

	if bytes == nil {
		return LoadResult{Status: StatusNull, ErrorOffset: 0}
	}

	if len(bytes) < 16 {
		return LoadResult{Status: StatusTruncated, ErrorOffset: len(bytes)}
	}

	if bytes[0] != 'A' || bytes[1] != 'I' || bytes[2] != 'B' || bytes[3] != 'C' {
		return LoadResult{Status: StatusBadMagic, ErrorOffset: 0}
	}

	formatVersion := binary.LittleEndian.Uint32(bytes[4:8])
	formatFlags := binary.LittleEndian.Uint32(bytes[8:12])
	sectionCount := binary.LittleEndian.Uint32(bytes[12:16])

	if formatVersion != 1 {
		return LoadResult{Status: StatusUnsupported, ErrorOffset: 4}
	}

	if int(sectionCount) > limits.MaxSections {
		return LoadResult{Status: StatusSectionLimit, ErrorOffset: 12}
	}

	p.FormatVersion = formatVersion
	p.FormatFlags = formatFlags

	cursor := 16
	sawInstructions := false

	for i := uint32(0); i < sectionCount; i++ {
		if cursor+8 > len(bytes) {
			return LoadResult{Status: StatusTruncated, ErrorOffset: cursor}
		}
		secType := binary.LittleEndian.Uint32(bytes[cursor : cursor+4])
		secSize := binary.LittleEndian.Uint32(bytes[cursor+4 : cursor+8])
		payloadStart := cursor + 8

		if payloadStart+int(secSize) > len(bytes) {
			return LoadResult{Status: StatusSectionOob, ErrorOffset: cursor}
		}
		payload := bytes[payloadStart : payloadStart+int(secSize)]

		p.Sections = append(p.Sections, SectionMeta{Type: secType, Size: secSize})

		switch secType {
		case sectionTypeInstructions:
			if sawInstructions {
				return LoadResult{Status: StatusInvalidSection, ErrorOffset: cursor}
			}
			sawInstructions = true
			res := decodeInstructions(payload, p, limits, payloadStart)
			if res.Status != StatusOK {
				return res
			}
		case sectionTypeConstants:
			res := decodeConstants(payload, p, limits, payloadStart)
			if res.Status != StatusOK {
				return res
			}
		default:
			// Unknown section types are preserved in Sections but otherwise
			// ignored, per the wire-format spec.
		}

		cursor = payloadStart + int(secSize)
	}

	return LoadResult{Status: StatusOK}
}

func decodeInstructions(payload []byte, p *Program, limits Limits, baseOffset int) LoadResult {
	if len(payload) < 4 {
		return LoadResult{Status: StatusInvalidSection, ErrorOffset: baseOffset}
	}
	count := binary.LittleEndian.Uint32(payload[0:4])
	if 4+12*int(count) != len(payload) {
		return LoadResult{Status: StatusInvalidSection, ErrorOffset: baseOffset}
	}
	if int(count) > limits.MaxInstructions {
		return LoadResult{Status: StatusInstructionLimit, ErrorOffset: baseOffset}
	}

	instrs := make([]opcodes.Instruction, 0, count)
	cursor := 4
	for i := uint32(0); i < count; i++ {
		opVal := binary.LittleEndian.Uint32(payload[cursor : cursor+4])
		operand := int64(binary.LittleEndian.Uint64(payload[cursor+4 : cursor+12]))
		op := opcodes.Opcode(opVal)
		if uint32(opVal) > uint32(opcodes.MaxOpcode) || !op.Valid() {
			return LoadResult{Status: StatusInvalidOpcode, ErrorOffset: baseOffset + cursor}
		}
		instrs = append(instrs, opcodes.Instruction{Opcode: op, Operand: operand})
		cursor += 12
	}
	p.Instructions = instrs
	return LoadResult{Status: StatusOK}
}

func decodeConstants(payload []byte, p *Program, limits Limits, baseOffset int) LoadResult {
	if len(payload) < 4 {
		return LoadResult{Status: StatusInvalidSection, ErrorOffset: baseOffset}
	}
	count := binary.LittleEndian.Uint32(payload[0:4])
	if int(count) > limits.MaxConstants {
		return LoadResult{Status: StatusConstantLimit, ErrorOffset: baseOffset}
	}

	consts := make([]values.Value, 0, count)
	cursor := 4
	for i := uint32(0); i < count; i++ {
		if cursor >= len(payload) {
			return LoadResult{Status: StatusInvalidSection, ErrorOffset: baseOffset + cursor}
		}
		kind := payload[cursor]
		cursor++
		switch kind {
		case constKindInt:
			if cursor+8 > len(payload) {
				return LoadResult{Status: StatusInvalidSection, ErrorOffset: baseOffset + cursor}
			}
			v := int64(binary.LittleEndian.Uint64(payload[cursor : cursor+8]))
			consts = append(consts, values.Int(v))
			cursor += 8
		case constKindBool:
			if cursor+1 > len(payload) {
				return LoadResult{Status: StatusInvalidSection, ErrorOffset: baseOffset + cursor}
			}
			consts = append(consts, values.Bool(payload[cursor] != 0))
			cursor++
		case constKindString:
			if cursor+4 > len(payload) {
				return LoadResult{Status: StatusInvalidSection, ErrorOffset: baseOffset + cursor}
			}
			strLen := binary.LittleEndian.Uint32(payload[cursor : cursor+4])
			cursor += 4
			if cursor+int(strLen) > len(payload) {
				return LoadResult{Status: StatusInvalidSection, ErrorOffset: baseOffset + cursor}
			}
			s := string(payload[cursor : cursor+int(strLen)])
			cursor += int(strLen)
			handle, ok := p.internString(s, limits.MaxStringBytes)
			if !ok {
				return LoadResult{Status: StatusStringLimit, ErrorOffset: baseOffset + cursor}
			}
			consts = append(consts, values.String(handle))
		case constKindVoid:
			consts = append(consts, values.Void())
		default:
			return LoadResult{Status: StatusInvalidConstant, ErrorOffset: baseOffset + cursor - 1}
		}
	}

	if cursor != len(payload) {
		return LoadResult{Status: StatusInvalidSection, ErrorOffset: baseOffset + cursor}
	}

	p.Constants = consts
	return LoadResult{Status: StatusOK}
}
