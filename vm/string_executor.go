package vm

import (
	"strconv"
	"strings"

	"github.com/aivm-run/aivm/internal/runeslice"
	"github.com/aivm-run/aivm/opcodes"
	"github.com/aivm-run/aivm/values"
)

// StringExecutor handles string construction, conversion, and the
// rune-indexed slicing operations.
type StringExecutor struct {
	vm *VirtualMachine
}

func (e *StringExecutor) Execute(inst opcodes.Instruction) bool {
	vm := e.vm

	switch inst.Opcode {
	case opcodes.STR_CONCAT:
		b, ok := vm.pop()
		if !ok {
			vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
			return false
		}
		a, ok := vm.pop()
		if !ok {
			vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
			return false
		}
		if a.Type != values.TypeString || !a.S.Valid || b.Type != values.TypeString || !b.S.Valid {
			vm.fail(ErrKindTypeMismatch, inst.Opcode, "STR_CONCAT requires two non-null String operands")
			return false
		}
		as, _ := vm.ResolveString(a.S)
		bs, _ := vm.ResolveString(b.S)
		return e.pushNewString(inst, as+bs)

	case opcodes.TO_STRING:
		v, ok := vm.pop()
		if !ok {
			vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
			return false
		}
		var s string
		switch v.Type {
		case values.TypeString:
			if !v.S.Valid {
				vm.fail(ErrKindTypeMismatch, inst.Opcode, "TO_STRING on null string")
				return false
			}
			s, _ = vm.ResolveString(v.S)
		case values.TypeBool:
			if v.IsTruthy() {
				s = "true"
			} else {
				s = "false"
			}
		case values.TypeVoid:
			s = "null"
		case values.TypeInt:
			s = strconv.FormatInt(v.I, 10)
		default:
			vm.fail(ErrKindTypeMismatch, inst.Opcode, "TO_STRING does not accept %s", v.Type)
			return false
		}
		return e.pushNewString(inst, s)

	case opcodes.STR_ESCAPE:
		v, ok := vm.pop()
		if !ok {
			vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
			return false
		}
		if v.Type != values.TypeString || !v.S.Valid {
			vm.fail(ErrKindTypeMismatch, inst.Opcode, "STR_ESCAPE requires a non-null String")
			return false
		}
		s, _ := vm.ResolveString(v.S)
		return e.pushNewString(inst, escape(s))

	case opcodes.STR_SUBSTRING, opcodes.STR_REMOVE:
		length, ok := vm.pop()
		if !ok {
			vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
			return false
		}
		start, ok := vm.pop()
		if !ok {
			vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
			return false
		}
		text, ok := vm.pop()
		if !ok {
			vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
			return false
		}
		if text.Type != values.TypeString || !text.S.Valid || start.Type != values.TypeInt || length.Type != values.TypeInt {
			vm.fail(ErrKindTypeMismatch, inst.Opcode, "expected (String, Int, Int)")
			return false
		}
		s, _ := vm.ResolveString(text.S)
		var out string
		if inst.Opcode == opcodes.STR_SUBSTRING {
			out = runeslice.Substring(s, int(start.I), int(length.I))
		} else {
			out = runeslice.Remove(s, int(start.I), int(length.I))
		}
		return e.pushNewString(inst, out)

	case opcodes.STR_UTF8_BYTE_COUNT:
		v, ok := vm.pop()
		if !ok {
			vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
			return false
		}
		if v.Type != values.TypeString || !v.S.Valid {
			vm.fail(ErrKindTypeMismatch, inst.Opcode, "STR_UTF8_BYTE_COUNT requires a non-null String")
			return false
		}
		s, _ := vm.ResolveString(v.S)
		if !vm.push(values.Int(int64(runeslice.UTF8ByteCount(s)))) {
			vm.fail(ErrKindStackOverflow, inst.Opcode, "")
			return false
		}
		return true

	default:
		vm.fail(ErrKindInvalidOpcode, inst.Opcode, "unhandled string opcode")
		return false
	}
}

func (e *StringExecutor) pushNewString(inst opcodes.Instruction, s string) bool {
	vm := e.vm
	h, ok := vm.internString(s)
	if !ok {
		vm.fail(ErrKindStringOverflow, inst.Opcode, "")
		return false
	}
	if !vm.push(values.String(h)) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
