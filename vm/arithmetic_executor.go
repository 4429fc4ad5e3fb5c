package vm

import (
	"github.com/aivm-run/aivm/opcodes"
	"github.com/aivm-run/aivm/values"
)

// ArithmeticExecutor handles the VM's two typed integer operations and
// its single polymorphic equality operation.
type ArithmeticExecutor struct {
	vm *VirtualMachine
}

func (e *ArithmeticExecutor) Execute(inst opcodes.Instruction) bool {
	vm := e.vm

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

	switch inst.Opcode {
	case opcodes.ADD_INT:
		if a.Type != values.TypeInt || b.Type != values.TypeInt {
			vm.fail(ErrKindTypeMismatch, inst.Opcode, "ADD_INT requires two Int operands, got %s and %s", a.Type, b.Type)
			return false
		}
		if !vm.push(values.Int(a.I + b.I)) {
			vm.fail(ErrKindStackOverflow, inst.Opcode, "")
			return false
		}
		return true

	case opcodes.EQ_INT:
		if a.Type != values.TypeInt || b.Type != values.TypeInt {
			vm.fail(ErrKindTypeMismatch, inst.Opcode, "EQ_INT requires two Int operands, got %s and %s", a.Type, b.Type)
			return false
		}
		if !vm.push(values.Bool(a.I == b.I)) {
			vm.fail(ErrKindStackOverflow, inst.Opcode, "")
			return false
		}
		return true

	case opcodes.EQ:
		if !vm.push(values.Bool(a.Equal(b, vm.ResolveString))) {
			vm.fail(ErrKindStackOverflow, inst.Opcode, "")
			return false
		}
		return true

	default:
		vm.fail(ErrKindInvalidOpcode, inst.Opcode, "unhandled arithmetic opcode")
		return false
	}
}
