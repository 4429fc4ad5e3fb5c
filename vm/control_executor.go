package vm

import (
	"github.com/aivm-run/aivm/opcodes"
	"github.com/aivm-run/aivm/values"
)

// ControlExecutor handles control flow (JUMP family), stack/local
// manipulation, and CALL/RET.
type ControlExecutor struct {
	vm *VirtualMachine
}

// Execute runs inst and reports whether the dispatcher should advance ip
// by one itself (false means this method already repositioned ip, or the
// VM already entered Error/Halted).
func (e *ControlExecutor) Execute(inst opcodes.Instruction) bool {
	vm := e.vm
	switch inst.Opcode {
	case opcodes.JUMP:
		if !vm.validBranchTarget(inst.Operand, true) {
			vm.fail(ErrKindInvalidProgram, inst.Opcode, "jump target %d out of range", inst.Operand)
			return false
		}
		vm.ip = int(inst.Operand)
		return false

	case opcodes.JUMP_IF_FALSE:
		cond, ok := vm.pop()
		if !ok {
			vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
			return false
		}
		if cond.Type != values.TypeBool {
			vm.fail(ErrKindTypeMismatch, inst.Opcode, "expected Bool, got %s", cond.Type)
			return false
		}
		if !cond.IsTruthy() {
			if !vm.validBranchTarget(inst.Operand, true) {
				vm.fail(ErrKindInvalidProgram, inst.Opcode, "jump target %d out of range", inst.Operand)
				return false
			}
			vm.ip = int(inst.Operand)
			return false
		}
		return true

	case opcodes.PUSH_INT:
		if !vm.push(values.Int(inst.Operand)) {
			vm.fail(ErrKindStackOverflow, inst.Opcode, "")
			return false
		}
		return true

	case opcodes.PUSH_BOOL:
		if !vm.push(values.BoolFromInt(inst.Operand)) {
			vm.fail(ErrKindStackOverflow, inst.Opcode, "")
			return false
		}
		return true

	case opcodes.CONST:
		idx := inst.Operand
		if idx < 0 || idx >= int64(len(vm.Program.Constants)) {
			vm.fail(ErrKindInvalidProgram, inst.Opcode, "constant index %d out of range", idx)
			return false
		}
		if !vm.push(vm.Program.Constants[idx]) {
			vm.fail(ErrKindStackOverflow, inst.Opcode, "")
			return false
		}
		return true

	case opcodes.POP:
		if _, ok := vm.pop(); !ok {
			vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
			return false
		}
		return true

	case opcodes.STORE_LOCAL:
		v, ok := vm.pop()
		if !ok {
			vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
			return false
		}
		if !vm.storeLocal(int(inst.Operand), v) {
			vm.fail(ErrKindLocalOutOfRange, inst.Opcode, "local index %d out of range", inst.Operand)
			return false
		}
		return true

	case opcodes.LOAD_LOCAL:
		v, ok := vm.loadLocal(int(inst.Operand))
		if !ok {
			vm.fail(ErrKindLocalOutOfRange, inst.Opcode, "local index %d does not exist", inst.Operand)
			return false
		}
		if !vm.push(v) {
			vm.fail(ErrKindStackOverflow, inst.Opcode, "")
			return false
		}
		return true

	case opcodes.CALL:
		if !vm.validBranchTarget(inst.Operand, false) {
			vm.fail(ErrKindInvalidProgram, inst.Opcode, "call target %d out of range", inst.Operand)
			return false
		}
		frame := CallFrame{
			ReturnIP:   vm.ip + 1,
			FrameBase:  len(vm.stack),
			LocalsBase: len(vm.locals),
		}
		if !vm.callStack.Push(frame) {
			vm.fail(ErrKindFrameOverflow, inst.Opcode, "")
			return false
		}
		vm.ip = int(inst.Operand)
		return false

	case opcodes.RET, opcodes.RETURN:
		frame, ok := vm.callStack.Pop()
		if !ok {
			// RET at top level halts rather than erroring.
			vm.halt()
			return false
		}
		var retVal values.Value
		hasRet := len(vm.stack) > frame.FrameBase
		if hasRet {
			retVal, _ = vm.StackTop()
		}
		vm.stack = vm.stack[:frame.FrameBase]
		if len(vm.locals) > frame.LocalsBase {
			vm.locals = vm.locals[:frame.LocalsBase]
		}
		if hasRet {
			if !vm.push(retVal) {
				vm.fail(ErrKindStackOverflow, inst.Opcode, "")
				return false
			}
		}
		vm.ip = frame.ReturnIP
		return false

	default:
		vm.fail(ErrKindInvalidOpcode, inst.Opcode, "unhandled control opcode")
		return false
	}
}

// validBranchTarget reports whether target is a legal jump/call
// destination. allowEnd permits target == instruction_count (natural
// termination via JUMP), which CALL-like operations must reject since
// there is no subroutine body to execute there.
func (vm *VirtualMachine) validBranchTarget(target int64, allowEnd bool) bool {
	if target < 0 {
		return false
	}
	count := int64(len(vm.Program.Instructions))
	if allowEnd {
		return target <= count
	}
	return target < count
}
