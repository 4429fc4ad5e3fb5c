package vm

import "github.com/aivm-run/aivm/opcodes"

func (vm *VirtualMachine) halt() {
	vm.status = StatusHalted
	vm.ip = len(vm.Program.Instructions)
}

// execute decodes one instruction and routes it to the executor for its
// opcode family. Each family executor reports whether the dispatcher
// should simply advance ip by one (true) or has already repositioned ip
// itself (jumps, calls, returns, halt) — and, on failure, has already
// called vm.fail, which parks ip and sets status=Error, so execute need
// only respect that status rather than touch ip again.
func (vm *VirtualMachine) execute(inst opcodes.Instruction) {
	var advance bool

	switch inst.Opcode {
	case opcodes.NOP, opcodes.STUB:
		advance = true

	case opcodes.HALT:
		if vm.asyncDepth > 0 {
			vm.fail(ErrKindInvalidProgram, inst.Opcode, "HALT is invalid inside ASYNC_CALL")
			return
		}
		vm.halt()
		advance = false

	case opcodes.JUMP, opcodes.JUMP_IF_FALSE,
		opcodes.PUSH_INT, opcodes.PUSH_BOOL, opcodes.CONST, opcodes.POP,
		opcodes.STORE_LOCAL, opcodes.LOAD_LOCAL,
		opcodes.CALL, opcodes.RET, opcodes.RETURN:
		advance = (&ControlExecutor{vm: vm}).Execute(inst)

	case opcodes.ADD_INT, opcodes.EQ_INT, opcodes.EQ:
		advance = (&ArithmeticExecutor{vm: vm}).Execute(inst)

	case opcodes.STR_CONCAT, opcodes.TO_STRING, opcodes.STR_ESCAPE,
		opcodes.STR_SUBSTRING, opcodes.STR_REMOVE, opcodes.STR_UTF8_BYTE_COUNT:
		advance = (&StringExecutor{vm: vm}).Execute(inst)

	case opcodes.CALL_SYS:
		advance = (&SyscallExecutor{vm: vm}).Execute(inst)

	case opcodes.ASYNC_CALL, opcodes.ASYNC_CALL_SYS, opcodes.AWAIT,
		opcodes.PAR_BEGIN, opcodes.PAR_FORK, opcodes.PAR_JOIN, opcodes.PAR_CANCEL:
		advance = (&AsyncExecutor{vm: vm}).Execute(inst)

	case opcodes.NODE_KIND, opcodes.NODE_ID, opcodes.ATTR_COUNT, opcodes.ATTR_KEY,
		opcodes.ATTR_VALUE_KIND, opcodes.ATTR_VALUE_STRING, opcodes.ATTR_VALUE_INT,
		opcodes.ATTR_VALUE_BOOL, opcodes.CHILD_COUNT, opcodes.CHILD_AT,
		opcodes.MAKE_BLOCK, opcodes.APPEND_CHILD, opcodes.MAKE_ERR,
		opcodes.MAKE_LIT_STRING, opcodes.MAKE_LIT_INT, opcodes.MAKE_NODE:
		advance = (&NodeExecutor{vm: vm}).Execute(inst)

	default:
		vm.fail(ErrKindInvalidOpcode, inst.Opcode, "opcode value %d outside the closed set", int(inst.Opcode))
		return
	}

	if vm.status == StatusError {
		return
	}
	if advance {
		vm.ip++
	}
}
