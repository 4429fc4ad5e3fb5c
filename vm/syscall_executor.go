package vm

import (
	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/opcodes"
	"github.com/aivm-run/aivm/values"
)

// SyscallExecutor handles CALL_SYS, the synchronous contract-checked
// host call.
type SyscallExecutor struct {
	vm *VirtualMachine
}

func (e *SyscallExecutor) Execute(inst opcodes.Instruction) bool {
	vm := e.vm

	argc := int(inst.Operand)
	args, target, errKind := vm.popSyscallArgs(argc)
	if errKind != ErrKindNone {
		vm.fail(errKind, inst.Opcode, "")
		return false
	}

	var out values.Value
	status, contractStatus := hostcall.DispatchChecked(vm.Bindings, target, args, &out)
	if status != hostcall.Ok {
		if status == hostcall.Contract {
			vm.fail(ErrKindSyscall, inst.Opcode, "target=%q dispatch=%s contract=%s", target, status, contractStatus.Code())
		} else {
			vm.fail(ErrKindSyscall, inst.Opcode, "target=%q dispatch=%s", target, status)
		}
		return false
	}

	if !vm.push(out) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

// popSyscallArgs pops argc arguments (last push = last arg, so callers
// get them back in original push order) followed by the target string.
func (vm *VirtualMachine) popSyscallArgs(argc int) (args []values.Value, target string, errKind ErrorKind) {
	reversed := make([]values.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, popped := vm.pop()
		if !popped {
			return nil, "", ErrKindStackUnderflow
		}
		reversed[i] = v
	}
	targetVal, popped := vm.pop()
	if !popped {
		return nil, "", ErrKindStackUnderflow
	}
	if targetVal.Type != values.TypeString || !targetVal.S.Valid {
		return nil, "", ErrKindTypeMismatch
	}
	t, _ := vm.ResolveString(targetVal.S)
	return reversed, t, ErrKindNone
}
