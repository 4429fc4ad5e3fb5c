package vm

import (
	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/opcodes"
	"github.com/aivm-run/aivm/values"
)

// AsyncExecutor handles the deterministic async/parallel surface:
// ASYNC_CALL and ASYNC_CALL_SYS run their callee synchronously to
// completion and record a completed task; AWAIT only ever looks one up.
// PAR_* model a simple fork/join staging buffer with no real concurrency.
type AsyncExecutor struct {
	vm *VirtualMachine
}

func (e *AsyncExecutor) Execute(inst opcodes.Instruction) bool {
	vm := e.vm
	switch inst.Opcode {
	case opcodes.ASYNC_CALL:
		return e.asyncCall(inst)
	case opcodes.ASYNC_CALL_SYS:
		return e.asyncCallSys(inst)
	case opcodes.AWAIT:
		return e.await(inst)
	case opcodes.PAR_BEGIN:
		return e.parBegin(inst)
	case opcodes.PAR_FORK:
		return e.parFork(inst)
	case opcodes.PAR_JOIN:
		return e.parJoin(inst)
	case opcodes.PAR_CANCEL:
		return true
	default:
		vm.fail(ErrKindInvalidOpcode, inst.Opcode, "unhandled async opcode")
		return false
	}
}

// recordTask assigns the next dense task handle to result and appends it
// to the completed-task table.
func (vm *VirtualMachine) recordTask(result values.Value) (int64, bool) {
	if len(vm.tasks) >= vm.limits.TaskCap {
		return 0, false
	}
	handle := vm.nextTaskHandle
	vm.nextTaskHandle++
	vm.tasks = append(vm.tasks, CompletedTask{Handle: handle, Result: result})
	return handle, true
}

func (e *AsyncExecutor) asyncCall(inst opcodes.Instruction) bool {
	vm := e.vm
	if !vm.validBranchTarget(inst.Operand, false) {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "async call target %d out of range", inst.Operand)
		return false
	}

	baselineDepth := vm.callStack.Depth()
	baselineStackLen := len(vm.stack)

	frame := CallFrame{
		ReturnIP:   0,
		FrameBase:  baselineStackLen,
		LocalsBase: len(vm.locals),
	}
	if !vm.callStack.Push(frame) {
		vm.fail(ErrKindFrameOverflow, inst.Opcode, "")
		return false
	}

	savedIP := vm.ip
	vm.ip = int(inst.Operand)
	vm.asyncDepth++

	for vm.callStack.Depth() > baselineDepth && vm.status != StatusError {
		if vm.ip >= len(vm.Program.Instructions) {
			vm.fail(ErrKindInvalidProgram, inst.Opcode, "ASYNC_CALL body ran past end of program without RET")
			break
		}
		inner := vm.Program.Instructions[vm.ip]
		vm.execute(inner)
	}

	vm.asyncDepth--

	if vm.status == StatusError {
		return false
	}

	var retVal values.Value
	if len(vm.stack) > baselineStackLen {
		retVal, _ = vm.pop()
	} else {
		retVal = values.Void()
	}

	handle, ok := vm.recordTask(retVal)
	if !ok {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "completed task table exhausted")
		return false
	}

	vm.ip = savedIP + 1
	if !vm.push(values.Int(handle)) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return false
}

func (e *AsyncExecutor) asyncCallSys(inst opcodes.Instruction) bool {
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

	handle, ok := vm.recordTask(out)
	if !ok {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "completed task table exhausted")
		return false
	}
	if !vm.push(values.Int(handle)) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func (e *AsyncExecutor) await(inst opcodes.Instruction) bool {
	vm := e.vm
	h, ok := vm.pop()
	if !ok {
		vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
		return false
	}
	if h.Type != values.TypeInt {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "AWAIT requires an Int task handle")
		return false
	}
	for _, t := range vm.tasks {
		if t.Handle == h.I {
			if !vm.push(t.Result) {
				vm.fail(ErrKindStackOverflow, inst.Opcode, "")
				return false
			}
			return true
		}
	}
	vm.fail(ErrKindInvalidProgram, inst.Opcode, "unknown task handle %d", h.I)
	return false
}

func (e *AsyncExecutor) parBegin(inst opcodes.Instruction) bool {
	vm := e.vm
	if len(vm.parContexts) >= vm.limits.ParContextCap {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "parallel context capacity exhausted")
		return false
	}
	vm.parContexts = append(vm.parContexts, ParContext{
		ExpectedCount: int(inst.Operand),
		StartIndex:    len(vm.parValues),
	})
	return true
}

func (e *AsyncExecutor) parFork(inst opcodes.Instruction) bool {
	vm := e.vm
	if len(vm.parContexts) == 0 {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "PAR_FORK with no open parallel context")
		return false
	}
	v, ok := vm.pop()
	if !ok {
		vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
		return false
	}
	if len(vm.parValues) >= vm.limits.ParValueCap {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "parallel value capacity exhausted")
		return false
	}
	vm.parValues = append(vm.parValues, v)
	return true
}

func (e *AsyncExecutor) parJoin(inst opcodes.Instruction) bool {
	vm := e.vm
	if len(vm.parContexts) == 0 {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "PAR_JOIN with no open parallel context")
		return false
	}
	top := vm.parContexts[len(vm.parContexts)-1]
	m := int(inst.Operand)
	staged := len(vm.parValues) - top.StartIndex
	if top.ExpectedCount != m || staged != m {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "PAR_JOIN(%d) shape mismatch: expected=%d staged=%d", m, top.ExpectedCount, staged)
		return false
	}
	vm.parContexts = vm.parContexts[:len(vm.parContexts)-1]
	if !vm.push(values.Int(int64(m))) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}
