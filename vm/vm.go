// Package vm implements the AiVM instruction dispatcher (C8) and the
// execution state it manipulates (C7): operand stack, call frames,
// locals, completed-task table, parallel contexts, and the sticky
// error/status state machine.
package vm

import (
	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/nodeheap"
	"github.com/aivm-run/aivm/opcodes"
	"github.com/aivm-run/aivm/program"
	"github.com/aivm-run/aivm/strarena"
	"github.com/aivm-run/aivm/values"
)

// VirtualMachine drives one run of a Program to completion. It owns the
// string arena and node heap created during that run; the Program itself
// is borrowed and never mutated.
type VirtualMachine struct {
	Program  *program.Program
	Arena    *strarena.Arena
	Heap     *nodeheap.Heap
	Bindings []hostcall.Binding

	limits Limits

	stack []values.Value

	callStack *CallStackManager

	locals []values.Value

	tasks          []CompletedTask
	nextTaskHandle int64

	parContexts []ParContext
	parValues   []values.Value

	ip     int
	status Status
	err    *Error

	// asyncDepth counts nested ASYNC_CALL dispatch loops. HALT is only
	// legal at asyncDepth == 0; encountering it inside an async body is
	// InvalidProgram, per the spec's "HALT is invalid inside ASYNC_CALL".
	asyncDepth int
}

// New constructs a VirtualMachine for prog, allocating its own string
// arena and node heap sized per limits, with bindings as the read-only
// syscall binding table for the run.
func New(prog *program.Program, limits Limits, bindings []hostcall.Binding) *VirtualMachine {
	vm := &VirtualMachine{
		Program:  prog,
		Bindings: bindings,
		limits:   limits,
	}
	vm.Arena = strarena.New(limits.StringArenaBytes)
	vm.Heap = nodeheap.New(vm.Arena, limits.NodeCap, limits.AttrCap, limits.ChildCap)
	vm.callStack = NewCallStackManager(limits.FrameCap)
	vm.resetState()
	return vm
}

// Reset returns the VM to its initial state (ip=0, empty stacks and
// arenas, status=Ready). All VM-produced strings and nodes die.
func (vm *VirtualMachine) Reset() {
	vm.Arena.Reset()
	vm.Heap.Reset()
	vm.resetState()
}

func (vm *VirtualMachine) resetState() {
	vm.stack = make([]values.Value, 0, vm.limits.StackCap)
	vm.locals = make([]values.Value, 0, vm.limits.LocalsCap)
	vm.tasks = make([]CompletedTask, 0, vm.limits.TaskCap)
	vm.nextTaskHandle = 1
	vm.parContexts = make([]ParContext, 0, vm.limits.ParContextCap)
	vm.parValues = make([]values.Value, 0, vm.limits.ParValueCap)
	vm.callStack.Reset()
	vm.ip = 0
	vm.status = StatusReady
	vm.err = nil
}

// Status returns the dispatcher's current run state.
func (vm *VirtualMachine) Status() Status { return vm.status }

// IP returns the current instruction pointer.
func (vm *VirtualMachine) IP() int { return vm.ip }

// Err returns the error that put the VM into the Error state, or nil.
func (vm *VirtualMachine) Err() *Error { return vm.err }

// StackDepth returns the current operand-stack depth.
func (vm *VirtualMachine) StackDepth() int { return len(vm.stack) }

// StackTop returns the top of the operand stack and true, or the zero
// Value and false if the stack is empty.
func (vm *VirtualMachine) StackTop() (values.Value, bool) {
	if len(vm.stack) == 0 {
		return values.Value{}, false
	}
	return vm.stack[len(vm.stack)-1], true
}

// LocalsCount returns the current number of live local slots.
func (vm *VirtualMachine) LocalsCount() int { return len(vm.locals) }

// ResolveString dereferences a StringHandle against whichever store owns
// it: the VM's own string arena (ArenaVM) or the program's constant pool
// (ArenaProgram).
func (vm *VirtualMachine) ResolveString(h values.StringHandle) (string, bool) {
	if !h.Valid {
		return "", false
	}
	if h.Arena == values.ArenaVM {
		return vm.Arena.Slice(h.Offset, h.Len), true
	}
	return vm.Program.ResolveString(h)
}

// InternString copies s into the VM's string arena and returns a handle
// to it. It is exported for host-call handlers (package hostsys) that
// need to produce a direct String return value rather than a node.
func (vm *VirtualMachine) InternString(s string) (values.StringHandle, bool) {
	return vm.internString(s)
}

func (vm *VirtualMachine) internString(s string) (values.StringHandle, bool) {
	off, n, err := vm.Arena.Alloc(s)
	if err != nil {
		return values.StringHandle{}, false
	}
	return values.StringHandle{Arena: values.ArenaVM, Valid: true, Offset: off, Len: n}, true
}

// fail transitions the VM into the Error state and parks ip at the end
// of the program so Run exits promptly. Errors are sticky: once set,
// Step becomes a no-op.
func (vm *VirtualMachine) fail(kind ErrorKind, op opcodes.Opcode, detail string, args ...interface{}) {
	vm.err = newError(kind, vm.ip, op, detail, args...)
	vm.status = StatusError
	vm.ip = len(vm.Program.Instructions)
}

func (vm *VirtualMachine) push(v values.Value) bool {
	if len(vm.stack) >= vm.limits.StackCap {
		return false
	}
	vm.stack = append(vm.stack, v)
	return true
}

func (vm *VirtualMachine) pop() (values.Value, bool) {
	if len(vm.stack) == 0 {
		return values.Value{}, false
	}
	idx := len(vm.stack) - 1
	v := vm.stack[idx]
	vm.stack = vm.stack[:idx]
	return v, true
}

// currentLocalsBase is the locals-array offset local slots are indexed
// from: the top call frame's LocalsBase, or 0 at top level.
func (vm *VirtualMachine) currentLocalsBase() int {
	frame, ok := vm.callStack.Peek()
	if !ok {
		return 0
	}
	return frame.LocalsBase
}

func (vm *VirtualMachine) storeLocal(i int, v values.Value) bool {
	base := vm.currentLocalsBase()
	idx := base + i
	if i < 0 || idx >= vm.limits.LocalsCap {
		return false
	}
	for len(vm.locals) <= idx {
		vm.locals = append(vm.locals, values.Void())
	}
	vm.locals[idx] = v
	return true
}

func (vm *VirtualMachine) loadLocal(i int) (values.Value, bool) {
	base := vm.currentLocalsBase()
	idx := base + i
	if i < 0 || idx >= len(vm.locals) {
		return values.Value{}, false
	}
	return vm.locals[idx], true
}

// Step decodes and executes exactly one instruction. It is a no-op once
// status is Halted or Error. The dispatcher is only ever "entered" while
// Running; step() transitions Ready->Running on first call.
func (vm *VirtualMachine) Step() {
	if vm.status == StatusHalted || vm.status == StatusError {
		return
	}
	if vm.ip >= len(vm.Program.Instructions) {
		vm.status = StatusHalted
		return
	}

	vm.status = StatusRunning
	inst := vm.Program.Instructions[vm.ip]
	vm.execute(inst)

	if vm.status == StatusRunning && vm.ip >= len(vm.Program.Instructions) {
		vm.status = StatusHalted
	}
}

// Run calls Step until the VM leaves the Running state.
func (vm *VirtualMachine) Run() {
	for vm.status == StatusReady || vm.status == StatusRunning {
		vm.Step()
	}
}
