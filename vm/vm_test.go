package vm

import (
	"testing"

	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/opcodes"
	"github.com/aivm-run/aivm/program"
	"github.com/aivm-run/aivm/values"
)

func newTestVM(t *testing.T, instrs []opcodes.Instruction, consts []values.Value, bindings []hostcall.Binding) *VirtualMachine {
	t.Helper()
	p := program.Init(instrs)
	p.Constants = consts
	return New(p, DefaultLimits(), bindings)
}

func inst(op opcodes.Opcode, operand int64) opcodes.Instruction {
	return opcodes.Instruction{Opcode: op, Operand: operand}
}

func TestRunHaltsOnHALT(t *testing.T) {
	m := newTestVM(t, []opcodes.Instruction{inst(opcodes.HALT, 0)}, nil, nil)
	m.Run()
	if m.Status() != StatusHalted {
		t.Fatalf("expected Halted, got %s", m.Status())
	}
}

func TestRunHaltsPastEndOfProgram(t *testing.T) {
	m := newTestVM(t, []opcodes.Instruction{inst(opcodes.NOP, 0)}, nil, nil)
	m.Run()
	if m.Status() != StatusHalted {
		t.Fatalf("expected Halted after falling off the end, got %s", m.Status())
	}
}

func TestUnknownOpcodeFailsInvalidOpcode(t *testing.T) {
	m := newTestVM(t, []opcodes.Instruction{{Opcode: opcodes.Opcode(250), Operand: 0}}, nil, nil)
	m.Run()
	if m.Status() != StatusError {
		t.Fatalf("expected Error, got %s", m.Status())
	}
	if m.Err().Kind != ErrKindInvalidOpcode {
		t.Fatalf("expected InvalidOpcode, got %s", m.Err().Kind)
	}
}

func TestErrorIsSticky(t *testing.T) {
	m := newTestVM(t, []opcodes.Instruction{
		inst(opcodes.POP, 0), // underflow on an empty stack
		inst(opcodes.PUSH_INT, 1),
	}, nil, nil)
	m.Step()
	if m.Status() != StatusError {
		t.Fatalf("expected Error after POP underflow, got %s", m.Status())
	}
	ipAfterFirstFail := m.IP()
	m.Step() // should be a no-op
	if m.IP() != ipAfterFirstFail {
		t.Fatal("Step should be a no-op once the VM has entered the Error state")
	}
	if m.StackDepth() != 0 {
		t.Fatal("the second PUSH_INT should never have executed")
	}
}

// TestCallReturnScenario hand-traces the frame/locals contract:
// PUSH_INT 1; STORE_LOCAL 0; CALL 7; LOAD_LOCAL 0; HALT; NOP; NOP;
// PUSH_INT 99; STORE_LOCAL 1; PUSH_INT 5; RET
// Expect: halted with top == Int(1), locals_count == 1.
func TestCallReturnScenario(t *testing.T) {
	instrs := []opcodes.Instruction{
		inst(opcodes.PUSH_INT, 1),    // 0
		inst(opcodes.STORE_LOCAL, 0), // 1
		inst(opcodes.CALL, 7),        // 2
		inst(opcodes.LOAD_LOCAL, 0),  // 3
		inst(opcodes.HALT, 0),        // 4
		inst(opcodes.NOP, 0),         // 5
		inst(opcodes.NOP, 0),         // 6
		inst(opcodes.PUSH_INT, 99),   // 7
		inst(opcodes.STORE_LOCAL, 1), // 8
		inst(opcodes.PUSH_INT, 5),    // 9
		inst(opcodes.RET, 0),         // 10
	}
	m := newTestVM(t, instrs, nil, nil)
	m.Run()

	if m.Status() != StatusHalted {
		t.Fatalf("expected Halted, got %s (%v)", m.Status(), m.Err())
	}
	top, ok := m.StackTop()
	if !ok || top.Type != values.TypeInt || top.I != 1 {
		t.Fatalf("expected top Int(1), got %+v ok=%v", top, ok)
	}
	if m.LocalsCount() != 1 {
		t.Fatalf("expected locals_count==1 after the callee's frame unwound, got %d", m.LocalsCount())
	}
}

func TestRetAtTopLevelHalts(t *testing.T) {
	m := newTestVM(t, []opcodes.Instruction{
		inst(opcodes.PUSH_INT, 42),
		inst(opcodes.RET, 0),
	}, nil, nil)
	m.Run()
	if m.Status() != StatusHalted {
		t.Fatalf("RET with no frame should halt, got %s", m.Status())
	}
	top, ok := m.StackTop()
	if !ok || top.I != 42 {
		t.Fatalf("expected the value already on the stack to survive, got %+v", top)
	}
}

func TestConstOutOfRangeIsInvalidProgram(t *testing.T) {
	m := newTestVM(t, []opcodes.Instruction{inst(opcodes.CONST, 0)}, nil, nil)
	m.Run()
	if m.Err() == nil || m.Err().Kind != ErrKindInvalidProgram {
		t.Fatalf("expected InvalidProgram, got %v", m.Err())
	}
}

func TestStackOverflowAtCapacity(t *testing.T) {
	p := program.Init([]opcodes.Instruction{inst(opcodes.PUSH_INT, 1), inst(opcodes.PUSH_INT, 1)})
	limits := DefaultLimits()
	limits.StackCap = 1
	m := New(p, limits, nil)
	m.Run()
	if m.Status() != StatusError || m.Err().Kind != ErrKindStackOverflow {
		t.Fatalf("expected StackOverflow, got %s (%v)", m.Status(), m.Err())
	}
}

func TestFrameOverflowAtCapacity(t *testing.T) {
	instrs := []opcodes.Instruction{
		inst(opcodes.CALL, 0), // calls itself forever
	}
	p := program.Init(instrs)
	limits := DefaultLimits()
	limits.FrameCap = 2
	m := New(p, limits, nil)
	m.Run()
	if m.Status() != StatusError || m.Err().Kind != ErrKindFrameOverflow {
		t.Fatalf("expected FrameOverflow, got %s (%v)", m.Status(), m.Err())
	}
}

func TestResetReturnsToReadyAndClearsState(t *testing.T) {
	m := newTestVM(t, []opcodes.Instruction{
		inst(opcodes.PUSH_INT, 1),
		inst(opcodes.HALT, 0),
	}, nil, nil)
	m.Run()
	if m.Status() != StatusHalted {
		t.Fatalf("expected Halted before Reset, got %s", m.Status())
	}
	m.Reset()
	if m.Status() != StatusReady {
		t.Fatalf("expected Ready after Reset, got %s", m.Status())
	}
	if m.IP() != 0 {
		t.Fatalf("expected ip reset to 0, got %d", m.IP())
	}
	if m.StackDepth() != 0 {
		t.Fatalf("expected empty stack after Reset, got depth %d", m.StackDepth())
	}
	m.Run()
	if m.Status() != StatusHalted {
		t.Fatalf("expected the VM to run again cleanly after Reset, got %s (%v)", m.Status(), m.Err())
	}
}

func TestJumpAndJumpIfFalse(t *testing.T) {
	instrs := []opcodes.Instruction{
		inst(opcodes.PUSH_BOOL, 0),        // 0: false
		inst(opcodes.JUMP_IF_FALSE, 3),    // 1: branch to 3
		inst(opcodes.PUSH_INT, 111),       // 2: skipped
		inst(opcodes.PUSH_INT, 222),       // 3
		inst(opcodes.HALT, 0),             // 4
	}
	m := newTestVM(t, instrs, nil, nil)
	m.Run()
	top, _ := m.StackTop()
	if top.I != 222 {
		t.Fatalf("expected 222 (branch taken), got %d", top.I)
	}
}
