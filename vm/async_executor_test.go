package vm

import (
	"testing"

	"github.com/aivm-run/aivm/opcodes"
)

func TestAsyncCallThenAwait(t *testing.T) {
	instrs := []opcodes.Instruction{
		inst(opcodes.ASYNC_CALL, 3), // 0
		inst(opcodes.AWAIT, 0),      // 1
		inst(opcodes.HALT, 0),       // 2
		inst(opcodes.PUSH_INT, 55),  // 3
		inst(opcodes.RET, 0),        // 4
	}
	m := newTestVM(t, instrs, nil, nil)
	m.Run()
	if m.Status() != StatusHalted {
		t.Fatalf("expected Halted, got %s (%v)", m.Status(), m.Err())
	}
	top, _ := m.StackTop()
	if top.I != 55 {
		t.Fatalf("expected the async body's return value 55, got %d", top.I)
	}
}

func TestAsyncCallVoidBodyReturnsVoid(t *testing.T) {
	instrs := []opcodes.Instruction{
		inst(opcodes.ASYNC_CALL, 2), // 0
		inst(opcodes.AWAIT, 0),      // 1
		inst(opcodes.RET, 0),        // 2: callee body, nothing pushed
	}
	m := newTestVM(t, instrs, nil, nil)
	m.Run()
	top, ok := m.StackTop()
	if !ok {
		t.Fatal("expected AWAIT to push Void")
	}
	if top.Type != 0 {
		t.Fatalf("expected Void (TypeVoid==0), got %+v", top)
	}
}

func TestHaltInsideAsyncCallIsInvalidProgram(t *testing.T) {
	instrs := []opcodes.Instruction{
		inst(opcodes.ASYNC_CALL, 2), // 0
		inst(opcodes.HALT, 0),       // 1: never reached, ASYNC_CALL fails first
		inst(opcodes.HALT, 0),       // 2: the async body, illegally halts
	}
	m := newTestVM(t, instrs, nil, nil)
	m.Run()
	if m.Status() != StatusError {
		t.Fatalf("expected Error, got %s", m.Status())
	}
	if m.Err().Kind != ErrKindInvalidProgram {
		t.Fatalf("expected InvalidProgram for HALT inside ASYNC_CALL, got %s", m.Err().Kind)
	}
}

func TestAwaitUnknownHandleFails(t *testing.T) {
	m := newTestVM(t, []opcodes.Instruction{
		inst(opcodes.PUSH_INT, 999),
		inst(opcodes.AWAIT, 0),
	}, nil, nil)
	m.Run()
	if m.Err() == nil || m.Err().Kind != ErrKindInvalidProgram {
		t.Fatalf("expected InvalidProgram for unknown task handle, got %v", m.Err())
	}
}

func TestParBeginForkJoin(t *testing.T) {
	instrs := []opcodes.Instruction{
		inst(opcodes.PAR_BEGIN, 2),
		inst(opcodes.PUSH_INT, 1),
		inst(opcodes.PAR_FORK, 0),
		inst(opcodes.PUSH_INT, 2),
		inst(opcodes.PAR_FORK, 0),
		inst(opcodes.PAR_JOIN, 2),
		inst(opcodes.HALT, 0),
	}
	m := newTestVM(t, instrs, nil, nil)
	m.Run()
	if m.Status() != StatusHalted {
		t.Fatalf("expected Halted, got %s (%v)", m.Status(), m.Err())
	}
	top, _ := m.StackTop()
	if top.I != 2 {
		t.Fatalf("expected PAR_JOIN to push the joined count 2, got %d", top.I)
	}
}

func TestParJoinShapeMismatchFails(t *testing.T) {
	instrs := []opcodes.Instruction{
		inst(opcodes.PAR_BEGIN, 2),
		inst(opcodes.PUSH_INT, 1),
		inst(opcodes.PAR_FORK, 0),
		inst(opcodes.PAR_JOIN, 2), // only 1 staged, expected 2
	}
	m := newTestVM(t, instrs, nil, nil)
	m.Run()
	if m.Err() == nil || m.Err().Kind != ErrKindInvalidProgram {
		t.Fatalf("expected InvalidProgram for PAR_JOIN shape mismatch, got %v", m.Err())
	}
}

func TestParForkWithoutBeginFails(t *testing.T) {
	m := newTestVM(t, []opcodes.Instruction{
		inst(opcodes.PUSH_INT, 1),
		inst(opcodes.PAR_FORK, 0),
	}, nil, nil)
	m.Run()
	if m.Err() == nil || m.Err().Kind != ErrKindInvalidProgram {
		t.Fatalf("expected InvalidProgram for PAR_FORK with no open context, got %v", m.Err())
	}
}
