package vm

import (
	"github.com/aivm-run/aivm/nodeheap"
	"github.com/aivm-run/aivm/opcodes"
	"github.com/aivm-run/aivm/values"
)

// NodeExecutor handles node construction and inspection. Construction
// ops delegate to the node heap's copy-on-write operations; inspection
// ops read through it, returning empty/zero defaults for out-of-range
// attribute indices rather than erroring (child index is held to a
// stricter contract: out of range there is InvalidProgram).
type NodeExecutor struct {
	vm *VirtualMachine
}

func (e *NodeExecutor) Execute(inst opcodes.Instruction) bool {
	switch inst.Opcode {
	case opcodes.NODE_KIND:
		return e.nodeKind(inst)
	case opcodes.NODE_ID:
		return e.nodeID(inst)
	case opcodes.ATTR_COUNT:
		return e.attrCount(inst)
	case opcodes.ATTR_KEY:
		return e.attrKey(inst)
	case opcodes.ATTR_VALUE_KIND:
		return e.attrValueKind(inst)
	case opcodes.ATTR_VALUE_STRING:
		return e.attrValueString(inst)
	case opcodes.ATTR_VALUE_INT:
		return e.attrValueInt(inst)
	case opcodes.ATTR_VALUE_BOOL:
		return e.attrValueBool(inst)
	case opcodes.CHILD_COUNT:
		return e.childCount(inst)
	case opcodes.CHILD_AT:
		return e.childAt(inst)
	case opcodes.MAKE_BLOCK:
		return e.makeBlock(inst)
	case opcodes.APPEND_CHILD:
		return e.appendChild(inst)
	case opcodes.MAKE_ERR:
		return e.makeErr(inst)
	case opcodes.MAKE_LIT_STRING:
		return e.makeLitString(inst)
	case opcodes.MAKE_LIT_INT:
		return e.makeLitInt(inst)
	case opcodes.MAKE_NODE:
		return e.makeNode(inst)
	default:
		e.vm.fail(ErrKindInvalidOpcode, inst.Opcode, "unhandled node opcode")
		return false
	}
}

func (e *NodeExecutor) popNode(inst opcodes.Instruction) (int64, bool) {
	vm := e.vm
	v, ok := vm.pop()
	if !ok {
		vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
		return 0, false
	}
	if v.Type != values.TypeNode {
		vm.fail(ErrKindTypeMismatch, inst.Opcode, "expected Node, got %s", v.Type)
		return 0, false
	}
	return v.N, true
}

func (e *NodeExecutor) popInt(inst opcodes.Instruction) (int64, bool) {
	vm := e.vm
	v, ok := vm.pop()
	if !ok {
		vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
		return 0, false
	}
	if v.Type != values.TypeInt {
		vm.fail(ErrKindTypeMismatch, inst.Opcode, "expected Int, got %s", v.Type)
		return 0, false
	}
	return v.I, true
}

func (e *NodeExecutor) popString(inst opcodes.Instruction) (string, bool) {
	vm := e.vm
	v, ok := vm.pop()
	if !ok {
		vm.fail(ErrKindStackUnderflow, inst.Opcode, "")
		return "", false
	}
	if v.Type != values.TypeString || !v.S.Valid {
		vm.fail(ErrKindTypeMismatch, inst.Opcode, "expected non-null String, got %s", v.Type)
		return "", false
	}
	s, _ := vm.ResolveString(v.S)
	return s, true
}

// emptyString allocates (or, cheaply, re-allocates) a zero-length arena
// string, used as the default for out-of-range attribute lookups.
func (vm *VirtualMachine) emptyString() values.Value {
	h, _ := vm.internString("")
	return values.String(h)
}

func (e *NodeExecutor) pushHandleResult(inst opcodes.Instruction, handle int64, err error) bool {
	vm := e.vm
	if err != nil {
		vm.fail(heapErrKind(err), inst.Opcode, "%s", err.Error())
		return false
	}
	if !vm.push(values.Node(handle)) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func heapErrKind(err error) ErrorKind {
	switch err {
	case nodeheap.ErrCapacity:
		return ErrKindInvalidProgram
	case nodeheap.ErrInvalidHandle:
		return ErrKindInvalidProgram
	default:
		return ErrKindStringOverflow
	}
}

func (e *NodeExecutor) nodeKind(inst opcodes.Instruction) bool {
	vm := e.vm
	h, ok := e.popNode(inst)
	if !ok {
		return false
	}
	sh, err := vm.Heap.Kind(h)
	if err != nil {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "%s", err.Error())
		return false
	}
	if !vm.push(values.String(sh)) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func (e *NodeExecutor) nodeID(inst opcodes.Instruction) bool {
	vm := e.vm
	h, ok := e.popNode(inst)
	if !ok {
		return false
	}
	sh, err := vm.Heap.ID(h)
	if err != nil {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "%s", err.Error())
		return false
	}
	if !vm.push(values.String(sh)) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func (e *NodeExecutor) attrCount(inst opcodes.Instruction) bool {
	vm := e.vm
	h, ok := e.popNode(inst)
	if !ok {
		return false
	}
	n, err := vm.Heap.AttrCount(h)
	if err != nil {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "%s", err.Error())
		return false
	}
	if !vm.push(values.Int(int64(n))) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

// attrAt pops (index, node) and returns the attribute plus whether it
// was in range; a handle error still fails the instruction.
func (e *NodeExecutor) attrAt(inst opcodes.Instruction) (nodeheap.Attr, bool, bool) {
	vm := e.vm
	idx, ok := e.popInt(inst)
	if !ok {
		return nodeheap.Attr{}, false, false
	}
	h, ok := e.popNode(inst)
	if !ok {
		return nodeheap.Attr{}, false, false
	}
	attr, inRange, err := vm.Heap.Attr(h, int(idx))
	if err != nil {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "%s", err.Error())
		return nodeheap.Attr{}, false, false
	}
	return attr, inRange, true
}

func (e *NodeExecutor) attrKey(inst opcodes.Instruction) bool {
	vm := e.vm
	attr, inRange, ok := e.attrAt(inst)
	if !ok {
		return false
	}
	var result values.Value
	if inRange {
		result = values.String(attr.Key)
	} else {
		result = vm.emptyString()
	}
	if !vm.push(result) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func (e *NodeExecutor) attrValueKind(inst opcodes.Instruction) bool {
	vm := e.vm
	attr, inRange, ok := e.attrAt(inst)
	if !ok {
		return false
	}
	var result int64
	if inRange {
		result = int64(attr.Kind)
	}
	if !vm.push(values.Int(result)) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func (e *NodeExecutor) attrValueString(inst opcodes.Instruction) bool {
	vm := e.vm
	attr, inRange, ok := e.attrAt(inst)
	if !ok {
		return false
	}
	var result values.Value
	if inRange {
		result = values.String(attr.ValueStr)
	} else {
		result = vm.emptyString()
	}
	if !vm.push(result) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func (e *NodeExecutor) attrValueInt(inst opcodes.Instruction) bool {
	vm := e.vm
	attr, inRange, ok := e.attrAt(inst)
	if !ok {
		return false
	}
	var result int64
	if inRange {
		result = attr.ValueInt
	}
	if !vm.push(values.Int(result)) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func (e *NodeExecutor) attrValueBool(inst opcodes.Instruction) bool {
	vm := e.vm
	attr, inRange, ok := e.attrAt(inst)
	if !ok {
		return false
	}
	var result bool
	if inRange {
		result = attr.ValueBool
	}
	if !vm.push(values.Bool(result)) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func (e *NodeExecutor) childCount(inst opcodes.Instruction) bool {
	vm := e.vm
	h, ok := e.popNode(inst)
	if !ok {
		return false
	}
	n, err := vm.Heap.ChildCount(h)
	if err != nil {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "%s", err.Error())
		return false
	}
	if !vm.push(values.Int(int64(n))) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func (e *NodeExecutor) childAt(inst opcodes.Instruction) bool {
	vm := e.vm
	idx, ok := e.popInt(inst)
	if !ok {
		return false
	}
	h, ok := e.popNode(inst)
	if !ok {
		return false
	}
	child, inRange, err := vm.Heap.ChildAt(h, int(idx))
	if err != nil {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "%s", err.Error())
		return false
	}
	if !inRange {
		vm.fail(ErrKindInvalidProgram, inst.Opcode, "child index %d out of range", idx)
		return false
	}
	if !vm.push(values.Node(child)) {
		vm.fail(ErrKindStackOverflow, inst.Opcode, "")
		return false
	}
	return true
}

func (e *NodeExecutor) makeBlock(inst opcodes.Instruction) bool {
	vm := e.vm
	id, ok := e.popString(inst)
	if !ok {
		return false
	}
	handle, err := vm.Heap.Create("Block", id, nil, nil)
	return e.pushHandleResult(inst, handle, err)
}

func (e *NodeExecutor) makeLitString(inst opcodes.Instruction) bool {
	vm := e.vm
	value, ok := e.popString(inst)
	if !ok {
		return false
	}
	id, ok := e.popString(inst)
	if !ok {
		return false
	}
	handle, err := vm.Heap.Create("Lit", id, []nodeheap.AttrInput{
		{Key: "value", Kind: nodeheap.AttrString, ValueStr: value},
	}, nil)
	return e.pushHandleResult(inst, handle, err)
}

func (e *NodeExecutor) makeLitInt(inst opcodes.Instruction) bool {
	vm := e.vm
	value, ok := e.popInt(inst)
	if !ok {
		return false
	}
	id, ok := e.popString(inst)
	if !ok {
		return false
	}
	handle, err := vm.Heap.Create("Lit", id, []nodeheap.AttrInput{
		{Key: "value", Kind: nodeheap.AttrInt, ValueInt: value},
	}, nil)
	return e.pushHandleResult(inst, handle, err)
}

func (e *NodeExecutor) makeErr(inst opcodes.Instruction) bool {
	vm := e.vm
	nodeID, ok := e.popString(inst)
	if !ok {
		return false
	}
	message, ok := e.popString(inst)
	if !ok {
		return false
	}
	code, ok := e.popString(inst)
	if !ok {
		return false
	}
	id, ok := e.popString(inst)
	if !ok {
		return false
	}
	handle, err := vm.Heap.Create("Err", id, []nodeheap.AttrInput{
		{Key: "code", Kind: nodeheap.AttrString, ValueStr: code},
		{Key: "message", Kind: nodeheap.AttrString, ValueStr: message},
		{Key: "nodeId", Kind: nodeheap.AttrString, ValueStr: nodeID},
	}, nil)
	return e.pushHandleResult(inst, handle, err)
}

func (e *NodeExecutor) appendChild(inst opcodes.Instruction) bool {
	vm := e.vm
	child, ok := e.popNode(inst)
	if !ok {
		return false
	}
	parent, ok := e.popNode(inst)
	if !ok {
		return false
	}
	handle, err := vm.Heap.AppendChild(parent, child)
	return e.pushHandleResult(inst, handle, err)
}

func (e *NodeExecutor) makeNode(inst opcodes.Instruction) bool {
	vm := e.vm
	argc := int(inst.Operand)
	popped := make([]int64, argc)
	for i := argc - 1; i >= 0; i-- {
		h, ok := e.popNode(inst)
		if !ok {
			return false
		}
		popped[i] = h
	}
	template, ok := e.popNode(inst)
	if !ok {
		return false
	}
	handle, err := vm.Heap.Retemplate(template, popped)
	return e.pushHandleResult(inst, handle, err)
}
