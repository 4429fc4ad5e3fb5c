package nodeheap

import (
	"testing"

	"github.com/aivm-run/aivm/strarena"
)

func newHeap(nodeCap, attrCap, childCap int) *Heap {
	return New(strarena.New(4096), nodeCap, attrCap, childCap)
}

func TestCreateAndReadBack(t *testing.T) {
	h := newHeap(8, 8, 8)
	handle, err := h.Create("Lit", "n1", []AttrInput{
		{Key: "value", Kind: AttrInt, ValueInt: 7},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle != 1 {
		t.Fatalf("expected first handle to be 1, got %d", handle)
	}

	kindH, err := h.Kind(handle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.arena.Slice(kindH.Offset, kindH.Len) != "Lit" {
		t.Fatalf("expected kind Lit, got %q", h.arena.Slice(kindH.Offset, kindH.Len))
	}

	n, err := h.AttrCount(handle)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 attribute, got %d err=%v", n, err)
	}
	attr, inRange, err := h.Attr(handle, 0)
	if err != nil || !inRange {
		t.Fatalf("expected attr 0 in range, err=%v", err)
	}
	if attr.Kind != AttrInt || attr.ValueInt != 7 {
		t.Fatalf("unexpected attr: %+v", attr)
	}
}

func TestAttrOutOfRangeIsNotAnError(t *testing.T) {
	h := newHeap(8, 8, 8)
	handle, _ := h.Create("Lit", "", nil, nil)
	_, inRange, err := h.Attr(handle, 5)
	if err != nil {
		t.Fatalf("unexpected error for out-of-range attribute: %v", err)
	}
	if inRange {
		t.Fatal("expected inRange=false for out-of-range attribute index")
	}
}

func TestChildAtOutOfRangeReportsNotOk(t *testing.T) {
	h := newHeap(8, 8, 8)
	handle, _ := h.Create("Block", "", nil, nil)
	_, ok, err := h.ChildAt(handle, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for out-of-range child index")
	}
}

func TestAppendChildNeverMutatesParent(t *testing.T) {
	h := newHeap(8, 8, 8)
	parent, _ := h.Create("Block", "", nil, nil)
	child, _ := h.Create("Lit", "", nil, nil)

	newParent, err := h.AppendChild(parent, child)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newParent == parent {
		t.Fatal("AppendChild should produce a new handle, not mutate in place")
	}

	oldCount, _ := h.ChildCount(parent)
	if oldCount != 0 {
		t.Fatalf("original parent's child count should remain 0, got %d", oldCount)
	}
	newCount, _ := h.ChildCount(newParent)
	if newCount != 1 {
		t.Fatalf("new parent should have 1 child, got %d", newCount)
	}
	got, ok, _ := h.ChildAt(newParent, 0)
	if !ok || got != child {
		t.Fatalf("expected child handle %d at index 0, got %d ok=%v", child, got, ok)
	}
}

func TestRetemplateReplacesChildrenWholesale(t *testing.T) {
	h := newHeap(8, 8, 8)
	a, _ := h.Create("Lit", "", nil, nil)
	b, _ := h.Create("Lit", "", nil, nil)
	template, _ := h.Create("Block", "tpl", []AttrInput{{Key: "k", Kind: AttrString, ValueStr: "v"}}, []int64{a})

	retemplated, err := h.Retemplate(template, []int64{b, a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count, _ := h.ChildCount(retemplated)
	if count != 2 {
		t.Fatalf("expected 2 children after retemplate, got %d", count)
	}
	first, _, _ := h.ChildAt(retemplated, 0)
	second, _, _ := h.ChildAt(retemplated, 1)
	if first != b || second != a {
		t.Fatalf("expected children [b,a], got [%d,%d]", first, second)
	}
	attrCount, _ := h.AttrCount(retemplated)
	if attrCount != 1 {
		t.Fatalf("retemplate should keep the template's attributes, got %d", attrCount)
	}

	origCount, _ := h.ChildCount(template)
	if origCount != 1 {
		t.Fatalf("original template's children should be untouched, got %d", origCount)
	}
}

func TestCapacityExhaustion(t *testing.T) {
	h := newHeap(1, 8, 8)
	if _, err := h.Create("A", "", nil, nil); err != nil {
		t.Fatalf("first create should succeed: %v", err)
	}
	if _, err := h.Create("B", "", nil, nil); err != ErrCapacity {
		t.Fatalf("expected ErrCapacity once nodeCap is exhausted, got %v", err)
	}
}

func TestInvalidHandle(t *testing.T) {
	h := newHeap(8, 8, 8)
	if _, err := h.Kind(0); err != ErrInvalidHandle {
		t.Fatalf("expected ErrInvalidHandle for handle 0, got %v", err)
	}
	if _, err := h.Kind(99); err != ErrInvalidHandle {
		t.Fatalf("expected ErrInvalidHandle for out-of-range handle, got %v", err)
	}
}
