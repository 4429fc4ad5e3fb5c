// Package nodeheap implements the VM's append-only composite-value store
// (C6): AST-like "node" records with a kind, an id, a list of attributes,
// and a list of child node handles. Nodes are copy-on-write — appending a
// child or otherwise "mutating" a node always creates a new record; no
// node's attrs/children slice is ever written to after creation.
package nodeheap

import (
	"errors"

	"github.com/aivm-run/aivm/strarena"
	"github.com/aivm-run/aivm/values"
)

// ErrCapacity is returned when a vector (nodes, attrs, or children) has no
// room left for the requested append. Callers map this into the VM's
// InvalidProgram error kind.
var ErrCapacity = errors.New("node heap capacity exhausted")

// ErrInvalidHandle is returned by every handle accessor (Kind, ID,
// AttrCount, Attr, ChildCount, ChildAt, AppendChild, Retemplate) for a
// handle ≤ 0 or past the end of the node vector.
var ErrInvalidHandle = errors.New("invalid node handle")

// AttrKind identifies the shape of an attribute's value.
type AttrKind byte

const (
	AttrIdentifier AttrKind = iota
	AttrString
	AttrInt
	AttrBool
)

// Attr is one key/value pair attached to a node. Only the field matching
// Kind is meaningful.
type Attr struct {
	Key        values.StringHandle
	Kind       AttrKind
	ValueStr   values.StringHandle
	ValueInt   int64
	ValueBool  bool
}

// slice is a {start, len} span into a shared vector — the arena+index
// model that keeps node bodies cheap to copy and handles stable.
type slice struct {
	start int
	len   int
}

// Node is one append-only record. Handles are 1-based; 0 means "none".
type node struct {
	kind     values.StringHandle
	id       values.StringHandle
	attrs    slice
	children slice
}

// Heap owns the three parallel append-only vectors backing every node:
// node records, attribute records, and child handles. Strings referenced
// by a node are always copied into the accompanying string arena first,
// isolating node lifetime from caller-owned string storage.
type Heap struct {
	arena *strarena.Arena

	nodes    []node
	attrs    []Attr
	children []int64

	nodeCap     int
	attrCap     int
	childCap    int
}

// New creates an empty Heap backed by arena, with the given fixed
// capacities for nodes, attributes, and child handles.
func New(arena *strarena.Arena, nodeCap, attrCap, childCap int) *Heap {
	return &Heap{
		arena:    arena,
		nodes:    make([]node, 0, nodeCap),
		attrs:    make([]Attr, 0, attrCap),
		children: make([]int64, 0, childCap),
		nodeCap:  nodeCap,
		attrCap:  attrCap,
		childCap: childCap,
	}
}

// Reset discards every node, attribute, and child handle. It does not
// reset the backing string arena; callers reset that separately as part
// of the whole-VM reset sequence.
func (h *Heap) Reset() {
	h.nodes = h.nodes[:0]
	h.attrs = h.attrs[:0]
	h.children = h.children[:0]
}

// internString copies s into the heap's string arena, returning a handle
// with Arena == values.ArenaVM.
func (h *Heap) internString(s string) (values.StringHandle, error) {
	off, n, err := h.arena.Alloc(s)
	if err != nil {
		return values.StringHandle{}, err
	}
	return values.StringHandle{Arena: values.ArenaVM, Valid: true, Offset: off, Len: n}, nil
}

// AttrInput is the caller-facing shape for constructing an attribute; Key
// and (for string attrs) Value are raw Go strings, copied into the arena
// by Create.
type AttrInput struct {
	Key       string
	Kind      AttrKind
	ValueStr  string
	ValueInt  int64
	ValueBool bool
}

// Create appends a new node of the given kind/id with the given attributes
// and child handles, copying kind/id/attribute-key/attribute-string-value
// into the string arena. It returns the new node's 1-based handle.
func (h *Heap) Create(kind, id string, attrs []AttrInput, children []int64) (int64, error) {
	if len(h.nodes) >= h.nodeCap {
		return 0, ErrCapacity
	}
	if len(h.attrs)+len(attrs) > h.attrCap {
		return 0, ErrCapacity
	}
	if len(h.children)+len(children) > h.childCap {
		return 0, ErrCapacity
	}

	kindH, err := h.internString(kind)
	if err != nil {
		return 0, err
	}
	idH, err := h.internString(id)
	if err != nil {
		return 0, err
	}

	attrStart := len(h.attrs)
	for _, a := range attrs {
		keyH, err := h.internString(a.Key)
		if err != nil {
			return 0, err
		}
		rec := Attr{Key: keyH, Kind: a.Kind, ValueInt: a.ValueInt, ValueBool: a.ValueBool}
		if a.Kind == AttrString || a.Kind == AttrIdentifier {
			valH, err := h.internString(a.ValueStr)
			if err != nil {
				return 0, err
			}
			rec.ValueStr = valH
		}
		h.attrs = append(h.attrs, rec)
	}

	childStart := len(h.children)
	h.children = append(h.children, children...)

	h.nodes = append(h.nodes, node{
		kind:     kindH,
		id:       idH,
		attrs:    slice{start: attrStart, len: len(attrs)},
		children: slice{start: childStart, len: len(children)},
	})
	return int64(len(h.nodes)), nil
}

// AppendChild creates a new node sharing parent's kind, id, and attributes
// but with child appended to the end of its child list. It never mutates
// the parent's record.
func (h *Heap) AppendChild(parent int64, child int64) (int64, error) {
	p, err := h.lookup(parent)
	if err != nil {
		return 0, err
	}
	if len(h.children)+p.children.len+1 > h.childCap {
		return 0, ErrCapacity
	}
	if len(h.nodes) >= h.nodeCap {
		return 0, ErrCapacity
	}

	childStart := len(h.children)
	h.children = append(h.children, h.children[p.children.start:p.children.start+p.children.len]...)
	h.children = append(h.children, child)

	h.nodes = append(h.nodes, node{
		kind:     p.kind,
		id:       p.id,
		attrs:    p.attrs,
		children: slice{start: childStart, len: p.children.len + 1},
	})
	return int64(len(h.nodes)), nil
}

// Retemplate creates a new node sharing template's kind, id, and
// attributes but with newChildren as its complete child list.
func (h *Heap) Retemplate(template int64, newChildren []int64) (int64, error) {
	t, err := h.lookup(template)
	if err != nil {
		return 0, err
	}
	if len(h.nodes) >= h.nodeCap {
		return 0, ErrCapacity
	}
	if len(h.children)+len(newChildren) > h.childCap {
		return 0, ErrCapacity
	}

	childStart := len(h.children)
	h.children = append(h.children, newChildren...)

	h.nodes = append(h.nodes, node{
		kind:     t.kind,
		id:       t.id,
		attrs:    t.attrs,
		children: slice{start: childStart, len: len(newChildren)},
	})
	return int64(len(h.nodes)), nil
}

func (h *Heap) lookup(handle int64) (node, error) {
	if handle <= 0 || handle > int64(len(h.nodes)) {
		return node{}, ErrInvalidHandle
	}
	return h.nodes[handle-1], nil
}

// Kind returns the kind string handle of the node at handle.
func (h *Heap) Kind(handle int64) (values.StringHandle, error) {
	n, err := h.lookup(handle)
	if err != nil {
		return values.StringHandle{}, err
	}
	return n.kind, nil
}

// ID returns the id string handle of the node at handle.
func (h *Heap) ID(handle int64) (values.StringHandle, error) {
	n, err := h.lookup(handle)
	if err != nil {
		return values.StringHandle{}, err
	}
	return n.id, nil
}

// AttrCount returns the number of attributes on the node at handle.
func (h *Heap) AttrCount(handle int64) (int, error) {
	n, err := h.lookup(handle)
	if err != nil {
		return 0, err
	}
	return n.attrs.len, nil
}

// Attr returns the i'th attribute of the node at handle, and whether i was
// in range. Out-of-range i is not an error: callers return zero defaults.
func (h *Heap) Attr(handle int64, i int) (Attr, bool, error) {
	n, err := h.lookup(handle)
	if err != nil {
		return Attr{}, false, err
	}
	if i < 0 || i >= n.attrs.len {
		return Attr{}, false, nil
	}
	return h.attrs[n.attrs.start+i], true, nil
}

// ChildCount returns the number of children of the node at handle.
func (h *Heap) ChildCount(handle int64) (int, error) {
	n, err := h.lookup(handle)
	if err != nil {
		return 0, err
	}
	return n.children.len, nil
}

// ChildAt returns the i'th child handle of the node at handle. An
// out-of-range i is reported via ok == false; callers treat this as
// InvalidProgram (unlike attribute access, child index is caller-supplied
// and presumed valid by contract).
func (h *Heap) ChildAt(handle int64, i int) (int64, bool, error) {
	n, err := h.lookup(handle)
	if err != nil {
		return 0, false, err
	}
	if i < 0 || i >= n.children.len {
		return 0, false, nil
	}
	return h.children[n.children.start+i], true, nil
}

// ResolveString dereferences a StringHandle against either this heap's
// arena (ArenaVM) or, for ArenaProgram handles, the supplied program pool
// resolver. Suitable as the resolve func for values.Value.Equal and for
// TO_STRING-style conversions.
func (h *Heap) ResolveString(programResolve func(values.StringHandle) (string, bool)) func(values.StringHandle) (string, bool) {
	return func(sh values.StringHandle) (string, bool) {
		if !sh.Valid {
			return "", false
		}
		if sh.Arena == values.ArenaVM {
			return h.arena.Slice(sh.Offset, sh.Len), true
		}
		return programResolve(sh)
	}
}
