package hostsys

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/nodeheap"
	"github.com/aivm-run/aivm/values"
)

// configLoad reads and parses a YAML file at path into a node tree: a
// mapping becomes an "Object" node whose children are "Entry" nodes
// (id == key, single child == the entry's value), a sequence becomes an
// "Array" node whose children are its elements directly, and a scalar
// becomes a "Scalar" node with a single typed "value" attribute.
func (e *Env) configLoad(target string, args []values.Value, out *values.Value) hostcall.Status {
	path, ok := e.resolveArg(args, 0)
	if !ok {
		return hostcall.Invalid
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return hostcall.Invalid
	}
	var doc interface{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return hostcall.Invalid
	}
	handle, err := e.buildConfigNode(doc)
	if err != nil {
		return hostcall.Invalid
	}
	*out = values.Node(handle)
	return hostcall.Ok
}

func (e *Env) buildConfigNode(v interface{}) (int64, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		children := make([]int64, 0, len(keys))
		for _, k := range keys {
			childVal, err := e.buildConfigNode(val[k])
			if err != nil {
				return 0, err
			}
			entry, err := e.Heap.Create("Entry", k, nil, []int64{childVal})
			if err != nil {
				return 0, err
			}
			children = append(children, entry)
		}
		return e.Heap.Create("Object", "", nil, children)

	case []interface{}:
		children := make([]int64, 0, len(val))
		for _, item := range val {
			child, err := e.buildConfigNode(item)
			if err != nil {
				return 0, err
			}
			children = append(children, child)
		}
		return e.Heap.Create("Array", "", nil, children)

	case string:
		return e.Heap.Create("Scalar", "", []nodeheap.AttrInput{{Key: "value", Kind: nodeheap.AttrString, ValueStr: val}}, nil)

	case bool:
		return e.Heap.Create("Scalar", "", []nodeheap.AttrInput{{Key: "value", Kind: nodeheap.AttrBool, ValueBool: val}}, nil)

	case int:
		return e.Heap.Create("Scalar", "", []nodeheap.AttrInput{{Key: "value", Kind: nodeheap.AttrInt, ValueInt: int64(val)}}, nil)

	case int64:
		return e.Heap.Create("Scalar", "", []nodeheap.AttrInput{{Key: "value", Kind: nodeheap.AttrInt, ValueInt: val}}, nil)

	case float64:
		return e.Heap.Create("Scalar", "", []nodeheap.AttrInput{{Key: "value", Kind: nodeheap.AttrString, ValueStr: fmt.Sprintf("%g", val)}}, nil)

	case nil:
		return e.Heap.Create("Scalar", "", []nodeheap.AttrInput{{Key: "value", Kind: nodeheap.AttrString, ValueStr: ""}}, nil)

	default:
		return e.Heap.Create("Scalar", "", []nodeheap.AttrInput{{Key: "value", Kind: nodeheap.AttrString, ValueStr: fmt.Sprintf("%v", val)}}, nil)
	}
}
