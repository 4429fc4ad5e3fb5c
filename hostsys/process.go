package hostsys

import (
	"os"

	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/nodeheap"
	"github.com/aivm-run/aivm/values"
)

func (e *Env) processCwd(target string, args []values.Value, out *values.Value) hostcall.Status {
	dir, err := os.Getwd()
	if err != nil {
		return hostcall.Invalid
	}
	return e.internResult(out, dir)
}

func (e *Env) processEnvGet(target string, args []values.Value, out *values.Value) hostcall.Status {
	name, ok := e.resolveArg(args, 0)
	if !ok {
		return hostcall.Invalid
	}
	return e.internResult(out, os.Getenv(name))
}

// processArgv returns the process's own argument vector as an "Argv" node
// with one "value" string attribute per argument, in order.
func (e *Env) processArgv(target string, args []values.Value, out *values.Value) hostcall.Status {
	attrs := make([]nodeheap.AttrInput, len(e.Args))
	for i, a := range e.Args {
		attrs[i] = nodeheap.AttrInput{Key: "value", Kind: nodeheap.AttrString, ValueStr: a}
	}
	handle, err := e.Heap.Create("Argv", "", attrs, nil)
	if err != nil {
		return hostcall.Invalid
	}
	*out = values.Node(handle)
	return hostcall.Ok
}
