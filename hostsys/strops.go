package hostsys

import (
	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/internal/runeslice"
	"github.com/aivm-run/aivm/values"
)

// These three mirror the STR_SUBSTRING/STR_REMOVE/STR_UTF8_BYTE_COUNT
// opcodes exactly, so that scripted code and syscall-driven host code see
// identical rune-slicing behavior.

func (e *Env) strUTF8ByteCount(target string, args []values.Value, out *values.Value) hostcall.Status {
	s, ok := e.resolveArg(args, 0)
	if !ok {
		return hostcall.Invalid
	}
	*out = values.Int(int64(runeslice.UTF8ByteCount(s)))
	return hostcall.Ok
}

func (e *Env) strSubstring(target string, args []values.Value, out *values.Value) hostcall.Status {
	s, ok := e.resolveArg(args, 0)
	if !ok || len(args) < 3 || args[1].Type != values.TypeInt || args[2].Type != values.TypeInt {
		return hostcall.Invalid
	}
	return e.internResult(out, runeslice.Substring(s, int(args[1].I), int(args[2].I)))
}

func (e *Env) strRemove(target string, args []values.Value, out *values.Value) hostcall.Status {
	s, ok := e.resolveArg(args, 0)
	if !ok || len(args) < 3 || args[1].Type != values.TypeInt || args[2].Type != values.TypeInt {
		return hostcall.Invalid
	}
	return e.internResult(out, runeslice.Remove(s, int(args[1].I), int(args[2].I)))
}
