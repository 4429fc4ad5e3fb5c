package hostsys

import (
	"time"

	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/values"
	"github.com/ncruces/go-strftime"
)

func (e *Env) timeNow(target string, args []values.Value, out *values.Value) hostcall.Status {
	*out = values.Int(time.Now().Unix())
	return hostcall.Ok
}

// timeFormat renders a unix timestamp (seconds) using a strftime layout,
// since strftime verbs are what the original host environment's format
// strings were already written in.
func (e *Env) timeFormat(target string, args []values.Value, out *values.Value) hostcall.Status {
	if len(args) < 2 || args[0].Type != values.TypeInt {
		return hostcall.Invalid
	}
	layout, ok := e.resolveArg(args, 1)
	if !ok {
		return hostcall.Invalid
	}
	t := time.Unix(args[0].I, 0).UTC()
	return e.internResult(out, strftime.Format(layout, t))
}
