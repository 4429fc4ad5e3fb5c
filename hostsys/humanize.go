package hostsys

import (
	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/values"
	humanize "github.com/dustin/go-humanize"
)

func (e *Env) humanizeBytes(target string, args []values.Value, out *values.Value) hostcall.Status {
	if len(args) < 1 || args[0].Type != values.TypeInt || args[0].I < 0 {
		return hostcall.Invalid
	}
	return e.internResult(out, humanize.Bytes(uint64(args[0].I)))
}
