package hostsys

import (
	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/values"
	"github.com/google/uuid"
)

func (e *Env) uuidNew(target string, args []values.Value, out *values.Value) hostcall.Status {
	return e.internResult(out, uuid.New().String())
}
