package hostsys

import (
	"runtime"

	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/values"
	"github.com/aivm-run/aivm/version"
)

func (e *Env) platform(target string, args []values.Value, out *values.Value) hostcall.Status {
	return e.internResult(out, runtime.GOOS)
}

func (e *Env) arch(target string, args []values.Value, out *values.Value) hostcall.Status {
	return e.internResult(out, runtime.GOARCH)
}

func (e *Env) osVersion(target string, args []values.Value, out *values.Value) hostcall.Status {
	return e.internResult(out, runtime.Version())
}

func (e *Env) runtimeInfo(target string, args []values.Value, out *values.Value) hostcall.Status {
	return e.internResult(out, version.Version())
}
