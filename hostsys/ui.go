package hostsys

import (
	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/values"
)

// uiTargets lists the ui.* contract rows retained from the reference
// syscall table (ids 46-58, 72). No windowing/drawing toolkit exists
// anywhere in this implementation's dependency stack, so every one of
// them is bound to a fixed stub rather than dropped from the contract
// table entirely — a program can still probe for their presence and get
// a well-defined NotFound rather than a dispatcher panic.
var uiTargets = []string{
	"sys.ui_createWindow", "sys.ui_beginFrame", "sys.ui_drawRect",
	"sys.ui_drawText", "sys.ui_endFrame", "sys.ui_pollEvent",
	"sys.ui_present", "sys.ui_closeWindow", "sys.ui_drawLine",
	"sys.ui_drawEllipse", "sys.ui_drawPath", "sys.ui_drawImage",
	"sys.ui_getWindowSize", "sys.ui_waitFrame",
}

func uiNotImplemented(target string, args []values.Value, out *values.Value) hostcall.Status {
	return hostcall.NotFound
}
