// Package hostcall implements the VM's static syscall contract table (C3)
// and the contract-checked dispatch layer built on top of it (C4).
package hostcall

import "github.com/aivm-run/aivm/values"

// ContractStatus is the outcome of validating a call against the static
// contract table.
type ContractStatus int

const (
	ContractOK ContractStatus = iota
	ContractErrUnknownTarget
	ContractErrArgCount
	ContractErrArgType
	ContractErrUnknownID
)

// Code returns the stable short status code for s, matching the
// AIVMC0xx family.
func (s ContractStatus) Code() string {
	switch s {
	case ContractOK:
		return "AIVMC000"
	case ContractErrUnknownTarget:
		return "AIVMC001"
	case ContractErrArgCount:
		return "AIVMC002"
	case ContractErrArgType:
		return "AIVMC003"
	case ContractErrUnknownID:
		return "AIVMC004"
	default:
		return "AIVMC999"
	}
}

func (s ContractStatus) Message() string {
	switch s {
	case ContractOK:
		return "syscall contract validation passed"
	case ContractErrUnknownTarget:
		return "syscall target was not found"
	case ContractErrArgCount:
		return "syscall argument count was invalid"
	case ContractErrArgType:
		return "syscall argument type was invalid"
	case ContractErrUnknownID:
		return "syscall contract id was not found"
	default:
		return "unknown syscall contract validation status"
	}
}

func (s ContractStatus) String() string { return s.Code() }

// ContractRow is one row of the static syscall table: a target name and id,
// its fixed arity and positional argument types, and its declared return
// type.
type ContractRow struct {
	ID         uint32
	Target     string
	ArgTypes   []values.Type
	ReturnType values.Type
}

// contracts is the static table. Rows 6-31 mirror the reference contract
// table; 46-58 and 72 are the ui.* surface (bound to a NotImplemented
// stub host-side, see hostsys); 80-91 are this implementation's additions
// (time/uuid/humanize/db/config).
var contracts = []ContractRow{
	{6, "sys.console_write", []values.Type{values.TypeString}, values.TypeVoid},
	{7, "sys.console_writeLine", []values.Type{values.TypeString}, values.TypeVoid},
	{8, "sys.console_readLine", nil, values.TypeString},
	{9, "sys.console_readAllStdin", nil, values.TypeString},
	{10, "sys.console_writeErrLine", []values.Type{values.TypeString}, values.TypeVoid},
	{16, "sys.stdout_writeLine", []values.Type{values.TypeString}, values.TypeVoid},
	{11, "sys.process_cwd", nil, values.TypeString},
	{12, "sys.process_envGet", []values.Type{values.TypeString}, values.TypeString},
	{18, "sys.process_argv", nil, values.TypeNode},
	{28, "sys.platform", nil, values.TypeString},
	{29, "sys.arch", nil, values.TypeString},
	{30, "sys.os_version", nil, values.TypeString},
	{31, "sys.runtime", nil, values.TypeString},

	{46, "sys.ui_createWindow", []values.Type{values.TypeString, values.TypeInt, values.TypeInt}, values.TypeInt},
	{47, "sys.ui_beginFrame", []values.Type{values.TypeInt}, values.TypeVoid},
	{48, "sys.ui_drawRect", []values.Type{values.TypeInt, values.TypeInt, values.TypeInt, values.TypeInt, values.TypeInt, values.TypeString}, values.TypeVoid},
	{49, "sys.ui_drawText", []values.Type{values.TypeInt, values.TypeInt, values.TypeInt, values.TypeString, values.TypeString, values.TypeInt}, values.TypeVoid},
	{50, "sys.ui_endFrame", []values.Type{values.TypeInt}, values.TypeVoid},
	{51, "sys.ui_pollEvent", []values.Type{values.TypeInt}, values.TypeNode},
	{52, "sys.ui_present", []values.Type{values.TypeInt}, values.TypeVoid},
	{53, "sys.ui_closeWindow", []values.Type{values.TypeInt}, values.TypeVoid},
	{54, "sys.ui_drawLine", []values.Type{values.TypeInt, values.TypeInt, values.TypeInt, values.TypeInt, values.TypeInt, values.TypeString, values.TypeInt}, values.TypeVoid},
	{55, "sys.ui_drawEllipse", []values.Type{values.TypeInt, values.TypeInt, values.TypeInt, values.TypeInt, values.TypeInt, values.TypeString}, values.TypeVoid},
	{56, "sys.ui_drawPath", []values.Type{values.TypeInt, values.TypeString, values.TypeString, values.TypeInt}, values.TypeVoid},
	{57, "sys.ui_drawImage", []values.Type{values.TypeInt, values.TypeInt, values.TypeInt, values.TypeInt, values.TypeInt, values.TypeString}, values.TypeVoid},
	{58, "sys.ui_getWindowSize", []values.Type{values.TypeInt}, values.TypeNode},
	{72, "sys.ui_waitFrame", []values.Type{values.TypeInt}, values.TypeVoid},

	{26, "sys.str_utf8ByteCount", []values.Type{values.TypeString}, values.TypeInt},
	{59, "sys.str_substring", []values.Type{values.TypeString, values.TypeInt, values.TypeInt}, values.TypeString},
	{60, "sys.str_remove", []values.Type{values.TypeString, values.TypeInt, values.TypeInt}, values.TypeString},

	{80, "sys.time_now", nil, values.TypeInt},
	{81, "sys.time_format", []values.Type{values.TypeInt, values.TypeString}, values.TypeString},
	{82, "sys.uuid_new", nil, values.TypeString},
	{83, "sys.humanize_bytes", []values.Type{values.TypeInt}, values.TypeString},
	{90, "sys.db_query", []values.Type{values.TypeString, values.TypeString}, values.TypeNode},
	{91, "sys.config_load", []values.Type{values.TypeString}, values.TypeNode},
}

// FindByTarget returns the contract row named target, or nil.
func FindByTarget(target string) *ContractRow {
	for i := range contracts {
		if contracts[i].Target == target {
			return &contracts[i]
		}
	}
	return nil
}

// FindByID returns the contract row with the given id, or nil.
func FindByID(id uint32) *ContractRow {
	for i := range contracts {
		if contracts[i].ID == id {
			return &contracts[i]
		}
	}
	return nil
}

func validate(c *ContractRow, args []values.Value) (ContractStatus, values.Type) {
	if c == nil {
		return ContractErrUnknownTarget, values.TypeVoid
	}
	if len(c.ArgTypes) != len(args) {
		return ContractErrArgCount, values.TypeVoid
	}
	for i, want := range c.ArgTypes {
		if args[i].Type != want {
			return ContractErrArgType, values.TypeVoid
		}
	}
	return ContractOK, c.ReturnType
}

// ValidateTarget validates args against the contract named target,
// returning the declared return type on success.
func ValidateTarget(target string, args []values.Value) (ContractStatus, values.Type) {
	c := FindByTarget(target)
	if c == nil {
		return ContractErrUnknownTarget, values.TypeVoid
	}
	return validate(c, args)
}

// ValidateID validates args against the contract with the given id,
// returning the declared return type on success.
func ValidateID(id uint32, args []values.Value) (ContractStatus, values.Type) {
	c := FindByID(id)
	if c == nil {
		return ContractErrUnknownID, values.TypeVoid
	}
	return validate(c, args)
}
