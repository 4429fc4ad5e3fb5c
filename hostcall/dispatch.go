package hostcall

import "github.com/aivm-run/aivm/values"

// Status is the outcome of a dispatch attempt (as distinct from a
// ContractStatus, which only concerns table validation).
type Status int

const (
	Ok Status = iota
	Invalid
	NullResult
	NotFound
	Contract
	ReturnType
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "Ok"
	case Invalid:
		return "Invalid"
	case NullResult:
		return "NullResult"
	case NotFound:
		return "NotFound"
	case Contract:
		return "Contract"
	case ReturnType:
		return "ReturnType"
	default:
		return "Unknown"
	}
}

// Handler is the shape every host call binds to: given a target name and
// argument slice, write the result into out and return a dispatch
// status. Per spec §9's design note, the table of bindings is a slice of
// {target, dyn handler} rather than a fixed function-pointer union.
type Handler interface {
	Invoke(target string, args []values.Value, out *values.Value) Status
}

// HandlerFunc adapts a plain function to the Handler interface, mirroring
// http.HandlerFunc.
type HandlerFunc func(target string, args []values.Value, out *values.Value) Status

func (f HandlerFunc) Invoke(target string, args []values.Value, out *values.Value) Status {
	return f(target, args, out)
}

// Binding pairs a syscall target name with the handler that serves it.
type Binding struct {
	Target  string
	Handler Handler
}

// Invoke is the unchecked passthrough: null guards only, no contract
// validation. out is set to Void before any failure return.
func Invoke(handler Handler, target string, args []values.Value, out *values.Value) Status {
	if out == nil {
		return NullResult
	}
	*out = values.Void()
	if handler == nil || target == "" {
		return Invalid
	}
	return handler.Invoke(target, args, out)
}

// Dispatch linearly scans bindings for the first entry whose Target
// matches and invokes it. out is Void on any non-Ok return.
func Dispatch(bindings []Binding, target string, args []values.Value, out *values.Value) Status {
	if out == nil {
		return NullResult
	}
	*out = values.Void()
	for _, b := range bindings {
		if b.Target == target {
			return Invoke(b.Handler, target, args, out)
		}
	}
	return NotFound
}

// DispatchChecked validates target/args against the static contract
// table, dispatches on success, then verifies the returned value's tag
// matches the contract's declared return type. out is Void on any
// non-Ok return. contractStatus carries the underlying ContractStatus
// when status == Contract, for error-detail reporting.
func DispatchChecked(bindings []Binding, target string, args []values.Value, out *values.Value) (status Status, contractStatus ContractStatus) {
	if out == nil {
		return NullResult, ContractOK
	}
	*out = values.Void()

	cs, retType := ValidateTarget(target, args)
	if cs != ContractOK {
		return Contract, cs
	}

	st := Dispatch(bindings, target, args, out)
	if st != Ok {
		*out = values.Void()
		return st, ContractOK
	}

	if out.Type != retType {
		*out = values.Void()
		return ReturnType, ContractOK
	}
	return Ok, ContractOK
}
