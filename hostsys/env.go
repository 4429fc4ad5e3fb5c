// Package hostsys implements the concrete syscall handlers bound into the
// VM's syscall table (C3/C4): console I/O, process/platform introspection,
// time and string utilities, and database/config access. Each handler is a
// hostcall.HandlerFunc closure over an Env, mirroring the teacher's style of
// wiring concrete side-effecting code behind a small interface rather than
// reaching for globals.
package hostsys

import (
	"bufio"
	"io"
	"os"

	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/nodeheap"
	"github.com/aivm-run/aivm/values"
)

// NodeBuilder is the subset of *nodeheap.Heap a handler needs to build a
// node-shaped return value. *nodeheap.Heap satisfies this directly.
type NodeBuilder interface {
	Create(kind, id string, attrs []nodeheap.AttrInput, children []int64) (int64, error)
}

// Env bundles everything a syscall handler needs to resolve its string
// arguments, intern its string results, and build node results, plus the
// I/O streams console.* and process.* read and write. One Env is created
// per VM run, since Heap and Intern/Resolve are tied to that run's arena.
type Env struct {
	// Resolve dereferences a StringHandle argument to its Go string.
	// Ordinarily vm.VirtualMachine.ResolveString.
	Resolve func(values.StringHandle) (string, bool)
	// Intern copies a Go string into the VM's arena, for handlers that
	// return a direct String value. Ordinarily vm.VirtualMachine.InternString.
	Intern func(string) (values.StringHandle, bool)
	// Heap builds node-shaped return values (process.argv, db.query rows,
	// config.load's parsed tree).
	Heap NodeBuilder

	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// Args is the program's own argv, exposed through sys.process_argv.
	// NewEnv sets it to os.Args[1:]; a nil Args yields an empty argv.
	Args []string

	stdinReader *bufio.Reader
}

func (e *Env) stdin() *bufio.Reader {
	if e.stdinReader == nil {
		e.stdinReader = bufio.NewReader(e.Stdin)
	}
	return e.stdinReader
}

// NewEnv returns an Env wired to the process's real stdio and argv, using
// the given resolve/intern funcs and heap (ordinarily taken from the
// caller's VirtualMachine).
func NewEnv(resolve func(values.StringHandle) (string, bool), intern func(string) (values.StringHandle, bool), heap NodeBuilder) *Env {
	return &Env{
		Resolve: resolve,
		Intern:  intern,
		Heap:    heap,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Stdin:   os.Stdin,
		Args:    os.Args[1:],
	}
}

// resolveArg reads args[i] as a string, returning ("", false) if it is not
// a valid (non-null) string. Contract validation already guarantees the
// tag is TypeString; only null-pointer strings need to be rejected here.
func (e *Env) resolveArg(args []values.Value, i int) (string, bool) {
	if i >= len(args) || args[i].Type != values.TypeString || !args[i].S.Valid {
		return "", false
	}
	return e.Resolve(args[i].S)
}

func (e *Env) internResult(out *values.Value, s string) hostcall.Status {
	h, ok := e.Intern(s)
	if !ok {
		return hostcall.Invalid
	}
	*out = values.String(h)
	return hostcall.Ok
}

// Bindings assembles the full []hostcall.Binding table for this Env,
// covering every contract row in the hostcall package's static table.
func (e *Env) Bindings() []hostcall.Binding {
	bindings := []hostcall.Binding{
		{Target: "sys.console_write", Handler: hostcall.HandlerFunc(e.consoleWrite)},
		{Target: "sys.console_writeLine", Handler: hostcall.HandlerFunc(e.consoleWriteLine)},
		{Target: "sys.stdout_writeLine", Handler: hostcall.HandlerFunc(e.consoleWriteLine)},
		{Target: "sys.console_readLine", Handler: hostcall.HandlerFunc(e.consoleReadLine)},
		{Target: "sys.console_readAllStdin", Handler: hostcall.HandlerFunc(e.consoleReadAllStdin)},
		{Target: "sys.console_writeErrLine", Handler: hostcall.HandlerFunc(e.consoleWriteErrLine)},

		{Target: "sys.process_cwd", Handler: hostcall.HandlerFunc(e.processCwd)},
		{Target: "sys.process_envGet", Handler: hostcall.HandlerFunc(e.processEnvGet)},
		{Target: "sys.process_argv", Handler: hostcall.HandlerFunc(e.processArgv)},

		{Target: "sys.platform", Handler: hostcall.HandlerFunc(e.platform)},
		{Target: "sys.arch", Handler: hostcall.HandlerFunc(e.arch)},
		{Target: "sys.os_version", Handler: hostcall.HandlerFunc(e.osVersion)},
		{Target: "sys.runtime", Handler: hostcall.HandlerFunc(e.runtimeInfo)},

		{Target: "sys.str_utf8ByteCount", Handler: hostcall.HandlerFunc(e.strUTF8ByteCount)},
		{Target: "sys.str_substring", Handler: hostcall.HandlerFunc(e.strSubstring)},
		{Target: "sys.str_remove", Handler: hostcall.HandlerFunc(e.strRemove)},

		{Target: "sys.time_now", Handler: hostcall.HandlerFunc(e.timeNow)},
		{Target: "sys.time_format", Handler: hostcall.HandlerFunc(e.timeFormat)},
		{Target: "sys.uuid_new", Handler: hostcall.HandlerFunc(e.uuidNew)},
		{Target: "sys.humanize_bytes", Handler: hostcall.HandlerFunc(e.humanizeBytes)},

		{Target: "sys.db_query", Handler: hostcall.HandlerFunc(e.dbQuery)},
		{Target: "sys.config_load", Handler: hostcall.HandlerFunc(e.configLoad)},
	}

	for _, target := range uiTargets {
		bindings = append(bindings, hostcall.Binding{Target: target, Handler: hostcall.HandlerFunc(uiNotImplemented)})
	}
	return bindings
}
