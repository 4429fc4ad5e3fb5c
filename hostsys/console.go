package hostsys

import (
	"fmt"
	"io"

	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/values"
)

func (e *Env) consoleWrite(target string, args []values.Value, out *values.Value) hostcall.Status {
	s, ok := e.resolveArg(args, 0)
	if !ok {
		return hostcall.Invalid
	}
	if _, err := fmt.Fprint(e.Stdout, s); err != nil {
		return hostcall.Invalid
	}
	*out = values.Void()
	return hostcall.Ok
}

func (e *Env) consoleWriteLine(target string, args []values.Value, out *values.Value) hostcall.Status {
	s, ok := e.resolveArg(args, 0)
	if !ok {
		return hostcall.Invalid
	}
	if _, err := fmt.Fprintln(e.Stdout, s); err != nil {
		return hostcall.Invalid
	}
	*out = values.Void()
	return hostcall.Ok
}

func (e *Env) consoleWriteErrLine(target string, args []values.Value, out *values.Value) hostcall.Status {
	s, ok := e.resolveArg(args, 0)
	if !ok {
		return hostcall.Invalid
	}
	if _, err := fmt.Fprintln(e.Stderr, s); err != nil {
		return hostcall.Invalid
	}
	*out = values.Void()
	return hostcall.Ok
}

// consoleReadLine reads one line from Stdin (trimming the trailing newline).
// At EOF with no bytes read, it returns the empty string rather than failing
// dispatch — callers distinguish "nothing left" by pairing this with
// process state on their own, per the contract's unconditional String
// return type.
func (e *Env) consoleReadLine(target string, args []values.Value, out *values.Value) hostcall.Status {
	line, err := e.stdin().ReadString('\n')
	if err != nil && err != io.EOF {
		return hostcall.Invalid
	}
	line = trimNewline(line)
	return e.internResult(out, line)
}

func (e *Env) consoleReadAllStdin(target string, args []values.Value, out *values.Value) hostcall.Status {
	b, err := io.ReadAll(e.stdin())
	if err != nil {
		return hostcall.Invalid
	}
	return e.internResult(out, string(b))
}

func trimNewline(s string) string {
	n := len(s)
	if n > 0 && s[n-1] == '\n' {
		n--
		if n > 0 && s[n-1] == '\r' {
			n--
		}
	}
	return s[:n]
}
