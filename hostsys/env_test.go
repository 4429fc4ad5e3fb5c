package hostsys

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/nodeheap"
	"github.com/aivm-run/aivm/strarena"
	"github.com/aivm-run/aivm/values"
)

// memStrings is a trivial append-only string table standing in for a VM's
// arena, so handler tests don't need a real vm.VirtualMachine.
type memStrings struct {
	vals []string
}

func (m *memStrings) resolve(h values.StringHandle) (string, bool) {
	if !h.Valid || h.Offset < 0 || h.Offset >= len(m.vals) {
		return "", false
	}
	return m.vals[h.Offset], true
}

func (m *memStrings) intern(s string) (values.StringHandle, bool) {
	m.vals = append(m.vals, s)
	return values.StringHandle{Valid: true, Offset: len(m.vals) - 1, Len: len(s)}, true
}

func (m *memStrings) str(s string) values.Value {
	h, _ := m.intern(s)
	return values.String(h)
}

func newTestEnv(t *testing.T) (*Env, *memStrings, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	ms := &memStrings{}
	heap := nodeheap.New(strarena.New(4096), 64, 64, 64)
	var stdout, stderr bytes.Buffer
	return &Env{
		Resolve: ms.resolve,
		Intern:  ms.intern,
		Heap:    heap,
		Stdout:  &stdout,
		Stderr:  &stderr,
		Stdin:   strings.NewReader(""),
	}, ms, &stdout, &stderr
}

func TestConsoleWriteLine(t *testing.T) {
	e, ms, stdout, _ := newTestEnv(t)
	var out values.Value
	status := e.consoleWriteLine("sys.console_writeLine", []values.Value{ms.str("hello")}, &out)
	if status != hostcall.Ok {
		t.Fatalf("expected Ok, got %s", status)
	}
	if stdout.String() != "hello\n" {
		t.Fatalf("expected %q, got %q", "hello\n", stdout.String())
	}
}

func TestConsoleWriteErrLine(t *testing.T) {
	e, ms, _, stderr := newTestEnv(t)
	var out values.Value
	e.consoleWriteErrLine("sys.console_writeErrLine", []values.Value{ms.str("oops")}, &out)
	if stderr.String() != "oops\n" {
		t.Fatalf("expected oops on stderr, got %q", stderr.String())
	}
}

func TestConsoleReadLinePreservesBufferAcrossCalls(t *testing.T) {
	e, _, _, _ := newTestEnv(t)
	e.Stdin = strings.NewReader("first\nsecond\n")
	var out values.Value
	if status := e.consoleReadLine("sys.console_readLine", nil, &out); status != hostcall.Ok {
		t.Fatalf("expected Ok, got %s", status)
	}
	first, _ := e.Resolve(out.S)
	if first != "first" {
		t.Fatalf("expected %q, got %q", "first", first)
	}
	if status := e.consoleReadLine("sys.console_readLine", nil, &out); status != hostcall.Ok {
		t.Fatalf("expected Ok, got %s", status)
	}
	second, _ := e.Resolve(out.S)
	if second != "second" {
		t.Fatalf("expected the second call to see the rest of the stream, got %q", second)
	}
}

func TestConsoleReadAllStdin(t *testing.T) {
	e, _, _, _ := newTestEnv(t)
	e.Stdin = strings.NewReader("all of it")
	var out values.Value
	e.consoleReadAllStdin("sys.console_readAllStdin", nil, &out)
	s, _ := e.Resolve(out.S)
	if s != "all of it" {
		t.Fatalf("expected %q, got %q", "all of it", s)
	}
}

func TestStrUTF8ByteCount(t *testing.T) {
	e, ms, _, _ := newTestEnv(t)
	var out values.Value
	status := e.strUTF8ByteCount("sys.str_utf8ByteCount", []values.Value{ms.str("héllo")}, &out)
	if status != hostcall.Ok || out.I != 6 {
		t.Fatalf("expected Ok/6, got %s/%d", status, out.I)
	}
}

func TestStrSubstringAndRemove(t *testing.T) {
	e, ms, _, _ := newTestEnv(t)
	var out values.Value
	e.strSubstring("sys.str_substring", []values.Value{ms.str("hello"), values.Int(1), values.Int(3)}, &out)
	s, _ := e.Resolve(out.S)
	if s != "ell" {
		t.Fatalf("expected ell, got %q", s)
	}
	e.strRemove("sys.str_remove", []values.Value{ms.str("hello"), values.Int(1), values.Int(3)}, &out)
	s, _ = e.Resolve(out.S)
	if s != "ho" {
		t.Fatalf("expected ho, got %q", s)
	}
}

func TestProcessEnvGet(t *testing.T) {
	e, ms, _, _ := newTestEnv(t)
	t.Setenv("AIVM_TEST_VAR", "present")
	var out values.Value
	e.processEnvGet("sys.process_envGet", []values.Value{ms.str("AIVM_TEST_VAR")}, &out)
	s, _ := e.Resolve(out.S)
	if s != "present" {
		t.Fatalf("expected present, got %q", s)
	}
}

func TestProcessArgvBuildsOneAttrPerArg(t *testing.T) {
	e, _, _, _ := newTestEnv(t)
	e.Args = []string{"a", "b", "c"}
	var out values.Value
	status := e.processArgv("sys.process_argv", nil, &out)
	if status != hostcall.Ok || out.Type != values.TypeNode {
		t.Fatalf("expected a Node result, got %s/%+v", status, out)
	}
	n, err := e.Heap.(*nodeheap.Heap).AttrCount(out.N)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 argv attrs, got %d (%v)", n, err)
	}
}

func TestUUIDNewProducesDistinctValues(t *testing.T) {
	e, _, _, _ := newTestEnv(t)
	var a, b values.Value
	e.uuidNew("sys.uuid_new", nil, &a)
	e.uuidNew("sys.uuid_new", nil, &b)
	sa, _ := e.Resolve(a.S)
	sb, _ := e.Resolve(b.S)
	if sa == "" || sa == sb {
		t.Fatalf("expected two distinct non-empty UUIDs, got %q and %q", sa, sb)
	}
}

func TestHumanizeBytes(t *testing.T) {
	e, _, _, _ := newTestEnv(t)
	var out values.Value
	e.humanizeBytes("sys.humanize_bytes", []values.Value{values.Int(1024)}, &out)
	s, _ := e.Resolve(out.S)
	if s == "" {
		t.Fatal("expected a non-empty humanized size")
	}
}

func TestTimeFormat(t *testing.T) {
	e, ms, _, _ := newTestEnv(t)
	var out values.Value
	status := e.timeFormat("sys.time_format", []values.Value{values.Int(0), ms.str("%Y-%m-%d")}, &out)
	if status != hostcall.Ok {
		t.Fatalf("expected Ok, got %s", status)
	}
	s, _ := e.Resolve(out.S)
	if s != "1970-01-01" {
		t.Fatalf("expected 1970-01-01, got %q", s)
	}
}

func TestUINotImplementedReturnsNotFound(t *testing.T) {
	var out values.Value
	status := uiNotImplemented("sys.ui_createWindow", nil, &out)
	if status != hostcall.NotFound {
		t.Fatalf("expected NotFound, got %s", status)
	}
}

func TestBindingsCoverUITargets(t *testing.T) {
	e, _, _, _ := newTestEnv(t)
	bindings := e.Bindings()
	found := 0
	for _, b := range bindings {
		for _, target := range uiTargets {
			if b.Target == target {
				found++
			}
		}
	}
	if found != len(uiTargets) {
		t.Fatalf("expected every ui target bound, got %d/%d", found, len(uiTargets))
	}
}
