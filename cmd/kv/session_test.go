package kv

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/ValentinKolb/mkv/lib/client"
	"github.com/ValentinKolb/mkv/lib/codec"
)

func newTestSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	conn := client.NewRedis(client.Options{Encoding: codec.MustNamed("utf-8")})
	t.Cleanup(func() { _ = conn.Close() })
	var out bytes.Buffer
	return newSession(conn, &out), &out
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"GET foo", []string{"GET", "foo"}},
		{"  SET   foo\tbar  ", []string{"SET", "foo", "bar"}},
		{`SET foo "hello world"`, []string{"SET", "foo", "hello world"}},
		{`SET foo ""`, []string{"SET", "foo", ""}},
		{`SET foo "a\"b\\c\n"`, []string{"SET", "foo", "a\"b\\c\n"}},
		{`SET foo "\xe9"`, []string{"SET", "foo", "\xe9"}},
		{"", nil},
	}
	for _, tc := range tests {
		got, err := splitArgs(tc.line)
		if err != nil {
			t.Errorf("splitArgs(%q) failed: %v", tc.line, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitArgs(%q) = %q, want %q", tc.line, got, tc.want)
		}
	}

	for _, bad := range []string{`SET "foo`, `SET "foo"bar`, `SET "\x4"`} {
		if _, err := splitArgs(bad); err == nil {
			t.Errorf("splitArgs(%q) should fail", bad)
		}
	}
}

func TestWriteReply(t *testing.T) {
	tests := []struct {
		reply any
		want  string
	}{
		{nil, "(nil)\n"},
		{"OK", "OK\n"},
		{"bar", "\"bar\"\n"},
		{[]byte("bar"), "\"bar\"\n"},
		{int64(3), "(integer) 3\n"},
		{true, "(integer) 1\n"},
		{[]any{}, "(empty array)\n"},
		{[]any{"a", nil}, "1) \"a\"\n2) (nil)\n"},
		{[]any{uint64(0), []any{"k"}}, "1) (integer) 0\n2) 1) \"k\"\n"},
		{map[string]any{"b": "2", "a": "1"}, "1) \"a\"\n2) \"1\"\n3) \"b\"\n4) \"2\"\n"},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		writeReply(&buf, tc.reply, "")
		if buf.String() != tc.want {
			t.Errorf("writeReply(%#v) = %q, want %q", tc.reply, buf.String(), tc.want)
		}
	}
}

func TestRunScript(t *testing.T) {
	s, out := newTestSession(t)

	script := `
# comment
SET foo "hello world"
GET foo
INCR foo
NOPE
`
	if err := s.runScript(strings.NewReader(script)); err != nil {
		t.Fatal(err)
	}
	want := "(integer) 1\n" +
		"\"hello world\"\n" +
		"(error) ERR value is not an integer or out of range\n" +
		"(error) ERR unknown command 'NOPE'\n"
	if out.String() != want {
		t.Errorf("Unexpected output:\n%s\nwant:\n%s", out.String(), want)
	}

	if err := s.runScript(strings.NewReader(`GET "foo`)); err == nil {
		t.Errorf("Syntax errors should stop the script")
	}
}

func TestMultiExec(t *testing.T) {
	s, out := newTestSession(t)

	script := `
MULTI
SET n 1
INCR n
EXEC
`
	if err := s.runScript(strings.NewReader(script)); err != nil {
		t.Fatal(err)
	}
	want := "OK\nQUEUED\nQUEUED\n1) (integer) 1\n2) (integer) 2\n"
	if out.String() != want {
		t.Errorf("Unexpected output:\n%s\nwant:\n%s", out.String(), want)
	}

	if err := s.runScript(strings.NewReader("MULTI\nSET a 1\n")); err == nil {
		t.Errorf("Unterminated MULTI should fail")
	}
}

func TestWatchConflict(t *testing.T) {
	s, out := newTestSession(t)

	for _, line := range []string{"SET k 1", "WATCH k", "SET k 2", "MULTI", "SET k 3", "EXEC", "GET k"} {
		if err := s.runLine(line); err != nil {
			t.Fatal(err)
		}
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[5] != "(nil)" {
		t.Errorf("EXEC after a watch conflict should print (nil), got %q", lines[5])
	}
	if lines[6] != "\"2\"" {
		t.Errorf("The queued SET must not run, got %q", lines[6])
	}
}

func TestLockUnlock(t *testing.T) {
	s, out := newTestSession(t)

	owner, err := s.eval("LOCK", "LOCK", []string{"res", "10"})
	if err != nil {
		t.Fatal(err)
	}
	if hexOwner, ok := owner.(string); !ok || len(hexOwner) != 64 {
		t.Fatalf("Expected hex owner id, got %#v", owner)
	}

	if err = s.runLine("LOCK res"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "(nil)\n" {
		t.Errorf("Second lock should print (nil), got %q", out.String())
	}

	released, err := s.eval("UNLOCK", "UNLOCK", []string{"res", owner.(string)})
	if err != nil || released != true {
		t.Errorf("Unlock by the owner should succeed, got %v, %v", released, err)
	}
}
