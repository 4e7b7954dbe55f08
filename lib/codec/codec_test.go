package codec

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestNamed(t *testing.T) {
	for _, name := range []string{"utf-8", "UTF8", "latin1", "iso-8859-1", "windows-1252", "utf-16le"} {
		e, err := Named(name)
		if err != nil {
			t.Errorf("Named(%q) failed: %v", name, err)
			continue
		}
		if e.IsRaw() {
			t.Errorf("Named(%q) should not be raw", name)
		}
	}

	if _, err := Named("no-such-encoding"); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("Expected ErrUnknownEncoding, got %v", err)
	}
	if _, err := Named(""); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("Expected ErrUnknownEncoding for empty name, got %v", err)
	}
	if !Raw.IsRaw() || Raw.String() != "raw" {
		t.Errorf("Zero value should be raw")
	}
}

func TestResolve(t *testing.T) {
	utf8 := MustNamed("utf-8")

	if e := Resolve(utf8, nil); e.Name() != "utf-8" {
		t.Errorf("Missing argument should resolve to the default")
	}
	if e := Resolve(utf8, []Encoding{Raw}); !e.IsRaw() {
		t.Errorf("Explicit raw should win over the default")
	}
	if e := Resolve(Raw, []Encoding{utf8}); e.IsRaw() {
		t.Errorf("Explicit encoding should win over the default")
	}
}

func TestDecode(t *testing.T) {
	v, err := Decode([]byte("bar"), Raw)
	if err != nil {
		t.Fatal(err)
	}
	if b, ok := v.([]byte); !ok || !bytes.Equal(b, []byte("bar")) {
		t.Errorf("Raw should return bytes unchanged, got %#v", v)
	}

	v, _ = Decode([]byte("bar"), MustNamed("utf-8"))
	if s, ok := v.(string); !ok || s != "bar" {
		t.Errorf("utf-8 should return a string, got %#v", v)
	}

	// 0xE9 is é in latin1
	v, _ = Decode([]byte{'c', 'a', 'f', 0xE9}, MustNamed("latin1"))
	if v != "café" {
		t.Errorf("Expected café, got %#v", v)
	}

	v, _ = Decode([]byte{'h', 0, 'i', 0}, MustNamed("utf-16le"))
	if v != "hi" {
		t.Errorf("Expected hi, got %#v", v)
	}

	if v, _ = Decode(nil, MustNamed("utf-8")); v != nil {
		t.Errorf("nil should stay nil, got %#v", v)
	}
}

func TestDecodeCollections(t *testing.T) {
	utf8 := MustNamed("utf-8")

	all, _ := DecodeAll([][]byte{[]byte("a"), nil}, utf8)
	if len(all) != 2 || all[0] != "a" || all[1] != nil {
		t.Errorf("Unexpected DecodeAll result %#v", all)
	}

	keys, _ := DecodeStrings([]string{"k"}, Raw)
	if b, ok := keys[0].([]byte); !ok || string(b) != "k" {
		t.Errorf("Raw keys should be bytes, got %#v", keys[0])
	}

	m, _ := DecodeMap(map[string][]byte{"f": []byte("v")}, utf8)
	if m["f"] != "v" {
		t.Errorf("Unexpected DecodeMap result %#v", m)
	}
	m, _ = DecodeMap(map[string][]byte{"f": []byte("v")}, Raw)
	if b, ok := m["f"].([]byte); !ok || string(b) != "v" {
		t.Errorf("Raw map values should be bytes, got %#v", m["f"])
	}
}

func TestEncode(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"s", "s"},
		{[]byte("b"), "b"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint8(200), "200"},
		{1.5, "1.5"},
		{float32(0.25), "0.25"},
		{true, "1"},
		{false, "0"},
		{nil, ""},
	}
	for _, c := range cases {
		got, err := Encode(c.in)
		if err != nil || string(got) != c.want {
			t.Errorf("Encode(%#v) = %q, %v; want %q", c.in, got, err, c.want)
		}
	}

	if _, err := Encode(struct{}{}); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Expected ErrUnsupportedType, got %v", err)
	}
}

func TestInt(t *testing.T) {
	if n, err := Int(10); err != nil || n != 10 {
		t.Errorf("Int(10) = %d, %v", n, err)
	}
	if n, err := Int(uint16(3)); err != nil || n != 3 {
		t.Errorf("Int(uint16) = %d, %v", n, err)
	}
	for _, v := range []any{1.5, time.Second, "10", uint64(1 << 63)} {
		if _, err := Int(v); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Int(%#v) should fail with ErrUnsupportedType, got %v", v, err)
		}
	}
}

func TestReplyHelpers(t *testing.T) {
	if s, err := String([]byte("x"), nil); err != nil || s != "x" {
		t.Errorf("String = %q, %v", s, err)
	}
	if s, err := String(nil, nil); err != nil || s != "" {
		t.Errorf("String(nil) = %q, %v", s, err)
	}
	if n, err := Int64([]byte("12"), nil); err != nil || n != 12 {
		t.Errorf("Int64 = %d, %v", n, err)
	}
	if ss, err := Strings([]any{"a", []byte("b"), nil}, nil); err != nil || len(ss) != 3 || ss[1] != "b" {
		t.Errorf("Strings = %v, %v", ss, err)
	}
	if _, err := Strings("no", nil); !errors.Is(err, ErrUnexpectedType) {
		t.Errorf("Expected ErrUnexpectedType, got %v", err)
	}

	boom := errors.New("boom")
	if _, err := Bytes([]byte("x"), boom); err != boom {
		t.Errorf("Error should be passed through")
	}
}
