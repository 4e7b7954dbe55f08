package internal

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/ValentinKolb/mkv/lib/db"
	"github.com/edwingeng/deque/v2"
	"github.com/gobwas/glob"
)

// --------------------------------------------------------------------------
// Entry Type (value with metadata)
// --------------------------------------------------------------------------

// Entry stores the value of one key together with its metadata.
// Exactly one of the value fields is set, selected by Kind.
// Str is never modified in place, a write always stores a new slice. The container
// fields are mutated in place and must only be accessed while holding the engine lock.
type Entry struct {
	Kind     db.Kind
	Str      []byte
	Hash     map[string][]byte
	List     *deque.Deque[[]byte]
	Set      map[string]struct{}
	ExpireAt int64 // unix nano timestamp, 0 = no expiration
}

// NewEntry creates an empty entry of the given kind
func NewEntry(kind db.Kind) Entry {
	e := Entry{Kind: kind}
	switch kind {
	case db.KindHash:
		e.Hash = make(map[string][]byte)
	case db.KindList:
		e.List = deque.NewDeque[[]byte]()
	case db.KindSet:
		e.Set = make(map[string]struct{})
	}
	return e
}

// Expired returns whether the entry is expired at the given unix nano timestamp
func (e Entry) Expired(now int64) bool {
	return e.ExpireAt != 0 && now >= e.ExpireAt
}

// Empty returns whether a container entry holds no elements.
// Empty containers are removed from the database.
func (e Entry) Empty() bool {
	switch e.Kind {
	case db.KindHash:
		return len(e.Hash) == 0
	case db.KindList:
		return e.List.Len() == 0
	case db.KindSet:
		return len(e.Set) == 0
	default:
		return false
	}
}

// SortedMembers returns the members of a set entry in lexical order
func (e Entry) SortedMembers() []string {
	members := make([]string, 0, len(e.Set))
	for m := range e.Set {
		members = append(members, m)
	}
	sort.Strings(members)
	return members
}

// SortedFields returns the fields of a hash entry in lexical order
func (e Entry) SortedFields() []string {
	fields := make([]string, 0, len(e.Hash))
	for f := range e.Hash {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (e Entry) String() string {
	return fmt.Sprintf("Entry{Kind: %s, ExpireAt: %d}", e.Kind, e.ExpireAt)
}

// --------------------------------------------------------------------------
// Dump encoding
// --------------------------------------------------------------------------

// Dump serializes the value of an entry. Hash fields and set members are written in
// lexical order so that equal values always produce equal dumps.
// Layout: kind byte, element count (uvarint), then every element as uvarint length + bytes.
func Dump(e Entry) []byte {
	var elems [][]byte
	switch e.Kind {
	case db.KindString:
		elems = [][]byte{e.Str}
	case db.KindHash:
		for _, f := range e.SortedFields() {
			elems = append(elems, []byte(f), e.Hash[f])
		}
	case db.KindList:
		e.List.Range(func(_ int, v []byte) bool {
			elems = append(elems, v)
			return true
		})
	case db.KindSet:
		for _, m := range e.SortedMembers() {
			elems = append(elems, []byte(m))
		}
	}

	buf := []byte{kindTag(e.Kind)}
	buf = binary.AppendUvarint(buf, uint64(len(elems)))
	for _, el := range elems {
		buf = binary.AppendUvarint(buf, uint64(len(el)))
		buf = append(buf, el...)
	}
	return buf
}

func kindTag(k db.Kind) byte {
	switch k {
	case db.KindString:
		return 0
	case db.KindHash:
		return 1
	case db.KindList:
		return 2
	case db.KindSet:
		return 3
	default:
		return 0xff
	}
}

// --------------------------------------------------------------------------
// Pattern matching
// --------------------------------------------------------------------------

// Matcher reports whether a key matches a pattern
type Matcher func(s string) bool

// CompileMatcher compiles a glob style pattern (*, ?, [abc], [^a], \x).
// An empty pattern or "*" matches everything.
func CompileMatcher(pattern string) (Matcher, error) {
	if pattern == "" || pattern == "*" {
		return func(string) bool { return true }, nil
	}
	// negated character classes are written [^...] by clients, the glob library expects [!...]
	g, err := glob.Compile(strings.ReplaceAll(pattern, "[^", "[!"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pattern %q: %v", db.ErrSyntax, pattern, err)
	}
	return g.Match, nil
}
