package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	// ErrUnknownEncoding is returned for encoding names that are not known to the codec.
	ErrUnknownEncoding = errors.New("unknown encoding")
	// ErrUnsupportedType is returned by Encode for values that have no byte representation.
	ErrUnsupportedType = errors.New("unsupported argument type")
	// ErrUnexpectedType is returned by the reply helpers if a reply has another shape than requested.
	ErrUnexpectedType = errors.New("unexpected reply type")
)

// lookups caches resolved encodings by their normalized label
var lookups = xsync.NewMapOf[string, encoding.Encoding]()

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Encoding selects how stored bytes are returned to a caller.
// The zero value is Raw: values are returned as []byte without decoding.
type Encoding struct {
	name string
	enc  encoding.Encoding
}

// Raw returns values unchanged as []byte.
var Raw = Encoding{}

// Named returns the text encoding registered under the given label
// (for example "utf-8", "latin1" or "utf-16le").
func Named(name string) (Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	if label == "" {
		return Raw, fmt.Errorf("%w: empty name", ErrUnknownEncoding)
	}
	if enc, ok := lookups.Load(label); ok {
		return Encoding{name: label, enc: enc}, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return Raw, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	enc, _ = lookups.LoadOrStore(label, enc)
	return Encoding{name: label, enc: enc}, nil
}

// MustNamed is like Named but panics for unknown names
func MustNamed(name string) Encoding {
	e, err := Named(name)
	if err != nil {
		panic(err)
	}
	return e
}

// IsRaw reports whether values are passed through without decoding
func (e Encoding) IsRaw() bool {
	return e.enc == nil
}

// Name returns the label the encoding was created with, "" for Raw
func (e Encoding) Name() string {
	return e.name
}

func (e Encoding) String() string {
	if e.IsRaw() {
		return "raw"
	}
	return e.name
}

// Resolve returns the explicitly requested encoding if there is one, otherwise the default.
// Only the first element of explicit is considered.
func Resolve(def Encoding, explicit []Encoding) Encoding {
	if len(explicit) > 0 {
		return explicit[0]
	}
	return def
}

// --------------------------------------------------------------------------
// Decoding (read path)
// --------------------------------------------------------------------------

// Decode converts a stored value for the caller. nil stays nil, Raw returns the bytes
// unchanged and every other encoding returns a string.
func Decode(b []byte, e Encoding) (any, error) {
	if b == nil {
		return nil, nil
	}
	if e.IsRaw() {
		return b, nil
	}
	s, err := e.enc.NewDecoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.name, err)
	}
	return string(s), nil
}

// DecodeAll decodes every element of values
func DecodeAll(values [][]byte, e Encoding) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		d, err := Decode(v, e)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// DecodeStrings decodes keys and field names. They are always returned as strings,
// with Raw the bytes are reinterpreted without conversion.
func DecodeStrings(values []string, e Encoding) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		if e.IsRaw() {
			out[i] = []byte(v)
			continue
		}
		d, err := Decode([]byte(v), e)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// DecodeMap decodes the values of a hash and its field names.
func DecodeMap(fields map[string][]byte, e Encoding) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for f, v := range fields {
		d, err := Decode(v, e)
		if err != nil {
			return nil, err
		}
		if !e.IsRaw() {
			s, err := e.enc.NewDecoder().String(f)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", e.name, err)
			}
			f = s
		}
		out[f] = d
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Encoding (write path)
// --------------------------------------------------------------------------

// Encode converts a command argument to the bytes that are stored.
// Byte slices and strings are stored as they are, numbers in their decimal
// representation and booleans as "1" or "0". nil is stored as an empty value.
func Encode(v any) ([]byte, error) {
	switch v := v.(type) {
	case nil:
		return []byte{}, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case int:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int8:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int16:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int32:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int64:
		return strconv.AppendInt(nil, v, 10), nil
	case uint:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint8:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint16:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint32:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint64:
		return strconv.AppendUint(nil, v, 10), nil
	case float32:
		return strconv.AppendFloat(nil, float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
	case bool:
		if v {
			return []byte("1"), nil
		}
		return []byte("0"), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

// Int converts an integer argument of any integer kind. All other types fail with ErrUnsupportedType.
func Int(v any) (int64, error) {
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return toInt64(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return toInt64(v)
	default:
		return 0, fmt.Errorf("%w: expected an integer, got %T", ErrUnsupportedType, v)
	}
}

func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedType, v)
	}
	return int64(v), nil
}
