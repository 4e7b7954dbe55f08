package codec

import (
	"fmt"
	"strconv"
)

// --------------------------------------------------------------------------
// Reply helpers
//
// The client returns replies as any. These helpers convert a reply (and the error
// returned with it) to a concrete Go type:
//
//	s, err := codec.String(r.Get("foo"))
// --------------------------------------------------------------------------

// String converts a bulk reply to a string. A nil reply yields "" and no error.
func String(reply any, err error) (string, error) {
	if err != nil {
		return "", err
	}
	switch r := reply.(type) {
	case nil:
		return "", nil
	case string:
		return r, nil
	case []byte:
		return string(r), nil
	case int64:
		return strconv.FormatInt(r, 10), nil
	default:
		return "", fmt.Errorf("%w: %T for String", ErrUnexpectedType, reply)
	}
}

// Bytes converts a bulk reply to a byte slice. A nil reply yields nil and no error.
func Bytes(reply any, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	switch r := reply.(type) {
	case nil:
		return nil, nil
	case []byte:
		return r, nil
	case string:
		return []byte(r), nil
	default:
		return nil, fmt.Errorf("%w: %T for Bytes", ErrUnexpectedType, reply)
	}
}

// Int64 converts an integer reply or a bulk reply holding a decimal number.
func Int64(reply any, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	switch r := reply.(type) {
	case int64:
		return r, nil
	case int:
		return int64(r), nil
	case bool:
		if r {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseInt(string(r), 10, 64)
	case string:
		return strconv.ParseInt(r, 10, 64)
	default:
		return 0, fmt.Errorf("%w: %T for Int64", ErrUnexpectedType, reply)
	}
}

// Strings converts an array reply to a slice of strings. nil elements become "".
func Strings(reply any, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	values, ok := reply.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T for Strings", ErrUnexpectedType, reply)
	}
	out := make([]string, len(values))
	for i, v := range values {
		if out[i], err = String(v, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}
