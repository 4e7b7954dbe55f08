// Package codec converts values between the byte form kept by the engine and the
// form handed to callers of the client.
//
// On the read path a value is either passed through unchanged (Raw) or decoded into
// a string using a text encoding selected by its label:
//
//	utf8 := codec.MustNamed("utf-8")
//	v, _ := codec.Decode([]byte("caf\xc3\xa9"), utf8) // "café"
//	v, _ = codec.Decode([]byte("abc"), codec.Raw)     // []byte("abc")
//
// Client operations take the encoding as an optional trailing argument. Omitting it
// uses the default of the client, passing codec.Raw explicitly requests raw bytes:
//
//	r.Get("key")                  // client default
//	r.Get("key", codec.Raw)       // always []byte
//	r.Get("key", codec.MustNamed("latin1"))
//
// On the write path Encode converts arguments (strings, byte slices, numbers, booleans)
// to bytes. The reply helpers String, Bytes, Int64 and Strings convert replies to
// concrete types.
package codec
