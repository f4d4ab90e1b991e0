// Package codec selects the JSON encoding used by self-describing records.
//
// The header key/value block of every compressed stream is written with Default.
// Changing Default changes the bytes of newly written headers; readers accept any
// well-formed JSON regardless of which codec produced it.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for newly written headers.
var Default Codec = GoJSON{}
