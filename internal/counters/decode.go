package counters

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Decode reads one JSON object from r and builds the corresponding counter
// tree, preserving the key order of the wire payload. The standard map
// decoding cannot be used here because it discards object order, and stable
// order is what makes encoding the same tree twice byte-identical.
//
// When numericStrings is true, string values that parse as base-10 integers
// become Int scalars. The control protocol declares all counters numeric but
// transports them as decimal strings, so fetch paths set this.
func Decode(r io.Reader, numericStrings bool) (*Group, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("counters: read root: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("counters: root is %v, want object", tok)
	}
	return decodeGroup(dec, numericStrings)
}

func decodeGroup(dec *json.Decoder, numericStrings bool) (*Group, error) {
	g := NewGroup()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("counters: read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("counters: object key is %v, want string", tok)
		}
		child, err := decodeValue(dec, numericStrings)
		if err != nil {
			return nil, err
		}
		g.Set(key, child)
	}
	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("counters: read object end: %w", err)
	}
	return g, nil
}

func decodeValue(dec *json.Decoder, numericStrings bool) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("counters: read value: %w", err)
	}
	switch v := tok.(type) {
	case json.Delim:
		if v == '{' {
			return decodeGroup(dec, numericStrings)
		}
		return nil, fmt.Errorf("counters: unsupported value delimiter %v", v)
	case string:
		if numericStrings {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return Int(n), nil
			}
		}
		return Str(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return Int(n), nil
		}
		return Str(v.String()), nil
	default:
		return nil, fmt.Errorf("counters: unsupported value %v (%T)", tok, tok)
	}
}
