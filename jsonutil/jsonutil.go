// Package jsonutil renders JSON the way the persisted artifacts require:
// two-space indentation, no HTML escaping, non-ASCII preserved literally.
package jsonutil

import (
	"bytes"
	"encoding/json"
)

func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
