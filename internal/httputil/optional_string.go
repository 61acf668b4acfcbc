package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString tells an absent JSON field apart from an explicit null:
//   - Present=false: field absent
//   - Present=true, Value=nil: field is null
//   - Present=true, Value=&s: field is a string
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only called when the field is present.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
