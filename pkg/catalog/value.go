package catalog

import (
	"bytes"
	"encoding/json"
)

// Value is a projected field value that remembers whether it was present.
type Value struct {
	Text    string
	Present bool
}

// Present wraps a stored value.
func Present(text string) Value {
	return Value{Text: text, Present: true}
}

// Absent is the marker for a missing value.
var Absent = Value{}

func (v Value) String() string { return v.Text }

// Or returns the text when present and def otherwise.
func (v Value) Or(def string) string {
	if !v.Present {
		return def
	}
	return v.Text
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Present {
		return []byte("null"), nil
	}
	return json.Marshal(v.Text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Absent
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Present(s)
	return nil
}
