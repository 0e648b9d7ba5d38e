package dom

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Attribute is a single name/value pair.
type Attribute struct {
	Name  string
	Value string
}

// Attributes is an attribute list in DOM order. It encodes as a JSON object
// whose keys keep that order.
type Attributes []Attribute

// Get returns the value of the first attribute named name.
func (a Attributes) Get(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// MarshalJSON encodes the attributes as an ordered object.
func (a Attributes) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(attr.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(attr.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping key order.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("dom: attributes must be a JSON object, got %v", tok)
	}

	out := Attributes{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("dom: attribute name must be a string, got %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("dom: attribute %q: %w", name, err)
		}
		out = append(out, Attribute{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*a = out
	return nil
}
