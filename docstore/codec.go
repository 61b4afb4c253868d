package docstore

import (
	"encoding/json"
	"fmt"
)

// To unmarshals the document body into a struct with json tags.
func (d Document) To(v any) error {
	b, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding document %s: %w", d.ID, err)
	}
	return nil
}

// ToData turns a struct with json tags into a document body. The roundtrip
// through JSON also canonicalizes value types, so data written through
// ToData compares consistently in queries.
func ToData(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("value is not an object: %w", err)
	}
	return m, nil
}
