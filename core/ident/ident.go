// Package ident defines the one identifier type courses and sessions are
// referred to by throughout the core. The legacy collections are
// inconsistent about ids, storing them as numbers in some fields and as
// string document keys elsewhere; this type absorbs that mismatch at the
// store boundary so nothing downstream has to care.
package ident

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type ID string

func (id ID) String() string { return string(id) }

// MarshalJSON always emits the id as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts both the string and the numeric representation
// found in legacy documents.
func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", b)
	}
	*id = ID(n.String())
	return nil
}

// StoreValue returns the native representation the legacy collections use
// for this id inside document bodies: a JSON number when the id is
// numeric, the string itself otherwise. Document keys always use the
// string form.
func (id ID) StoreValue() any {
	if id == "" {
		return ""
	}
	if n, err := strconv.ParseFloat(string(id), 64); err == nil {
		return n
	}
	return string(id)
}
