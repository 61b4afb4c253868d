package docstore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeCursor packs a position into the opaque token handed to clients.
func EncodeCursor(p Position) string {
	b, _ := json.Marshal(p)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor unpacks a client-supplied token. An empty token means
// "start from the beginning" and decodes to a nil position.
func DecodeCursor(token string) (*Position, error) {
	if token == "" {
		return nil, nil
	}

	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", err)
	}

	var p Position
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", err)
	}

	return &p, nil
}

// NextCursor derives the continuation token from the last document of a
// page. Returns "" for an empty page.
func NextCursor(docs []Document, orderBy string) string {
	if len(docs) == 0 {
		return ""
	}
	last := docs[len(docs)-1]
	return EncodeCursor(Position{Value: last.Data[orderBy], ID: last.ID})
}
