package mapping

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
)

// Hash computes the configHash of doc: SHA-256 over the canonical-JSON
// rendering of the mapping (sorted keys, no insignificant whitespace),
// base64url-encoded and truncated to 16 characters, per §4.I. This is the
// one generator-adjacent concern the engine deliberately keeps on the
// standard library: the hash must be byte-portable across machines and
// processes, which is exactly what crypto/sha256 guarantees and what a
// host-specific hash would not.
func Hash(doc *MappingDocument) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling mapping document: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("re-decoding mapping document for canonicalization: %w", err)
	}

	canonical, err := canonicalize(generic)
	if err != nil {
		return "", fmt.Errorf("canonicalizing mapping document: %w", err)
	}

	sum := sha256.Sum256(canonical)
	encoded := base64.URLEncoding.EncodeToString(sum[:])
	return encoded[:16], nil
}

// canonicalize re-serializes a decoded JSON value with object keys sorted
// and no insignificant whitespace, so that structurally identical documents
// always hash the same regardless of the key order their author used.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, keyJSON...)
			buf = append(buf, ':')
			valJSON, err := canonicalize(val[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, valJSON...)
		}
		buf = append(buf, '}')
		return buf, nil

	case []any:
		buf := []byte{'['}
		for i, elem := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			elemJSON, err := canonicalize(elem)
			if err != nil {
				return nil, err
			}
			buf = append(buf, elemJSON...)
		}
		buf = append(buf, ']')
		return buf, nil

	default:
		return json.Marshal(val)
	}
}
