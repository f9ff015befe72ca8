// Package svelte inflates the SvelteKit __data.json envelope served by the
// provider's opportunities page into plain field/value maps.
//
// A data node is a flat array. Its first element maps top-level field names
// to indices into the array; object schemas are further maps of
// field->index and lists are arrays of indices. Everything else is a value.
package svelte

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// maxDepth bounds index chasing so a malformed (cyclic) payload fails
// instead of recursing forever.
const maxDepth = 64

var (
	ErrNotPayload = errors.New("não é um payload __data.json do SvelteKit")
	ErrNoDataNode = errors.New("nenhum nó de dados encontrado")
)

type envelope struct {
	Type  string            `json:"type"`
	Nodes []json.RawMessage `json:"nodes"`
}

type node struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// IsPayload reports whether body looks like a __data.json envelope.
func IsPayload(body []byte) bool {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	return env.Type == "data" && env.Nodes != nil
}

// Unpack returns the fields of the first data node that carries records.
// Nodes holding only session metadata (a "profile" field) are skipped.
func Unpack(body []byte) (map[string]any, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPayload, err)
	}
	if env.Type != "data" || env.Nodes == nil {
		return nil, ErrNotPayload
	}

	for _, raw := range env.Nodes {
		var n node
		if err := json.Unmarshal(raw, &n); err != nil || n.Type != "data" {
			continue
		}

		var data []any
		if err := decode(n.Data, &data); err != nil || len(data) == 0 {
			continue
		}
		if head, ok := data[0].(map[string]any); ok {
			if _, isProfile := head["profile"]; isProfile {
				continue
			}
		}

		return unpackData(data)
	}

	return nil, ErrNoDataNode
}

// Records extracts field key of an unpacked node as one JSON document per
// element.
func Records(fields map[string]any, key string) ([]json.RawMessage, error) {
	value, ok := fields[key]
	if !ok || value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("campo %s não é uma lista", key)
	}

	records := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		encoded, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("erro ao serializar %s: %w", key, err)
		}
		records = append(records, encoded)
	}
	return records, nil
}

func unpackData(data []any) (map[string]any, error) {
	head, ok := data[0].(map[string]any)
	if !ok {
		return nil, errors.New("formato inesperado: o primeiro elemento deve mapear campos para índices")
	}

	// The largest index map other than the head is the record schema.
	var schema map[string]any
	for i := 1; i < len(data); i++ {
		candidate, ok := indexMap(data[i])
		if !ok {
			continue
		}
		if schema == nil || len(candidate) > len(schema) {
			schema = candidate
		}
	}
	if schema == nil {
		return nil, errors.New("nenhum mapa de índices encontrado")
	}

	fields := make(map[string]any, len(head)+len(schema))
	for name, idx := range head {
		fields[name] = valueAt(data, idx, 0)
	}
	for name, idx := range schema {
		fields[name] = valueAt(data, idx, 0)
	}
	return fields, nil
}

func valueAt(data []any, idx any, depth int) any {
	i, ok := index(idx)
	if !ok || i < 0 || i >= len(data) || depth > maxDepth {
		return nil
	}

	val := data[i]
	if m, ok := indexMap(val); ok {
		out := make(map[string]any, len(m))
		for field, sub := range m {
			out[field] = valueAt(data, sub, depth+1)
		}
		return out
	}
	if list, ok := indexList(val); ok {
		out := make([]any, len(list))
		for j, sub := range list {
			out[j] = valueAt(data, sub, depth+1)
		}
		return out
	}
	return val
}

func indexMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, item := range m {
		if _, ok := index(item); !ok {
			return nil, false
		}
	}
	return m, true
}

func indexList(v any) ([]any, bool) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	for _, item := range list {
		if _, ok := index(item); !ok {
			return nil, false
		}
	}
	return list, true
}

func index(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(i), true
}

func decode(raw []byte, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(dest)
}
