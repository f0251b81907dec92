package models

import (
	"bytes"
	"errors"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// Payload is the structured data carried by a code. Payloads that parse as a
// JSON object keep their structured form; anything else is carried as raw
// bytes. Exactly one of Fields and Raw is set.
type Payload struct {
	Fields map[string]interface{} `json:"fields,omitempty"`
	Raw    []byte                 `json:"raw,omitempty"`
}

// identifyingKeys are checked in order when extracting the secondary dedup key.
var identifyingKeys = []string{"asset_id", "assetId", "component_id", "serial_number"}

// ParsePayload interprets decoded bytes as a structured payload when they form
// a JSON object, otherwise falls back to a raw payload.
func ParsePayload(data []byte) Payload {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err == nil && fields != nil {
		return Payload{Fields: fields}
	}
	raw := make([]byte, len(data))
	copy(raw, data)
	return Payload{Raw: raw}
}

// StructuredPayload wraps an already-decoded field map.
func StructuredPayload(fields map[string]interface{}) Payload {
	return Payload{Fields: fields}
}

func (p Payload) IsStructured() bool {
	return p.Fields != nil
}

// View is the JSON projection served to API clients. Structured payloads keep
// their fields; raw payloads are wrapped under a raw_data key so decoded
// content always reaches the caller.
func (p Payload) View() map[string]interface{} {
	if p.Fields != nil {
		return p.Fields
	}
	if len(p.Raw) == 0 {
		return nil
	}
	return map[string]interface{}{"raw_data": string(p.Raw)}
}

// Empty reports whether the payload carries no data at all.
func (p Payload) Empty() bool {
	return len(p.Fields) == 0 && len(p.Raw) == 0
}

// AssetID extracts the secondary identifying field used for fallback dedup
// lookups. Empty when the payload is raw or carries none of the known keys.
func (p Payload) AssetID() string {
	for _, key := range identifyingKeys {
		if v, ok := p.Fields[key]; ok {
			if s := cast.ToString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// Canonical serializes the payload into its canonical byte form. For
// structured payloads this is JSON with recursively sorted object keys, so two
// payloads that differ only in field order canonicalize identically. Raw
// payloads are canonical as-is.
func (p Payload) Canonical() ([]byte, error) {
	if !p.IsStructured() {
		return p.Raw, nil
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, p.Fields); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []interface{}:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case json.Number:
		if t == "" {
			return errors.New("empty json number")
		}
		buf.WriteString(string(t))
		return nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}
