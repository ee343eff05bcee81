package convert

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// prettyJSON re-serializes JSON with stable 2-space indentation. This is
// both the JSON→text path and the JSON→JSON canonicalization: requesting
// JSON back from a JSON fragment returns the reformatted document, not
// the raw stored bytes. json.Indent preserves key order, so the result
// is deterministic for a given payload.
func prettyJSON(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// jsonToYAML re-emits a JSON document in YAML block form. The document
// is parsed into a yaml.Node so key order survives the round trip (JSON
// is a subset of YAML flow syntax).
func jsonToYAML(data []byte) ([]byte, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	return reencodeYAML(data)
}

// reencodeYAML parses a YAML document and re-emits it in block form.
func reencodeYAML(data []byte) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return data, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("re-emit YAML: %w", err)
	}
	return out, nil
}

// csvToJSON converts CSV into a pretty-printed JSON array of records.
// The first row supplies the keys; each later row becomes one object
// with trimmed field values, in header order. Missing trailing fields
// become empty strings; fields beyond the header row are dropped.
func csvToJSON(data []byte) ([]byte, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(rows) == 0 {
		return []byte("[]"), nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	// Objects are assembled by hand so keys keep header order; maps
	// would marshal alphabetically.
	var compact bytes.Buffer
	compact.WriteByte('[')
	wrote := 0
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		if wrote > 0 {
			compact.WriteByte(',')
		}
		compact.WriteByte('{')
		for i, h := range headers {
			if i > 0 {
				compact.WriteByte(',')
			}
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			key, _ := json.Marshal(h)
			val, _ := json.Marshal(value)
			compact.Write(key)
			compact.WriteByte(':')
			compact.Write(val)
		}
		compact.WriteByte('}')
		wrote++
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("format JSON: %w", err)
	}
	return out.Bytes(), nil
}

func isBlankRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
