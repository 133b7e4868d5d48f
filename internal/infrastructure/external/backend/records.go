package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/garyjia/invoicedesk/internal/domain/preview"
)

// decodeRecords reads {"data": [{...}, ...]} or {"error": "..."}. Columns
// follow the key order of the first record as written on the wire, which a
// plain map decode would lose.
func decodeRecords(body []byte) (*preview.Table, string, error) {
	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, "", err
	}
	if envelope.Error != "" {
		return nil, envelope.Error, nil
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &preview.Table{}, "", nil
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.Data))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, "", err
	}

	var columns []string
	var records []map[string]any
	for dec.More() {
		keys, rec, err := decodeObject(dec)
		if err != nil {
			return nil, "", fmt.Errorf("record %d: %w", len(records), err)
		}
		if columns == nil {
			columns = keys
		}
		records = append(records, rec)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, "", err
	}

	return preview.FromRecords(columns, records), "", nil
}

func decodeObject(dec *json.Decoder) ([]string, map[string]any, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, nil, err
	}

	keys := []string{}
	rec := map[string]any{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, seen := rec[key]; !seen {
			keys = append(keys, key)
		}
		rec[key] = value
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}
	return keys, rec, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
