package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ParseJSON decodes a JSON string into a struct.
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v, false)
}

// ParseJSONStrict decodes a JSON string into a struct, rejecting unknown fields.
func ParseJSONStrict(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v, true)
}

// ParseJSONBytes decodes a JSON byte slice into a struct.
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v, false)
}

// DecodeJSONStrict decodes JSON from a reader, rejecting unknown fields.
func DecodeJSONStrict(r io.Reader, v interface{}) error {
	return decodeJSON(r, v, true)
}

func decodeJSON(r io.Reader, v interface{}, disallowUnknown bool) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if disallowUnknown {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(v); err != nil {
		return err
	}

	// Reject trailing data after the first value.
	for {
		t, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if t != nil {
			return fmt.Errorf("unexpected extra JSON data")
		}
	}
}

var unquotedKeyPattern = regexp.MustCompile(`([{\[,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

// QuoteJSONKeys adds double quotes around bare object keys.
func QuoteJSONKeys(raw string) string {
	return unquotedKeyPattern.ReplaceAllString(raw, `$1"$2":`)
}

// ExtractJSONObject slices out the outermost {...} block from model output,
// dropping markdown fences or prose the model wrapped around it.
func ExtractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end != -1 && end > start {
		return content[start : end+1]
	}
	return content
}

// ToJSON marshals a struct to a JSON string.
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
