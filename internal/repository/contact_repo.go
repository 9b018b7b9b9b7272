package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hakchin/ppst/internal/models"
)

// ContactRepository persists contact inquiries and reads them back for export.
type ContactRepository interface {
	Save(ctx context.Context, inquiry models.ContactInquiry) (string, error)
	List(ctx context.Context) ([]Document, error)
}

// Document is one stored inquiry as a raw JSON object. Numbers are kept as json.Number
// and fields written by older versions are preserved untouched.
type Document map[string]any

// decodeInto converts the document into v, typically a *models.ContactInquiry.
func (d Document) decodeInto(v any) error {
	raw, err := json.Marshal(map[string]any(d))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// expandedYearPrefix marks submission timestamps written with an expanded ISO-8601 year
// (+002025-...) by earlier serializers.
const expandedYearPrefix = "+00"

// normalizeSubmittedAt rewrites an expanded-year submitted_at to the four digit form.
// Repeated prefixes are all removed.
func normalizeSubmittedAt(doc Document) {
	value, ok := doc["submitted_at"].(string)
	if !ok || !strings.HasPrefix(value, expandedYearPrefix) {
		return
	}
	for strings.HasPrefix(value, expandedYearPrefix) {
		value = strings.TrimPrefix(value, expandedYearPrefix)
	}
	doc["submitted_at"] = value
}

func decodeDocument(data []byte) (Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var doc map[string]any
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("document is not a JSON object")
	}
	if decoder.More() {
		return nil, errors.New("unexpected data after JSON object")
	}
	return Document(doc), nil
}

// encodeJSON marshals v without HTML escaping so message text such as "x<3" is stored
// verbatim. An empty indent produces compact output.
func encodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if indent != "" {
		encoder.SetIndent("", indent)
	}
	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalCompact renders v as single-line JSON without HTML escaping.
func MarshalCompact(v any) ([]byte, error) {
	return encodeJSON(v, "")
}

// MarshalPretty renders v as two-space indented JSON without HTML escaping.
func MarshalPretty(v any) ([]byte, error) {
	return encodeJSON(v, "  ")
}
