// Package memory implements codename-scoped storage, retrieval, and
// semantic search of text records over a vector store collection.
package memory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/memoryd/internal/vectorstore"
)

// ErrValidation indicates invalid caller input (empty content, empty query,
// nothing to update). Never fatal; adapters map it to 400-class responses.
var ErrValidation = errors.New("validation failed")

// Record is the domain entity stored per memory.
//
// ID is assigned at creation and immutable. Content is free text, non-empty.
// Tags are ordered, trimmed, and never contain commas; they are replaced
// wholesale on update, never merged.
type Record struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// tagsMetadataKey is the metadata field carrying the encoded tag list.
const tagsMetadataKey = "tags"

// NormalizeTags trims each tag, drops empties, and preserves order.
// Tags containing commas are rejected: the storage encoding is comma-joined,
// so such a tag would decode as two.
func NormalizeTags(tags []string) ([]string, error) {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if strings.Contains(tag, ",") {
			return nil, fmt.Errorf("%w: tag %q must not contain commas", ErrValidation, tag)
		}
		normalized = append(normalized, tag)
	}
	return normalized, nil
}

// EncodeTags joins tags into the single metadata string stored alongside
// the record. Tags must already be normalized.
func EncodeTags(tags []string) string {
	return strings.Join(tags, ",")
}

// DecodeTags splits the stored metadata string back into a tag list.
// Empty segments are dropped, order is preserved, and empty or absent
// input decodes to an empty list.
func DecodeTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// documentToRecord maps a raw store row onto the normalized record shape.
func documentToRecord(doc *vectorstore.Document) *Record {
	raw := ""
	if doc.Metadata != nil {
		if v, ok := doc.Metadata[tagsMetadataKey].(string); ok {
			raw = v
		}
	}
	return &Record{
		ID:      doc.ID,
		Content: doc.Content,
		Tags:    DecodeTags(raw),
	}
}

// recordDocument builds the store row for a record's fields.
func recordDocument(id, content string, tags []string) vectorstore.Document {
	return vectorstore.Document{
		ID:      id,
		Content: content,
		Metadata: map[string]interface{}{
			tagsMetadataKey: EncodeTags(tags),
		},
	}
}
