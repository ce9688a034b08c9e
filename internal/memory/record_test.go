package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/memoryd/internal/vectorstore"
)

func TestTagsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tags []string
	}{
		{"empty", []string{}},
		{"single", []string{"infra"}},
		{"multiple ordered", []string{"infra", "build", "ci"}},
		{"tags with spaces inside", []string{"build cache", "slow tests"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tags, DecodeTags(EncodeTags(tt.tags)))
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{"trims whitespace", []string{"  infra  ", "build"}, []string{"infra", "build"}, false},
		{"drops empty tags", []string{"infra", "", "   ", "build"}, []string{"infra", "build"}, false},
		{"preserves order", []string{"z", "a", "m"}, []string{"z", "a", "m"}, false},
		{"nil input", nil, []string{}, false},
		{"rejects commas", []string{"infra,build"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTags(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty string", "", []string{}},
		{"single", "infra", []string{"infra"}},
		{"multiple", "infra,build,ci", []string{"infra", "build", "ci"}},
		{"drops empty segments", "infra,,build,", []string{"infra", "build"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeTags(tt.raw))
		})
	}
}

func TestDocumentToRecord(t *testing.T) {
	t.Run("with tags metadata", func(t *testing.T) {
		doc := &vectorstore.Document{
			ID:       "id-1",
			Content:  "build uses cache",
			Metadata: map[string]interface{}{"tags": "infra,build"},
		}
		record := documentToRecord(doc)
		assert.Equal(t, "id-1", record.ID)
		assert.Equal(t, "build uses cache", record.Content)
		assert.Equal(t, []string{"infra", "build"}, record.Tags)
	})

	t.Run("missing metadata decodes to empty tags", func(t *testing.T) {
		doc := &vectorstore.Document{ID: "id-2", Content: "plain"}
		record := documentToRecord(doc)
		require.NotNil(t, record.Tags)
		assert.Empty(t, record.Tags)
	})

	t.Run("non-string tags value decodes to empty tags", func(t *testing.T) {
		doc := &vectorstore.Document{
			ID:       "id-3",
			Content:  "odd metadata",
			Metadata: map[string]interface{}{"tags": 42},
		}
		record := documentToRecord(doc)
		assert.Empty(t, record.Tags)
	})
}
