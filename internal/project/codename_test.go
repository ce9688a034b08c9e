package project

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"simple lowercase", "alpha", "alpha", false},
		{"uppercase folded", "Alpha", "alpha", false},
		{"surrounding whitespace trimmed", "  alpha  ", "alpha", false},
		{"digits", "project123", "project123", false},
		{"hyphen", "my-project", "my-project", false},
		{"underscore", "my_project", "my_project", false},
		{"mixed", " My-Project_2 ", "my-project_2", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"interior space", "my project", "", true},
		{"dot", "my.project", "", true},
		{"slash", "my/project", "", true},
		{"unicode", "прoект", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCodename) {
					t.Errorf("Normalize(%q) error = %v, want ErrInvalidCodename", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCollectionName(t *testing.T) {
	if got := CollectionName("alpha"); got != "project_memory_alpha" {
		t.Errorf("CollectionName(alpha) = %q, want project_memory_alpha", got)
	}
}

func TestCodenameFromCollection(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"round trip", "project_memory_alpha", "alpha", true},
		{"prefix only", "project_memory_", "", false},
		{"unrelated collection", "checkpoints", "", false},
		{"prefix not at start", "x_project_memory_alpha", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CodenameFromCollection(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CodenameFromCollection(%q) = (%q, %v), want (%q, %v)",
					tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
