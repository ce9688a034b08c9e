// Package project handles project namespaces ("codenames") and their mapping
// to vector store collection names.
//
// A codename identifies one isolated set of memory records. Every
// project-scoped operation validates the codename before any collection
// lookup happens.
package project

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// CollectionPrefix is prepended to a codename to form its collection name.
const CollectionPrefix = "project_memory_"

// ErrInvalidCodename indicates a codename that is empty or carries characters
// outside [a-z0-9_-] after normalization.
var ErrInvalidCodename = errors.New("invalid codename")

var codenamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Normalize trims and lowercases raw and validates the result.
// The normalized codename is returned; all storage and routing is keyed by it.
func Normalize(raw string) (string, error) {
	codename := strings.ToLower(strings.TrimSpace(raw))
	if codename == "" {
		return "", fmt.Errorf("%w: codename cannot be empty", ErrInvalidCodename)
	}
	if !codenamePattern.MatchString(codename) {
		return "", fmt.Errorf("%w: codename must match ^[a-z0-9_-]+$, got %q", ErrInvalidCodename, raw)
	}
	return codename, nil
}

// CollectionName returns the collection name backing a codename.
func CollectionName(codename string) string {
	return fmt.Sprintf("%s%s", CollectionPrefix, codename)
}

// CodenameFromCollection extracts the codename from a collection name.
// Returns false when the name does not carry the project prefix.
func CodenameFromCollection(name string) (string, bool) {
	codename, ok := strings.CutPrefix(name, CollectionPrefix)
	if !ok || codename == "" {
		return "", false
	}
	return codename, true
}
