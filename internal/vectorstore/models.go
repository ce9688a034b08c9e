package vectorstore

// Document represents a document stored in a vector collection.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Content is the text content of the document.
	Content string

	// Metadata contains additional key-value pairs stored alongside the
	// document. Memory records carry their tags here as a single
	// comma-joined string under the "tags" key.
	Metadata map[string]interface{}
}

// SearchResult represents a similarity search hit.
type SearchResult struct {
	// ID is the document identifier.
	ID string

	// Content is the document text content.
	Content string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata contains the document metadata.
	Metadata map[string]interface{}
}
