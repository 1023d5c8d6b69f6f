package core

// Document is a unit of retrieved source material. ID should be stable across
// retrievals of the same underlying resource so RunMemory can deduplicate.
type Document struct {
	ID       string         `json:"id,omitempty"`
	Source   string         `json:"source,omitempty"` // path, URL or catalog locator
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Key returns the identity key used for deduplication: the ID when set, else
// the Source, else the content itself.
func (d Document) Key() string {
	if d.ID != "" {
		return d.ID
	}
	if d.Source != "" {
		return d.Source
	}
	return d.Content
}

// Location returns a human readable label for the document, preferring the
// Source locator, then the ID, then a generic placeholder.
func (d Document) Location() string {
	if d.Source != "" {
		return d.Source
	}
	if d.ID != "" {
		return d.ID
	}
	return "document"
}
