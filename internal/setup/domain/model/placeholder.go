package model

import "firestore-setup/internal/shared/firestore"

// PlaceholderID is the sentinel document ID used in every collection.
const PlaceholderID = "_placeholder"

// Field names of a placeholder document.
const (
	FieldPlaceholder = "_placeholder"
	FieldCreatedAt   = "createdAt"
	FieldNote        = "note"
)

// Collection describes one of the collections the application expects.
type Collection struct {
	Name        string
	Note        string
	Description string
}

// Collections lists the expected collections in the order they are created.
var Collections = []Collection{
	{
		Name:        "users",
		Note:        "This is a placeholder. Real user docs will be created on signup.",
		Description: "for user profiles",
	},
	{
		Name:        "vaults",
		Note:        "This is a placeholder. Real vaults will be created by users.",
		Description: "for secure vaults",
	},
	{
		Name:        "files",
		Note:        "This is a placeholder. Real file metadata will be stored here.",
		Description: "for file metadata",
	},
	{
		Name:        "shared",
		Note:        "This is a placeholder. Shared documents will be stored here.",
		Description: "for shared documents",
	},
}

// CollectionNames returns the names of Collections in order.
func CollectionNames() []string {
	names := make([]string, 0, len(Collections))
	for _, c := range Collections {
		names = append(names, c.Name)
	}
	return names
}

// serverTimestamp is the type of ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp is a field value that tells a DocumentWriter to store the
// commit time assigned by the database instead of a client value.
var ServerTimestamp = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp marker.
func IsServerTimestamp(v interface{}) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// PlaceholderDocument is the sentinel document written into a collection so
// that it shows up in database tooling before any real data exists.
type PlaceholderDocument struct {
	Collection string
	ID         string
	Note       string
}

// NewPlaceholderDocument builds the placeholder for c.
func NewPlaceholderDocument(c Collection) *PlaceholderDocument {
	return &PlaceholderDocument{
		Collection: c.Name,
		ID:         PlaceholderID,
		Note:       c.Note,
	}
}

// Path returns the document path, e.g. "users/_placeholder".
func (d *PlaceholderDocument) Path() string {
	return firestore.BuildDocumentPath(d.Collection, d.ID)
}

// Validate checks that the document can be addressed.
func (d *PlaceholderDocument) Validate() error {
	return firestore.ValidateDocumentPath(d.Path())
}

// Fields returns the field map to write. createdAt carries the
// ServerTimestamp marker.
func (d *PlaceholderDocument) Fields() map[string]interface{} {
	return map[string]interface{}{
		FieldPlaceholder: true,
		FieldCreatedAt:   ServerTimestamp,
		FieldNote:        d.Note,
	}
}
