package repository

import (
	"context"
)

// DocumentWriter writes documents into the target database.
type DocumentWriter interface {
	// SetDocument creates or replaces collection/documentID with fields.
	// A model.ServerTimestamp value is stored as the commit time.
	SetDocument(ctx context.Context, collection, documentID string, fields map[string]interface{}) error

	// Target names the database being written, for reporting.
	Target() string

	Close() error
}
