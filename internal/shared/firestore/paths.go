package firestore

import (
	"net/url"
	"regexp"
	"strings"

	"firestore-setup/internal/shared/errors"
)

const (
	// DefaultDatabaseID is the database every project gets on creation.
	DefaultDatabaseID = "(default)"

	consoleBaseURL = "https://console.firebase.google.com/project/"
	maxIDBytes     = 1500
)

var (
	// Valid ID pattern (alphanumeric, hyphens, underscores)
	validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// IDs of the form __name__ are reserved by Firestore.
	reservedIDPattern = regexp.MustCompile(`^__.*__$`)
)

// ParseDocumentPath splits a slash separated path, dropping empty segments
func ParseDocumentPath(documentPath string) []string {
	var result []string
	for _, segment := range strings.Split(documentPath, "/") {
		if segment != "" {
			result = append(result, segment)
		}
	}
	return result
}

// BuildDocumentPath constructs a document path from segments
func BuildDocumentPath(segments ...string) string {
	return strings.Join(segments, "/")
}

// IsValidID checks if a collection or document ID is usable
func IsValidID(id string) bool {
	if id == "" || len(id) > maxIDBytes {
		return false
	}
	if reservedIDPattern.MatchString(id) {
		return false
	}
	return validIDPattern.MatchString(id)
}

// ValidateDocumentPath validates a document path
func ValidateDocumentPath(path string) error {
	segments := ParseDocumentPath(path)
	if len(segments) == 0 {
		return errors.NewValidationError("document path cannot be empty").WithCause(errors.ErrInvalidPath)
	}

	if len(segments)%2 != 0 {
		return errors.NewValidationError("invalid document path: must have even number of segments").
			WithCause(errors.ErrInvalidPath).
			WithDetail("path", path)
	}

	for i, segment := range segments {
		if !IsValidID(segment) {
			return errors.NewValidationError("invalid segment in document path").
				WithCause(errors.ErrInvalidPath).
				WithDetail("segment", segment).
				WithDetail("position", i)
		}
	}

	return nil
}

// ConsoleURL returns the Firebase console page for a project section,
// e.g. ConsoleURL("p", "authentication", "providers").
func ConsoleURL(projectID string, section ...string) string {
	u := consoleBaseURL + url.PathEscape(projectID)
	for _, s := range section {
		u += "/" + url.PathEscape(s)
	}
	return u
}
