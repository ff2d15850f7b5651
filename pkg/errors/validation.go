package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds node and cluster identifiers.
const maxIDLength = 256

// ValidateID validates a node or cluster identifier.
//
// Identifiers arrive from dataset files and from HTTP path segments, so the
// rules are conservative:
//   - No empty ids
//   - No control characters (including null bytes)
//   - No slashes or backslashes
//   - Maximum length of 256 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "id contains invalid control characters")
		}
	}

	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidID, "id cannot contain path separators: %q", id)
	}

	return nil
}

// ValidateFilename validates a dataset filename passed by a user.
// It must be a non-empty path without null bytes.
func ValidateFilename(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "filename cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidInput, "filename contains invalid characters")
	}
	return nil
}
