// Package archive stores finished call transcripts as flat objects, keyed
// by user and interaction id, so the analysis pipeline can fetch them
// without going through the record store.
//
// Two backends ship: a local directory for development and S3 (or any
// S3-compatible object store) for production. Archival failures are
// non-fatal to the call they belong to.
package archive

import (
	"context"
	"fmt"
)

// Store writes and reads archived transcripts.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put writes an object, replacing any previous content.
	Put(ctx context.Context, path string, data []byte) error

	// Get reads an object. Missing objects return an error wrapping
	// os.ErrNotExist.
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes an object; deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}

// TranscriptPath is the canonical object path for a finished call.
func TranscriptPath(userID, interactionID string) string {
	return fmt.Sprintf("transcripts/%s/%s.txt", userID, interactionID)
}
