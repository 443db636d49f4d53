package httptransport

import (
	"errors"

	"chorddht/internal/chord"
	"chorddht/internal/domain"
)

// kindForError maps a core error to the machine-readable kind carried
// in wire.ErrorResponse, and the HTTP status the server answers with.
func kindForError(err error) (kind string, status int) {
	switch {
	case errors.Is(err, chord.ErrNotResponsible):
		return "not_responsible", 409
	case errors.Is(err, chord.ErrRingSizeMismatch):
		return "ring_size_mismatch", 409
	case errors.Is(err, chord.ErrNotActive):
		return "not_active", 409
	case errors.Is(err, chord.ErrAlreadyActive):
		return "already_active", 409
	case errors.Is(err, chord.ErrNoSuccessor):
		return "no_successor", 503
	case errors.Is(err, chord.ErrHandoff):
		return "handoff_failed", 500
	case errors.Is(err, domain.ErrResourceNotFound):
		return "not_found", 404
	default:
		return "internal", 500
	}
}

// errorForKind is the client-side inverse of kindForError: it turns a
// peer's reported kind back into the matching sentinel so callers can
// use errors.Is against the same values regardless of which node
// returned the error.
func errorForKind(kind, message string) error {
	switch kind {
	case "not_responsible":
		return chord.ErrNotResponsible
	case "ring_size_mismatch":
		return chord.ErrRingSizeMismatch
	case "not_active":
		return chord.ErrNotActive
	case "already_active":
		return chord.ErrAlreadyActive
	case "no_successor":
		return chord.ErrNoSuccessor
	case "handoff_failed":
		return chord.ErrHandoff
	case "not_found":
		return domain.ErrResourceNotFound
	default:
		return errors.New(message)
	}
}
