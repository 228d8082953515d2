package pixstore

import "errors"

// Error kinds surfaced by the catalog core. Call sites wrap these with
// pkg/errors so the kind stays matchable with errors.Is while the message
// carries the step and store that failed.
var (
	// ErrValidation covers bad or missing input: empty owner, undecodable
	// payload, mutually exclusive list filters. Never worth retrying.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means the image id is unknown (or, from a store client,
	// that the addressed key/record does not exist).
	ErrNotFound = errors.New("image not found")

	// ErrBlobMissing means the metadata record exists but the blob does not.
	// This is a consistency anomaly, distinct from a plain not-found.
	ErrBlobMissing = errors.New("image record exists but blob is missing")

	// ErrStoreUnavailable means the object or metadata store failed or timed
	// out. The whole operation may be retried from scratch.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrOrphanedBlob means an upload's metadata write failed and the
	// compensating blob delete also failed, leaving a blob with no record.
	// Requires out-of-band cleanup.
	ErrOrphanedBlob = errors.New("orphaned blob: metadata write and blob rollback both failed")

	// ErrPartialDelete means the blob was removed but the record delete
	// failed, leaving a record pointing at nothing. Requires out-of-band
	// reconciliation.
	ErrPartialDelete = errors.New("partial delete: blob removed but record removal failed")
)
