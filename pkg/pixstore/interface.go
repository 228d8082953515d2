// Standard interfaces and datatypes for the pixstore catalog core.
// Terms:
//   "object store"   : key-addressed blob storage (e.g. S3) holding image bytes
//   "metadata store" : structured record storage (e.g. DynamoDB) holding
//                      searchable image attributes with secondary indexes
package pixstore

import (
	"context"
	"time"
)

// Secondary-index names understood by every MetadataStore implementation.
// Both indexes are partitioned by the named attribute and sorted by
// uploaded_at ascending.
const (
	OwnerIndexName = "owner_id-index"
	TagIndexName   = "tag-index"
)

// ObjectStore is the blob backend. Implementations must treat a single
// Put/Delete on one key as atomic but may not provide any cross-key
// guarantees. Delete on an absent key may or may not be an error; callers
// must not assume either way.
type ObjectStore interface {
	// Put stores data under key with the given content type, replacing any
	// existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the full object bytes, or ErrNotFound if no object exists
	// under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object under key.
	Delete(ctx context.Context, key string) error

	// SignURL returns a pre-authorized read URL for key that expires after
	// ttl. Collaborators must not cache the URL beyond that window.
	SignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// MetadataStore is the record backend. GetByID returns ErrNotFound for an
// unknown image id; QueryIndex returns records in ascending uploaded_at
// order; ScanAll makes no ordering promise.
type MetadataStore interface {
	PutRecord(ctx context.Context, rec *ImageRecord) error
	GetByID(ctx context.Context, imageID string) (*ImageRecord, error)
	DeleteByID(ctx context.Context, imageID string) error
	QueryIndex(ctx context.Context, indexName, partition string) ([]ImageRecord, error)
	ScanAll(ctx context.Context) ([]ImageRecord, error)
}

// BlobKey derives the object-store key for an image id. Every component that
// touches the blob must go through this so the mapping stays deterministic.
func BlobKey(imageID string) string {
	return imageID
}
