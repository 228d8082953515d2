// Local implementations of the store interfaces: a directory-backed object
// store and an in-memory metadata store. Used by the "local" provider for
// development without AWS, and by tests.
package localstore

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/pixstore/pixstore/pkg/pixstore"
)

// DirStore keeps one file per object key under a single directory.
type DirStore struct {
	dir string
}

var _ pixstore.ObjectStore = (*DirStore)(nil)

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (d *DirStore) path(key string) string {
	return filepath.Join(d.dir, key)
}

func (d *DirStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ioutil.WriteFile(d.path(key), data, 0644); err != nil {
		return errors.Wrap(err, "Failed to write object "+key)
	}
	return nil
}

func (d *DirStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := ioutil.ReadFile(d.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(pixstore.ErrNotFound, "object %s", key)
		}
		return nil, errors.Wrap(err, "Failed to read object "+key)
	}
	return data, nil
}

// Delete is idempotent, matching the S3 implementation it stands in for.
func (d *DirStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(d.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "Failed to delete object "+key)
	}
	return nil
}

// SignURL returns a file URL with an expiry query parameter. There is nothing
// to authorize locally; the shape just mirrors what a presigned URL carries.
func (d *DirStore) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	abs, err := filepath.Abs(d.path(key))
	if err != nil {
		return "", errors.Wrap(err, "Failed to resolve object path for "+key)
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("file://%s?expires=%d", abs, expires), nil
}

// Provision creates the backing directory.
func (d *DirStore) Provision(ctx context.Context) error {
	if err := os.MkdirAll(d.dir, 0775); err != nil {
		return errors.Wrap(err, "Failed to create object directory "+d.dir)
	}
	return nil
}

// MemStore is a mutex-guarded in-memory metadata store with the same index
// semantics as the DynamoDB implementation: owner queries partition on
// owner_id, tag queries partition on primary_tag, both sorted ascending by
// uploaded_at.
type MemStore struct {
	m       sync.RWMutex
	records map[string]pixstore.ImageRecord
}

var _ pixstore.MetadataStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]pixstore.ImageRecord)}
}

func (s *MemStore) PutRecord(ctx context.Context, rec *pixstore.ImageRecord) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.records[rec.ImageID] = *rec
	return nil
}

func (s *MemStore) GetByID(ctx context.Context, imageID string) (*pixstore.ImageRecord, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	rec, ok := s.records[imageID]
	if !ok {
		return nil, errors.Wrapf(pixstore.ErrNotFound, "record %s", imageID)
	}
	return &rec, nil
}

// DeleteByID is idempotent, matching DynamoDB.
func (s *MemStore) DeleteByID(ctx context.Context, imageID string) error {
	s.m.Lock()
	defer s.m.Unlock()
	delete(s.records, imageID)
	return nil
}

func (s *MemStore) QueryIndex(ctx context.Context, indexName, partition string) ([]pixstore.ImageRecord, error) {
	var match func(*pixstore.ImageRecord) bool
	switch indexName {
	case pixstore.OwnerIndexName:
		match = func(r *pixstore.ImageRecord) bool { return r.OwnerID == partition }
	case pixstore.TagIndexName:
		// Untagged records have no primary_tag and are invisible here.
		match = func(r *pixstore.ImageRecord) bool { return r.PrimaryTag != "" && r.PrimaryTag == partition }
	default:
		return nil, errors.Errorf("unknown index %q", indexName)
	}

	s.m.RLock()
	var recs []pixstore.ImageRecord
	for id := range s.records {
		rec := s.records[id]
		if match(&rec) {
			recs = append(recs, rec)
		}
	}
	s.m.RUnlock()

	sortByUploadedAt(recs)
	return recs, nil
}

func (s *MemStore) ScanAll(ctx context.Context) ([]pixstore.ImageRecord, error) {
	s.m.RLock()
	recs := make([]pixstore.ImageRecord, 0, len(s.records))
	for id := range s.records {
		recs = append(recs, s.records[id])
	}
	s.m.RUnlock()

	sortByUploadedAt(recs)
	return recs, nil
}

func sortByUploadedAt(recs []pixstore.ImageRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].UploadedAt != recs[j].UploadedAt {
			return recs[i].UploadedAt < recs[j].UploadedAt
		}
		return recs[i].ImageID < recs[j].ImageID
	})
}
