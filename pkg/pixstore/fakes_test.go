package pixstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// fakeObjectStore is an in-memory ObjectStore with per-operation failure
// injection, used to drive the compensation paths deterministically.
type fakeObjectStore struct {
	m       sync.Mutex
	objects map[string][]byte
	types   map[string]string

	failPut    error
	failGet    error
	failDelete error
	failSign   error

	puts, gets, deletes, signs int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.puts++
	if f.failPut != nil {
		return f.failPut
	}
	f.objects[key] = append([]byte(nil), data...)
	f.types[key] = contentType
	return nil
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.gets++
	if f.failGet != nil {
		return nil, f.failGet
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "object %s", key)
	}
	return data, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.deletes++
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.signs++
	if f.failSign != nil {
		return "", f.failSign
	}
	return fmt.Sprintf("https://objects.example/%s?expires=%d", key, time.Now().Add(ttl).Unix()), nil
}

func (f *fakeObjectStore) has(key string) bool {
	f.m.Lock()
	defer f.m.Unlock()
	_, ok := f.objects[key]
	return ok
}

// fakeMetadataStore mirrors the index semantics of the real stores and logs
// which index each query hit.
type fakeMetadataStore struct {
	m       sync.Mutex
	records map[string]ImageRecord

	failPut    error
	failGet    error
	failDelete error
	failQuery  error

	queriedIndexes []string
	scans          int
	calls          int
}

func newFakeMetadataStore() *fakeMetadataStore {
	return &fakeMetadataStore{records: make(map[string]ImageRecord)}
}

func (f *fakeMetadataStore) PutRecord(ctx context.Context, rec *ImageRecord) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.calls++
	if f.failPut != nil {
		return f.failPut
	}
	f.records[rec.ImageID] = *rec
	return nil
}

func (f *fakeMetadataStore) GetByID(ctx context.Context, imageID string) (*ImageRecord, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.calls++
	if f.failGet != nil {
		return nil, f.failGet
	}
	rec, ok := f.records[imageID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "record %s", imageID)
	}
	return &rec, nil
}

func (f *fakeMetadataStore) DeleteByID(ctx context.Context, imageID string) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.calls++
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.records, imageID)
	return nil
}

func (f *fakeMetadataStore) QueryIndex(ctx context.Context, indexName, partition string) ([]ImageRecord, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.calls++
	f.queriedIndexes = append(f.queriedIndexes, indexName)
	if f.failQuery != nil {
		return nil, f.failQuery
	}

	var recs []ImageRecord
	for _, rec := range f.records {
		switch indexName {
		case OwnerIndexName:
			if rec.OwnerID == partition {
				recs = append(recs, rec)
			}
		case TagIndexName:
			if rec.PrimaryTag != "" && rec.PrimaryTag == partition {
				recs = append(recs, rec)
			}
		}
	}
	sortRecs(recs)
	return recs, nil
}

func (f *fakeMetadataStore) ScanAll(ctx context.Context) ([]ImageRecord, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.calls++
	f.scans++
	if f.failQuery != nil {
		return nil, f.failQuery
	}
	var recs []ImageRecord
	for _, rec := range f.records {
		recs = append(recs, rec)
	}
	return recs, nil
}

func (f *fakeMetadataStore) has(imageID string) bool {
	f.m.Lock()
	defer f.m.Unlock()
	_, ok := f.records[imageID]
	return ok
}

func sortRecs(recs []ImageRecord) {
	for i := 1; i < len(recs); i++ {
		for j := i; j > 0 && recs[j].UploadedAt < recs[j-1].UploadedAt; j-- {
			recs[j], recs[j-1] = recs[j-1], recs[j]
		}
	}
}
