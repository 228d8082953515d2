package pixstore

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options tune the per-call behavior of a Service. Zero values fall back to
// the defaults below.
type Options struct {
	// StoreTimeout bounds every individual call to either store.
	StoreTimeout time.Duration
	// URLTTL is the expiry window for signed read URLs.
	URLTTL time.Duration
}

const (
	defaultStoreTimeout = 10 * time.Second
	defaultURLTTL       = time.Hour
)

// Service orchestrates uploads, queries, retrievals, and deletes across the
// object store and the metadata store. It holds no mutable state of its own;
// concurrent calls for different image ids are fully independent. All
// cross-store "transactionality" comes from strict sub-write ordering plus
// compensating actions, never from locks.
type Service struct {
	objects  ObjectStore
	metadata MetadataStore
	log      logrus.FieldLogger
	timeout  time.Duration
	urlTTL   time.Duration
}

func NewService(objects ObjectStore, metadata MetadataStore, logger logrus.FieldLogger, opts Options) *Service {
	if opts.StoreTimeout == 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.URLTTL == 0 {
		opts.URLTTL = defaultURLTTL
	}
	return &Service{
		objects:  objects,
		metadata: metadata,
		log:      logger,
		timeout:  opts.StoreTimeout,
		urlTTL:   opts.URLTTL,
	}
}

// storeUnavailable tags a backend failure with which store and which step
// failed while keeping the error matchable as ErrStoreUnavailable. A timeout
// is treated identically to an explicit failure: the service cannot tell
// "timed out but committed" from "failed", so it always assumes the
// pessimistic outcome.
func storeUnavailable(store, step string, cause error) error {
	return errors.Wrapf(ErrStoreUnavailable, "%s store %s failed: %v", store, step, cause)
}

// Upload writes the blob first and the record second. The record is the
// authoritative "this upload exists" signal: an orphaned blob with no record
// is invisible, whereas a record pointing at a missing blob is a visible
// correctness violation. That ordering governs the rollback direction.
func (s *Service) Upload(ctx context.Context, req *UploadRequest) (*ImageRecord, error) {
	rec, payload, err := BuildRecord(req)
	if err != nil {
		return nil, err
	}
	key := BlobKey(rec.ImageID)

	if err := s.putBlob(ctx, key, payload, rec.ContentType); err != nil {
		// Nothing written yet, nothing to compensate.
		return nil, storeUnavailable("object", "put", err)
	}

	if err := s.putRecord(ctx, rec); err != nil {
		s.log.WithFields(logrus.Fields{
			"image_id": rec.ImageID,
			"owner_id": rec.OwnerID,
		}).Warnf("metadata write failed, rolling back blob: %v", err)

		if derr := s.deleteBlob(ctx, key); derr != nil {
			s.log.WithField("image_id", rec.ImageID).
				Errorf("blob rollback failed, orphaned blob needs out-of-band cleanup: %v", derr)
			return nil, errors.Wrapf(ErrOrphanedBlob,
				"image %s: metadata put failed (%v), blob rollback failed (%v)", rec.ImageID, err, derr)
		}
		return nil, storeUnavailable("metadata", "put record", err)
	}

	s.log.WithFields(logrus.Fields{
		"image_id":   rec.ImageID,
		"owner_id":   rec.OwnerID,
		"size_bytes": rec.SizeBytes,
	}).Info("image uploaded")
	return rec, nil
}

// List routes the filter to the cheapest correct access path: no filter means
// a full scan, an owner filter queries the owner index, a tag filter queries
// the tag index (first tag only). Every path returns the same record shape;
// an empty match is a successful empty slice.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]ImageRecord, error) {
	if filter.OwnerID != "" && filter.Tag != "" {
		return nil, errors.Wrap(ErrValidation, "owner_id and tag filters are mutually exclusive")
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var recs []ImageRecord
	var err error
	switch {
	case filter.OwnerID != "":
		recs, err = s.metadata.QueryIndex(cctx, OwnerIndexName, filter.OwnerID)
	case filter.Tag != "":
		recs, err = s.metadata.QueryIndex(cctx, TagIndexName, filter.Tag)
	default:
		recs, err = s.metadata.ScanAll(cctx)
		if err == nil {
			// Scan order is backend-dependent; stabilize it so a single call
			// is internally consistent.
			sort.Slice(recs, func(i, j int) bool {
				if recs[i].UploadedAt != recs[j].UploadedAt {
					return recs[i].UploadedAt < recs[j].UploadedAt
				}
				return recs[i].ImageID < recs[j].ImageID
			})
		}
	}
	if err != nil {
		return nil, storeUnavailable("metadata", "query", err)
	}
	if recs == nil {
		recs = []ImageRecord{}
	}
	return recs, nil
}

// Retrieve fetches the record and optionally the blob bytes and/or a signed
// URL. A record without a blob is reported as ErrBlobMissing so callers can
// tell the consistency anomaly apart from a simple not-found.
func (s *Service) Retrieve(ctx context.Context, imageID string, wantBytes, wantURL bool) (*Retrieval, error) {
	rec, err := s.getRecord(ctx, imageID)
	if err != nil {
		return nil, err
	}

	res := &Retrieval{Record: rec}
	key := BlobKey(imageID)

	if wantBytes {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		data, err := s.objects.Get(cctx, key)
		cancel()
		if err != nil {
			if stderrors.Is(err, ErrNotFound) {
				s.log.WithField("image_id", imageID).Error("record exists but blob is missing")
				return nil, errors.Wrapf(ErrBlobMissing, "image %s", imageID)
			}
			return nil, storeUnavailable("object", "get", err)
		}
		res.Data = data
	}

	if wantURL {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		url, err := s.objects.SignURL(cctx, key, s.urlTTL)
		cancel()
		if err != nil {
			return nil, storeUnavailable("object", "sign url", err)
		}
		res.URL = url
	}

	return res, nil
}

// Delete removes the blob first and the record second, the reverse of upload:
// record presence is the "exists" signal, so it is the last thing removed.
// If the blob delete fails the record is left untouched and stays
// authoritative; if the record delete fails after the blob is gone the error
// is the distinct ErrPartialDelete kind. Success is only claimed when both
// deletions committed.
func (s *Service) Delete(ctx context.Context, imageID string) error {
	if _, err := s.getRecord(ctx, imageID); err != nil {
		return err
	}
	key := BlobKey(imageID)

	if err := s.deleteBlob(ctx, key); err != nil {
		return storeUnavailable("object", "delete", err)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.metadata.DeleteByID(cctx, imageID)
	cancel()
	if err != nil {
		s.log.WithField("image_id", imageID).
			Errorf("blob removed but record removal failed, needs out-of-band reconciliation: %v", err)
		return errors.Wrapf(ErrPartialDelete, "image %s: %v", imageID, err)
	}

	s.log.WithField("image_id", imageID).Info("image deleted")
	return nil
}

func (s *Service) getRecord(ctx context.Context, imageID string) (*ImageRecord, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec, err := s.metadata.GetByID(cctx, imageID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "image %s", imageID)
		}
		return nil, storeUnavailable("metadata", "get record", err)
	}
	return rec, nil
}

func (s *Service) putBlob(ctx context.Context, key string, data []byte, contentType string) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.objects.Put(cctx, key, data, contentType)
}

func (s *Service) putRecord(ctx context.Context, rec *ImageRecord) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.metadata.PutRecord(cctx, rec)
}

func (s *Service) deleteBlob(ctx context.Context, key string) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.objects.Delete(cctx, key)
}
