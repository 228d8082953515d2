package pixstore

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultContentType is assumed when an upload does not declare one.
const DefaultContentType = "image/jpeg"

// uploadedAtFormat is a fixed-width UTC timestamp. Constant width keeps
// lexicographic order equal to chronological order, which the secondary
// indexes rely on for their sort key.
const uploadedAtFormat = "2006-01-02T15:04:05.000000Z"

// BuildRecord turns a validated upload request into a canonical ImageRecord
// plus the decoded payload bytes. It is pure with respect to store state; the
// only side effects are id and timestamp generation. The generated id is a
// random uuid, so concurrent callers never collide.
func BuildRecord(req *UploadRequest) (*ImageRecord, []byte, error) {
	if req.OwnerID == "" {
		return nil, nil, errors.Wrap(ErrValidation, "owner_id is required")
	}
	if req.Image == "" {
		return nil, nil, errors.Wrap(ErrValidation, "image data is required")
	}

	payload, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrValidation, "invalid base64 image data: %v", err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	rec := &ImageRecord{
		ImageID:     uuid.New().String(),
		OwnerID:     req.OwnerID,
		Title:       req.Title,
		Description: req.Description,
		Tags:        append([]string(nil), req.Tags...),
		UploadedAt:  time.Now().UTC().Format(uploadedAtFormat),
		ContentType: contentType,
		SizeBytes:   int64(len(payload)),
	}
	if len(rec.Tags) > 0 {
		// Only the first tag feeds the tag index; records tagged ["a","b"]
		// are discoverable by tag=a and never by tag=b.
		rec.PrimaryTag = rec.Tags[0]
	}

	return rec, payload, nil
}
