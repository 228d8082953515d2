package pixstore

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func validRequest() *UploadRequest {
	return &UploadRequest{
		OwnerID:     "user123",
		Title:       "My Image",
		Description: "Image description",
		Tags:        []string{"sunset", "nature"},
		Image:       base64.StdEncoding.EncodeToString([]byte{0x01, 0x02, 0x03}),
	}
}

func TestBuildRecord(t *testing.T) {
	rec, payload, err := BuildRecord(validRequest())
	if err != nil {
		t.Fatalf("Failed to build record: %v\n", err)
	}

	if rec.ImageID == "" {
		t.Fatalf("Record has no image id\n")
	}
	if rec.OwnerID != "user123" {
		t.Fatalf("Wrong owner: Expected %v, Got %v\n", "user123", rec.OwnerID)
	}
	if len(payload) != 3 || payload[0] != 0x01 || payload[2] != 0x03 {
		t.Fatalf("Decoded payload does not match original: Got %v\n", payload)
	}
	if rec.SizeBytes != int64(len(payload)) {
		t.Fatalf("Wrong size: Expected %v, Got %v\n", len(payload), rec.SizeBytes)
	}
	if rec.PrimaryTag != "sunset" {
		t.Fatalf("Wrong primary tag: Expected %v, Got %v\n", "sunset", rec.PrimaryTag)
	}
	if rec.ContentType != DefaultContentType {
		t.Fatalf("Wrong default content type: Expected %v, Got %v\n", DefaultContentType, rec.ContentType)
	}
}

func TestBuildRecordContentType(t *testing.T) {
	req := validRequest()
	req.ContentType = "image/png"
	rec, _, err := BuildRecord(req)
	if err != nil {
		t.Fatalf("Failed to build record: %v\n", err)
	}
	if rec.ContentType != "image/png" {
		t.Fatalf("Declared content type not kept: Expected %v, Got %v\n", "image/png", rec.ContentType)
	}
}

func TestBuildRecordNoTags(t *testing.T) {
	req := validRequest()
	req.Tags = nil
	rec, _, err := BuildRecord(req)
	if err != nil {
		t.Fatalf("Failed to build record: %v\n", err)
	}
	if rec.PrimaryTag != "" {
		t.Fatalf("Untagged record got a primary tag: %v\n", rec.PrimaryTag)
	}
}

func TestBuildRecordValidation(t *testing.T) {
	noOwner := validRequest()
	noOwner.OwnerID = ""
	if _, _, err := BuildRecord(noOwner); !errors.Is(err, ErrValidation) {
		t.Fatalf("Missing owner not rejected as validation error: %v\n", err)
	}

	noImage := validRequest()
	noImage.Image = ""
	if _, _, err := BuildRecord(noImage); !errors.Is(err, ErrValidation) {
		t.Fatalf("Missing image not rejected as validation error: %v\n", err)
	}

	badImage := validRequest()
	badImage.Image = "not-base64!!!"
	if _, _, err := BuildRecord(badImage); !errors.Is(err, ErrValidation) {
		t.Fatalf("Undecodable image not rejected as validation error: %v\n", err)
	}
}

func TestBuildRecordUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		rec, _, err := BuildRecord(validRequest())
		if err != nil {
			t.Fatalf("Failed to build record: %v\n", err)
		}
		if seen[rec.ImageID] {
			t.Fatalf("Duplicate image id generated: %v\n", rec.ImageID)
		}
		seen[rec.ImageID] = true
	}
}

func TestUploadedAtOrdering(t *testing.T) {
	// The secondary indexes sort lexicographically on uploaded_at, so the
	// timestamp format must keep string order equal to time order.
	earlier := time.Date(2026, 8, 30, 12, 0, 0, 150000000, time.UTC).Format(uploadedAtFormat)
	later := time.Date(2026, 8, 30, 12, 0, 1, 0, time.UTC).Format(uploadedAtFormat)
	if !(earlier < later) {
		t.Fatalf("Timestamp format breaks lexicographic ordering: %v >= %v\n", earlier, later)
	}

	sub1 := time.Date(2026, 8, 30, 12, 0, 0, 100000000, time.UTC).Format(uploadedAtFormat)
	sub2 := time.Date(2026, 8, 30, 12, 0, 0, 150000000, time.UTC).Format(uploadedAtFormat)
	if !(sub1 < sub2) {
		t.Fatalf("Timestamp format breaks sub-second ordering: %v >= %v\n", sub1, sub2)
	}

	if _, err := time.Parse(uploadedAtFormat, earlier); err != nil {
		t.Fatalf("Timestamp does not round-trip through its own format: %v\n", err)
	}
}
