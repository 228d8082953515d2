package pixstore

// ImageRecord is the metadata store's unit of storage. Records are immutable
// after creation; the only lifecycle is create, read any number of times,
// delete. PrimaryTag carries omitempty on the dynamodbav tag so that untagged
// records never enter the tag index.
type ImageRecord struct {
	ImageID     string   `json:"image_id" dynamodbav:"image_id"`
	OwnerID     string   `json:"owner_id" dynamodbav:"owner_id"`
	Title       string   `json:"title" dynamodbav:"title"`
	Description string   `json:"description" dynamodbav:"description"`
	Tags        []string `json:"tags" dynamodbav:"tags"`
	PrimaryTag  string   `json:"primary_tag,omitempty" dynamodbav:"primary_tag,omitempty"`
	UploadedAt  string   `json:"uploaded_at" dynamodbav:"uploaded_at"`
	ContentType string   `json:"content_type" dynamodbav:"content_type"`
	SizeBytes   int64    `json:"size_bytes" dynamodbav:"size_bytes"`
}

// UploadRequest is a fully-parsed upload. Image holds the base64-encoded
// payload as received on the wire; the builder decodes and validates it.
type UploadRequest struct {
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ContentType string   `json:"content_type"`
	Image       string   `json:"image"`
}

// ListFilter selects which records List returns. At most one of OwnerID and
// Tag may be set; setting both is a validation error, not an intersection
// query.
type ListFilter struct {
	OwnerID string
	Tag     string
}

// Retrieval is the composed result of a Retrieve call. Record is always set;
// Data and URL are only populated when the corresponding flag was requested.
type Retrieval struct {
	Record *ImageRecord
	Data   []byte
	URL    string
}
