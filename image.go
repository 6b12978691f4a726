package accounts

import "context"

// ImageStore keeps uploaded image bytes under keys such as "covers/<name>".
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the address clients fetch key from.
	URL(key string) string
}

type Thumbnailer interface {
	// Thumbnail derives a small variant of src. filename selects the encoding.
	Thumbnail(src []byte, filename string) ([]byte, error)
}
