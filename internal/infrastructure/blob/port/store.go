package port

import (
	"context"
	"io"
)

// Store is the blob-store collaborator for message attachments: write the
// bytes under a path, get back a URL the client can fetch.
type Store interface {
	Upload(ctx context.Context, r io.Reader, path string) (url string, err error)
}
