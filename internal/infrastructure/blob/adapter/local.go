package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/poke-max/jomach-sub000/internal/infrastructure/blob/port"
)

// LocalStore writes attachments to a directory served statically by the API
// process. It stands in for the managed object storage used in production.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStoreFromEnv reads ATTACHMENT_DIR and ATTACHMENT_BASE_URL.
func NewLocalStoreFromEnv() (*LocalStore, error) {
	dir := strings.TrimSpace(os.Getenv("ATTACHMENT_DIR"))
	if dir == "" {
		return nil, errors.New("blob: ATTACHMENT_DIR environment variable is not set")
	}
	base := strings.TrimSpace(os.Getenv("ATTACHMENT_BASE_URL"))
	if base == "" {
		base = "/attachments"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(base, "/")}, nil
}

// NewLocalStore constructs a store rooted at dir, exposing files under baseURL.
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

var _ port.Store = (*LocalStore)(nil)

// Dir returns the storage root, for static file serving.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Upload(_ context.Context, r io.Reader, path string) (string, error) {
	clean := filepath.Clean("/" + path)
	dst := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("blob: create parent: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("blob: create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("blob: write: %w", err)
	}
	return s.baseURL + clean, nil
}
