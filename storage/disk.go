package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"chat-relay/errors"

	"github.com/gabriel-vasile/mimetype"
)

const KB = 1024
const MB = KB * KB

// MaxAttachmentSize bounds a single uploaded file.
const MaxAttachmentSize = 25 * MB

// DiskStore persists attachment blobs under a local directory and serves them
// back through the gateway's static file route. Objects are content addressed:
// re-uploading identical bytes yields the same URL.
type DiskStore struct {
	log     *slog.Logger
	rootDir string
	baseURL string
}

func NewDiskStore(log *slog.Logger, rootDir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating attachment directory %s: %w", rootDir, err)
	}
	return &DiskStore{
		log:     log,
		rootDir: rootDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (d *DiskStore) Upload(_ context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", errors.ErrAttachmentUpload, filename)
	}
	if len(data) > MaxAttachmentSize {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", errors.ErrAttachmentUpload, filename, MaxAttachmentSize)
	}

	sum := sha256.Sum256(data)
	object := hex.EncodeToString(sum[:]) + extensionFor(filename, data)
	path := filepath.Join(d.rootDir, object)

	if _, err := os.Stat(path); err == nil {
		return d.url(object), nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", errors.ErrAttachmentUpload, filename, err)
	}

	d.log.Debug("attachment stored", "file", filename, "object", object, "bytes", len(data))
	return d.url(object), nil
}

func (d *DiskStore) url(object string) string {
	return d.baseURL + "/" + object
}

// extensionFor trusts the sniffed content type over the client-provided name.
func extensionFor(filename string, data []byte) string {
	if ext := mimetype.Detect(data).Extension(); ext != "" {
		return ext
	}
	return strings.ToLower(filepath.Ext(filename))
}
