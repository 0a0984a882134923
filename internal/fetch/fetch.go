// Package fetch stages source objects in a private scratch directory so the
// extraction engines can work on a local copy.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrFetch marks a source object that is missing or could not be read.
var ErrFetch = errors.New("fetch failed")

// OriginalNameKey is the object metadata key carrying the uploader's file name.
const OriginalNameKey = "originalname"

// Fetcher retrieves one object into a scratch location.
type Fetcher interface {
	Fetch(ctx context.Context, container, key string) (*SourceDocument, error)
}

// SourceDocument is a staged copy of a source object. It belongs to a single
// pipeline run, which must call Release when done.
type SourceDocument struct {
	Path            string
	SourceContainer string
	SourceKey       string
	DeclaredName    string
	SizeBytes       int64
	ContentKind     string

	dir     string
	release sync.Once
}

// Bytes reads the staged copy.
func (d *SourceDocument) Bytes() ([]byte, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read staged document"), ErrFetch)
	}
	return data, nil
}

// Hash returns the hex SHA-256 of the staged copy.
func (d *SourceDocument) Hash() (string, error) {
	file, err := os.Open(d.Path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Release deletes the scratch directory. Calling it more than once is safe.
func (d *SourceDocument) Release() {
	d.release.Do(func() {
		if d.dir != "" {
			_ = os.RemoveAll(d.dir)
		}
	})
}

// Stage copies r into a fresh scratch directory. On failure nothing is left
// behind and the error is marked ErrFetch.
func Stage(container, key string, r io.Reader) (*SourceDocument, error) {
	dir, err := os.MkdirTemp("", "docextract-*")
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to create temp dir"), ErrFetch)
	}

	dest := filepath.Join(dir, "source"+strings.ToLower(path.Ext(key)))
	n, err := copyToFile(dest, r)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, errors.Mark(errors.Wrapf(err, "failed to stage %s/%s", container, key), ErrFetch)
	}

	return &SourceDocument{
		Path:            dest,
		SourceContainer: container,
		SourceKey:       key,
		DeclaredName:    path.Base(key),
		SizeBytes:       n,
		dir:             dir,
	}, nil
}

func copyToFile(dest string, r io.Reader) (int64, error) {
	localFile, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(localFile, r)
	if cerr := localFile.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// DeclaredName prefers the uploader-supplied name from object metadata and
// falls back to the last element of the key.
func DeclaredName(metadata map[string]string, key string) string {
	if name := strings.TrimSpace(metadata[OriginalNameKey]); name != "" {
		return name
	}
	return path.Base(key)
}
