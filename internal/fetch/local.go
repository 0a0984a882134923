package fetch

import (
	"context"
	"mime"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// DirFetcher treats the container as a local directory and the key as a
// path relative to it.
type DirFetcher struct{}

func (DirFetcher) Fetch(ctx context.Context, container, key string) (*SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Mark(err, ErrFetch)
	}
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return nil, errors.Mark(errors.Newf("key %q escapes container %q", key, container), ErrFetch)
	}

	src := filepath.Join(container, filepath.FromSlash(key))
	file, err := os.Open(src)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to open %s", src), ErrFetch)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to stat %s", src), ErrFetch)
	}
	if info.IsDir() {
		return nil, errors.Mark(errors.Newf("%s is a directory", src), ErrFetch)
	}

	doc, err := Stage(container, key, file)
	if err != nil {
		return nil, err
	}
	doc.ContentKind = ContentKindOf(key)
	return doc, nil
}

// ContentKindOf guesses a MIME type from the key's extension.
func ContentKindOf(key string) string {
	if kind := mime.TypeByExtension(filepath.Ext(key)); kind != "" {
		return kind
	}
	return "application/octet-stream"
}
