package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/medpal/docextract/internal/fetch"
)

// StorageFetcher stages Cloud Storage objects for processing.
type StorageFetcher struct {
	client *storage.Client
}

func NewStorageFetcher(client *storage.Client) *StorageFetcher {
	return &StorageFetcher{client: client}
}

// Fetch streams gs://container/key into a scratch directory.
func (f *StorageFetcher) Fetch(ctx context.Context, container, key string) (*fetch.SourceDocument, error) {
	obj := f.client.Bucket(container).Object(key)

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, errors.Mark(fmt.Errorf("failed to read attrs of gs://%s/%s: %w", container, key, err), fetch.ErrFetch)
	}

	gcsReader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, errors.Mark(fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", container, key, err), fetch.ErrFetch)
	}
	defer gcsReader.Close()

	doc, err := fetch.Stage(container, key, gcsReader)
	if err != nil {
		return nil, err
	}
	doc.DeclaredName = fetch.DeclaredName(attrs.Metadata, key)
	doc.ContentKind = attrs.ContentType
	if doc.ContentKind == "" {
		doc.ContentKind = fetch.ContentKindOf(key)
	}
	return doc, nil
}

// ListObjects returns the keys under prefix that end with one of suffixes.
// An empty suffix list matches every key.
func ListObjects(ctx context.Context, client *storage.Client, bucket, prefix string, suffixes []string) ([]string, error) {
	it := client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		if len(suffixes) == 0 || hasSuffix(attrs.Name, suffixes) {
			keys = append(keys, attrs.Name)
		}
	}
	return keys, nil
}

func hasSuffix(key string, suffixes []string) bool {
	lower := strings.ToLower(key)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is a missing bucket or object.
func IsNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 404
}
