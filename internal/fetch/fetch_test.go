package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDirFetcher_Fetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "uploads/report.PDF", "%PDF-1.4 body")

	doc, err := DirFetcher{}.Fetch(context.Background(), dir, "uploads/report.PDF")
	require.NoError(t, err)

	assert.Equal(t, dir, doc.SourceContainer)
	assert.Equal(t, "uploads/report.PDF", doc.SourceKey)
	assert.Equal(t, "report.PDF", doc.DeclaredName)
	assert.Equal(t, int64(13), doc.SizeBytes)
	assert.Equal(t, "application/pdf", doc.ContentKind)
	assert.Equal(t, ".pdf", filepath.Ext(doc.Path))

	data, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	sum := sha256.Sum256([]byte("%PDF-1.4 body"))
	hash, err := doc.Hash()
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:]), hash)

	scratch := filepath.Dir(doc.Path)
	doc.Release()
	_, err = os.Stat(scratch)
	assert.True(t, os.IsNotExist(err))
	assert.NotPanics(t, doc.Release)
}

func TestDirFetcher_Missing(t *testing.T) {
	_, err := DirFetcher{}.Fetch(context.Background(), t.TempDir(), "nope.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestDirFetcher_RejectsEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	for _, key := range []string{"../secret.pdf", "/etc/passwd", "a/../../b.pdf"} {
		_, err := DirFetcher{}.Fetch(context.Background(), dir, key)
		assert.True(t, errors.Is(err, ErrFetch), key)
	}
}

func TestDirFetcher_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))
	_, err := DirFetcher{}.Fetch(context.Background(), dir, "sub.pdf")
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestDirFetcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DirFetcher{}.Fetch(ctx, t.TempDir(), "a.pdf")
	assert.True(t, errors.Is(err, ErrFetch))
}

type failingReader struct{ n int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n > 0 {
		r.n--
		return copy(p, "partial"), nil
	}
	return 0, errors.New("connection reset")
}

func TestStage_CleansUpOnError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	_, err := Stage("bucket", "a.pdf", &failingReader{n: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
	assert.Contains(t, err.Error(), "connection reset")

	left, _ := filepath.Glob(filepath.Join(tmp, "docextract-*"))
	assert.Empty(t, left)
}

func TestStage_CountsBytes(t *testing.T) {
	doc, err := Stage("bucket", "dir/x.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	defer doc.Release()
	assert.Equal(t, int64(5), doc.SizeBytes)
	assert.Equal(t, "x.txt", doc.DeclaredName)
}

func TestDeclaredName(t *testing.T) {
	assert.Equal(t, "lab.pdf", DeclaredName(map[string]string{OriginalNameKey: " lab.pdf "}, "uploads/123.pdf"))
	assert.Equal(t, "123.pdf", DeclaredName(map[string]string{OriginalNameKey: "  "}, "uploads/123.pdf"))
	assert.Equal(t, "123.pdf", DeclaredName(nil, "uploads/123.pdf"))
}
