package attach

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cjnlabay/midterm/internal/blob"
	"github.com/cjnlabay/midterm/internal/db"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type harness struct {
	src   afero.Fs
	blobs *blob.FSStore
	m     *Manager
	clock time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	d, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	h := &harness{
		src:   afero.NewMemMapFs(),
		blobs: blob.NewFSStoreOn(afero.NewMemMapFs(), "/blobs"),
		clock: time.UnixMilli(1_700_000_000_000),
	}
	h.m = NewManagerOn(h.src, h.blobs, d.KV())
	h.m.now = func() time.Time {
		h.clock = h.clock.Add(time.Millisecond)
		return h.clock
	}
	return h
}

func (h *harness) write(t *testing.T, name string, data []byte) string {
	t.Helper()
	require.NoError(t, afero.WriteFile(h.src, name, data, 0o644))
	return name
}

func TestAddFiles_StoresCopiesAndPersistsList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.write(t, "/picked/report.pdf", []byte("%PDF-1.4 body"))

	res, err := h.m.AddFiles(ctx, "docs", Options{}, p)
	require.NoError(t, err)
	require.Len(t, res.Added, 1)

	f := res.Added[0]
	assert.Equal(t, "report.pdf", f.Name)
	assert.Equal(t, "docs/1700000000001_report.pdf", f.Key)
	assert.Equal(t, "application/pdf", f.MimeType)
	assert.Equal(t, int64(len("%PDF-1.4 body")), f.Size)

	data, err := h.blobs.Get(ctx, f.Key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 body"), data)

	stored, err := h.m.Files(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, res.Files, stored)
}

func TestAddFiles_SizeLimit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	big := h.write(t, "/big.bin", bytes.Repeat([]byte{1}, 1024*1024+1))
	small := h.write(t, "/small.txt", []byte("hello"))

	res, err := h.m.AddFiles(ctx, "docs", Options{MaxSizeMB: 1}, big, small)
	require.NoError(t, err)

	require.Len(t, res.Added, 1)
	assert.Equal(t, "small.txt", res.Added[0].Name)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "/big.bin", res.Rejected[0].Path)
	assert.Contains(t, res.Rejected[0].Reason, "exceeds 1MB")
}

func TestAddFiles_AllowedTypes(t *testing.T) {
	h := newHarness(t)
	img := h.write(t, "/a.png", pngHeader)
	txt := h.write(t, "/b.txt", []byte("plain"))

	res, err := h.m.AddFiles(context.Background(), "pics", Options{AllowedTypes: []string{"image/*"}}, img, txt)
	require.NoError(t, err)

	require.Len(t, res.Added, 1)
	assert.Equal(t, "image/png", res.Added[0].MimeType)
	require.Len(t, res.Rejected, 1)
	assert.Contains(t, res.Rejected[0].Reason, "not allowed")
}

func TestAddFiles_MultipleAppendsSingleReplaces(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.write(t, "/a.txt", []byte("a"))
	b := h.write(t, "/b.txt", []byte("b"))
	c := h.write(t, "/c.txt", []byte("c"))

	_, err := h.m.AddFiles(ctx, "k", Options{Multiple: true}, a)
	require.NoError(t, err)
	res, err := h.m.AddFiles(ctx, "k", Options{Multiple: true}, b)
	require.NoError(t, err)
	assert.Len(t, res.Files, 2)

	res, err = h.m.AddFiles(ctx, "k", Options{}, c)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "c.txt", res.Files[0].Name)
}

func TestAddFiles_NothingAcceptedKeepsList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.write(t, "/a.txt", []byte("a"))
	_, err := h.m.AddFiles(ctx, "k", Options{}, a)
	require.NoError(t, err)

	res, err := h.m.AddFiles(ctx, "k", Options{}, "/missing.txt")
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Len(t, res.Files, 1)
}

func TestRemoveFile_DeletesBlobAndEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.write(t, "/a.txt", []byte("a"))
	b := h.write(t, "/b.txt", []byte("b"))
	res, err := h.m.AddFiles(ctx, "k", Options{Multiple: true}, a, b)
	require.NoError(t, err)

	removed, err := h.m.RemoveFile(ctx, "k", 0)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", removed.Name)

	_, err = h.blobs.Get(ctx, res.Added[0].Key)
	assert.ErrorIs(t, err, blob.ErrNotFound)

	files, err := h.m.Files(ctx, "k")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "b.txt", files[0].Name)

	_, err = h.m.RemoveFile(ctx, "k", 5)
	assert.Error(t, err)
}

func TestFiles_MissingListIsEmpty(t *testing.T) {
	files, err := newHarness(t).m.Files(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSetImage_ReplacesPrevious(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.write(t, "/one.png", pngHeader)
	second := h.write(t, "/two.png", append(append([]byte{}, pngHeader...), 0x01))

	img1, err := h.m.SetImage(ctx, "avatar", first, 0)
	require.NoError(t, err)
	img2, err := h.m.SetImage(ctx, "avatar", second, 0)
	require.NoError(t, err)

	got, data, err := h.m.ImageData(ctx, "avatar")
	require.NoError(t, err)
	assert.Equal(t, img2.Key, got.Key)
	assert.Equal(t, "image/png", got.MimeType)
	assert.Len(t, data, len(pngHeader)+1)

	_, err = h.blobs.Get(ctx, img1.Key)
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestSetImage_RejectsNonImagesAndLargeFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	txt := h.write(t, "/notes.png", []byte("just text"))
	big := h.write(t, "/big.png", append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 2*1024*1024)...))

	_, err := h.m.SetImage(ctx, "avatar", txt, 0)
	assert.ErrorContains(t, err, "not an image")

	_, err = h.m.SetImage(ctx, "avatar", big, 0)
	assert.ErrorContains(t, err, "exceeds 2MB")

	_, err = h.m.Image(ctx, "avatar")
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestClearImage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.write(t, "/one.png", pngHeader)
	img, err := h.m.SetImage(ctx, "", p, 0)
	require.NoError(t, err)

	h.m.ClearImage(ctx, "")

	_, err = h.m.Image(ctx, DefaultImageKey)
	assert.True(t, errors.Is(err, ErrNoImage))
	_, err = h.blobs.Get(ctx, img.Key)
	assert.ErrorIs(t, err, blob.ErrNotFound)

	assert.NotPanics(t, func() { h.m.ClearImage(ctx, "") })
}

func TestTypeAllowed(t *testing.T) {
	assert.True(t, typeAllowed("application/pdf", []string{"*/*"}))
	assert.True(t, typeAllowed("image/jpeg", []string{"image/*"}))
	assert.True(t, typeAllowed("application/pdf", []string{"image/*", "application/pdf"}))
	assert.False(t, typeAllowed("text/plain", []string{"image/*"}))
}
