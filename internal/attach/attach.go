// Package attach copies picked files and images into the blob store and
// remembers them under a storage key.
package attach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cjnlabay/midterm/internal/blob"
	"github.com/cjnlabay/midterm/internal/logger"
	"github.com/spf13/afero"
)

const (
	DefaultFileMaxMB  = 5
	DefaultImageMaxMB = 2

	// DefaultFilesKey and DefaultImageKey are used when the caller gives none
	DefaultFilesKey = "attachments"
	DefaultImageKey = "profile-image"
)

// ErrNoImage is returned by Image when nothing is stored under the key
var ErrNoImage = errors.New("no image stored")

// RefStore persists reference lists. It is the local key/value table.
type RefStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// File is a stored attachment
type File struct {
	Ref      blob.Ref  `json:"uri"`
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	MimeType string    `json:"mimeType,omitempty"`
	Size     int64     `json:"size"`
	AddedAt  time.Time `json:"addedAt"`
}

// Options control AddFiles
type Options struct {
	MaxSizeMB    int
	AllowedTypes []string // MIME patterns: "*/*", "image/*", "application/pdf"
	Multiple     bool     // append to the stored list instead of replacing it
}

// Rejected is a picked file that was not stored
type Rejected struct {
	Path   string
	Reason string
}

// AddResult reports what AddFiles did
type AddResult struct {
	Added    []File
	Rejected []Rejected
	Files    []File // the full stored list afterwards
}

// Manager reads picked files from src and writes copies to blobs.
type Manager struct {
	src   afero.Fs
	blobs blob.Store
	refs  RefStore
	now   func() time.Time
}

// NewManager creates a manager reading picked files from the OS filesystem
func NewManager(blobs blob.Store, refs RefStore) *Manager {
	return NewManagerOn(afero.NewOsFs(), blobs, refs)
}

// NewManagerOn reads picked files from src
func NewManagerOn(src afero.Fs, blobs blob.Store, refs RefStore) *Manager {
	return &Manager{src: src, blobs: blobs, refs: refs, now: time.Now}
}

func sizeLimit(mb, fallback int) int64 {
	if mb <= 0 {
		mb = fallback
	}
	return int64(mb) * 1024 * 1024
}

func blobKey(storageKey string, at time.Time, name string) string {
	return path.Join(storageKey, fmt.Sprintf("%d_%s", at.UnixMilli(), name))
}

// detectType prefers the extension and falls back to sniffing the content
func detectType(name string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
	}
	t := http.DetectContentType(data)
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

func typeAllowed(mimeType string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "*/*" || p == "*":
			return true
		case strings.HasSuffix(p, "/*"):
			if strings.HasPrefix(mimeType, strings.TrimSuffix(p, "*")) {
				return true
			}
		case p == mimeType:
			return true
		}
	}
	return false
}

// readPicked loads a picked file, enforcing the size limit before reading it
func (m *Manager) readPicked(p string, limit int64) ([]byte, int64, string) {
	info, err := m.src.Stat(p)
	if err != nil {
		return nil, 0, "cannot read file"
	}
	if info.IsDir() {
		return nil, 0, "is a directory"
	}
	if info.Size() > limit {
		return nil, info.Size(), fmt.Sprintf("exceeds %dMB limit", limit/(1024*1024))
	}
	data, err := afero.ReadFile(m.src, p)
	if err != nil {
		return nil, 0, "cannot read file"
	}
	return data, info.Size(), ""
}

// Files returns the list stored under storageKey; a missing list is empty.
func (m *Manager) Files(ctx context.Context, storageKey string) ([]File, error) {
	raw, ok, err := m.refs.Get(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("load file list: %w", err)
	}
	if !ok || raw == "" {
		return []File{}, nil
	}
	var files []File
	if err := json.Unmarshal([]byte(raw), &files); err != nil {
		return nil, fmt.Errorf("decode file list %q: %w", storageKey, err)
	}
	return files, nil
}

func (m *Manager) saveFiles(ctx context.Context, storageKey string, files []File) error {
	data, err := json.Marshal(files)
	if err != nil {
		return err
	}
	if err := m.refs.Set(ctx, storageKey, string(data)); err != nil {
		return fmt.Errorf("save file list: %w", err)
	}
	return nil
}

// AddFiles copies the picked files into the blob store. Files over the size
// limit or of a disallowed type are skipped and reported. When nothing was
// accepted the stored list is left as it was.
func (m *Manager) AddFiles(ctx context.Context, storageKey string, opts Options, paths ...string) (AddResult, error) {
	if storageKey == "" {
		storageKey = DefaultFilesKey
	}
	limit := sizeLimit(opts.MaxSizeMB, DefaultFileMaxMB)
	allowed := opts.AllowedTypes
	if len(allowed) == 0 {
		allowed = []string{"*/*"}
	}

	existing, err := m.Files(ctx, storageKey)
	if err != nil {
		return AddResult{}, err
	}

	var res AddResult
	for _, p := range paths {
		data, size, reason := m.readPicked(p, limit)
		if reason != "" {
			res.Rejected = append(res.Rejected, Rejected{Path: p, Reason: reason})
			continue
		}

		name := filepath.Base(p)
		mimeType := detectType(name, data)
		if !typeAllowed(mimeType, allowed) {
			res.Rejected = append(res.Rejected, Rejected{Path: p, Reason: "type " + mimeType + " not allowed"})
			continue
		}

		at := m.now()
		key := blobKey(storageKey, at, name)
		ref, err := m.blobs.Put(ctx, key, data)
		if err != nil {
			return res, fmt.Errorf("store %s: %w", name, err)
		}

		res.Added = append(res.Added, File{
			Ref:      ref,
			Key:      key,
			Name:     name,
			MimeType: mimeType,
			Size:     size,
			AddedAt:  at.UTC(),
		})
	}

	for _, r := range res.Rejected {
		logger.Warn("Skipped file", logger.F("path", r.Path), logger.F("reason", r.Reason))
	}

	if len(res.Added) == 0 {
		res.Files = existing
		return res, nil
	}

	if opts.Multiple {
		res.Files = append(existing, res.Added...)
	} else {
		res.Files = res.Added
	}

	if err := m.saveFiles(ctx, storageKey, res.Files); err != nil {
		return res, err
	}

	logger.Info("Stored files", logger.F("key", storageKey), logger.F("added", len(res.Added)))
	return res, nil
}

// RemoveFile deletes entry index from the list and its blob. A blob that
// cannot be deleted is logged and the entry is still removed.
func (m *Manager) RemoveFile(ctx context.Context, storageKey string, index int) (File, error) {
	if storageKey == "" {
		storageKey = DefaultFilesKey
	}
	files, err := m.Files(ctx, storageKey)
	if err != nil {
		return File{}, err
	}
	if index < 0 || index >= len(files) {
		return File{}, fmt.Errorf("no file at index %d (have %d)", index, len(files))
	}

	removed := files[index]
	files = append(files[:index], files[index+1:]...)

	if err := m.blobs.Delete(ctx, removed.Key); err != nil {
		logger.Error("Error deleting file", logger.F("key", removed.Key), logger.F("error", err))
	}

	if err := m.saveFiles(ctx, storageKey, files); err != nil {
		return File{}, err
	}
	return removed, nil
}

// SetImage stores a single image under storageKey, replacing any previous one.
func (m *Manager) SetImage(ctx context.Context, storageKey, picked string, maxSizeMB int) (File, error) {
	if storageKey == "" {
		storageKey = DefaultImageKey
	}
	data, size, reason := m.readPicked(picked, sizeLimit(maxSizeMB, DefaultImageMaxMB))
	if reason != "" {
		return File{}, fmt.Errorf("%s: %s", filepath.Base(picked), reason)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return File{}, fmt.Errorf("%s: not an image (%s)", filepath.Base(picked), mimeType)
	}

	previous, prevErr := m.Image(ctx, storageKey)

	at := m.now()
	name := filepath.Base(picked)
	key := blobKey(storageKey, at, name)
	ref, err := m.blobs.Put(ctx, key, data)
	if err != nil {
		return File{}, fmt.Errorf("store image: %w", err)
	}

	img := File{Ref: ref, Key: key, Name: name, MimeType: mimeType, Size: size, AddedAt: at.UTC()}
	raw, err := json.Marshal(img)
	if err != nil {
		return File{}, err
	}
	if err := m.refs.Set(ctx, storageKey, string(raw)); err != nil {
		return File{}, fmt.Errorf("save image reference: %w", err)
	}

	if prevErr == nil && previous.Key != key {
		if err := m.blobs.Delete(ctx, previous.Key); err != nil {
			logger.Warn("Failed to delete previous image", logger.F("key", previous.Key), logger.F("error", err))
		}
	}

	logger.Info("Stored image", logger.F("key", storageKey), logger.F("size", size))
	return img, nil
}

// Image returns the image stored under storageKey
func (m *Manager) Image(ctx context.Context, storageKey string) (File, error) {
	if storageKey == "" {
		storageKey = DefaultImageKey
	}
	raw, ok, err := m.refs.Get(ctx, storageKey)
	if err != nil {
		return File{}, fmt.Errorf("load image reference: %w", err)
	}
	if !ok || raw == "" {
		return File{}, ErrNoImage
	}
	var img File
	if err := json.Unmarshal([]byte(raw), &img); err != nil {
		return File{}, fmt.Errorf("decode image reference: %w", err)
	}
	return img, nil
}

// ImageData loads the stored image bytes
func (m *Manager) ImageData(ctx context.Context, storageKey string) (File, []byte, error) {
	img, err := m.Image(ctx, storageKey)
	if err != nil {
		return File{}, nil, err
	}
	data, err := m.blobs.Get(ctx, img.Key)
	if err != nil {
		return img, nil, err
	}
	return img, data, nil
}

// ClearImage forgets the image and deletes its blob. Failures are logged.
func (m *Manager) ClearImage(ctx context.Context, storageKey string) {
	if storageKey == "" {
		storageKey = DefaultImageKey
	}
	img, err := m.Image(ctx, storageKey)
	if err == nil {
		if err := m.blobs.Delete(ctx, img.Key); err != nil {
			logger.Error("Error deleting image", logger.F("key", img.Key), logger.F("error", err))
		}
	}
	if err := m.refs.Delete(ctx, storageKey); err != nil {
		logger.Error("Error deleting image reference", logger.F("key", storageKey), logger.F("error", err))
	}
}
