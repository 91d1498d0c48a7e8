package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FSStore keeps blobs as files under root on an afero filesystem.
type FSStore struct {
	fs   afero.Fs
	root string
}

// NewFSStore uses the OS filesystem
func NewFSStore(root string) *FSStore {
	return NewFSStoreOn(afero.NewOsFs(), root)
}

// NewFSStoreOn uses the given filesystem (afero.NewMemMapFs in tests)
func NewFSStoreOn(fs afero.Fs, root string) *FSStore {
	return &FSStore{fs: fs, root: root}
}

func (s *FSStore) local(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

func (s *FSStore) Put(ctx context.Context, key string, data []byte) (Ref, error) {
	p, err := s.local(key)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, p, data, 0o600); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}

	abs := p
	if a, err := filepath.Abs(p); err == nil {
		abs = a
	}
	return Ref("file://" + filepath.ToSlash(abs)), nil
}

func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.local(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	p, err := s.local(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
