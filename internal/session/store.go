package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrUnavailable wraps every failure of the underlying token storage.
var ErrUnavailable = errors.New("credential storage unavailable")

// Store persists a single opaque token. Get returns ("", nil) when nothing
// is stored.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// FileStore keeps the token in a small JSON document readable only by the owner.
type FileStore struct {
	path string
}

type fileSession struct {
	Token string `json:"token"`
}

// NewFileStore creates a file-backed store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("read", err)
	}

	var doc fileSession
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", unavailable("decode", err)
	}
	return doc.Token, nil
}

func (s *FileStore) Set(ctx context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return unavailable("mkdir", err)
	}

	data, err := json.MarshalIndent(fileSession{Token: token}, "", "  ")
	if err != nil {
		return unavailable("encode", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return unavailable("write", err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return unavailable("remove", err)
	}
	return nil
}

// KeyValue is the subset of the local database the KV store needs
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// TokenKey is the row holding the token in the key/value table
const TokenKey = "session.token"

// KVStore keeps the token in the local SQLite key/value table.
type KVStore struct {
	kv KeyValue
}

// NewKVStore creates a store over the key/value table
func NewKVStore(kv KeyValue) *KVStore {
	return &KVStore{kv: kv}
}

func (s *KVStore) Get(ctx context.Context) (string, error) {
	v, ok, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		return "", unavailable("get", err)
	}
	if !ok {
		return "", nil
	}
	return v, nil
}

func (s *KVStore) Set(ctx context.Context, token string) error {
	if err := s.kv.Set(ctx, TokenKey, token); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (s *KVStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, TokenKey); err != nil {
		return unavailable("clear", err)
	}
	return nil
}
