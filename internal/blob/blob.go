// Package blob stores picked files and images outside the local database.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when no blob exists under the key
var ErrNotFound = errors.New("blob not found")

// Ref points at a stored blob, e.g. file:///home/u/.trashtalk/blobs/k or s3://bucket/k
type Ref string

// Store is the capability the attachment manager needs.
// Delete of a missing key is not an error.
type Store interface {
	Put(ctx context.Context, key string, data []byte) (Ref, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// cleanKey normalises a key to a slash-separated relative path and rejects
// keys that would leave the store's root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return k, nil
}
