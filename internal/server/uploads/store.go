// Package uploads stores listing photos and locates them again for serving.
// Stored objects are addressed by a key made of a random tag and the
// client's base filename; listings keep the public path PathPrefix+key.
package uploads

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/rentals/internal/common"
	"github.com/dmitrijs2005/rentals/internal/filex"
)

// PathPrefix is prepended to every key to form the path kept on a listing.
const PathPrefix = "uploads/"

// Attachment describes one stored upload.
type Attachment struct {
	Filename string
	Path     string
}

// Location tells where a stored object can be read from. Exactly one field
// is set: File for local files, URL for remote objects.
type Location struct {
	File string
	URL  string
}

type Store interface {
	// Save writes r under a fresh key derived from filename and returns the
	// attachment pointing at it.
	Save(ctx context.Context, filename string, r io.Reader) (Attachment, error)
	// Locate resolves a key previously returned inside an attachment path.
	Locate(ctx context.Context, key string) (Location, error)
	// Remove deletes a stored object. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

var randTag = func() (string, error) {
	return common.MakeRandHexString(8)
}

// NewKey derives a storage key from a client filename.
func NewKey(filename string) (string, error) {
	tag, err := randTag()
	if err != nil {
		return "", fmt.Errorf("random tag: %w", err)
	}
	return tag + "-" + filex.SafeBase(filename), nil
}

// KeyFromPath strips PathPrefix and any leading slashes. It rejects keys
// that would leave the upload namespace.
func KeyFromPath(p string) (string, error) {
	key := strings.TrimLeft(p, "/")
	key = strings.TrimPrefix(key, PathPrefix)
	if key == "" || key != filex.SafeBase(key) {
		return "", common.ErrorNotFound
	}
	return key, nil
}
