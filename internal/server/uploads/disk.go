package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/rentals/internal/common"
	"github.com/dmitrijs2005/rentals/internal/filex"
)

// DiskStore writes uploads into a local directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &DiskStore{dir: abs}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Save(ctx context.Context, filename string, r io.Reader) (Attachment, error) {
	if err := ctx.Err(); err != nil {
		return Attachment{}, err
	}

	key, err := NewKey(filename)
	if err != nil {
		return Attachment{}, err
	}

	f, err := os.OpenFile(filepath.Join(s.dir, key), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return Attachment{}, fmt.Errorf("create upload: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return Attachment{}, fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return Attachment{}, fmt.Errorf("close upload: %w", err)
	}

	return Attachment{Filename: filename, Path: PathPrefix + key}, nil
}

func (s *DiskStore) Locate(_ context.Context, key string) (Location, error) {
	key, err := KeyFromPath(key)
	if err != nil {
		return Location{}, err
	}

	p := filepath.Join(s.dir, key)
	st, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Location{}, common.ErrorNotFound
		}
		return Location{}, err
	}
	if st.IsDir() {
		return Location{}, common.ErrorNotFound
	}

	return Location{File: p}, nil
}

func (s *DiskStore) Remove(_ context.Context, key string) error {
	key, err := KeyFromPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
