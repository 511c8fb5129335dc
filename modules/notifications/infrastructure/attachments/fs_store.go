// Package attachments loads attachment files by reference.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var ErrNotFound = errors.New("attachment not found")

// FSStore resolves references as slash-separated paths inside a file system.
type FSStore struct {
	fsys fs.FS
}

func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

// NewDirStore serves attachments from a directory on disk.
func NewDirStore(dir string) *FSStore {
	return NewFSStore(os.DirFS(dir))
}

func (s *FSStore) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fs.ValidPath(ref) {
		return nil, fmt.Errorf("invalid attachment reference %q", ref)
	}
	data, err := fs.ReadFile(s.fsys, ref)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return data, err
}
