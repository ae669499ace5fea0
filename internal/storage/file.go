package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// FileStore reads from a filesystem tree.
type FileStore struct {
	fsys fs.FS
	root string
}

// NewFileStore returns a store rooted at the directory root.
func NewFileStore(root string) *FileStore {
	return &FileStore{fsys: os.DirFS(root), root: root}
}

// NewFSStore wraps an arbitrary fs.FS, e.g. an embed.FS or fstest.MapFS.
func NewFSStore(fsys fs.FS) *FileStore {
	return &FileStore{fsys: fsys, root: "."}
}

func (s *FileStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := CleanPath(name)
	if err != nil {
		return nil, err
	}
	if !fs.ValidPath(clean) {
		return nil, &Error{Path: name, Cause: ErrInvalidPath}
	}

	data, err := fs.ReadFile(s.fsys, clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Path: clean, Cause: ErrNotFound}
		}
		return nil, &Error{Path: clean, Cause: err}
	}
	return data, nil
}

func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := fs.Stat(s.fsys, ".")
	if err != nil {
		return &Error{Path: s.root, Cause: err}
	}
	if !info.IsDir() {
		return &Error{Path: s.root, Cause: errors.New("not a directory")}
	}
	return nil
}

func (s *FileStore) Name() string {
	return "fs:" + s.root
}
