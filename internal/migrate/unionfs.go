package migrate

import (
	"io"
	"io/fs"
	"os"
	"sort"
	"time"
)

// unionFS is a read-only fs.FS whose root directory lists the collected
// migrations of several directories side by side.
type unionFS struct {
	files map[string]string // base name -> path on disk
}

var (
	_ fs.ReadDirFS = unionFS{}
	_ fs.StatFS    = unionFS{}
)

func newUnionFS(migrations []Migration) unionFS {
	files := make(map[string]string, len(migrations))
	for _, m := range migrations {
		files[m.Filename()] = m.Path
	}
	return unionFS{files: files}
}

func (u unionFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		entries, err := u.ReadDir(".")
		if err != nil {
			return nil, err
		}
		return &unionDir{entries: entries}, nil
	}

	path, ok := u.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return os.Open(path)
}

func (u unionFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}

	entries := make([]fs.DirEntry, 0, len(u.files))
	for base := range u.files {
		info, err := u.Stat(base)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (u unionFS) Stat(name string) (fs.FileInfo, error) {
	if name == "." {
		return rootInfo{}, nil
	}
	path, ok := u.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return os.Stat(path)
}

type unionDir struct {
	entries []fs.DirEntry
	offset  int
}

func (d *unionDir) Stat() (fs.FileInfo, error) { return rootInfo{}, nil }
func (d *unionDir) Close() error               { return nil }

func (d *unionDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: ".", Err: fs.ErrInvalid}
}

func (d *unionDir) ReadDir(n int) ([]fs.DirEntry, error) {
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.offset += n
	return rest[:n], nil
}

type rootInfo struct{}

func (rootInfo) Name() string       { return "." }
func (rootInfo) Size() int64        { return 0 }
func (rootInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (rootInfo) ModTime() time.Time { return time.Time{} }
func (rootInfo) IsDir() bool        { return true }
func (rootInfo) Sys() any           { return nil }
