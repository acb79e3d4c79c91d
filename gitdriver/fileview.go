package gitdriver

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/gizzahub/gzh-repocache/internal/gitcmd"
)

// treeFS is a read-only fs.FS over a single revision of a bare clone,
// implemented entirely through `git ls-tree`/`git show` subprocesses;
// no working tree is ever materialized for it.
type treeFS struct {
	ctx      context.Context
	exec     *gitcmd.Executor
	repoPath string
	ref      string
}

func (t *treeFS) treeish(name string) string {
	if name == "" || name == "." {
		return t.ref
	}
	return t.ref + ":" + name
}

// Open implements fs.FS.
func (t *treeFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	clean := name
	if clean == "." {
		clean = ""
	}

	kind, err := t.objectType(clean)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	if kind == "tree" {
		entries, err := t.listTree(clean)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		return &treeDir{name: path.Base(name), entries: entries}, nil
	}

	content, err := t.blobContent(clean)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &treeFile{name: path.Base(name), content: content}, nil
}

func (t *treeFS) objectType(relPath string) (string, error) {
	if relPath == "" {
		return "tree", nil
	}
	out, err := t.exec.RunOutput(t.ctx, t.repoPath, "cat-file", "-t", t.treeish(relPath))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (t *treeFS) blobContent(relPath string) ([]byte, error) {
	result, err := t.exec.Run(t.ctx, t.repoPath, "show", t.treeish(relPath))
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("git show failed: %s", result.Stderr)
	}
	return []byte(result.Stdout), nil
}

// listTree lists the immediate entries of the tree at relPath.
func (t *treeFS) listTree(relPath string) ([]treeEntry, error) {
	out, err := t.exec.RunOutput(t.ctx, t.repoPath, "ls-tree", t.treeish(relPath))
	if err != nil {
		return nil, err
	}
	var entries []treeEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// "<mode> <type> <sha>\t<name>"
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			continue
		}
		fields := strings.Fields(line[:tab])
		if len(fields) != 3 {
			continue
		}
		entries = append(entries, treeEntry{
			name:  line[tab+1:],
			isDir: fields[1] == "tree",
		})
	}
	return entries, nil
}

type treeEntry struct {
	name  string
	isDir bool
}

// treeFile implements fs.File for a blob.
type treeFile struct {
	name    string
	content []byte
	pos     int
}

func (f *treeFile) Stat() (fs.FileInfo, error) { return fileInfo{name: f.name, size: int64(len(f.content))}, nil }

func (f *treeFile) Read(p []byte) (int, error) {
	if f.pos >= len(f.content) {
		return 0, io.EOF
	}
	n := copy(p, f.content[f.pos:])
	f.pos += n
	return n, nil
}

func (f *treeFile) Close() error { return nil }

// treeDir implements fs.ReadDirFile for a tree.
type treeDir struct {
	name    string
	entries []treeEntry
	read    int
}

func (d *treeDir) Stat() (fs.FileInfo, error) { return fileInfo{name: d.name, isDir: true}, nil }
func (d *treeDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}
func (d *treeDir) Close() error { return nil }

func (d *treeDir) ReadDir(n int) ([]fs.DirEntry, error) {
	remaining := d.entries[d.read:]
	if n <= 0 {
		d.read = len(d.entries)
		out := make([]fs.DirEntry, len(remaining))
		for i, e := range remaining {
			out[i] = dirEntry{e}
		}
		return out, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if n > len(remaining) {
		n = len(remaining)
	}
	out := make([]fs.DirEntry, n)
	for i, e := range remaining[:n] {
		out[i] = dirEntry{e}
	}
	d.read += n
	return out, nil
}

type dirEntry struct{ e treeEntry }

func (d dirEntry) Name() string { return d.e.name }
func (d dirEntry) IsDir() bool  { return d.e.isDir }
func (d dirEntry) Type() fs.FileMode {
	if d.e.isDir {
		return fs.ModeDir
	}
	return 0
}
func (d dirEntry) Info() (fs.FileInfo, error) {
	return fileInfo{name: d.e.name, isDir: d.e.isDir}, nil
}

// fileInfo is a minimal fs.FileInfo for blob/tree entries. Git object
// content has no separate mtime, so ModTime reports the zero time.
type fileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (i fileInfo) Name() string { return i.name }
func (i fileInfo) Size() int64  { return i.size }
func (i fileInfo) Mode() fs.FileMode {
	if i.isDir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
func (i fileInfo) ModTime() time.Time { return time.Time{} }
func (i fileInfo) IsDir() bool        { return i.isDir }
func (i fileInfo) Sys() interface{}   { return nil }
