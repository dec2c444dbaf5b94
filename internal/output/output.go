// Package output owns the output directory. Every file is replaced through a
// temp file and rename so readers never observe a partial artifact.
package output

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/store"
)

const filePerm = 0o644

// Dir writes and removes artifacts below one root directory.
type Dir struct {
	root string
}

// New returns a Dir rooted at root. The directory is created lazily.
func New(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the output root.
func (d *Dir) Root() string { return d.root }

// Resolve maps a slash separated artifact path to a file below the root. It
// rejects paths that would escape the root.
func (d *Dir) Resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" || strings.Contains(rel, "\x00") {
		return "", errors.WriteError("invalid output path").WithContext("path", rel).Build()
	}
	return filepath.Join(d.root, filepath.FromSlash(clean[1:])), nil
}

// Write replaces the file at rel with body.
func (d *Dir) Write(rel string, body []byte) error {
	target, err := d.Resolve(rel)
	if err != nil {
		return err
	}
	if err := store.WriteFileAtomic(target, body, filePerm); err != nil {
		return errors.WrapError(err, errors.CategoryWrite, "cannot write artifact").
			WithContext("path", rel).
			NextPass().
			Build()
	}
	return nil
}

// Copy replaces the file at rel with the contents of src.
func (d *Dir) Copy(rel, src string) error {
	f, err := os.Open(src) //nolint:gosec // source paths come from the scanner
	if err != nil {
		return errors.WrapError(err, errors.CategoryWrite, "cannot open asset").
			WithContext("path", src).
			NextPass().
			Build()
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return errors.WrapError(err, errors.CategoryWrite, "cannot read asset").
			WithContext("path", src).
			NextPass().
			Build()
	}
	return d.Write(rel, data)
}

// Remove deletes the file at rel and prunes directories left empty, up to
// but excluding the root. A missing file is not an error.
func (d *Dir) Remove(rel string) error {
	target, err := d.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.WrapError(err, errors.CategoryWrite, "cannot remove artifact").
			WithContext("path", rel).
			NextPass().
			Build()
	}
	d.prune(filepath.Dir(target))
	return nil
}

func (d *Dir) prune(dir string) {
	root := filepath.Clean(d.root)
	for dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)) {
		if err := os.Remove(dir); err != nil {
			// not empty, or already gone
			if !stderrors.Is(err, fs.ErrNotExist) {
				return
			}
		}
		dir = filepath.Dir(dir)
	}
}

// Exists reports whether an artifact is present at rel.
func (d *Dir) Exists(rel string) bool {
	target, err := d.Resolve(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(target)
	return err == nil
}

// Clean removes the whole output directory.
func (d *Dir) Clean() error {
	if err := os.RemoveAll(d.root); err != nil {
		return errors.WrapError(err, errors.CategoryWrite, "cannot remove output directory").
			WithContext("path", d.root).
			Build()
	}
	return nil
}
