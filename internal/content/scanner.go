package content

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/postforge/internal/fingerprint"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
)

// SkippedPath is a sub-tree or file the scanner could not read. Units under
// it keep their previous build state instead of being treated as removed.
type SkippedPath struct {
	Prefix string
	Err    error
}

// ScanResult is the outcome of one content discovery pass.
type ScanResult struct {
	Units   []Unit
	Skipped []SkippedPath
}

// Covers reports whether id lies under a skipped prefix.
func (r *ScanResult) Covers(id string) bool {
	for _, s := range r.Skipped {
		if s.Prefix == "" || id == s.Prefix || strings.HasPrefix(id, s.Prefix+"/") {
			return true
		}
	}
	return false
}

// IsMarkdown reports whether name has a Markdown extension.
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// IsHidden reports names the scanner never descends into or reports:
// dotfiles, underscore prefixed names and editor leftovers.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasPrefix(name, "_") ||
		strings.HasSuffix(name, "~")
}

// Scan walks root and returns every Markdown unit sorted by ID. A missing or
// unreadable root is fatal; unreadable entries below it are reported in
// Skipped and do not fail the scan.
func Scan(root string) (*ScanResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryScan, "content root is not accessible").
			WithContext("path", root).
			Fatal().
			Build()
	}
	if !info.IsDir() {
		return nil, errors.ScanError("content root is not a directory").
			WithContext("path", root).
			Fatal().
			Build()
	}

	res := &ScanResult{}
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		id := filepath.ToSlash(rel)

		if err != nil {
			if p == root {
				return err
			}
			res.Skipped = append(res.Skipped, SkippedPath{
				Prefix: id,
				Err: errors.WrapError(err, errors.CategoryScan, "skipping unreadable path").
					WithContext("path", p).
					Warning().
					Build(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}
		if IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !IsMarkdown(d.Name()) {
			return nil
		}

		unit, err := readUnit(p, id)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedPath{Prefix: id, Err: err})
			return nil
		}
		res.Units = append(res.Units, unit)
		return nil
	})
	if walkErr != nil {
		return nil, errors.WrapError(walkErr, errors.CategoryScan, "content scan failed").
			WithContext("path", root).
			Fatal().
			Build()
	}

	sort.Slice(res.Units, func(i, j int) bool { return res.Units[i].ID < res.Units[j].ID })
	sort.Slice(res.Skipped, func(i, j int) bool { return res.Skipped[i].Prefix < res.Skipped[j].Prefix })
	return res, nil
}

// ReadUnit loads a single unit by absolute path.
func ReadUnit(root, p string) (Unit, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return Unit{}, errors.ValidationError("path is outside the content root").
			WithContext("path", p).
			Build()
	}
	return readUnit(p, filepath.ToSlash(rel))
}

func readUnit(p, id string) (Unit, error) {
	info, err := os.Stat(p)
	if err != nil {
		return Unit{}, errors.WrapError(err, errors.CategoryScan, "cannot stat unit").
			WithContext("path", p).
			Warning().
			Build()
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		return Unit{}, errors.WrapError(err, errors.CategoryScan, "cannot read unit").
			WithContext("path", p).
			Warning().
			Build()
	}
	return Unit{
		ID:          id,
		Path:        p,
		Raw:         raw,
		Fingerprint: fingerprint.Sum(raw),
		ModTime:     info.ModTime(),
	}, nil
}
