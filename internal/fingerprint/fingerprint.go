// Package fingerprint computes the content digests the incremental build
// compares across passes.
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"
)

// Size is the digest length in bytes.
const Size = 32

// Fingerprint is a BLAKE3 digest of raw bytes.
type Fingerprint [Size]byte

// Zero is the fingerprint of nothing; it never matches a real digest of
// stored content because stores only persist computed values.
var Zero Fingerprint

// Sum fingerprints data.
func Sum(data []byte) Fingerprint {
	return Fingerprint(blake3.Sum256(data))
}

// String returns the lowercase hex form.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 12 hex characters for log output.
func (f Fingerprint) Short() string {
	return hex.EncodeToString(f[:6])
}

// IsZero reports whether f is the zero value.
func (f Fingerprint) IsZero() bool {
	return f == Zero
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Parse decodes a 64-character hex string.
func Parse(s string) (Fingerprint, error) {
	var f Fingerprint
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return f, fmt.Errorf("parsing fingerprint: %w", err)
	}
	if len(decoded) != Size {
		return f, fmt.Errorf("fingerprint is %d bytes, want %d", len(decoded), Size)
	}
	copy(f[:], decoded)
	return f, nil
}

// Builder accumulates named inputs into one fingerprint. Each entry is
// length-prefixed so that ("ab","c") and ("a","bc") differ.
type Builder struct {
	h *blake3.Hasher
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{h: blake3.New()}
}

// Add mixes a named value into the fingerprint.
func (b *Builder) Add(name string, value []byte) *Builder {
	writeField(b.h, []byte(name))
	writeField(b.h, value)
	return b
}

// AddString mixes a named string into the fingerprint.
func (b *Builder) AddString(name, value string) *Builder {
	return b.Add(name, []byte(value))
}

// Sum returns the accumulated fingerprint.
func (b *Builder) Sum() Fingerprint {
	var f Fingerprint
	copy(f[:], b.h.Sum(nil))
	return f
}

func writeField(h *blake3.Hasher, data []byte) {
	var n [8]byte
	l := uint64(len(data))
	for i := range n {
		n[i] = byte(l >> (8 * i))
	}
	_, _ = h.Write(n[:])
	_, _ = h.Write(data)
}

// Tree fingerprints every regular file below root, keyed by its slash
// separated relative path, in lexicographic order. A missing root yields a
// stable fingerprint of the empty tree.
func Tree(root string) (Fingerprint, error) {
	b := NewBuilder()
	if err := AddTree(b, "", root); err != nil {
		return Zero, err
	}
	return b.Sum(), nil
}

// AddTree mixes every regular file below root into b, with paths prefixed
// by prefix. Hidden files and directories are skipped.
func AddTree(b *Builder, prefix, root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		b.AddString(prefix+"<absent>", "")
		return nil
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && len(d.Name()) > 0 && d.Name()[0] == '.' {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		b.Add(prefix+filepath.ToSlash(rel), data)
	}
	return nil
}
