// Package store persists build state between passes and processes.
//
// The file layout is a fixed header followed by a compressed CBOR payload:
//
//	magic "PFCACHE\x00" | version (1) | compression (1) | BLAKE3 of payload (32) | payload
//
// Commit writes a temporary file in the same directory and renames it over
// the store, so readers see either the previous or the new state.
package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/postforge/internal/fingerprint"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
)

var magic = []byte("PFCACHE\x00")

const headerLen = 8 + 1 + 1 + fingerprint.Size

// Store is the on-disk fingerprint store.
type Store struct {
	path        string
	compression Compression
	now         func() time.Time
}

// New returns a store backed by path.
func New(path string, compression Compression) *Store {
	return &Store{path: path, compression: compression, now: time.Now}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted state. A missing file yields an empty state and
// no error. An unreadable, truncated, tampered or foreign-version file
// yields an empty state together with a StoreCorrupt warning; callers log
// it and continue with a full rebuild.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return NewState(), nil
	}
	if err != nil {
		return NewState(), s.corrupt("cannot read fingerprint store", err)
	}

	state, err := decodeFile(data)
	if err != nil {
		return NewState(), s.corrupt("discarding unreadable fingerprint store", err)
	}
	return state, nil
}

func decodeFile(data []byte) (*State, error) {
	if len(data) < headerLen || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("bad header")
	}
	version := int(data[len(magic)])
	if version != FormatVersion {
		return nil, fmt.Errorf("unsupported format version %d", version)
	}
	compression := Compression(data[len(magic)+1])
	var sum fingerprint.Fingerprint
	copy(sum[:], data[len(magic)+2:headerLen])
	payload := data[headerLen:]
	if fingerprint.Sum(payload) != sum {
		return nil, fmt.Errorf("checksum mismatch")
	}

	raw, err := decompress(payload, compression)
	if err != nil {
		return nil, err
	}
	state, err := decodeState(raw)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if state.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported state version %d", state.Version)
	}
	state.normalize()
	return state, nil
}

// Commit durably replaces the persisted state with st.
func (s *Store) Commit(st *State) error {
	st.Version = FormatVersion
	st.UpdatedAt = s.now().UTC()

	raw, err := encodeState(st)
	if err != nil {
		return s.fail("cannot encode build state", err)
	}
	payload, err := compress(raw, s.compression)
	if err != nil {
		return s.fail("cannot compress build state", err)
	}
	sum := fingerprint.Sum(payload)

	buf := make([]byte, 0, headerLen+len(payload))
	buf = append(buf, magic...)
	buf = append(buf, byte(FormatVersion), byte(s.compression))
	buf = append(buf, sum[:]...)
	buf = append(buf, payload...)

	if err := WriteFileAtomic(s.path, buf, 0o644); err != nil {
		return s.fail("cannot write fingerprint store", err)
	}
	return nil
}

// Clear removes the persisted state.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return s.fail("cannot remove fingerprint store", err)
	}
	return nil
}

func (s *Store) corrupt(msg string, err error) error {
	return errors.StoreCorrupt(msg).
		WithCause(err).
		WithContext("path", s.path).
		Build()
}

func (s *Store) fail(msg string, err error) error {
	return errors.StoreError(msg).
		WithCause(err).
		WithContext("path", s.path).
		Build()
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it and
// renames it into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
