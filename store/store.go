// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

// Package store owns the persisted snapshot: sequence state, role
// catalog, and the relay webhook reference.
//
// The Store is a mutex-guarded state cell. Read returns a deep copy
// of the current snapshot; Update applies a delta to a copy, persists
// it, and only then publishes it as current. A crash between persist
// and publish loses nothing, and concurrent readers always see a
// complete snapshot.
//
// On disk the snapshot sits inside a small envelope carrying a keyed
// BLAKE3 checksum of the state bytes. The file is written to a
// temporary name and renamed into place, so a crash mid-write leaves
// the previous file intact, and a torn or hand-mangled file is
// detected at load instead of silently resetting the count.
package store

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"
)

// envelopeVersion is the on-disk format version.
const envelopeVersion = 1

// checksumKey is the BLAKE3 keyed-hash domain key for snapshot
// checksums: the ASCII domain name zero-padded to 32 bytes. Changing
// it invalidates every existing store file.
var checksumKey = [32]byte{
	'q', 'u', 'd', 'a', 'h', '.', 's', 't', 'o', 'r', 'e', '.',
	's', 'n', 'a', 'p', 's', 'h', 'o', 't',
}

// envelope is the on-disk wrapper around the snapshot.
type envelope struct {
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	State    json.RawMessage `json:"state"`
}

// Store is the process-wide persisted state cell.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	current Snapshot
}

// Open loads the snapshot at path. A missing file is not an error:
// the store starts from the default snapshot and the file appears on
// the first save. A present-but-corrupt file is an error: silently
// discarding it would reset the channel's count.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Info("store file absent, starting fresh", "path", path)
		s.current = defaultSnapshot()
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading %s: %w", path, err)
	}

	snapshot, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	s.current = snapshot
	logger.Info("store loaded", "path", path, "categories", len(snapshot.Roles))
	return s, nil
}

// Read returns a deep copy of the current snapshot.
func (s *Store) Read() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// Update applies the delta to a copy of the current snapshot,
// persists the result, and publishes it. On persist failure the
// in-memory snapshot is left unchanged and the error is returned.
// Returns the published snapshot.
func (s *Store) Update(apply func(*Snapshot)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.clone()
	apply(&next)

	if err := s.persist(next); err != nil {
		return Snapshot{}, err
	}
	s.current = next
	return next.clone(), nil
}

// Save rewrites the current snapshot. Used by the periodic flush
// timer and graceful shutdown; Update already persists on every
// mutation.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(s.current)
}

// Path returns the store file location.
func (s *Store) Path() string { return s.path }

// persist writes the snapshot to a temporary file in the store's
// directory and renames it into place. Caller holds s.mu.
func (s *Store) persist(snapshot Snapshot) error {
	data, err := encode(snapshot)
	if err != nil {
		return fmt.Errorf("store: encoding snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".store-*")
	if err != nil {
		return fmt.Errorf("store: creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	for _, err := range []error{writeErr, syncErr, closeErr} {
		if err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("store: writing %s: %w", tmpPath, err)
		}
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: replacing %s: %w", s.path, err)
	}
	return nil
}

// encode wraps the snapshot in a checksummed envelope.
func encode(snapshot Snapshot) ([]byte, error) {
	state, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(envelope{
		Version:  envelopeVersion,
		Checksum: checksum(state),
		State:    state,
	}, "", "\t")
}

// decode unwraps and verifies a checksummed envelope.
func decode(data []byte) (Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Snapshot{}, fmt.Errorf("parsing envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return Snapshot{}, fmt.Errorf("unsupported store version %d", env.Version)
	}
	// The envelope is written indented, which reformats the embedded
	// state bytes; the checksum covers the compact form on both sides.
	var compact bytes.Buffer
	if err := json.Compact(&compact, env.State); err != nil {
		return Snapshot{}, fmt.Errorf("compacting state: %w", err)
	}
	if got := checksum(compact.Bytes()); got != env.Checksum {
		return Snapshot{}, fmt.Errorf("checksum mismatch: file is corrupt or was edited (got %s, recorded %s)", got, env.Checksum)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(env.State, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("parsing state: %w", err)
	}
	return snapshot, nil
}

// checksum computes the keyed BLAKE3 digest of the state bytes.
func checksum(state []byte) string {
	hasher, err := blake3.NewKeyed(checksumKey[:])
	if err != nil {
		// The key is a fixed 32-byte constant; this is unreachable.
		panic("store: BLAKE3 keyed hasher: " + err.Error())
	}
	hasher.Write(state)
	return hex.EncodeToString(hasher.Sum(nil))
}
