// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// ErrChecksumMismatch is returned when a stored file fails verification.
var ErrChecksumMismatch = errors.New("checksum mismatch")

const (
	snapshotSuffix = ".snapshot.gz"
	rulesSuffix    = ".rules.gz"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// fileHeader describes the payload of a stored file.
type fileHeader struct {
	Kind      string
	TenantID  string
	SavedAt   time.Time
	Checksum  string
	SizeBytes int64
}

// storedFile is the on-disk format: a gob envelope around a gzip-compressed
// JSON document whose SHA-256 is recorded in the header.
type storedFile struct {
	Header         fileHeader
	CompressedData []byte
}

// FileStore keeps one file per tenant and kind under a directory.
type FileStore struct {
	dir    string
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates the directory if needed and returns a store rooted there.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		logger: logger.With().Str("component", "storage").Str("backend", "file").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// LoadSnapshot returns the stored records of a tenant index.
func (s *FileStore) LoadSnapshot(ctx context.Context, tenantID string) ([]vectorindex.Record, error) {
	var doc snapshotDocument
	found, err := s.read(ctx, s.path(tenantID, snapshotSuffix), &doc)
	if err != nil || !found {
		return nil, err
	}
	if err := checkFormat(doc.Format); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", tenantID, err)
	}
	return doc.Records, nil
}

// SaveSnapshot replaces the stored records of a tenant index.
func (s *FileStore) SaveSnapshot(ctx context.Context, tenantID string, records []vectorindex.Record) error {
	return s.write(ctx, "snapshot", tenantID, s.path(tenantID, snapshotSuffix), snapshotDocument{
		Format:   formatVersion,
		TenantID: tenantID,
		SavedAt:  time.Now().UTC(),
		Records:  records,
	})
}

// DeleteSnapshot removes a tenant snapshot file.
func (s *FileStore) DeleteSnapshot(ctx context.Context, tenantID string) error {
	return s.remove(ctx, s.path(tenantID, snapshotSuffix))
}

// LoadRules returns the stored rule set of a tenant.
func (s *FileStore) LoadRules(ctx context.Context, tenantID string) (*rules.RuleSet, error) {
	var doc rulesDocument
	found, err := s.read(ctx, s.path(tenantID, rulesSuffix), &doc)
	if err != nil || !found {
		return nil, err
	}
	if err := checkFormat(doc.Format); err != nil {
		return nil, fmt.Errorf("rules %s: %w", tenantID, err)
	}
	return doc.Rules, nil
}

// SaveRules replaces the stored rule set of a tenant.
func (s *FileStore) SaveRules(ctx context.Context, tenantID string, rs *rules.RuleSet) error {
	return s.write(ctx, "rules", tenantID, s.path(tenantID, rulesSuffix), rulesDocument{
		Format:   formatVersion,
		TenantID: tenantID,
		Rules:    rs,
	})
}

// path maps a tenant to a file name. Characters outside [A-Za-z0-9._-] are
// replaced and a short hash of the raw id keeps distinct tenants apart.
func (s *FileStore) path(tenantID, suffix string) string {
	sum := sha256.Sum256([]byte(tenantID))
	safe := unsafeFilenameChars.ReplaceAllString(tenantID, "_")
	if len(safe) > 64 {
		safe = safe[:64]
	}
	return filepath.Join(s.dir, safe+"-"+hex.EncodeToString(sum[:4])+suffix)
}

func (s *FileStore) lock(path string) func() {
	s.mu.Lock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *FileStore) write(ctx context.Context, kind, tenantID, path string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	hash := sha256.Sum256(raw)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return fmt.Errorf("compress %s: %w", kind, err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	sf := storedFile{
		Header: fileHeader{
			Kind:      kind,
			TenantID:  tenantID,
			SavedAt:   time.Now().UTC(),
			Checksum:  hex.EncodeToString(hash[:]),
			SizeBytes: int64(compressed.Len()),
		},
		CompressedData: compressed.Bytes(),
	}

	unlock := s.lock(path)
	defer unlock()

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // removal after rename is expected to fail

	if err := gob.NewEncoder(tmp).Encode(sf); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error already reported
		return fmt.Errorf("write %s file: %w", kind, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // sync error already reported
		return fmt.Errorf("sync %s file: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s file: %w", kind, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s file: %w", kind, err)
	}

	s.logger.Debug().
		Str("tenant", tenantID).
		Str("kind", kind).
		Int64("size_bytes", sf.Header.SizeBytes).
		Msg("Stored file written")
	return nil
}

func (s *FileStore) read(ctx context.Context, path string, target any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	unlock := s.lock(path)
	defer unlock()

	f, err := os.Open(path) //nolint:gosec // path is built from a sanitized tenant id
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return false, fmt.Errorf("decompress %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return false, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Header.Checksum {
		return false, fmt.Errorf("%s: %w: expected %s, got %s", filepath.Base(path), ErrChecksumMismatch, sf.Header.Checksum, checksum)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func (s *FileStore) remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.lock(path)
	defer unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Close is a no-op; files are closed after every operation.
func (s *FileStore) Close() error {
	return nil
}
