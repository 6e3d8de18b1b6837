// Package snapshot captures a metadata model as a self-describing, fingerprinted
// document that can be stored and later rebuilt into an equivalent model.
//
// The fingerprint is the xxhash of the canonical YAML encoding of the
// exported schema document, so two models that export to the same document
// share a fingerprint regardless of their identity or construction order.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/metamodel/compiler/load"
	"github.com/syssam/metamodel/diagnostics"
	"github.com/syssam/metamodel/metadata"
)

// Version is the snapshot format version written by Encode.
const Version = 1

// ErrFingerprintMismatch is returned when a decoded snapshot does not match
// its recorded fingerprint.
var ErrFingerprintMismatch = errors.New("snapshot: fingerprint mismatch")

// Snapshot is a point-in-time capture of a model.
type Snapshot struct {
	Version     int            `msgpack:"version"`
	ModelID     uuid.UUID      `msgpack:"model_id"`
	Fingerprint string         `msgpack:"fingerprint"`
	Document    *load.Document `msgpack:"document"`
}

// Take captures m.
func Take(m *metadata.Model) (*Snapshot, error) {
	if m == nil {
		return nil, errors.New("snapshot: model is nil")
	}
	doc, err := load.Export(m)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	fp, err := Fingerprint(doc)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Version:     Version,
		ModelID:     m.ID(),
		Fingerprint: fp,
		Document:    doc,
	}, nil
}

// Fingerprint returns the hex xxhash of the canonical YAML form of doc.
func Fingerprint(doc *load.Document) (string, error) {
	data, err := doc.Marshal()
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}

// Restore rebuilds a model from s. The restored model keeps the snapshot's
// model ID unless opts override it.
func (s *Snapshot) Restore(opts ...metadata.Option) (*metadata.Model, error) {
	if s.Document == nil {
		return nil, errors.New("snapshot: no document")
	}
	opts = append([]metadata.Option{metadata.WithID(s.ModelID)}, opts...)
	m, err := load.Build(s.Document, opts...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return m, nil
}

// Equal reports whether two snapshots describe the same schema.
func (s *Snapshot) Equal(other *Snapshot) bool {
	return other != nil && s.Fingerprint == other.Fingerprint
}

// Encode writes s to w in msgpack.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}

// Bytes returns the msgpack encoding of s.
func (s *Snapshot) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a snapshot written by Encode and verifies its fingerprint.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", s.Version)
	}
	if s.Document == nil {
		return nil, errors.New("snapshot: no document")
	}
	fp, err := Fingerprint(s.Document)
	if err != nil {
		return nil, err
	}
	if fp != s.Fingerprint {
		return nil, fmt.Errorf("%w: recorded %s, computed %s", ErrFingerprintMismatch, s.Fingerprint, fp)
	}
	return &s, nil
}

// Write encodes s into the file at path, creating parent directories, and
// logs SnapshotWritten on l.
func (s *Snapshot) Write(path string, l *diagnostics.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	data, err := s.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	l.SnapshotWritten(path, s.Fingerprint)
	return nil
}

// Read decodes the snapshot stored at path.
func Read(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
