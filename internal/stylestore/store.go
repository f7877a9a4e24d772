// Package stylestore persists user-defined styles in a JSON file.
//
// The file holds two objects keyed by style id:
//
//	{
//	  "version": 1,
//	  "character": {"emph": {"name": "Emphasis", "italic": true}},
//	  "paragraph": {"quote": {"based_on": "body", "left_margin": 4}}
//	}
//
// The raw document is edited in place with sjson, so fields this version
// does not know about survive a load and save. A Store is a style.Catalog
// and can be chained in front of the built-in catalog.
package stylestore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/folio/internal/renderer/style"
)

const currentVersion = 1

var (
	// ErrStyleNotFound is returned when deleting a style that does not exist.
	ErrStyleNotFound = errors.New("style not found")

	// ErrInvalidID is returned for ids that are not usable as keys.
	ErrInvalidID = errors.New("invalid style id")

	// ErrCorrupt is returned when the store file is not a JSON object.
	ErrCorrupt = errors.New("corrupt style store")
)

// Ids are restricted so they can be used verbatim in gjson/sjson paths.
var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Kind selects the paragraph or character section.
type Kind string

const (
	Paragraph Kind = "paragraph"
	Character Kind = "character"
)

// Store is a concurrency-safe, file-backed style catalog.
type Store struct {
	mu     sync.RWMutex
	path   string
	raw    []byte
	rev    uint64
	logger *slog.Logger
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{raw: []byte(`{"version":1}`), logger: slog.New(slog.DiscardHandler)}
}

// Open loads the store at path. A missing file yields an empty store that
// is created on the first save.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{path: path, raw: []byte(`{"version":1}`), logger: logger}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read style store: %w", err)
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("%s: %w", path, ErrCorrupt)
	}
	if v := gjson.GetBytes(data, "version").Int(); v > currentVersion {
		logger.Warn("style store written by a newer version", "path", path, "version", v)
	}
	s.raw = data
	return s, nil
}

// Path returns the backing file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Revision implements style.Revisioner.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

// CharacterStyle implements style.Catalog.
func (s *Store) CharacterStyle(id string) (style.CharacterStyle, bool) {
	r, ok := s.lookup(Character, id)
	if !ok {
		return style.CharacterStyle{}, false
	}
	cs, err := decodeCharacter(id, r)
	if err != nil {
		s.logger.Warn("skipping invalid character style", "id", id, "error", err)
		return style.CharacterStyle{}, false
	}
	return cs, true
}

// ParagraphStyle implements style.Catalog.
func (s *Store) ParagraphStyle(id string) (style.ParagraphStyle, bool) {
	r, ok := s.lookup(Paragraph, id)
	if !ok {
		return style.ParagraphStyle{}, false
	}
	ps, err := decodeParagraph(id, r)
	if err != nil {
		s.logger.Warn("skipping invalid paragraph style", "id", id, "error", err)
		return style.ParagraphStyle{}, false
	}
	return ps, true
}

func (s *Store) lookup(kind Kind, id string) (gjson.Result, bool) {
	if !validID.MatchString(id) {
		return gjson.Result{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := gjson.GetBytes(s.raw, string(kind)+"."+id)
	return r, r.IsObject()
}

// IDs returns the ids of one kind in sorted order.
func (s *Store) IDs(kind Kind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	gjson.GetBytes(s.raw, string(kind)).ForEach(func(key, _ gjson.Result) bool {
		ids = append(ids, key.String())
		return true
	})
	sort.Strings(ids)
	return ids
}

// SaveCharacter adds or replaces a character style and persists the store.
func (s *Store) SaveCharacter(cs style.CharacterStyle) error {
	raw, err := encodeCharacter(cs)
	if err != nil {
		return err
	}
	return s.put(Character, cs.ID, raw)
}

// SaveParagraph adds or replaces a paragraph style and persists the store.
func (s *Store) SaveParagraph(ps style.ParagraphStyle) error {
	raw, err := encodeParagraph(ps)
	if err != nil {
		return err
	}
	return s.put(Paragraph, ps.ID, raw)
}

func (s *Store) put(kind Kind, id string, obj []byte) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%q: %w", id, ErrInvalidID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := sjson.SetRawBytes(s.raw, string(kind)+"."+id, obj)
	if err != nil {
		return fmt.Errorf("failed to set %s style %q: %w", kind, id, err)
	}
	return s.commitLocked(raw)
}

// Delete removes a style and persists the store.
func (s *Store) Delete(kind Kind, id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%q: %w", id, ErrInvalidID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := string(kind) + "." + id
	if !gjson.GetBytes(s.raw, path).Exists() {
		return fmt.Errorf("%s style %q: %w", kind, id, ErrStyleNotFound)
	}
	raw, err := sjson.DeleteBytes(s.raw, path)
	if err != nil {
		return fmt.Errorf("failed to delete %s style %q: %w", kind, id, err)
	}
	return s.commitLocked(raw)
}

func (s *Store) commitLocked(raw []byte) error {
	raw, err := sjson.SetBytes(raw, "version", currentVersion)
	if err != nil {
		return err
	}
	if s.path != "" {
		if err := writeFile(s.path, pretty.Pretty(raw)); err != nil {
			return err
		}
	}
	s.raw = raw
	s.rev++
	return nil
}

// Bytes returns the store as indented JSON.
func (s *Store) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pretty.Pretty(s.raw)
}

// writeFile writes atomically using a temp file and rename.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
