// Package store implements the JSON-backed panel configuration document:
// target groups, monitor keywords, ignored users and the per-session client
// registry. Every mutation is persisted synchronously before it is
// considered committed.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/validate"
)

// InactiveAccount records why a session left the active registry.
type InactiveAccount struct {
	Reason       string `json:"reason"`
	LastSeen     int64  `json:"last_seen"`
	ErrorDetails string `json:"error_details"`
}

// Document is the panel configuration document. JSON key names follow the
// on-disk format consumed by the rest of the panel.
type Document struct {
	TargetGroups     []int64                    `json:"TARGET_GROUPS"`
	Keywords         []string                   `json:"KEYWORDS"`
	IgnoreUsers      []int64                    `json:"IGNORE_USERS"`
	Clients          map[string][]int64         `json:"clients"`
	InactiveAccounts map[string]InactiveAccount `json:"inactive_accounts,omitempty"`
}

// Partial is a partial document for Merge. Nil fields are skipped; list
// fields merge as a deduplicated union, the clients map replaces the old
// value wholesale.
type Partial struct {
	TargetGroups []int64
	Keywords     []string
	IgnoreUsers  []int64
	Clients      map[string][]int64
}

func defaultDocument() Document {
	return Document{
		TargetGroups: []int64{},
		Keywords:     []string{},
		IgnoreUsers:  []int64{},
		Clients:      map[string][]int64{},
	}
}

// Store owns the document and its persistence. All accessors take the
// store lock, so callers never observe a half-applied mutation.
type Store struct {
	mu     sync.RWMutex
	path   string
	doc    Document
	logger zerolog.Logger

	onSave func(data []byte)
}

// New loads the document at path, falling back to the default shape when
// the file is missing, empty or unreadable. Load problems are logged, not
// returned: the panel must come up even with a corrupt config.
func New(path string, logger zerolog.Logger) *Store {
	s := &Store{
		path:   sanitizePath(path),
		logger: logger.With().Str("component", "config_store").Logger(),
	}
	s.doc = s.load()
	return s
}

// sanitizePath strips traversal components and unsafe characters from a
// caller-supplied config path so it cannot escape the data directory.
func sanitizePath(path string) string {
	dir, file := filepath.Split(path)
	file = validate.SanitizeSessionName(file)
	if file == "" || filepath.Ext(file) != ".json" {
		file = "config.json"
	}

	parts := strings.Split(filepath.ToSlash(filepath.Clean(dir)), "/")
	kept := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		kept = append(kept, p)
	}
	kept = append(kept, file)

	clean := filepath.Join(kept...)
	if filepath.IsAbs(path) {
		clean = string(filepath.Separator) + clean
	}
	return clean
}

func (s *Store) load() Document {
	doc := defaultDocument()

	info, err := os.Stat(s.path)
	if err != nil {
		s.logger.Warn().Str("path", s.path).Msg("config file not found, using default settings")
		return doc
	}
	if info.Size() == 0 {
		s.logger.Warn().Str("path", s.path).Msg("config file is empty, using default settings")
		return doc
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to read config file, falling back to default config")
		return doc
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to parse config file, falling back to default config")
		return defaultDocument()
	}

	normalize(&doc)
	s.logger.Info().Str("path", s.path).Msg("config file loaded")
	return doc
}

// normalize replaces nil collections with empty ones so missing keys in
// the file behave like the default shape.
func normalize(doc *Document) {
	if doc.TargetGroups == nil {
		doc.TargetGroups = []int64{}
	}
	if doc.Keywords == nil {
		doc.Keywords = []string{}
	}
	if doc.IgnoreUsers == nil {
		doc.IgnoreUsers = []int64{}
	}
	if doc.Clients == nil {
		doc.Clients = map[string][]int64{}
	}
}

// OnSave installs a hook that receives the serialized document after each
// successful persist. Used for backup uploads; runs on its own goroutine.
func (s *Store) OnSave(fn func(data []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSave = fn
}

// save persists the document atomically: serialize to a temp file in the
// same directory, then rename over the old file. Failures are logged, not
// propagated, and the in-memory document keeps the attempted change.
// Callers must hold the write lock.
func (s *Store) save() {
	data, err := json.MarshalIndent(s.doc, "", "    ")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to serialize config")
		return
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error().Err(err).Str("dir", dir).Msg("failed to create config directory")
		return
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create temp config file")
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.logger.Error().Err(err).Msg("failed to write config")
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		s.logger.Error().Err(err).Msg("failed to close temp config file")
		return
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to replace config file")
		return
	}

	s.logger.Debug().Str("path", s.path).Msg("config saved")

	if s.onSave != nil {
		hook := s.onSave
		go hook(data)
	}
}

// Update applies fn to the document under the write lock and persists the
// result before returning.
func (s *Store) Update(fn func(doc *Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.doc)
	normalize(&s.doc)
	s.save()
}

// Merge folds partial into the document: list fields become the
// deduplicated union (first occurrence wins, order preserved), the clients
// map replaces the stored one when non-nil. One persist at the end.
func (s *Store) Merge(partial Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if partial.TargetGroups != nil {
		s.doc.TargetGroups = unionInt64(s.doc.TargetGroups, partial.TargetGroups)
	}
	if partial.Keywords != nil {
		s.doc.Keywords = unionStrings(s.doc.Keywords, partial.Keywords)
	}
	if partial.IgnoreUsers != nil {
		s.doc.IgnoreUsers = unionInt64(s.doc.IgnoreUsers, partial.IgnoreUsers)
	}
	if partial.Clients != nil {
		clients := make(map[string][]int64, len(partial.Clients))
		for name, groups := range partial.Clients {
			clients[name] = append([]int64(nil), groups...)
		}
		s.doc.Clients = clients
	}

	s.save()
}

func unionStrings(old, add []string) []string {
	seen := make(map[string]struct{}, len(old)+len(add))
	out := make([]string, 0, len(old)+len(add))
	for _, v := range old {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, v := range add {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func unionInt64(old, add []int64) []int64 {
	seen := make(map[int64]struct{}, len(old)+len(add))
	out := make([]int64, 0, len(old)+len(add))
	for _, v := range old {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, v := range add {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Document returns a deep copy of the current document.
func (s *Store) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyDocument(s.doc)
}

func copyDocument(doc Document) Document {
	out := Document{
		TargetGroups: append([]int64(nil), doc.TargetGroups...),
		Keywords:     append([]string(nil), doc.Keywords...),
		IgnoreUsers:  append([]int64(nil), doc.IgnoreUsers...),
		Clients:      make(map[string][]int64, len(doc.Clients)),
	}
	for name, groups := range doc.Clients {
		out.Clients[name] = append([]int64(nil), groups...)
	}
	if doc.InactiveAccounts != nil {
		out.InactiveAccounts = make(map[string]InactiveAccount, len(doc.InactiveAccounts))
		for name, acc := range doc.InactiveAccounts {
			out.InactiveAccounts[name] = acc
		}
	}
	return out
}

// TargetGroups returns a copy of the configured target groups.
func (s *Store) TargetGroups() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int64(nil), s.doc.TargetGroups...)
}

// Keywords returns a copy of the configured keywords.
func (s *Store) Keywords() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.doc.Keywords...)
}

// IgnoreUsers returns a copy of the ignored user ids.
func (s *Store) IgnoreUsers() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int64(nil), s.doc.IgnoreUsers...)
}

// Clients returns a copy of the session name to known-groups map.
func (s *Store) Clients() map[string][]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]int64, len(s.doc.Clients))
	for name, groups := range s.doc.Clients {
		out[name] = append([]int64(nil), groups...)
	}
	return out
}

// InactiveAccounts returns a copy of the inactive account records.
func (s *Store) InactiveAccounts() map[string]InactiveAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]InactiveAccount, len(s.doc.InactiveAccounts))
	for name, acc := range s.doc.InactiveAccounts {
		out[name] = acc
	}
	return out
}

// HasClient reports whether a session name is present in the clients map.
func (s *Store) HasClient(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.doc.Clients[name]
	return ok
}
