// Package prefs keeps each user's preferred translation language.
package prefs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hororrklama-coder/DiscTransla/internal/catalog"
)

// Backing persists user → language entries. Several processes may share
// one backing, so writes touch a single entry and reads see the stored
// state, not a copy taken at startup.
type Backing interface {
	// Load returns every stored entry. A missing document is an empty mapping.
	Load(ctx context.Context) (map[string]string, error)
	// Lookup returns the stored language for userID.
	Lookup(ctx context.Context, userID string) (code string, ok bool, err error)
	// Put records code for userID, leaving other entries untouched.
	Put(ctx context.Context, userID, code string) error
}

// Store maps user IDs to language codes. Reads go to the backing; the
// last values seen are kept to answer while the backing is unreachable.
type Store struct {
	mu          sync.RWMutex
	seen        map[string]string
	backing     Backing
	languages   *catalog.Catalog
	defaultLang string
	logger      *slog.Logger
}

// Open loads the mapping from backing. A backing that cannot be read
// yields an empty store; the failure is logged, not returned.
func Open(ctx context.Context, backing Backing, defaultLang string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	prefs, err := backing.Load(ctx)
	if err != nil {
		logger.Warn("could not load user languages, starting empty", "error", err)
		prefs = nil
	}

	logger.Info("user languages loaded", "users", len(prefs))

	return &Store{
		seen:        normalized(prefs),
		backing:     backing,
		languages:   catalog.New(),
		defaultLang: catalog.Normalize(defaultLang),
		logger:      logger,
	}
}

// Get returns the user's language, or the default language when none is set.
func (s *Store) Get(ctx context.Context, userID string) string {
	code, ok, err := s.backing.Lookup(ctx, userID)
	if err != nil {
		s.logger.Warn("could not read user language, using last known value", "user", userID, "error", err)
		s.mu.RLock()
		code, ok = s.seen[userID]
		s.mu.RUnlock()
	} else if ok {
		code = catalog.Normalize(code)
		s.mu.Lock()
		s.seen[userID] = code
		s.mu.Unlock()
	}

	if !ok || code == "" {
		return s.defaultLang
	}
	return code
}

// Set records code for userID and persists it before returning. It
// returns false for codes outside the catalog and when the entry could
// not be saved, in which case nothing changes.
func (s *Store) Set(ctx context.Context, userID, code string) bool {
	if !s.languages.IsSupported(code) {
		return false
	}
	code = catalog.Normalize(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backing.Put(ctx, userID, code); err != nil {
		s.logger.Error("failed to save user language", "user", userID, "language", code, "error", err)
		return false
	}

	s.seen[userID] = code
	return true
}

// Count returns the number of users with a recorded language.
func (s *Store) Count(ctx context.Context) int {
	prefs, err := s.backing.Load(ctx)
	if err != nil {
		s.logger.Warn("could not count user languages, using last known count", "error", err)
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.seen)
	}

	s.mu.Lock()
	s.seen = normalized(prefs)
	s.mu.Unlock()
	return len(prefs)
}

func normalized(prefs map[string]string) map[string]string {
	out := make(map[string]string, len(prefs))
	for user, code := range prefs {
		out[user] = catalog.Normalize(code)
	}
	return out
}
