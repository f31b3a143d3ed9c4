// Package local persists preferences on the device across two redundant
// substrates: a durable JSON blob, preferred for reads, and mirrored cookie
// entries that serve as a fallback when the blob is missing or unreadable.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PavelPerna/prefsync/pkg/prefs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// blobFileName is the durable substrate: the full preference map as one
	// JSON document.
	blobFileName = "preferences.json"

	// cookieFileName mirrors the individual cookie entries.
	cookieFileName = "cookies"

	// Cookie attributes for the mirrored entries.
	cookieMaxAge = 365 * 24 * time.Hour
	cookiePath   = "/"

	cookieLanguage = "language"
	cookieDarkMode = "dark_mode"
)

// Store implements prefs.Source over the local substrates.  A write is
// total: it always updates the durable blob and both cookie entries in the
// same call, and never partially.  Substrate failures are logged, not
// returned; local persistence must stay usable as the last fallback.
type Store struct {
	mu         sync.Mutex
	dir        string
	blobPath   string
	cookiePath string
	lastWrite  [sha256.Size]byte
	wroteOnce  bool
	slog       zerolog.Logger
}

var _ prefs.Source = &Store{}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, fmt.Errorf("creating local store dir %q: %w", dir, err)
	}
	return &Store{
		dir:        dir,
		blobPath:   filepath.Join(dir, blobFileName),
		cookiePath: filepath.Join(dir, cookieFileName),
		slog:       log.With().Str("module", "local").Str("path", dir).Logger(),
	}, nil
}

// BlobPath returns the path of the durable substrate file, for change
// watchers.
func (s *Store) BlobPath() string {
	return s.blobPath
}

// Read returns the stored preference map.  The durable blob wins as-is when
// parseable; it was produced by this store and is assumed complete.
// Otherwise the cookie entries are merged onto the defaults.  Read never
// fails.
func (s *Store) Read(_ context.Context) (prefs.Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data, err := os.ReadFile(s.blobPath); err == nil {
		var m prefs.Map
		if err := json.Unmarshal(data, &m); err == nil && m != nil {
			return m, nil
		}
		s.slog.Warn().Msg("Durable substrate unreadable, falling back to cookies")
	}

	return s.readCookies(), nil
}

// Write persists m to both substrates and echoes it back.  The cookie write
// is unconditional, even when the blob write fails.
func (s *Store) Write(_ context.Context, m prefs.Map) (prefs.Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data, err := json.Marshal(m); err != nil {
		s.slog.Error().Err(err).Msg("Failed to encode preference blob")
	} else if err := s.writeBlob(data); err != nil {
		s.slog.Error().Err(err).Msg("Failed to write preference blob")
	}

	if err := s.writeCookies(m); err != nil {
		s.slog.Error().Err(err).Msg("Failed to write cookie entries")
	}

	return m, nil
}

// Owns reports whether data matches the most recent write made through this
// store.  Change watchers use it to suppress events for self-originated
// writes.
func (s *Store) Owns(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wroteOnce && s.lastWrite == sha256.Sum256(data)
}

// writeBlob stores the serialized map atomically via temp file and rename.
func (s *Store) writeBlob(data []byte) error {
	tmp, err := os.CreateTemp(s.dir, blobFileName+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.blobPath); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	s.lastWrite = sha256.Sum256(data)
	s.wroteOnce = true
	return nil
}

// writeCookies mirrors the language and darkMode values as Set-Cookie
// entries, one per line.
func (s *Store) writeCookies(m prefs.Map) error {
	expires := time.Now().Add(cookieMaxAge)
	cookies := []*http.Cookie{
		{
			Name:     cookieLanguage,
			Value:    m.Language(),
			Expires:  expires,
			Path:     cookiePath,
			SameSite: http.SameSiteLaxMode,
		},
		{
			Name:     cookieDarkMode,
			Value:    strconv.FormatBool(m.DarkMode()),
			Expires:  expires,
			Path:     cookiePath,
			SameSite: http.SameSiteLaxMode,
		},
	}
	data := ""
	for _, c := range cookies {
		data += c.String() + "\n"
	}
	return os.WriteFile(s.cookiePath, []byte(data), 0660)
}

// readCookies merges any present, unexpired cookie values onto the
// defaults.
func (s *Store) readCookies() prefs.Map {
	m := prefs.Defaults()
	data, err := os.ReadFile(s.cookiePath)
	if err != nil {
		return m
	}
	for _, line := range strings.Split(string(data), "\n") {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		if !c.Expires.IsZero() && c.Expires.Before(time.Now()) {
			continue
		}
		switch c.Name {
		case cookieLanguage:
			m[prefs.KeyLanguage] = prefs.SanitizeLanguage(c.Value)
		case cookieDarkMode:
			m[prefs.KeyDarkMode] = c.Value == "true"
		}
	}
	return m
}
