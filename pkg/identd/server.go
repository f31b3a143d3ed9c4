// Package identd implements a development stand-in for the platform
// identity service: cookie-based sessions plus per-user preference storage,
// with a websocket feed of preference updates.  It backs cmd/prefsyncd and
// the client integration tests; production deployments talk to the real
// identity microservice instead.
package identd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PavelPerna/prefsync/pkg/config"
	"github.com/PavelPerna/prefsync/pkg/notify"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const sessionCookie = "identd_session"

// Update describes a stored preference change, relayed to monitor clients.
type Update struct {
	User        string         `json:"user"`
	Preferences map[string]any `json:"preferences"`
}

// account holds one seeded user and its wire-format preference record.
type account struct {
	password string
	prefs    map[string]any
}

// Server is the in-memory identity service.
type Server struct {
	mu       sync.Mutex
	accounts map[string]*account
	sessions map[string]string // session token to username
	hub      *notify.Hub[Update]
	router   *mux.Router
	maxIdle  time.Duration
	addr     string
	slog     zerolog.Logger
}

// New creates a Server with the given seed accounts.  hub receives an
// Update for every stored preference write; it may be nil.
func New(cfg config.Daemon, hub *notify.Hub[Update]) *Server {
	s := &Server{
		accounts: make(map[string]*account),
		sessions: make(map[string]string),
		hub:      hub,
		maxIdle:  cfg.MaxIdle,
		addr:     cfg.Addr,
		slog:     log.With().Str("module", "identd").Logger(),
	}
	for user, pass := range ParseUsers(cfg.Users) {
		s.accounts[user] = &account{password: pass, prefs: map[string]any{}}
	}

	r := mux.NewRouter()
	r.Path("/api/v1/session").Handler(
		handler(s.sessionShow)).Name("SessionShow").Methods("GET")
	r.Path("/api/v1/session").Handler(
		handler(s.sessionCreate)).Name("SessionCreate").Methods("POST")
	r.Path("/api/v1/session").Handler(
		handler(s.sessionDelete)).Name("SessionDelete").Methods("DELETE")
	r.Path("/api/v1/users/{name}/preferences").Handler(
		handler(s.preferencesShow)).Name("PreferencesShow").Methods("GET")
	r.Path("/api/v1/users/{name}/preferences").Handler(
		handler(s.preferencesUpdate)).Name("PreferencesUpdate").Methods("PUT")
	r.Path("/api/v1/monitor/preferences").Handler(
		handler(s.monitorPreferences)).Name("MonitorPreferences").Methods("GET")
	s.router = r

	return s
}

// ParseUsers splits a comma separated list of user:pass pairs.
func ParseUsers(spec string) map[string]string {
	users := make(map[string]string)
	for _, pair := range strings.Split(spec, ",") {
		user, pass, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if ok && user != "" {
			users[user] = pass
		}
	}
	return users
}

// Router exposes the HTTP routes, for tests and embedding.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start begins listening for HTTP requests until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.maxIdle,
		WriteTimeout: s.maxIdle,
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.slog.Info().Str("addr", s.addr).Msg("Identity daemon listening")
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()
	err = srv.Serve(listener)
	select {
	case <-ctx.Done():
		return nil
	default:
		return err
	}
}

// handler adapts error-returning route functions, reporting failures as 500.
type handler func(http.ResponseWriter, *http.Request) error

func (h handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if err := h(w, req); err != nil {
		log.Error().Str("module", "identd").Str("uri", req.RequestURI).Err(err).
			Msg("Request failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// sessionUser resolves the session cookie to a username, "" if anonymous.
func (s *Server) sessionUser(req *http.Request) string {
	c, err := req.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[c.Value]
}

// sessionShow answers the session oracle: an empty object for anonymous
// contexts, the user object otherwise.  Always 200; clients treat the empty
// object as unauthenticated.
func (s *Server) sessionShow(w http.ResponseWriter, req *http.Request) error {
	body := map[string]any{}
	if user := s.sessionUser(req); user != "" {
		body["username"] = user
	}
	return writeJSON(w, http.StatusOK, body)
}

// sessionCreate logs a seeded account in and sets the session cookie.
func (s *Server) sessionCreate(w http.ResponseWriter, req *http.Request) error {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&creds); err != nil {
		http.Error(w, "malformed credentials", http.StatusBadRequest)
		return nil
	}
	s.mu.Lock()
	acct := s.accounts[creds.Username]
	if acct == nil || acct.password != creds.Password {
		s.mu.Unlock()
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return nil
	}
	token := newToken()
	s.sessions[token] = creds.Username
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return writeJSON(w, http.StatusOK, map[string]any{"username": creds.Username})
}

// sessionDelete logs the current session out.
func (s *Server) sessionDelete(w http.ResponseWriter, req *http.Request) error {
	if c, err := req.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// preferencesShow returns the stored wire-format preference record for the
// session's own user.
func (s *Server) preferencesShow(w http.ResponseWriter, req *http.Request) error {
	name := mux.Vars(req)["name"]
	if s.sessionUser(req) != name {
		http.Error(w, "not authorized for user", http.StatusForbidden)
		return nil
	}
	s.mu.Lock()
	record := cloneRecord(s.accounts[name].prefs)
	s.mu.Unlock()
	return writeJSON(w, http.StatusOK, record)
}

// preferencesUpdate replaces the stored record, echoes the canonical result,
// and relays it to monitor clients.
func (s *Server) preferencesUpdate(w http.ResponseWriter, req *http.Request) error {
	name := mux.Vars(req)["name"]
	if s.sessionUser(req) != name {
		http.Error(w, "not authorized for user", http.StatusForbidden)
		return nil
	}
	var record map[string]any
	if err := json.NewDecoder(req.Body).Decode(&record); err != nil {
		http.Error(w, "malformed preference record", http.StatusBadRequest)
		return nil
	}
	s.mu.Lock()
	s.accounts[name].prefs = record
	echo := cloneRecord(record)
	s.mu.Unlock()

	if s.hub != nil {
		s.hub.Dispatch(Update{User: name, Preferences: echo})
	}
	return writeJSON(w, http.StatusOK, echo)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func cloneRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
