package session

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"testagent/internal/events"
	"testagent/pkg/logging"
	"testagent/pkg/models"

	"golang.org/x/oauth2"
)

// Storage keys. They match the keys the web dashboard used in local storage so
// a session directory can be inspected with the same mental model.
const (
	KeyToken       = "auth_token"
	KeyTokenExpiry = "auth_token_expiry"
	KeyUser        = "user"
	KeyProject     = "project"
)

const subsystem = "Session"

// Store is the persisted session: the authenticated user, the current project
// and the bearer token.
//
// Every mutation writes through to Storage before returning. Values are
// hydrated once in New (and again on Reload); absent or malformed entries
// hydrate to nil instead of failing.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	user    *models.UserProfile
	project *models.Project
	token   *oauth2.Token

	logout events.Bus[events.LogoutEvent]
}

// New hydrates a Store from storage.
func New(storage Storage) *Store {
	s := &Store{storage: storage}
	s.hydrate()
	return s
}

// Reload re-reads every key from storage, discarding in-memory state.
func (s *Store) Reload() {
	s.hydrate()
}

func (s *Store) hydrate() {
	user := readJSON[models.UserProfile](s.storage, KeyUser)
	project := readJSON[models.Project](s.storage, KeyProject)
	token := readToken(s.storage)

	s.mu.Lock()
	s.user, s.project, s.token = user, project, token
	s.mu.Unlock()
}

func readJSON[T any](storage Storage, key string) *T {
	data, ok, err := storage.Get(key)
	if err != nil {
		logging.Warn(subsystem, "Ignoring unreadable %s: %v", key, err)
		return nil
	}
	if !ok || len(strings.TrimSpace(string(data))) == 0 || strings.TrimSpace(string(data)) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		logging.Warn(subsystem, "Ignoring malformed %s: %v", key, err)
		return nil
	}
	return &v
}

func readToken(storage Storage) *oauth2.Token {
	data, ok, err := storage.Get(KeyToken)
	if err != nil {
		logging.Warn(subsystem, "Ignoring unreadable %s: %v", KeyToken, err)
		return nil
	}
	access := strings.TrimSpace(string(data))
	if !ok || access == "" {
		return nil
	}
	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}

	if raw, ok, _ := storage.Get(KeyTokenExpiry); ok {
		if exp, err := time.Parse(time.RFC3339, strings.TrimSpace(string(raw))); err == nil {
			tok.Expiry = exp
		}
	}
	return tok
}

// User returns a copy of the authenticated user, or nil.
func (s *Store) User() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SetUser persists u. A nil u removes the stored user.
func (s *Store) SetUser(u *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSON(s.storage, KeyUser, u); err != nil {
		return err
	}
	if u == nil {
		s.user = nil
	} else {
		cp := *u
		s.user = &cp
	}
	logging.Debug(subsystem, "SESSION_AUDIT: %s updated", KeyUser)
	return nil
}

// Project returns a copy of the current project, or nil.
func (s *Store) Project() *models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.project == nil {
		return nil
	}
	p := *s.project
	return &p
}

// SetProject persists p as the current project. A nil p clears it.
func (s *Store) SetProject(p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSON(s.storage, KeyProject, p); err != nil {
		return err
	}
	if p == nil {
		s.project = nil
	} else {
		cp := *p
		s.project = &cp
	}
	logging.Debug(subsystem, "SESSION_AUDIT: %s updated", KeyProject)
	return nil
}

// Token returns the stored bearer token, or nil when not authenticated.
func (s *Store) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil
	}
	t := *s.token
	return &t
}

// SetToken persists the bearer token. A nil or empty token is equivalent to
// removing it. The token value itself is never logged.
func (s *Store) SetToken(t *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t == nil || t.AccessToken == "" {
		if err := s.removeTokenLocked(); err != nil {
			return err
		}
		return nil
	}

	if err := s.storage.Set(KeyToken, []byte(t.AccessToken)); err != nil {
		return err
	}
	if t.Expiry.IsZero() {
		if err := s.storage.Remove(KeyTokenExpiry); err != nil {
			return err
		}
	} else if err := s.storage.Set(KeyTokenExpiry, []byte(t.Expiry.UTC().Format(time.RFC3339))); err != nil {
		return err
	}

	cp := *t
	if cp.TokenType == "" {
		cp.TokenType = "Bearer"
	}
	s.token = &cp
	logging.Debug(subsystem, "SESSION_AUDIT: %s updated", KeyToken)
	return nil
}

func (s *Store) removeTokenLocked() error {
	err := errors.Join(s.storage.Remove(KeyToken), s.storage.Remove(KeyTokenExpiry))
	s.token = nil
	return err
}

// Authenticated reports whether a bearer token is stored.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != nil
}

// Logout purges the token and the user and broadcasts a LogoutEvent to every
// subscriber. The current project is kept so the next login resumes where the
// user left off. Storage errors are returned after the event was published.
//
// An unauthorized logout publishes only while a token is held, so a burst of
// 401s from concurrent requests signed with the same token yields one event.
func (s *Store) Logout(reason events.LogoutReason) error {
	s.mu.Lock()
	hadToken := s.token != nil
	err := errors.Join(s.removeTokenLocked(), s.storage.Remove(KeyUser))
	s.user = nil
	s.mu.Unlock()

	if reason == events.LogoutUnauthorized && !hadToken {
		logging.Debug(subsystem, "SESSION_AUDIT: credentials already purged (reason=%s)", reason)
		return err
	}
	logging.Info(subsystem, "SESSION_AUDIT: credentials purged (reason=%s)", reason)
	s.logout.Publish(events.LogoutEvent{Reason: reason, At: time.Now()})
	return err
}

// Clear removes every session key, including the current project. No event
// is published; callers that end an authenticated session use Logout.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := errors.Join(
		s.removeTokenLocked(),
		s.storage.Remove(KeyUser),
		s.storage.Remove(KeyProject),
	)
	s.user = nil
	s.project = nil
	logging.Debug(subsystem, "SESSION_AUDIT: session cleared")
	return err
}

// OnLogout registers fn for logout events and returns the unsubscribe func.
func (s *Store) OnLogout(fn func(events.LogoutEvent)) func() {
	return s.logout.Subscribe(fn)
}

func writeJSON(storage Storage, key string, v any) error {
	if isNil(v) {
		return storage.Remove(key)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return storage.Set(key, data)
}

func isNil(v any) bool {
	switch p := v.(type) {
	case nil:
		return true
	case *models.UserProfile:
		return p == nil
	case *models.Project:
		return p == nil
	default:
		return false
	}
}
