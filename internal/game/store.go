package game

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/amoylab/cryptogrammer/internal/common/cnst"
)

const (
	defaultIDDigits      = 6
	defaultMaxIDAttempts = 32
)

// Store maps session ids to sessions. It performs no locking; callers
// serialize access through Registry.
type Store struct {
	sessions    map[string]*Session
	now         func() time.Time
	nextID      func() string
	maxAttempts int
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock overrides the time source used for LastActivity
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDDigits draws ids uniformly from [0, 10^digits)
func WithIDDigits(digits int) StoreOption {
	return func(s *Store) {
		if digits > 0 {
			s.nextID = randomID(digits)
		}
	}
}

// WithIDGenerator replaces the id source entirely
func WithIDGenerator(next func() string) StoreOption {
	return func(s *Store) {
		if next != nil {
			s.nextID = next
		}
	}
}

// WithMaxIDAttempts bounds how many candidate ids Create tries
func WithMaxIDAttempts(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewStore creates an empty store
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions:    make(map[string]*Session),
		now:         time.Now,
		nextID:      randomID(defaultIDDigits),
		maxAttempts: defaultMaxIDAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomID(digits int) func() string {
	limit := 1
	for range digits {
		limit *= 10
	}
	return func() string {
		return strconv.Itoa(rand.IntN(limit))
	}
}

// Create allocates a session with default content. A candidate id is
// rejected when it is live or when reserved reports it still in use.
func (s *Store) Create(reserved func(id string) bool) (string, Session, error) {
	for range s.maxAttempts {
		id := s.nextID()
		if _, ok := s.sessions[id]; ok {
			continue
		}
		if reserved != nil && reserved(id) {
			continue
		}
		sess := newSession(id, s.now())
		s.sessions[id] = sess
		return id, sess.Clone(), nil
	}
	return "", Session{}, fmt.Errorf("after %d attempts: %w", s.maxAttempts, cnst.ErrIDSpaceExhausted)
}

// Get returns a copy of the session
func (s *Store) Get(id string) (Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, notFound(id)
	}
	return sess.Clone(), nil
}

// Touch marks the session as active now
func (s *Store) Touch(id string) error {
	sess, ok := s.sessions[id]
	if !ok {
		return notFound(id)
	}
	sess.LastActivity = s.now()
	return nil
}

// SetInputSentence replaces the puzzle text
func (s *Store) SetInputSentence(id, text string) (Session, error) {
	return s.mutate(id, func(sess *Session) {
		sess.InputSentence = text
	})
}

// SetColors replaces both display colors
func (s *Store) SetColors(id string, origColor, modColor Color) (Session, error) {
	return s.mutate(id, func(sess *Session) {
		sess.OrigColor = bytes.Clone(origColor)
		sess.ModColor = bytes.Clone(modColor)
	})
}

// SetModifications replaces the substitution list wholesale, keeping order
func (s *Store) SetModifications(id string, list []Modification) (Session, error) {
	return s.mutate(id, func(sess *Session) {
		sess.Modifications = cloneModifications(list)
	})
}

func (s *Store) mutate(id string, fn func(*Session)) (Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, notFound(id)
	}
	fn(sess)
	sess.LastActivity = s.now()
	return sess.Clone(), nil
}

// Evict removes the session and returns its final state
func (s *Store) Evict(id string) (Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, notFound(id)
	}
	delete(s.sessions, id)
	return sess.Clone(), nil
}

// List returns copies of all sessions ordered by id
func (s *Store) List() []Session {
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	slices.SortFunc(out, func(a, b Session) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// IdleSince returns the ids of sessions idle for longer than timeout
func (s *Store) IdleSince(timeout time.Duration) []string {
	now := s.now()
	var ids []string
	for id, sess := range s.sessions {
		if sess.IdleFor(now) > timeout {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	return len(s.sessions)
}

func notFound(id string) error {
	return fmt.Errorf("session %q: %w", id, cnst.ErrSessionNotFound)
}
