package recorder

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL bounds how long an abandoned recording is kept.
const DefaultSessionTTL = 15 * time.Minute

// Session is a recorder opened on behalf of a remote client.
type Session struct {
	ID        string
	Recorder  *Recorder
	CreatedAt time.Time
}

// Book keeps the open recording sessions. Completed and cancelled sessions are
// dropped immediately; abandoned ones expire after the TTL.
type Book struct {
	now func() time.Time
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewBook creates an empty book. A nil clock selects time.Now and a
// non-positive ttl selects DefaultSessionTTL.
func NewBook(now func() time.Time, ttl time.Duration) *Book {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Book{now: now, ttl: ttl, sessions: make(map[string]*Session)}
}

// Open starts a new session waiting for its first click.
func (b *Book) Open(opts ...Option) *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()

	opts = append([]Option{WithClock(b.now)}, opts...)
	s := &Session{
		ID:        uuid.NewString(),
		Recorder:  New(opts...),
		CreatedAt: b.now(),
	}
	b.sessions[s.ID] = s
	return s
}

// Get returns an open session.
func (b *Book) Get(id string) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()

	s, ok := b.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Advance clicks the session's recorder, dropping the session once the
// capture completes.
func (b *Book) Advance(id string) (Progress, error) {
	s, err := b.Get(id)
	if err != nil {
		return Progress{}, err
	}
	p, err := s.Recorder.Advance()
	if err != nil {
		b.remove(id)
		return Progress{}, err
	}
	if p.Done() {
		b.remove(id)
	}
	return p, nil
}

// Cancel abandons and drops the session.
func (b *Book) Cancel(id string) error {
	s, err := b.Get(id)
	if err != nil {
		return err
	}
	b.remove(id)
	return s.Recorder.Cancel()
}

// Len returns the number of open sessions.
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

func (b *Book) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, id)
}

func (b *Book) pruneLocked() {
	cutoff := b.now().Add(-b.ttl)
	for id, s := range b.sessions {
		if s.CreatedAt.Before(cutoff) {
			_ = s.Recorder.Cancel()
			delete(b.sessions, id)
		}
	}
}
