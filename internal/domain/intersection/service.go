package intersection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/crossing/internal/repository"
	"golang.org/x/text/unicode/norm"
)

// Service is the intersection registry. It owns the ordered collection and
// writes the whole collection to the Store after every mutation.
type Service struct {
	store     Store
	logger    *slog.Logger
	now       func() time.Time
	listeners []ChangeListener

	mu     sync.RWMutex
	items  []Intersection
	lastID int64
}

// NewService creates a registry backed by store. Call Load before serving.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest defines intersection creation inputs.
type CreateRequest struct {
	Name         string
	ScheduleTime string
	Durations    DurationsInput
}

// UpdateRequest is a full replacement of an intersection's attributes.
type UpdateRequest struct {
	Name         string
	ScheduleTime string
	Durations    DurationsInput
}

// Load replaces the collection with the stored snapshot. A missing,
// unreadable or malformed snapshot yields an empty collection; the failure is
// only logged. It returns the number of records loaded.
func (s *Service) Load(ctx context.Context) int {
	items, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.logger.Info("no stored intersections, starting empty")
		items = nil
	case err != nil:
		s.logger.Warn("failed to load stored intersections, starting empty", "error", err)
		items = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]Intersection, 0, len(items))
	s.lastID = 0
	for _, item := range items {
		item.Durations = item.Durations.Restored()
		s.items = append(s.items, item)
		if item.ID > s.lastID {
			s.lastID = item.ID
		}
	}
	s.notify(ctx, Change{Kind: ChangeLoaded})
	return len(s.items)
}

// List returns a copy of the collection in insertion order.
func (s *Service) List() []Intersection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Get returns the record with the given id.
func (s *Service) Get(id int64) (Intersection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return Intersection{}, ErrIntersectionNotFound
}

// Create appends a new record. A blank name leaves the collection untouched
// and returns ErrEmptyName.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Intersection, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Intersection{}, ErrEmptyName
	}
	at, err := ParseScheduleTime(req.ScheduleTime)
	if err != nil {
		return Intersection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Intersection{
		ID:           s.nextID(),
		Name:         norm.NFC.String(name),
		ScheduleTime: at,
		Durations:    req.Durations.Coerce(),
	}
	s.items = append(s.items, rec)

	err = s.persist(ctx)
	s.notify(ctx, Change{Kind: ChangeCreated, Record: rec})
	return rec, err
}

// Update replaces the record with the given id wholesale. Durations are
// coerced to whole seconds >= 1 before the replacement.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Intersection, error) {
	at, err := ParseScheduleTime(req.ScheduleTime)
	if err != nil {
		return Intersection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Intersection{}, ErrIntersectionNotFound
	}

	rec := Intersection{
		ID:           id,
		Name:         norm.NFC.String(req.Name),
		ScheduleTime: at,
		Durations:    req.Durations.Coerce(),
	}
	s.items[i] = rec

	err = s.persist(ctx)
	s.notify(ctx, Change{Kind: ChangeUpdated, Record: rec})
	return rec, err
}

// Delete removes the record with the given id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrIntersectionNotFound
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)

	err := s.persist(ctx)
	s.notify(ctx, Change{Kind: ChangeDeleted, Record: removed})
	return err
}

func (s *Service) persist(ctx context.Context) error {
	if err := s.store.Save(ctx, s.snapshot()); err != nil {
		s.logger.Error("failed to save intersections", "error", err, "count", len(s.items))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, change Change) {
	if len(s.listeners) == 0 {
		return
	}
	change.All = s.snapshot()
	for _, l := range s.listeners {
		l.IntersectionsChanged(ctx, change)
	}
}

// nextID derives ids from the creation timestamp, bumping past the last
// issued id when two creations land in the same millisecond.
func (s *Service) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Service) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) snapshot() []Intersection {
	out := make([]Intersection, len(s.items))
	copy(out, s.items)
	return out
}
