// Package transport serves the dashboard HTTP API.
package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rpggio/crossing/internal/domain/activity"
	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/recorder"
	"github.com/rpggio/crossing/internal/domain/schedule"
	"github.com/rpggio/crossing/internal/geolocate"
	"github.com/rpggio/crossing/internal/scheduler"
)

// Registry is the intersection registry.
type Registry interface {
	List() []intersection.Intersection
	Get(id int64) (intersection.Intersection, error)
	Create(ctx context.Context, req intersection.CreateRequest) (intersection.Intersection, error)
	Update(ctx context.Context, id int64, req intersection.UpdateRequest) (intersection.Intersection, error)
	Delete(ctx context.Context, id int64) error
}

// Signals exposes the running schedulers.
type Signals interface {
	Snapshot(id int64) (scheduler.Snapshot, error)
	Subscribe(id int64) (<-chan scheduler.Snapshot, func(), error)
}

// Recordings is the book of open recorder sessions.
type Recordings interface {
	Open(opts ...recorder.Option) *recorder.Session
	Get(id string) (*recorder.Session, error)
	Advance(id string) (recorder.Progress, error)
	Cancel(id string) error
}

// Locator resolves device positions to labels.
type Locator interface {
	Resolve(ctx context.Context, src geolocate.PositionSource) <-chan geolocate.Outcome
}

// ActivityLister reads the activity log.
type ActivityLister interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Deps are the services behind the API. MCP, when set, is mounted at /mcp.
// Refresh paces recorder readout streams.
type Deps struct {
	Registry   Registry
	Signals    Signals
	Recordings Recordings
	Locator    Locator
	Activity   ActivityLister
	MCP        http.Handler
	Window     time.Duration
	Refresh    time.Duration
	Now        func() time.Time
	Logger     *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	deps Deps
}

// NewServer creates an HTTP server router with middleware. The health check
// is never behind authMiddleware.
func NewServer(deps Deps, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Window <= 0 {
		deps.Window = schedule.DefaultWindow
	}
	if deps.Refresh <= 0 {
		deps.Refresh = recorder.DefaultRefresh
	}
	srv := &Server{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(deps.Logger))

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Route("/api/intersections", func(r chi.Router) {
			r.Get("/", srv.handleList)
			r.Post("/", srv.handleCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", srv.handleUpdate)
				r.Delete("/", srv.handleDelete)
				r.Get("/status", srv.handleStatus)
				r.Get("/events", srv.handleEvents)
			})
		})
		r.Get("/api/schedule/window", srv.handleWindow)

		r.Route("/api/recordings", func(r chi.Router) {
			r.Post("/", srv.handleOpenRecording)
			r.Get("/{id}", srv.handleRecordingStatus)
			r.Get("/{id}/readout", srv.handleRecordingReadout)
			r.Post("/{id}/advance", srv.handleAdvanceRecording)
			r.Delete("/{id}", srv.handleCancelRecording)
		})

		r.Post("/api/locate", srv.handleLocate)
		r.Get("/api/activity", srv.handleActivity)

		if deps.MCP != nil {
			r.Handle("/mcp", deps.MCP)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// intersectionBody is the editor form.
type intersectionBody struct {
	Name         string                      `json:"name"`
	ScheduleTime string                      `json:"scheduleTime"`
	Durations    intersection.DurationsInput `json:"durations"`
}

// intersectionView is a record together with its live signal state.
type intersectionView struct {
	intersection.Intersection
	Status *scheduler.Snapshot `json:"status,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	items := s.deps.Registry.List()
	out := make([]intersectionView, 0, len(items))
	for _, rec := range items {
		out = append(out, s.view(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body intersectionBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	rec, err := s.deps.Registry.Create(r.Context(), intersection.CreateRequest{
		Name:         body.Name,
		ScheduleTime: body.ScheduleTime,
		Durations:    body.Durations,
	})
	if err != nil {
		if rec.ID != 0 {
			s.deps.Logger.Warn("intersection created but not saved", "error", err, "intersection_id", rec.ID)
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body intersectionBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	rec, err := s.deps.Registry.Update(r.Context(), id, intersection.UpdateRequest{
		Name:         body.Name,
		ScheduleTime: body.ScheduleTime,
		Durations:    body.Durations,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Registry.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.deps.Registry.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(rec).Status)
}

type windowResponse struct {
	Time   string `json:"time"`
	Window string `json:"window"`
	Within bool   `json:"within"`
	Now    string `json:"now"`
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	at, err := intersection.ParseScheduleTime(r.URL.Query().Get("time"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	now := s.deps.Now()
	writeJSON(w, http.StatusOK, windowResponse{
		Time:   at.String(),
		Window: schedule.FormatWindow(at, s.deps.Window),
		Within: schedule.Within(at, now, s.deps.Window),
		Now:    now.Format(time.TimeOnly),
	})
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	var report geolocate.DeviceReport
	if err := decodeJSON(r, &report); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	outcomes := geolocate.Collect(s.deps.Locator.Resolve(r.Context(), report))
	writeJSON(w, http.StatusOK, outcomes)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var opts activity.ListOptions
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_input", "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}
	if v := q.Get("intersection_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "intersection_id must be an integer")
			return
		}
		opts.IntersectionID = &id
	}
	entries, err := s.deps.Activity.GetRecentActivity(r.Context(), opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// view attaches the live signal state, falling back to a standby snapshot
// when no signal runs for rec.
func (s *Server) view(rec intersection.Intersection) intersectionView {
	snap, err := s.deps.Signals.Snapshot(rec.ID)
	if err != nil {
		if !errors.Is(err, scheduler.ErrUnknownSignal) {
			s.deps.Logger.Warn("failed to read signal", "error", err, "intersection_id", rec.ID)
		}
		snap = scheduler.NewSignal(rec, s.deps.Window).Snapshot()
	}
	return intersectionView{Intersection: rec, Status: &snap}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be an integer")
		return 0, false
	}
	return id, true
}
