package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// sseKeepAlive is how often an idle stream gets a comment line.
const sseKeepAlive = 15 * time.Second

// handleEvents streams the intersection's snapshots as Server-Sent Events
// until the client disconnects or the signal goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.deps.Registry.Get(id); err != nil {
		writeDomainError(w, err)
		return
	}
	ch, unsubscribe, err := s.deps.Signals.Subscribe(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer unsubscribe()
	streamEvents(s, w, r, "snapshot", ch)
}

// readoutFrame is one tick of a recorder's elapsed display.
type readoutFrame struct {
	Step    string  `json:"step"`
	Elapsed float64 `json:"elapsed"`
}

// handleRecordingReadout streams the running step's elapsed seconds every
// refresh interval until the recording finishes.
func (s *Server) handleRecordingReadout(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Recordings.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	readout := sess.Recorder.Readout(r.Context(), s.deps.Refresh)
	frames := make(chan readoutFrame)
	go func() {
		defer close(frames)
		for v := range readout {
			select {
			case frames <- readoutFrame{Step: sess.Recorder.Step().String(), Elapsed: v}:
			case <-r.Context().Done():
				return
			}
		}
	}()
	streamEvents(s, w, r, "readout", frames)
}

// streamEvents writes every value from ch as an SSE frame named event. It
// returns when ch closes or the client goes away.
func streamEvents[T any](s *Server, w http.ResponseWriter, r *http.Request, event string, ch <-chan T) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.deps.Logger.Warn("event stream not flushable", "error", err)
		return
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case v, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(v)
			if err != nil {
				s.deps.Logger.Error("failed to encode event", "error", err, "event", event)
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
