package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/recorder"
)

// recordingResponse describes a recorder session after an action.
type recordingResponse struct {
	ID      string  `json:"id"`
	Step    string  `json:"step"`
	Prompt  string  `json:"prompt"`
	Elapsed float64 `json:"elapsed"`
	// ScheduleTime is the first click as HH:MM:SS; the creation flow uses it
	// as the new intersection's schedule time.
	ScheduleTime string                  `json:"scheduleTime,omitempty"`
	Partial      *intersection.Durations `json:"partial,omitempty"`
	Durations    *intersection.Durations `json:"durations,omitempty"`
	Done         bool                    `json:"done"`
}

func (s *Server) handleOpenRecording(w http.ResponseWriter, _ *http.Request) {
	sess := s.deps.Recordings.Open()
	step := sess.Recorder.Step()
	writeJSON(w, http.StatusCreated, recordingResponse{
		ID:     sess.ID,
		Step:   step.String(),
		Prompt: step.Prompt(),
	})
}

func (s *Server) handleRecordingStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.deps.Recordings.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	step := sess.Recorder.Step()
	writeJSON(w, http.StatusOK, recordingResponse{
		ID:      id,
		Step:    step.String(),
		Prompt:  step.Prompt(),
		Elapsed: recorder.RoundTenths(sess.Recorder.Elapsed()),
	})
}

func (s *Server) handleAdvanceRecording(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.deps.Recordings.Advance(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := recordingResponse{
		ID:     id,
		Step:   p.Step.String(),
		Prompt: p.Step.Prompt(),
		Done:   p.Done(),
	}
	if !p.StartedAt.IsZero() {
		resp.ScheduleTime = intersection.ScheduleTimeOf(p.StartedAt).String()
	}
	if p.Done() {
		resp.Durations = p.Result
	} else {
		partial := p.Partial
		resp.Partial = &partial
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Recordings.Cancel(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
