package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"taskboard/internal/application/projections"
	"taskboard/internal/domain/project"
)

// boardEvent is pushed to stream clients after every board change.
type boardEvent struct {
	Active   template.HTML            `json:"active"`
	Finished template.HTML            `json:"finished"`
	Counts   map[project.Status]int   `json:"counts"`
	Summary  projections.BoardSummary `json:"summary"`
}

func (s *Server) currentEvent(r *http.Request) (boardEvent, error) {
	summary, err := projections.QueryBoardSummary(r.Context(), projections.GetBoardSummaryDeps{Board: s.board})
	if err != nil {
		return boardEvent{}, err
	}
	active, finished := s.lists[project.StatusActive], s.lists[project.StatusFinished]
	return boardEvent{
		Active:   active.HTML(),
		Finished: finished.HTML(),
		Counts: map[project.Status]int{
			project.StatusActive:   active.Count(),
			project.StatusFinished: finished.Count(),
		},
		Summary: summary,
	}, nil
}

// handleEvents handles GET /events
// Streams Server-Sent Events: one "board" event on connect, then one per board change.
// PRE: client accepts text/event-stream
// POST: The board subscription is removed when the client disconnects
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The listener runs under the board lock, so it only signals. List views subscribed
	// earlier have already rebuilt by the time this goroutine reads them.
	changed := make(chan struct{}, 1)
	unsubscribe := s.board.Subscribe(func([]project.Project) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	fmt.Fprintf(w, ": connected\n\n")
	if err := s.pushEvent(w, r); err != nil {
		slog.Debug("stream_event", "event", "write_failed", "error", err.Error())
		return
	}
	flusher.Flush()
	slog.Debug("stream_event", "event", "client_connected", "subscribers", s.board.Subscribers())

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("stream_event", "event", "client_disconnected")
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-changed:
			if err := s.pushEvent(w, r); err != nil {
				slog.Debug("stream_event", "event", "write_failed", "error", err.Error())
				return
			}
			flusher.Flush()
		}
	}
}

// pushEvent writes one "board" event with the current lists and summary.
func (s *Server) pushEvent(w http.ResponseWriter, r *http.Request) error {
	ev, err := s.currentEvent(r)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: board\ndata: %s\n\n", data)
	return err
}
