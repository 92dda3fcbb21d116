package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/events"
)

const sseHeartbeat = 25 * time.Second

type changeSubscriber interface {
	Subscribe(ownerID string) (<-chan events.Change, func())
}

// EventsHandler streams the session owner's changes as server-sent events.
// The page only needs to know that something changed, so every change is the
// same "changed" event.
type EventsHandler struct {
	hub       changeSubscriber
	heartbeat time.Duration
}

func NewEventsHandler(hub changeSubscriber) *EventsHandler {
	return &EventsHandler{hub: hub, heartbeat: sseHeartbeat}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	err := rc.Flush()
	if err != nil {
		slog.Error("event stream cannot flush", "error", err, "user_id", user.ID)
		return
	}

	changes, unsubscribe := h.hub.Subscribe(user.ID)
	defer unsubscribe()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			_, err = fmt.Fprintf(w, "event: changed\ndata: %s\n\n", change.RoutingKey())
		case <-ticker.C:
			_, err = fmt.Fprint(w, ": ping\n\n")
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			slog.Debug("event stream closed", "error", err, "user_id", user.ID)
			return
		}
	}
}
