package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/events"
)

type fakeHub struct {
	owner        string
	changes      chan events.Change
	unsubscribed bool
}

func (h *fakeHub) Subscribe(ownerID string) (<-chan events.Change, func()) {
	h.owner = ownerID
	return h.changes, func() { h.unsubscribed = true }
}

func TestStreamSendsChanges(t *testing.T) {
	f := newFixture(t)
	hub := &fakeHub{changes: make(chan events.Change, 2)}
	hub.changes <- events.Change{OwnerID: f.user.ID, Entity: events.EntityLead, EntityID: 1, Op: events.OpCreated}
	hub.changes <- events.Change{OwnerID: f.user.ID, Entity: events.EntityTask, EntityID: 2, Op: events.OpDeleted}
	close(hub.changes)

	h := NewEventsHandler(hub)
	w := httptest.NewRecorder()
	h.Stream(w, f.request(http.MethodGet, "/events", nil))

	assert.Equal(t, f.user.ID, hub.owner)
	assert.True(t, hub.unsubscribed)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "event: changed\ndata: lead.created\n\nevent: changed\ndata: task.deleted\n\n", w.Body.String())
}

func TestStreamEndsWithRequest(t *testing.T) {
	f := newFixture(t)
	hub := &fakeHub{changes: make(chan events.Change)}
	h := NewEventsHandler(hub)

	r := f.request(http.MethodGet, "/events", nil)
	ctx, cancel := context.WithCancel(r.Context())
	r = r.WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(httptest.NewRecorder(), r)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end with the request")
	}
	require.True(t, hub.unsubscribed)
}
