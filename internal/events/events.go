// Package events carries "something changed" notifications from writes to the
// views that need to re-fetch.
package events

import (
	"context"
	"time"
)

type Entity string

const (
	EntityLead        Entity = "lead"
	EntityInteraction Entity = "interaction"
	EntityProposal    Entity = "proposal"
	EntityTask        Entity = "task"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

type Change struct {
	OwnerID  string    `json:"owner_id"`
	Entity   Entity    `json:"entity"`
	EntityID int64     `json:"entity_id"`
	Op       Op        `json:"op"`
	At       time.Time `json:"at"`
}

// RoutingKey is "<entity>.<op>", e.g. "lead.updated".
func (c Change) RoutingKey() string {
	return string(c.Entity) + "." + string(c.Op)
}

// Publisher delivers a change. Delivery failures are the publisher's to log;
// the write that caused the change has already succeeded.
type Publisher interface {
	Publish(ctx context.Context, change Change)
}

// Fanout publishes to every publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, change Change) {
	for _, p := range f {
		p.Publish(ctx, change)
	}
}

// Discard drops every change.
type Discard struct{}

func (Discard) Publish(context.Context, Change) {}
