package model

import (
	"time"
)

type Proposal struct {
	ID        int64     `db:"id" json:"id"`
	LeadID    int64     `db:"lead_id" json:"lead_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Service   string    `db:"service" json:"service"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Computed fields (not in database)
	AttachmentURL  string `db:"-" json:"attachment_url,omitempty"`
	AttachmentName string `db:"-" json:"attachment_name,omitempty"`
}
