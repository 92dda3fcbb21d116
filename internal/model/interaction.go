package model

import (
	"time"
)

type Interaction struct {
	ID        int64      `db:"id" json:"id"`
	LeadID    int64      `db:"lead_id" json:"lead_id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Message   string     `db:"message" json:"message"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at"` // Set when the note is edited
}

func (i *Interaction) Edited() bool {
	return i.UpdatedAt != nil
}
