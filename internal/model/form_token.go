package model

import (
	"time"
)

// FormToken maps a public bearer token to the user that owns leads created with it.
type FormToken struct {
	Token     string    `db:"token"`
	UserID    string    `db:"user_id"`
	Label     string    `db:"label"`
	CreatedAt time.Time `db:"created_at"`
}
