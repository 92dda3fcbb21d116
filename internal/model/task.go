package model

import (
	"time"
)

// UserTask is an ad-hoc task written by the user on the dashboard.
type UserTask struct {
	ID        int64     `db:"id"`
	UserID    string    `db:"user_id"`
	Title     string    `db:"title"`
	Details   string    `db:"details"`
	Done      bool      `db:"done"`
	CreatedAt time.Time `db:"created_at"`
}
