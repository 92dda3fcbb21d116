package model

import (
	"time"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusProposal  LeadStatus = "proposal"
	LeadStatusWon       LeadStatus = "won"
	LeadStatusLost      LeadStatus = "lost"
)

// LeadStatuses lists every status in pipeline column order.
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusProposal,
	LeadStatusWon,
	LeadStatusLost,
}

func (s LeadStatus) Valid() bool {
	for _, status := range LeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the lead lifecycle (won or lost).
func (s LeadStatus) Terminal() bool {
	return s == LeadStatusWon || s == LeadStatusLost
}

func (s LeadStatus) Label() string {
	switch s {
	case LeadStatusNew:
		return "Novo Lead"
	case LeadStatusContacted:
		return "Contato Feito"
	case LeadStatusProposal:
		return "Proposta Enviada"
	case LeadStatusWon:
		return "Fechado"
	case LeadStatusLost:
		return "Perdido"
	default:
		return string(s)
	}
}

type Lead struct {
	ID           int64      `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	Name         string     `db:"lead_name" json:"lead_name"`
	Email        string     `db:"email" json:"email"`
	Phone        *string    `db:"telefone" json:"telefone"`
	Company      *string    `db:"company" json:"company"`
	Instagram    *string    `db:"instagram" json:"instagram"`
	Origin       *string    `db:"origin" json:"origin"`
	Value        float64    `db:"value" json:"value"`
	Status       LeadStatus `db:"status" json:"status"`
	FollowUpDate *time.Time `db:"follow_up_date" json:"followUpDate"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

func (l *Lead) CompanyName() string {
	if l.Company == nil {
		return ""
	}
	return *l.Company
}

func (l *Lead) PhoneNumber() string {
	if l.Phone == nil {
		return ""
	}
	return *l.Phone
}
