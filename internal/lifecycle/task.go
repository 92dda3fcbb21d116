package lifecycle

import (
	"fmt"
	"time"
)

type TaskKind string

const (
	KindFollowUpDueToday TaskKind = "follow-up-due-today"
	KindFollowUpOverdue  TaskKind = "follow-up-overdue"
	KindSendProposal     TaskKind = "send-proposal"
	KindMarkFollowUp     TaskKind = "mark-follow-up"
	KindManual           TaskKind = "manual"
)

// Task is one entry of the daily task list. The concrete types below are the
// only implementations.
type Task interface {
	Kind() TaskKind
	isTask()
}

type FollowUpDueToday struct {
	LeadID   int64
	LeadName string
}

type FollowUpOverdue struct {
	LeadID   int64
	LeadName string
}

type SendProposal struct {
	LeadID   int64
	LeadName string
}

type MarkFollowUp struct {
	LeadID      int64
	LeadName    string
	DaysStalled int
}

type ManualTask struct {
	ID        int64
	Title     string
	Details   string
	CreatedAt time.Time
}

func (FollowUpDueToday) Kind() TaskKind { return KindFollowUpDueToday }
func (FollowUpOverdue) Kind() TaskKind  { return KindFollowUpOverdue }
func (SendProposal) Kind() TaskKind     { return KindSendProposal }
func (MarkFollowUp) Kind() TaskKind     { return KindMarkFollowUp }
func (ManualTask) Kind() TaskKind       { return KindManual }

func (FollowUpDueToday) isTask() {}
func (FollowUpOverdue) isTask()  {}
func (SendProposal) isTask()     {}
func (MarkFollowUp) isTask()     {}
func (ManualTask) isTask()       {}

// TaskLeadID returns the lead a derived task points at. Manual tasks have none.
func TaskLeadID(t Task) (int64, bool) {
	switch t := t.(type) {
	case FollowUpDueToday:
		return t.LeadID, true
	case FollowUpOverdue:
		return t.LeadID, true
	case SendProposal:
		return t.LeadID, true
	case MarkFollowUp:
		return t.LeadID, true
	default:
		return 0, false
	}
}

// Describe returns the line shown for a task in the today panel and the daily digest.
func Describe(t Task) string {
	switch t := t.(type) {
	case FollowUpDueToday:
		return fmt.Sprintf("Falar com %s – follow-up marcado pra hoje", t.LeadName)
	case FollowUpOverdue:
		return fmt.Sprintf("Falar com %s – follow-up em atraso", t.LeadName)
	case SendProposal:
		return fmt.Sprintf("Enviar proposta para %s", t.LeadName)
	case MarkFollowUp:
		return fmt.Sprintf("Marcar follow-up com %s – parado há %d dias", t.LeadName, t.DaysStalled)
	case ManualTask:
		if t.Details == "" {
			return t.Title
		}
		return fmt.Sprintf("%s – %s", t.Title, t.Details)
	default:
		return ""
	}
}
