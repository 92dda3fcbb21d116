package lifecycle

import (
	"time"

	"github.com/leadflow/leadflow/internal/model"
)

type Rules struct {
	// IncludeTerminalFollowUps keeps due-today/overdue items for won and lost leads.
	// Off by default: a closed lead has nobody left to call back.
	IncludeTerminalFollowUps bool
}

// Derive builds the lead-driven part of the daily task list. For each lead, in input
// order, it emits at most one of due-today/overdue, then a stall nudge, then a
// send-proposal item.
func (r Rules) Derive(leads []*model.Lead, now time.Time) []Task {
	tasks := []Task{}

	for _, lead := range leads {
		if r.IncludeTerminalFollowUps || !lead.Status.Terminal() {
			switch Classify(lead.FollowUpDate, now) {
			case DueToday:
				tasks = append(tasks, FollowUpDueToday{LeadID: lead.ID, LeadName: lead.Name})
			case Overdue:
				tasks = append(tasks, FollowUpOverdue{LeadID: lead.ID, LeadName: lead.Name})
			}
		}

		days, stalled := Stalled(lead, now)
		if stalled {
			tasks = append(tasks, MarkFollowUp{LeadID: lead.ID, LeadName: lead.Name, DaysStalled: days})
		}

		if lead.Status == model.LeadStatusContacted && lead.FollowUpDate == nil {
			tasks = append(tasks, SendProposal{LeadID: lead.ID, LeadName: lead.Name})
		}
	}

	return tasks
}

// Today merges the derived tasks with the user's own tasks created today and still open.
func (r Rules) Today(leads []*model.Lead, userTasks []*model.UserTask, now time.Time) []Task {
	tasks := r.Derive(leads, now)
	for _, t := range TodayManualTasks(userTasks, now) {
		tasks = append(tasks, ManualTask{
			ID:        t.ID,
			Title:     t.Title,
			Details:   t.Details,
			CreatedAt: t.CreatedAt,
		})
	}
	return tasks
}

// TodayManualTasks keeps the open user tasks created on now's calendar day.
func TodayManualTasks(userTasks []*model.UserTask, now time.Time) []*model.UserTask {
	today := make([]*model.UserTask, 0, len(userTasks))
	for _, t := range userTasks {
		if t.Done {
			continue
		}
		if SameDay(t.CreatedAt, now, now.Location()) {
			today = append(today, t)
		}
	}
	return today
}
