package lifecycle

import (
	"math"
	"time"

	"github.com/leadflow/leadflow/internal/model"
)

type Stats struct {
	Total            int
	Won              int
	Lost             int
	PendingFollowUps int
	ConversionRate   int // percent, rounded
	TotalValue       float64
}

func Summarize(leads []*model.Lead, now time.Time) Stats {
	var stats Stats

	for _, lead := range leads {
		stats.Total++
		stats.TotalValue += lead.Value

		switch lead.Status {
		case model.LeadStatusWon:
			stats.Won++
		case model.LeadStatusLost:
			stats.Lost++
		}

		if !lead.Status.Terminal() && Classify(lead.FollowUpDate, now) == Overdue {
			stats.PendingFollowUps++
		}
	}

	if stats.Total > 0 {
		stats.ConversionRate = int(math.Round(float64(stats.Won) / float64(stats.Total) * 100))
	}

	return stats
}

type Column struct {
	Status model.LeadStatus
	Leads  []*model.Lead
}

// Columns groups leads into one pipeline column per status, keeping input order inside a column.
func Columns(leads []*model.Lead) []Column {
	columns := make([]Column, len(model.LeadStatuses))
	index := make(map[model.LeadStatus]int, len(model.LeadStatuses))
	for i, status := range model.LeadStatuses {
		columns[i] = Column{Status: status, Leads: []*model.Lead{}}
		index[status] = i
	}

	for _, lead := range leads {
		i, ok := index[lead.Status]
		if !ok {
			continue
		}
		columns[i].Leads = append(columns[i].Leads, lead)
	}

	return columns
}
