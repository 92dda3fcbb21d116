package lifecycle

import (
	"time"

	"github.com/leadflow/leadflow/internal/model"
)

// StallThreshold is how long a lead may sit without updates before it needs a nudge.
const StallThreshold = 3 * 24 * time.Hour

const day = 24 * time.Hour

// Stalled reports whether the lead went more than StallThreshold without an update
// and, if so, for how many whole days. Leads in proposal, won or lost never stall.
func Stalled(lead *model.Lead, now time.Time) (days int, ok bool) {
	if stallExempt(lead.Status) || lead.UpdatedAt.IsZero() {
		return 0, false
	}

	age := now.Sub(lead.UpdatedAt)
	if age <= StallThreshold {
		return 0, false
	}

	return int(age / day), true
}

func stallExempt(status model.LeadStatus) bool {
	return status == model.LeadStatusProposal || status.Terminal()
}
