package lifecycle

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/model"
)

var now = time.Date(2025, time.March, 12, 15, 30, 0, 0, time.UTC)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func lead(id int64, status model.LeadStatus, followUp *time.Time, updatedAt time.Time) *model.Lead {
	return &model.Lead{
		ID:           id,
		Name:         "Lead",
		Status:       status,
		FollowUpDate: followUp,
		UpdatedAt:    updatedAt,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		followUp *time.Time
		want     FollowUpState
	}{
		{"absent", nil, None},
		{"yesterday", date(2025, time.March, 11), Overdue},
		{"today", date(2025, time.March, 12), DueToday},
		{"tomorrow", date(2025, time.March, 13), Upcoming},
		{"last year", date(2024, time.December, 31), Overdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.followUp, now))
		})
	}
}

func TestClassifyComparesCalendarDays(t *testing.T) {
	// Late evening today, earlier than now on the clock: still due today.
	late := time.Date(2025, time.March, 12, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, DueToday, Classify(&late, now))

	early := time.Date(2025, time.March, 12, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, DueToday, Classify(&early, now))

	// A stored date at UTC midnight is still "today" for a user west of UTC.
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	localNow := time.Date(2025, time.March, 12, 22, 0, 0, 0, saoPaulo)
	assert.Equal(t, DueToday, Classify(date(2025, time.March, 12), localNow))
	assert.Equal(t, Overdue, Classify(date(2025, time.March, 11), localNow))
}

func TestOverdueLeads(t *testing.T) {
	leads := []*model.Lead{
		lead(1, model.LeadStatusNew, date(2025, time.March, 1), now),
		lead(2, model.LeadStatusNew, nil, now),
		lead(3, model.LeadStatusContacted, date(2025, time.March, 12), now),
		lead(4, model.LeadStatusWon, date(2025, time.March, 11), now),
		lead(5, model.LeadStatusNew, date(2025, time.April, 1), now),
	}
	before := append([]*model.Lead(nil), leads...)

	overdue := OverdueLeads(leads, now)

	ids := make([]int64, 0, len(overdue))
	for _, l := range overdue {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []int64{1, 4}, ids)
	assert.Equal(t, before, leads, "input must not be reordered or mutated")

	again := OverdueLeads(overdue, now)
	assert.Equal(t, overdue, again)
}

func TestOverdueAndDueTodayAreExclusive(t *testing.T) {
	for d := -3; d <= 3; d++ {
		followUp := now.AddDate(0, 0, d)
		state := Classify(&followUp, now)
		overdue := len(OverdueLeads([]*model.Lead{lead(1, model.LeadStatusNew, &followUp, now)}, now)) == 1
		if state == DueToday {
			assert.False(t, overdue, "offset %d", d)
		}
		assert.Equal(t, d < 0, overdue, "offset %d", d)
	}
}

func TestParseFollowUpDate(t *testing.T) {
	got := ParseFollowUpDate("2025-03-12")
	require.NotNil(t, got)
	assert.Equal(t, DueToday, Classify(got, now))

	got = ParseFollowUpDate("2025-03-11T10:00:00Z")
	require.NotNil(t, got)
	assert.Equal(t, Overdue, Classify(got, now))

	assert.Nil(t, ParseFollowUpDate(""))
	assert.Nil(t, ParseFollowUpDate("   "))
	assert.Nil(t, ParseFollowUpDate("amanhã"))
	assert.Nil(t, ParseFollowUpDate("2025-13-45"))
}

func TestStalled(t *testing.T) {
	t.Run("exactly three days is not stalled", func(t *testing.T) {
		_, ok := Stalled(lead(1, model.LeadStatusNew, nil, now.Add(-StallThreshold)), now)
		assert.False(t, ok)
	})

	t.Run("three days and a second is stalled", func(t *testing.T) {
		days, ok := Stalled(lead(1, model.LeadStatusNew, nil, now.Add(-StallThreshold-time.Second)), now)
		assert.True(t, ok)
		assert.Equal(t, 3, days)
	})

	t.Run("advanced statuses never stall", func(t *testing.T) {
		for _, status := range []model.LeadStatus{model.LeadStatusProposal, model.LeadStatusWon, model.LeadStatusLost} {
			_, ok := Stalled(lead(1, status, nil, now.AddDate(-1, 0, 0)), now)
			assert.False(t, ok, string(status))
		}
	})

	t.Run("days are floored", func(t *testing.T) {
		days, ok := Stalled(lead(1, model.LeadStatusContacted, nil, now.Add(-(5*24+23)*time.Hour)), now)
		assert.True(t, ok)
		assert.Equal(t, 5, days)
	})

	t.Run("missing update time", func(t *testing.T) {
		_, ok := Stalled(lead(1, model.LeadStatusNew, nil, time.Time{}), now)
		assert.False(t, ok)
	})
}

func TestDeriveScenarios(t *testing.T) {
	yesterday := date(2025, time.March, 11)

	tests := []struct {
		name  string
		rules Rules
		lead  *model.Lead
		want  []Task
	}{
		{
			name: "overdue contacted lead",
			lead: lead(1, model.LeadStatusContacted, yesterday, now),
			want: []Task{FollowUpOverdue{LeadID: 1, LeadName: "Lead"}},
		},
		{
			name: "contacted lead without follow-up",
			lead: lead(2, model.LeadStatusContacted, nil, now),
			want: []Task{SendProposal{LeadID: 2, LeadName: "Lead"}},
		},
		{
			name: "stalled new lead",
			lead: lead(3, model.LeadStatusNew, nil, now.AddDate(0, 0, -5)),
			want: []Task{MarkFollowUp{LeadID: 3, LeadName: "Lead", DaysStalled: 5}},
		},
		{
			name: "won lead is silent",
			lead: lead(4, model.LeadStatusWon, yesterday, now.AddDate(0, 0, -10)),
			want: []Task{},
		},
		{
			name:  "won lead keeps overdue item when terminal follow-ups are included",
			rules: Rules{IncludeTerminalFollowUps: true},
			lead:  lead(4, model.LeadStatusWon, yesterday, now.AddDate(0, 0, -10)),
			want:  []Task{FollowUpOverdue{LeadID: 4, LeadName: "Lead"}},
		},
		{
			name: "due today",
			lead: lead(5, model.LeadStatusNew, date(2025, time.March, 12), now),
			want: []Task{FollowUpDueToday{LeadID: 5, LeadName: "Lead"}},
		},
		{
			name: "stalled contacted lead without follow-up gets both nudges",
			lead: lead(6, model.LeadStatusContacted, nil, now.AddDate(0, 0, -4)),
			want: []Task{
				MarkFollowUp{LeadID: 6, LeadName: "Lead", DaysStalled: 4},
				SendProposal{LeadID: 6, LeadName: "Lead"},
			},
		},
		{
			name: "overdue and stalled",
			lead: lead(7, model.LeadStatusNew, yesterday, now.AddDate(0, 0, -7)),
			want: []Task{
				FollowUpOverdue{LeadID: 7, LeadName: "Lead"},
				MarkFollowUp{LeadID: 7, LeadName: "Lead", DaysStalled: 7},
			},
		},
		{
			name: "proposal lead with upcoming follow-up",
			lead: lead(8, model.LeadStatusProposal, date(2025, time.March, 20), now.AddDate(0, 0, -30)),
			want: []Task{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rules.Derive([]*model.Lead{tt.lead}, now)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Derive() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeriveNeverEmitsBothFollowUpKinds(t *testing.T) {
	var leads []*model.Lead
	for d := -2; d <= 2; d++ {
		followUp := now.AddDate(0, 0, d)
		for i, status := range model.LeadStatuses {
			leads = append(leads, lead(int64(100*(d+3)+i), status, &followUp, now.AddDate(0, 0, -6)))
		}
	}

	kinds := map[int64]map[TaskKind]bool{}
	for _, task := range (Rules{IncludeTerminalFollowUps: true}).Derive(leads, now) {
		id, ok := TaskLeadID(task)
		require.True(t, ok)
		if kinds[id] == nil {
			kinds[id] = map[TaskKind]bool{}
		}
		kinds[id][task.Kind()] = true
	}

	for id, k := range kinds {
		assert.False(t, k[KindFollowUpDueToday] && k[KindFollowUpOverdue], "lead %d", id)
	}
}

func TestDeriveKeepsLeadOrder(t *testing.T) {
	leads := []*model.Lead{
		lead(3, model.LeadStatusContacted, nil, now),
		lead(1, model.LeadStatusNew, date(2025, time.March, 12), now),
		lead(2, model.LeadStatusNew, date(2025, time.March, 1), now),
	}

	var ids []int64
	for _, task := range (Rules{}).Derive(leads, now) {
		id, _ := TaskLeadID(task)
		ids = append(ids, id)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

func TestToday(t *testing.T) {
	userTasks := []*model.UserTask{
		{ID: 1, Title: "Ligar para fornecedor", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 2, Title: "Feita", Done: true, CreatedAt: now.Add(-time.Hour)},
		{ID: 3, Title: "Ontem", CreatedAt: now.AddDate(0, 0, -1)},
	}
	leads := []*model.Lead{lead(9, model.LeadStatusContacted, nil, now)}

	got := Rules{}.Today(leads, userTasks, now)

	want := []Task{
		SendProposal{LeadID: 9, LeadName: "Lead"},
		ManualTask{ID: 1, Title: "Ligar para fornecedor", CreatedAt: now.Add(-2 * time.Hour)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Today() mismatch (-want +got):\n%s", diff)
	}
}

func TestTodayManualTasksUsesNowLocation(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	localNow := time.Date(2025, time.March, 12, 22, 0, 0, 0, saoPaulo)

	// 01:00 UTC on the 13th is still the evening of the 12th in São Paulo.
	created := time.Date(2025, time.March, 13, 1, 0, 0, 0, time.UTC)
	got := TodayManualTasks([]*model.UserTask{{ID: 1, CreatedAt: created}}, localNow)
	assert.Len(t, got, 1)
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, Stats{}, Summarize(nil, now))
	})

	t.Run("counts", func(t *testing.T) {
		leads := []*model.Lead{
			{Status: model.LeadStatusWon, Value: 1000},
			{Status: model.LeadStatusLost, Value: 200, FollowUpDate: date(2025, time.March, 1)},
			{Status: model.LeadStatusNew, Value: 50.5, FollowUpDate: date(2025, time.March, 1)},
		}

		got := Summarize(leads, now)

		assert.Equal(t, Stats{
			Total:            3,
			Won:              1,
			Lost:             1,
			PendingFollowUps: 1,
			ConversionRate:   33,
			TotalValue:       1250.5,
		}, got)
	})

	t.Run("rounds half up", func(t *testing.T) {
		leads := []*model.Lead{
			{Status: model.LeadStatusWon},
			{Status: model.LeadStatusNew},
			{Status: model.LeadStatusNew},
			{Status: model.LeadStatusNew},
			{Status: model.LeadStatusNew},
			{Status: model.LeadStatusNew},
			{Status: model.LeadStatusNew},
			{Status: model.LeadStatusNew},
		}
		assert.Equal(t, 13, Summarize(leads, now).ConversionRate)
	})
}

func TestColumns(t *testing.T) {
	leads := []*model.Lead{
		{ID: 1, Status: model.LeadStatusWon},
		{ID: 2, Status: model.LeadStatusNew},
		{ID: 3, Status: model.LeadStatusNew},
		{ID: 4, Status: "archived"},
	}

	columns := Columns(leads)

	require.Len(t, columns, len(model.LeadStatuses))
	assert.Equal(t, model.LeadStatusNew, columns[0].Status)
	assert.Equal(t, []*model.Lead{leads[1], leads[2]}, columns[0].Leads)
	assert.Empty(t, columns[1].Leads)
	assert.Equal(t, []*model.Lead{leads[0]}, columns[3].Leads)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		task Task
		want string
	}{
		{FollowUpDueToday{LeadName: "Ana"}, "Falar com Ana – follow-up marcado pra hoje"},
		{FollowUpOverdue{LeadName: "Ana"}, "Falar com Ana – follow-up em atraso"},
		{SendProposal{LeadName: "Ana"}, "Enviar proposta para Ana"},
		{MarkFollowUp{LeadName: "Ana", DaysStalled: 5}, "Marcar follow-up com Ana – parado há 5 dias"},
		{ManualTask{Title: "Ligar", Details: "às 10h"}, "Ligar – às 10h"},
		{ManualTask{Title: "Ligar"}, "Ligar"},
	}

	for _, tt := range tests {
		t.Run(string(tt.task.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.task))
		})
	}
}
