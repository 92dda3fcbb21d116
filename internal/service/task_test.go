package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/lifecycle"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

func TestTaskServiceToday(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, conn, "ana@example.com", "Ana")
	leadRepo := repository.NewLeadRepository(conn)
	tasks := NewTaskService(leadRepo, repository.NewTaskRepository(conn), lifecycle.Rules{}, events.Discard{})

	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)
	recent := now.Add(-time.Hour)

	overdue := &model.Lead{UserID: user.ID, Name: "Atrasado", Email: "a@x.com", Status: model.LeadStatusNew, FollowUpDate: &yesterday, CreatedAt: recent, UpdatedAt: recent}
	require.NoError(t, leadRepo.Create(ctx, overdue))
	contacted := &model.Lead{UserID: user.ID, Name: "Contatado", Email: "b@x.com", Status: model.LeadStatusContacted, CreatedAt: recent, UpdatedAt: recent}
	require.NoError(t, leadRepo.Create(ctx, contacted))
	won := &model.Lead{UserID: user.ID, Name: "Ganho", Email: "c@x.com", Status: model.LeadStatusWon, Value: 1000, FollowUpDate: &yesterday, CreatedAt: recent, UpdatedAt: recent}
	require.NoError(t, leadRepo.Create(ctx, won))

	manual, err := tasks.Create(ctx, user.ID, "Ligar para o contador", "")
	require.NoError(t, err)

	dashboard, err := tasks.Today(ctx, user.ID, now)
	require.NoError(t, err)

	var kinds []lifecycle.TaskKind
	for _, task := range dashboard.Tasks {
		kinds = append(kinds, task.Kind())
	}
	// Leads are listed newest first
	want := []lifecycle.TaskKind{lifecycle.KindSendProposal, lifecycle.KindFollowUpOverdue, lifecycle.KindManual}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("task kinds mismatch (-want +got):\n%s", diff)
	}

	assert.Len(t, dashboard.Overdue, 2)
	assert.Equal(t, 3, dashboard.Stats.Total)
	assert.Equal(t, 1, dashboard.Stats.Won)
	assert.Equal(t, 1, dashboard.Stats.PendingFollowUps)
	assert.Equal(t, 33, dashboard.Stats.ConversionRate)
	assert.Equal(t, 1000.0, dashboard.Stats.TotalValue)

	require.NoError(t, tasks.Complete(ctx, user.ID, manual.ID))

	dashboard, err = tasks.Today(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Len(t, dashboard.Tasks, 2)
}

func TestTaskServiceCRUD(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, conn, "ana@example.com", "Ana")
	other := newTestUser(t, conn, "bruno@example.com", "Bruno")
	rec := &recorder{}
	tasks := NewTaskService(repository.NewLeadRepository(conn), repository.NewTaskRepository(conn), lifecycle.Rules{}, rec)

	_, err := tasks.Create(ctx, user.ID, "   ", "")
	assert.ErrorIs(t, err, ErrTaskTitleRequired)

	task, err := tasks.Create(ctx, user.ID, "Revisar contrato", "cláusula 3")
	require.NoError(t, err)

	updated, err := tasks.Update(ctx, user.ID, task.ID, "Revisar contrato", "cláusula 4")
	require.NoError(t, err)
	assert.Equal(t, "cláusula 4", updated.Details)

	_, err = tasks.Update(ctx, other.ID, task.ID, "x", "")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, tasks.Delete(ctx, user.ID, task.ID))
	_, err = tasks.Task(ctx, user.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []events.Op{events.OpCreated, events.OpUpdated, events.OpDeleted}, rec.ops())
}
