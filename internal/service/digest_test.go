package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/lifecycle"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

func TestDigestRunSkipsEmptyDays(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	busy := newTestUser(t, conn, "ana@example.com", "Ana")
	newTestUser(t, conn, "bruno@example.com", "Bruno")

	leadRepo := repository.NewLeadRepository(conn)
	today := time.Now()
	require.NoError(t, leadRepo.Create(ctx, &model.Lead{
		UserID: busy.ID, Name: "Carla", Email: "c@x.com", Status: model.LeadStatusNew, FollowUpDate: &today,
	}))

	tasks := NewTaskService(leadRepo, repository.NewTaskRepository(conn), lifecycle.Rules{}, events.Discard{})
	digest := NewDigestService(
		repository.NewUserRepository(conn),
		repository.NewProfileRepository(conn),
		tasks,
		devEmail(),
		time.Now,
	)

	sent, err := digest.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestDigestSchedule(t *testing.T) {
	digest := NewDigestService(nil, nil, nil, nil, time.Now)

	_, err := digest.Schedule("not a cron", time.UTC)
	assert.Error(t, err)

	c, err := digest.Schedule("0 8 * * *", time.UTC)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
}

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)

	from := time.Date(2025, time.March, 12, 9, 0, 0, 0, loc)
	next, err := NextRun("0 8 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 13, 8, 0, 0, 0, loc), next)
}
