package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/model"
)

func TestTaskRepository(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewTaskRepository(conn)
	owner := createUser(t, conn, "ana@example.com")
	other := createUser(t, conn, "bruno@example.com")

	call := &model.UserTask{UserID: owner.ID, Title: "Ligar para o contador"}
	send := &model.UserTask{UserID: owner.ID, Title: "Enviar contrato", Details: "Versão revisada"}
	require.NoError(t, repo.Create(ctx, call))
	require.NoError(t, repo.Create(ctx, send))

	open, err := repo.Open(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	require.NoError(t, repo.SetDone(ctx, owner.ID, call.ID, true))
	open, err = repo.Open(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, send.ID, open[0].ID)
	assert.False(t, open[0].Done)

	send.Title = "Enviar contrato assinado"
	require.NoError(t, repo.Update(ctx, send))
	got, err := repo.ByID(ctx, owner.ID, send.ID)
	require.NoError(t, err)
	assert.Equal(t, "Enviar contrato assinado", got.Title)
	assert.Equal(t, "Versão revisada", got.Details)

	err = repo.SetDone(ctx, other.ID, send.ID, true)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, repo.Delete(ctx, owner.ID, send.ID))
	_, err = repo.ByID(ctx, owner.ID, send.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
