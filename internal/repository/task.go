package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/leadflow/leadflow/internal/model"
)

var (
	ErrTaskNotFound = errors.New("task not found")
)

type TaskRepository interface {
	Create(ctx context.Context, task *model.UserTask) error
	ByID(ctx context.Context, userID string, taskID int64) (*model.UserTask, error)
	// Open lists the user's not-done tasks, oldest first.
	Open(ctx context.Context, userID string) ([]*model.UserTask, error)
	Update(ctx context.Context, task *model.UserTask) error
	SetDone(ctx context.Context, userID string, taskID int64, done bool) error
	Delete(ctx context.Context, userID string, taskID int64) error
}

type taskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.UserTask) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	query := `INSERT INTO user_tasks (user_id, title, details, done, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		task.UserID,
		task.Title,
		task.Details,
		task.Done,
		task.CreatedAt,
	).Scan(&task.ID)
}

func (r *taskRepository) ByID(ctx context.Context, userID string, taskID int64) (*model.UserTask, error) {
	task := &model.UserTask{}
	query := `SELECT * FROM user_tasks WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, task, query, taskID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Open(ctx context.Context, userID string) ([]*model.UserTask, error) {
	tasks := []*model.UserTask{}
	query := `SELECT * FROM user_tasks WHERE user_id = $1 AND done = $2 ORDER BY created_at ASC, id ASC`

	err := r.db.SelectContext(ctx, &tasks, query, userID, false)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.UserTask) error {
	query := `UPDATE user_tasks SET title = $1, details = $2 WHERE id = $3 AND user_id = $4`
	result, err := r.db.ExecContext(ctx, query, task.Title, task.Details, task.ID, task.UserID)

	return checkAffected(result, err, ErrTaskNotFound)
}

func (r *taskRepository) SetDone(ctx context.Context, userID string, taskID int64, done bool) error {
	query := `UPDATE user_tasks SET done = $1 WHERE id = $2 AND user_id = $3`
	result, err := r.db.ExecContext(ctx, query, done, taskID, userID)

	return checkAffected(result, err, ErrTaskNotFound)
}

func (r *taskRepository) Delete(ctx context.Context, userID string, taskID int64) error {
	query := `DELETE FROM user_tasks WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, taskID, userID)

	return checkAffected(result, err, ErrTaskNotFound)
}
