package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/lifecycle"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

var (
	ErrTaskTitleRequired = errors.New("dê um título para a tarefa")
)

// Dashboard is everything the dashboard shows for one day.
type Dashboard struct {
	Tasks   []lifecycle.Task
	Overdue []*model.Lead
	Stats   lifecycle.Stats
}

type TaskService struct {
	leads     repository.LeadRepository
	tasks     repository.TaskRepository
	rules     lifecycle.Rules
	publisher events.Publisher
}

func NewTaskService(
	leads repository.LeadRepository,
	tasks repository.TaskRepository,
	rules lifecycle.Rules,
	publisher events.Publisher,
) *TaskService {
	return &TaskService{
		leads:     leads,
		tasks:     tasks,
		rules:     rules,
		publisher: publisher,
	}
}

// Today derives the task list from the user's leads and open manual tasks.
func (s *TaskService) Today(ctx context.Context, userID string, now time.Time) (*Dashboard, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	leads, err := s.leads.Leads(ctx, userID, repository.LeadQuery{})
	if err != nil {
		return nil, storeError("list leads", err)
	}

	open, err := s.tasks.Open(ctx, userID)
	if err != nil {
		return nil, storeError("list tasks", err)
	}

	return &Dashboard{
		Tasks:   s.rules.Today(leads, open, now),
		Overdue: lifecycle.OverdueLeads(leads, now),
		Stats:   lifecycle.Summarize(leads, now),
	}, nil
}

func (s *TaskService) Task(ctx context.Context, userID string, taskID int64) (*model.UserTask, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.ByID(ctx, userID, taskID)
	if err != nil {
		return nil, storeError("get task", err)
	}

	return task, nil
}

func (s *TaskService) Create(ctx context.Context, userID, title, details string) (*model.UserTask, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTaskTitleRequired
	}

	task := &model.UserTask{
		UserID:  userID,
		Title:   title,
		Details: strings.TrimSpace(details),
	}

	err = s.tasks.Create(ctx, task)
	if err != nil {
		return nil, storeError("create task", err)
	}

	s.publish(ctx, userID, task.ID, events.OpCreated)
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, userID string, taskID int64, title, details string) (*model.UserTask, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTaskTitleRequired
	}

	task, err := s.tasks.ByID(ctx, userID, taskID)
	if err != nil {
		return nil, storeError("get task", err)
	}

	task.Title = title
	task.Details = strings.TrimSpace(details)

	err = s.tasks.Update(ctx, task)
	if err != nil {
		return nil, storeError("update task", err)
	}

	s.publish(ctx, userID, task.ID, events.OpUpdated)
	return task, nil
}

func (s *TaskService) Complete(ctx context.Context, userID string, taskID int64) error {
	err := requireOwner(userID)
	if err != nil {
		return err
	}

	err = s.tasks.SetDone(ctx, userID, taskID, true)
	if err != nil {
		return storeError("complete task", err)
	}

	s.publish(ctx, userID, taskID, events.OpUpdated)
	return nil
}

func (s *TaskService) Delete(ctx context.Context, userID string, taskID int64) error {
	err := requireOwner(userID)
	if err != nil {
		return err
	}

	err = s.tasks.Delete(ctx, userID, taskID)
	if err != nil {
		return storeError("delete task", err)
	}

	s.publish(ctx, userID, taskID, events.OpDeleted)
	return nil
}

func (s *TaskService) publish(ctx context.Context, userID string, id int64, op events.Op) {
	s.publisher.Publish(ctx, events.Change{
		OwnerID:  userID,
		Entity:   events.EntityTask,
		EntityID: id,
		Op:       op,
		At:       time.Now(),
	})
}
