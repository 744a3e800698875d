package service

import (
	"context"
	"fmt"

	"taskhub/internal/domain"
)

// TaskService wraps task CRUD. Status and deadline are free-form strings owned
// by the client.
type TaskService struct {
	tasks domain.TaskRepository
	users domain.UserRepository
}

func NewTaskService(tasks domain.TaskRepository, users domain.UserRepository) *TaskService {
	return &TaskService{tasks: tasks, users: users}
}

type TaskInput struct {
	Name        string
	Description string
	Status      string
	Deadline    string
}

// Create assigns a new task to the given employee.
func (s *TaskService) Create(ctx context.Context, assigneeID string, in TaskInput) (*domain.Task, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: task name is required", domain.ErrInvalidInput)
	}
	if _, err := s.users.GetByID(ctx, assigneeID); err != nil {
		return nil, err
	}

	t := &domain.Task{
		AssignedTo:  assigneeID,
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		Deadline:    in.Deadline,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func (s *TaskService) ListAll(ctx context.Context) ([]*domain.Task, error) {
	return s.tasks.ListAll(ctx)
}

func (s *TaskService) ListByAssignee(ctx context.Context, userID string) ([]*domain.Task, error) {
	return s.tasks.ListByAssignee(ctx, userID)
}

func (s *TaskService) Update(ctx context.Context, id string, in TaskInput) (*domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Name = in.Name
	t.Description = in.Description
	t.Status = in.Status
	t.Deadline = in.Deadline
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

func (s *TaskService) ChangeStatus(ctx context.Context, id, status string) error {
	return s.tasks.UpdateStatus(ctx, id, status)
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.tasks.Delete(ctx, id)
}
