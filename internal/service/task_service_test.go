package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskhub/internal/domain"
	"taskhub/internal/service"
)

type mockTaskRepo struct {
	mock.Mock
}

func (m *mockTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*domain.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTaskRepo) ListAll(ctx context.Context) ([]*domain.Task, error) {
	args := m.Called(ctx)
	if t := args.Get(0); t != nil {
		return t.([]*domain.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTaskRepo) ListByAssignee(ctx context.Context, userID string) ([]*domain.Task, error) {
	args := m.Called(ctx, userID)
	if t := args.Get(0); t != nil {
		return t.([]*domain.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTaskRepo) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockTaskRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ domain.TaskRepository = (*mockTaskRepo)(nil)

func TestTaskCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		tasks := new(mockTaskRepo)
		users := new(mockUserRepo)
		svc := service.NewTaskService(tasks, users)

		users.On("GetByID", mock.Anything, "emp1").Return(&domain.User{ID: "emp1"}, nil)
		tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
			return task.AssignedTo == "emp1" && task.Name == "Quarterly report"
		})).Return(nil)

		task, err := svc.Create(ctx, "emp1", service.TaskInput{
			Name:     "Quarterly report",
			Status:   "pending",
			Deadline: "2026-09-15",
		})
		require.NoError(t, err)
		assert.Equal(t, "emp1", task.AssignedTo)
		tasks.AssertExpectations(t)
	})

	t.Run("MissingName", func(t *testing.T) {
		svc := service.NewTaskService(new(mockTaskRepo), new(mockUserRepo))

		_, err := svc.Create(ctx, "emp1", service.TaskInput{Status: "pending"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("UnknownAssignee", func(t *testing.T) {
		tasks := new(mockTaskRepo)
		users := new(mockUserRepo)
		svc := service.NewTaskService(tasks, users)

		users.On("GetByID", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

		_, err := svc.Create(ctx, "ghost", service.TaskInput{Name: "x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestTaskUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("OverwritesFields", func(t *testing.T) {
		tasks := new(mockTaskRepo)
		svc := service.NewTaskService(tasks, new(mockUserRepo))

		tasks.On("GetByID", mock.Anything, "t1").
			Return(&domain.Task{ID: "t1", Name: "old", Status: "pending"}, nil)
		tasks.On("Update", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
			return task.Name == "new" && task.Status == "completed"
		})).Return(nil)

		task, err := svc.Update(ctx, "t1", service.TaskInput{Name: "new", Status: "completed"})
		require.NoError(t, err)
		assert.Equal(t, "new", task.Name)
		tasks.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		tasks := new(mockTaskRepo)
		svc := service.NewTaskService(tasks, new(mockUserRepo))

		tasks.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

		_, err := svc.Update(ctx, "missing", service.TaskInput{Name: "x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
