package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/userauth-service/internal/domain"
	"github.com/spec-kit/userauth-service/internal/events"
	"github.com/spec-kit/userauth-service/internal/repository"
	apperrors "github.com/spec-kit/userauth-service/pkg/util"
)

// TaskService manages tasks owned by the authenticated user.
type TaskService struct {
	tasks  repository.TaskRepository
	events events.Dispatcher
	logger *zap.Logger
}

// NewTaskService constructs the service.
func NewTaskService(tasks repository.TaskRepository, dispatcher events.Dispatcher, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{tasks: tasks, events: dispatcher, logger: logger}
}

// CreateTask stores a task for owner. Titles are unique per owner.
func (s *TaskService) CreateTask(ctx context.Context, owner *domain.User, title string, description *string) (*domain.Task, error) {
	task := &domain.Task{Title: title, Description: description, UserID: owner.ID}
	if err := s.tasks.Insert(ctx, task); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Wrap(apperrors.KindTaskAlreadyExists, err)
		}
		return nil, apperrors.Wrap(apperrors.KindStorageUnavailable, fmt.Errorf("insert task: %w", err))
	}

	s.publish(ctx, events.NewEvent(events.EventTaskCreated, owner.ID, events.TaskPayload{TaskID: task.ID, Title: task.Title}))
	return task, nil
}

// ListTasks returns the tasks of owner.
func (s *TaskService) ListTasks(ctx context.Context, owner *domain.User) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, owner.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorageUnavailable, fmt.Errorf("list tasks: %w", err))
	}
	return tasks, nil
}

// GetTask returns a task if owner may see it.
func (s *TaskService) GetTask(ctx context.Context, owner *domain.User, id int64) (*domain.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindTaskNotFound)
		}
		return nil, apperrors.Wrap(apperrors.KindStorageUnavailable, fmt.Errorf("find task: %w", err))
	}
	if task.UserID != owner.ID {
		return nil, apperrors.New(apperrors.KindForbiddenTaskAccess)
	}
	return task, nil
}

// DeleteTask removes a task owned by owner.
func (s *TaskService) DeleteTask(ctx context.Context, owner *domain.User, id int64) error {
	task, err := s.GetTask(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.New(apperrors.KindTaskNotFound)
		}
		return apperrors.Wrap(apperrors.KindStorageUnavailable, fmt.Errorf("delete task: %w", err))
	}

	s.publish(ctx, events.NewEvent(events.EventTaskDeleted, owner.ID, events.TaskPayload{TaskID: task.ID, Title: task.Title}))
	return nil
}

func (s *TaskService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
