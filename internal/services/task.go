package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/taskhive/apiserver/types"
)

// TaskRepository defines persistence operations for tasks. Implementations
// must filter every operation by the owner id they are given.
type TaskRepository interface {
	Create(ctx context.Context, task types.Task) (types.Task, error)
	ListByOwner(ctx context.Context, ownerID int) ([]types.Task, error)
	Get(ctx context.Context, ownerID, id int) (types.Task, error)
	Update(ctx context.Context, task types.Task) (types.Task, error)
	Delete(ctx context.Context, ownerID, id int) error
}

// EventPublisher sends task lifecycle events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// TaskFields are the caller-supplied scalar fields of a task. The owner id
// is deliberately absent: it is always derived from the verified token and
// threaded through the service as an explicit argument.
type TaskFields struct {
	Title       string
	Description string
	Status      string
	DueDate     *time.Time
}

// TaskEvent is the payload published on task mutations.
type TaskEvent struct {
	Type string     `json:"type"`
	Task types.Task `json:"task"`
}

const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

// TaskService encapsulates ownership-scoped task use-cases.
type TaskService struct {
	repo      TaskRepository
	publisher EventPublisher
	channel   string
	log       *logrus.Logger
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{repo: repo, log: logrus.StandardLogger()}
}

// WithEvents enables lifecycle event publication on the given channel.
func (s *TaskService) WithEvents(publisher EventPublisher, channel string) *TaskService {
	s.publisher = publisher
	s.channel = channel
	return s
}

// Create stores a new task owned by ownerID. Any owner supplied by the
// caller inside the fields has no effect.
func (s *TaskService) Create(ctx context.Context, ownerID int, fields TaskFields) (types.Task, error) {
	status := fields.Status
	if status == "" {
		status = types.DefaultTaskStatus
	}

	task, err := s.repo.Create(ctx, types.Task{
		OwnerID:     ownerID,
		Title:       fields.Title,
		Description: fields.Description,
		Status:      status,
		DueDate:     fields.DueDate,
	})
	if err != nil {
		return types.Task{}, err
	}

	s.publish(ctx, EventTaskCreated, task)
	return task, nil
}

func (s *TaskService) List(ctx context.Context, ownerID int) ([]types.Task, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *TaskService) Get(ctx context.Context, ownerID, id int) (types.Task, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// Update performs an ownership-filtered lookup before mutating, then
// replaces the task's scalar fields. Two concurrent updates of the same task
// by its owner are not serialized; the last writer wins.
func (s *TaskService) Update(ctx context.Context, ownerID, id int, fields TaskFields) (types.Task, error) {
	task, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return types.Task{}, err
	}

	task.Title = fields.Title
	task.Description = fields.Description
	// An update that omits status keeps the current one; a blank status
	// would otherwise erase a meaningful value.
	if fields.Status != "" {
		task.Status = fields.Status
	}
	task.DueDate = fields.DueDate

	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		return types.Task{}, err
	}

	s.publish(ctx, EventTaskUpdated, updated)
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id int) error {
	task, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.publish(ctx, EventTaskDeleted, task)
	return nil
}

// publish is best-effort: a broker failure is logged and never fails the
// request that triggered it.
func (s *TaskService) publish(ctx context.Context, eventType string, task types.Task) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(TaskEvent{Type: eventType, Task: task})
	if err != nil {
		s.log.WithError(err).Warn("failed to encode task event")
		return
	}

	attrs := map[string]string{"type": eventType}
	if _, err := s.publisher.Publish(ctx, s.channel, data, attrs); err != nil {
		s.log.WithError(err).WithField("type", eventType).Warn("failed to publish task event")
	}
}
