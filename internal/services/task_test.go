package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/taskhive/apiserver/internal/store"
	"github.com/taskhive/apiserver/types"
)

type memTaskRepo struct {
	mu     sync.Mutex
	nextID int
	tasks  map[int]types.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{nextID: 1, tasks: make(map[int]types.Task)}
}

func (r *memTaskRepo) Create(_ context.Context, task types.Task) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = r.nextID
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	r.nextID++
	r.tasks[task.ID] = task
	return task, nil
}

func (r *memTaskRepo) ListByOwner(_ context.Context, ownerID int) ([]types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := make([]types.Task, 0)
	for id := 1; id < r.nextID; id++ {
		if task, ok := r.tasks[id]; ok && task.OwnerID == ownerID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (r *memTaskRepo) Get(_ context.Context, ownerID, id int) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return types.Task{}, store.ErrNotFound
	}
	return task, nil
}

func (r *memTaskRepo) Update(_ context.Context, task types.Task) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return types.Task{}, store.ErrNotFound
	}
	task.UpdatedAt = time.Now()
	r.tasks[task.ID] = task
	return task, nil
}

func (r *memTaskRepo) Delete(_ context.Context, ownerID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

type recordedEvent struct {
	channel string
	payload TaskEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, data []byte, _ map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	var payload TaskEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", err
	}
	p.events = append(p.events, recordedEvent{channel: channel, payload: payload})
	return "msg-id", nil
}

func (p *fakePublisher) recorded() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

func TestTaskLifecyclePublishesEvents(t *testing.T) {
	publisher := &fakePublisher{}
	svc := NewTaskService(newMemTaskRepo()).WithEvents(publisher, "task-events")
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, TaskFields{Title: "buy milk"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := svc.Update(ctx, 1, task.ID, TaskFields{Title: "buy milk", Status: "done"}); err != nil {
		t.Fatalf("update task: %v", err)
	}

	if err := svc.Delete(ctx, 1, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}

	events := publisher.recorded()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	wantTypes := []string{EventTaskCreated, EventTaskUpdated, EventTaskDeleted}
	for i, want := range wantTypes {
		if events[i].payload.Type != want {
			t.Fatalf("event %d: expected type %q, got %q", i, want, events[i].payload.Type)
		}
		if events[i].channel != "task-events" {
			t.Fatalf("event %d: unexpected channel %q", i, events[i].channel)
		}
		if events[i].payload.Task.ID != task.ID {
			t.Fatalf("event %d: unexpected task id %d", i, events[i].payload.Task.ID)
		}
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := NewTaskService(newMemTaskRepo()).WithEvents(publisher, "task-events")

	if _, err := svc.Create(context.Background(), 1, TaskFields{Title: "buy milk"}); err != nil {
		t.Fatalf("create must succeed despite broker failure, got %v", err)
	}
}

func TestCreateDefaultsStatus(t *testing.T) {
	svc := NewTaskService(newMemTaskRepo())

	task, err := svc.Create(context.Background(), 1, TaskFields{Title: "buy milk"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != types.DefaultTaskStatus {
		t.Fatalf("expected default status, got %q", task.Status)
	}

	task, err = svc.Create(context.Background(), 1, TaskFields{Title: "call mom", Status: "scheduled"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != "scheduled" {
		t.Fatalf("explicit status must win, got %q", task.Status)
	}
}

func TestUpdateWithoutStatusKeepsCurrentStatus(t *testing.T) {
	svc := NewTaskService(newMemTaskRepo())
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, TaskFields{Title: "buy milk", Status: "scheduled"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	updated, err := svc.Update(ctx, 1, task.ID, TaskFields{Title: "buy oat milk"})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Status != "scheduled" {
		t.Fatalf("expected status to be preserved, got %q", updated.Status)
	}

	updated, err = svc.Update(ctx, 1, task.ID, TaskFields{Title: "buy oat milk", Status: "done"})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Status != "done" {
		t.Fatalf("expected explicit status to win, got %q", updated.Status)
	}
}

func TestCrossOwnerOperationsReturnNotFound(t *testing.T) {
	svc := NewTaskService(newMemTaskRepo())
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, TaskFields{Title: "private"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := svc.Get(ctx, 2, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on foreign get, got %v", err)
	}
	if _, err := svc.Update(ctx, 2, task.ID, TaskFields{Title: "stolen"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on foreign update, got %v", err)
	}
	if err := svc.Delete(ctx, 2, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on foreign delete, got %v", err)
	}
}
