package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/repository"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableTaskRepo panics on any call, proving a request was rejected before the database
type unreachableTaskRepo struct {
	repository.TaskRepository
}

type unreachableClientRepo struct {
	repository.ClientRepository
}

type listingTaskRepo struct {
	repository.TaskRepository
	tasks []models.Task
}

func (r *listingTaskRepo) List(ctx context.Context, filter repository.TaskFilter) ([]models.Task, int64, error) {
	return r.tasks, int64(len(r.tasks)), nil
}

type staticClientRepo struct {
	repository.ClientRepository
	client *models.Client
}

func (r *staticClientRepo) FindByID(ctx context.Context, id string) (*models.Client, error) {
	return r.client, nil
}

type scriptedSuggester struct {
	tasks []SuggestedTask
	brief string
}

func (s *scriptedSuggester) SuggestTasks(ctx context.Context, brief string) ([]SuggestedTask, error) {
	s.brief = brief
	return s.tasks, nil
}

func TestCreateTask_RejectsBeforeDatabase(t *testing.T) {
	svc := NewTaskService(unreachableTaskRepo{}, unreachableClientRepo{}, nil, nil)

	_, err := svc.CreateTask(context.Background(), CreateTaskInput{ClientID: "abc", Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidClientID)

	_, err = svc.CreateTask(context.Background(), CreateTaskInput{ClientID: "3f1c2b9e-6a5d-4e8f-9b7a-1c2d3e4f5a6b", Title: "  "})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.CreateTask(context.Background(), CreateTaskInput{ClientID: "3f1c2b9e-6a5d-4e8f-9b7a-1c2d3e4f5a6b", Title: "x", Status: "Done"})
	assert.ErrorIs(t, err, ErrInvalidTaskStatus)
}

func TestListTasks_RejectsBadFilters(t *testing.T) {
	svc := NewTaskService(unreachableTaskRepo{}, unreachableClientRepo{}, nil, nil)

	_, _, err := svc.ListTasks(context.Background(), ListTasksInput{ClientID: "nope"})
	assert.ErrorIs(t, err, ErrInvalidClientID)

	_, _, err = svc.ListTasks(context.Background(), ListTasksInput{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidTaskStatus)
}

func TestListTasks_WarnsOnMissingClient(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dangling := "3f1c2b9e-6a5d-4e8f-9b7a-1c2d3e4f5a6b"
	repo := &listingTaskRepo{tasks: []models.Task{
		{ID: "t1", ClientID: &dangling},
		{ID: "t2", ClientID: &dangling, Client: &models.Client{Name: "Acme"}},
		{ID: "t3"},
	}}

	tasks, total, err := NewTaskService(repo, unreachableClientRepo{}, nil, zap.New(core)).
		ListTasks(context.Background(), ListTasksInput{})
	require.NoError(t, err)

	assert.Len(t, tasks, 3)
	assert.Equal(t, int64(3), total)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "t1", logs.All()[0].ContextMap()["task_id"])
}

func TestSuggestTasks_FiltersOutput(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-72 * time.Hour)
	soon := now.Add(-2 * time.Hour)

	raw := []SuggestedTask{
		{Title: "  "},
		{Title: "Old deadline", Deadline: &past},
		{Title: "Recent deadline", Deadline: &soon},
	}
	for i := 0; i < 12; i++ {
		raw = append(raw, SuggestedTask{Title: "Extra"})
	}
	suggester := &scriptedSuggester{tasks: raw}
	client := &models.Client{Name: "Acme", ProjectIdeas: "video series"}

	svc := NewTaskService(unreachableTaskRepo{}, &staticClientRepo{client: client}, suggester, nil)
	svc.now = func() time.Time { return now }

	tasks, err := svc.SuggestTasks(context.Background(), "any", "launch in May")
	require.NoError(t, err)

	assert.Len(t, tasks, 10)
	assert.Equal(t, "Old deadline", tasks[0].Title)
	assert.Nil(t, tasks[0].Deadline)
	assert.Equal(t, &soon, tasks[1].Deadline)

	assert.Contains(t, suggester.brief, "Client: Acme")
	assert.Contains(t, suggester.brief, "video series")
	assert.Contains(t, suggester.brief, "launch in May")
	assert.NotContains(t, suggester.brief, "Notes:")
}

func TestSuggestTasks_NotConfigured(t *testing.T) {
	svc := NewTaskService(unreachableTaskRepo{}, unreachableClientRepo{}, nil, nil)

	_, err := svc.SuggestTasks(context.Background(), "any", "")

	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)
}
