package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/agency-ops-api/internal/constants"
	"github.com/yukikurage/agency-ops-api/internal/logging"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/repository"
	"github.com/yukikurage/agency-ops-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleEmpty             = errors.New("title cannot be empty")
	ErrInvalidClientID        = errors.New("client_id must be a UUID")
	ErrTaskClientNotFound     = errors.New("client does not exist")
	ErrInvalidTaskStatus      = errors.New("invalid task status")
	ErrTaskClosed             = errors.New("task is already completed or canceled")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo   repository.TaskRepository
	clientRepo repository.ClientRepository
	suggester  TaskSuggester
	log        *zap.Logger
	now        func() time.Time
}

// NewTaskService creates a new TaskService. suggester may be nil.
func NewTaskService(taskRepo repository.TaskRepository, clientRepo repository.ClientRepository, suggester TaskSuggester, log *zap.Logger) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		clientRepo: clientRepo,
		suggester:  suggester,
		log:        logging.OrNop(log),
		now:        time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status     string
	ClientID   string
	AssignedTo string
	Sort       string
	Pagination utils.PaginationParams
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ClientID    string
	Title       string
	Description string
	Status      string
	Deadline    *time.Time
	AssignedTo  *string
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	ClientID      *string
	Status        *string
	Deadline      *time.Time
	ClearDeadline bool
	AssignedTo    *string
}

// Now returns the service clock
func (s *TaskService) Now() time.Time {
	return s.now()
}

// ListTasks returns tasks with their client joined
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Sort:       repository.TaskSort(input.Sort),
		Pagination: input.Pagination,
	}

	if input.Status != "" {
		status, ok := models.ParseTaskStatus(input.Status)
		if !ok {
			return nil, 0, ErrInvalidTaskStatus
		}
		filter.Status = &status
	}
	if input.ClientID != "" {
		if !utils.IsUUID(input.ClientID) {
			return nil, 0, ErrInvalidClientID
		}
		clientID := strings.ToLower(input.ClientID)
		filter.ClientID = &clientID
	}
	if input.AssignedTo != "" {
		filter.AssignedTo = &input.AssignedTo
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	s.warnMissingClients(tasks)
	return tasks, total, nil
}

// GetTask returns a task with its client joined
func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	s.warnMissingClients([]models.Task{*task})
	return task, nil
}

// CreateTask validates and inserts a task. The client id format is checked
// before any database access.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if !utils.IsUUID(input.ClientID) {
		return nil, ErrInvalidClientID
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	status := models.TaskStatusPending
	if input.Status != "" {
		parsed, ok := models.ParseTaskStatus(input.Status)
		if !ok {
			return nil, ErrInvalidTaskStatus
		}
		status = parsed
	}

	if err := s.ensureClientExists(ctx, input.ClientID); err != nil {
		return nil, err
	}

	clientID := strings.ToLower(input.ClientID)
	task := &models.Task{
		ClientID:    &clientID,
		Title:       title,
		Description: input.Description,
		Status:      status,
		Deadline:    input.Deadline,
		AssignedTo:  input.AssignedTo,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.findTask(ctx, task.ID)
}

// UpdateTask updates an existing task
func (s *TaskService) UpdateTask(ctx context.Context, id string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.ClientID != nil {
		if !utils.IsUUID(*input.ClientID) {
			return nil, ErrInvalidClientID
		}
		if err := s.ensureClientExists(ctx, *input.ClientID); err != nil {
			return nil, err
		}
		clientID := strings.ToLower(*input.ClientID)
		task.ClientID = &clientID
	}
	if input.Status != nil {
		status, ok := models.ParseTaskStatus(*input.Status)
		if !ok {
			return nil, ErrInvalidTaskStatus
		}
		task.Status = status
	}
	if input.ClearDeadline {
		task.Deadline = nil
	} else if input.Deadline != nil {
		task.Deadline = input.Deadline
	}
	if input.AssignedTo != nil {
		if *input.AssignedTo == "" {
			task.AssignedTo = nil
		} else {
			task.AssignedTo = input.AssignedTo
		}
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.findTask(ctx, task.ID)
}

// StartTask starts the timer and moves the task to in_progress
func (s *TaskService) StartTask(ctx context.Context, id string) (*models.Task, error) {
	return s.transition(ctx, id, func(task *models.Task, now time.Time) {
		task.TimerStart = &now
		task.TimerEnd = nil
		task.Status = models.TaskStatusInProgress
	})
}

// CompleteTask stops the timer and marks the task completed
func (s *TaskService) CompleteTask(ctx context.Context, id string) (*models.Task, error) {
	return s.transition(ctx, id, func(task *models.Task, now time.Time) {
		task.TimerEnd = &now
		task.Status = models.TaskStatusCompleted
	})
}

// CancelTask stops the timer and marks the task canceled
func (s *TaskService) CancelTask(ctx context.Context, id string) (*models.Task, error) {
	return s.transition(ctx, id, func(task *models.Task, now time.Time) {
		task.TimerEnd = &now
		task.Status = models.TaskStatusCanceled
	})
}

func (s *TaskService) transition(ctx context.Context, id string, apply func(task *models.Task, now time.Time)) (*models.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status.Closed() {
		return nil, ErrTaskClosed
	}

	// Keep a legacy deadline stored in timer_end before the timer overwrites it.
	if task.Deadline == nil {
		task.Deadline = task.DueAt()
	}

	apply(task, s.now().UTC())

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// DeleteTask deletes a task
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// SuggestTasks drafts tasks from a client's ideas, goal and notes. Nothing is persisted.
func (s *TaskService) SuggestTasks(ctx context.Context, clientID, extra string) ([]SuggestedTask, error) {
	if s.suggester == nil {
		return nil, ErrAIServiceNotConfigured
	}

	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}

	aiTasks, err := s.suggester.SuggestTasks(ctx, clientBrief(client, extra))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}

	validTasks := make([]SuggestedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}

		if aiTask.Deadline != nil && aiTask.Deadline.Before(cutoff) {
			aiTask.Deadline = nil
		}

		validTasks = append(validTasks, aiTask)
		if len(validTasks) == constants.MaxSuggestedTasks {
			break
		}
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

func clientBrief(client *models.Client, extra string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Client: %s\n", client.Name)
	sections := []struct{ label, text string }{
		{"Goal", client.ClientGoal},
		{"Current position", client.CurrentPosition},
		{"Project ideas", client.ProjectIdeas},
		{"Notes", client.Notes},
		{"Additional context", extra},
	}
	for _, sec := range sections {
		if strings.TrimSpace(sec.text) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n%s\n", sec.label, strings.TrimSpace(sec.text))
	}
	return b.String()
}

func (s *TaskService) findTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) ensureClientExists(ctx context.Context, clientID string) error {
	if _, err := s.clientRepo.FindByID(ctx, strings.ToLower(clientID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskClientNotFound
		}
		return fmt.Errorf("failed to find client: %w", err)
	}
	return nil
}

// warnMissingClients logs tasks whose client reference no longer resolves
func (s *TaskService) warnMissingClients(tasks []models.Task) {
	for _, t := range tasks {
		if t.ClientID != nil && t.Client == nil {
			s.log.Warn("task references a missing client",
				zap.String("task_id", t.ID),
				zap.String("client_id", *t.ClientID),
			)
		}
	}
}
