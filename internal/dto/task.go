package dto

import (
	"time"

	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/utils"
)

// TaskDTO represents a task in API responses. ClientName is null and
// ClientMissing is true when the referenced client row no longer exists.
type TaskDTO struct {
	ID             string            `json:"id"`
	ClientID       *string           `json:"client_id"`
	ClientName     *string           `json:"client_name"`
	ClientMissing  bool              `json:"client_missing"`
	AssignedTo     *string           `json:"assigned_to"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Status         models.TaskStatus `json:"status"`
	Deadline       *time.Time        `json:"deadline"`
	TimerStart     *time.Time        `json:"timer_start"`
	TimerEnd       *time.Time        `json:"timer_end"`
	ElapsedSeconds int64             `json:"elapsed_seconds"`
	Overdue        bool              `json:"overdue"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// Conversion functions

// clientRef resolves the joined client name of a row referencing a client
func clientRef(clientID *string, client *models.Client) (*string, bool) {
	if client != nil {
		name := client.Name
		return &name, false
	}
	return nil, clientID != nil
}

// ToTaskDTO converts a Task model to TaskDTO, deriving elapsed and overdue at now
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	name, missing := clientRef(task.ClientID, task.Client)
	deadline := task.Deadline
	if deadline == nil {
		deadline = task.DueAt()
	}

	return TaskDTO{
		ID:             task.ID,
		ClientID:       task.ClientID,
		ClientName:     name,
		ClientMissing:  missing,
		AssignedTo:     task.AssignedTo,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Deadline:       deadline,
		TimerStart:     task.TimerStart,
		TimerEnd:       task.TimerEnd,
		ElapsedSeconds: int64(task.Elapsed(now).Seconds()),
		Overdue:        task.Overdue(now),
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task, now time.Time) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task, now)
	}
	return items
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64, now time.Time) TaskListResponse {
	return TaskListResponse{
		Tasks:      ToTaskDTOs(tasks, now),
		Pagination: params.Response(total),
	}
}
