package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-ops-api/internal/dto"
	apierrors "github.com/yukikurage/agency-ops-api/internal/errors"
	"github.com/yukikurage/agency-ops-api/internal/services"
	"github.com/yukikurage/agency-ops-api/internal/utils"
	"github.com/yukikurage/agency-ops-api/internal/validation"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns tasks joined with their client name
// Can filter by status, client_id and assigned_to; sort is newest, oldest or deadline
func (h *TaskHandler) ListTasks(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), services.ListTasksInput{
		Status:     c.Query("status"),
		ClientID:   c.Query("client_id"),
		AssignedTo: c.Query("assigned_to"),
		Sort:       c.Query("sort"),
		Pagination: params,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total, h.taskService.Now()))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskService.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.taskService.Now()))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		ClientID    string  `json:"client_id"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Status      string  `json:"status"`
		Deadline    *string `json:"deadline"`
		AssignedTo  *string `json:"assigned_to"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	dates := map[string]*time.Time{}
	v := validation.Violations{}
	parseDates(map[string]*string{"deadline": req.Deadline}, dates, v)
	if !v.Empty() {
		apierrors.BadRequestWithDetails(c, "Validation failed", v)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		ClientID:    strings.TrimSpace(req.ClientID),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Deadline:    dates["deadline"],
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task, h.taskService.Now()))
}

// UpdateTask updates an existing task. An empty deadline clears it.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		ClientID    *string `json:"client_id"`
		Status      *string `json:"status"`
		Deadline    *string `json:"deadline"`
		AssignedTo  *string `json:"assigned_to"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ClientID:    req.ClientID,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	}
	if req.Deadline != nil {
		if strings.TrimSpace(*req.Deadline) == "" {
			input.ClearDeadline = true
		} else {
			deadline, err := utils.ParseDate(*req.Deadline)
			if err != nil {
				apierrors.BadRequestWithDetails(c, "Validation failed", validation.Violations{"deadline": "invalid_date"})
				return
			}
			input.Deadline = deadline
		}
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.taskService.Now()))
}

// StartTask starts the task timer
func (h *TaskHandler) StartTask(c *gin.Context) {
	task, err := h.taskService.StartTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.taskService.Now()))
}

// CompleteTask stops the timer and completes the task
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	task, err := h.taskService.CompleteTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.taskService.Now()))
}

// CancelTask stops the timer and cancels the task
func (h *TaskHandler) CancelTask(c *gin.Context) {
	task, err := h.taskService.CancelTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.taskService.Now()))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskService.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// SuggestTasks drafts tasks for a client with the AI assistant
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	type SuggestTasksRequest struct {
		Context string `json:"context"`
	}

	var req SuggestTasksRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	tasks, err := h.taskService.SuggestTasks(c.Request.Context(), c.Param("id"), req.Context)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": tasks})
}

func respondTaskError(c *gin.Context, err error) {
	if respondValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrClientNotFound):
		apierrors.NotFound(c, "Client not found")
	case errors.Is(err, services.ErrInvalidClientID):
		apierrors.InvalidFormat(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrTaskClientNotFound):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskClosed),
		errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.InvalidOperation(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
