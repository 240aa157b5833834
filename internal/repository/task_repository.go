package repository

import (
	"context"

	"github.com/yukikurage/agency-ops-api/internal/database"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"gorm.io/gorm"
)

// Legacy rows keep the deadline in timer_end while the task is still pending.
const taskHasDueAtClause = "(tasks.deadline IS NOT NULL OR (tasks.status = ? AND tasks.timer_start IS NULL AND tasks.timer_end IS NOT NULL))"

// taskDueAtExpr mirrors Task.DueAt and is NULL for tasks without a due moment.
const taskDueAtExpr = "CASE WHEN tasks.deadline IS NOT NULL THEN tasks.deadline" +
	" WHEN tasks.status = '" + string(models.TaskStatusPending) + "' AND tasks.timer_start IS NULL THEN tasks.timer_end END"

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID with its client preloaded
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Preload("Client").Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("tasks.client_id = ?", *filter.ClientID)
	}
	if filter.AssignedTo != nil {
		query = query.Where("tasks.assigned_to = ?", *filter.AssignedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	switch filter.Sort {
	case TaskSortOldest:
		listQuery = listQuery.Order("tasks.created_at ASC")
	case TaskSortDeadline:
		listQuery = listQuery.Order("CASE WHEN " + taskDueAtExpr + " IS NULL THEN 1 ELSE 0 END, " + taskDueAtExpr + " ASC")
	default:
		listQuery = listQuery.Order("tasks.created_at DESC")
	}

	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	var tasks []models.Task
	if err := listQuery.Preload("Client").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit("Client").Save(task).Error
}

// Delete deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Recent returns the newest tasks
func (r *GormTaskRepository) Recent(ctx context.Context, limit int) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Preload("Client").
		Order("tasks.created_at DESC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

// UpcomingDeadlines returns open tasks with a due moment, soonest first
func (r *GormTaskRepository) UpcomingDeadlines(ctx context.Context, limit int) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("tasks.status NOT IN ?", []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusCanceled}).
		Where(taskHasDueAtClause, models.TaskStatusPending).
		Order(taskDueAtExpr + " ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}
