package repository

import (
	"context"
	"time"

	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/utils"
)

// ClientRepository defines the interface for client data access
type ClientRepository interface {
	// Create creates a new client
	Create(ctx context.Context, client *models.Client) error

	// FindByID finds a client by ID
	FindByID(ctx context.Context, id string) (*models.Client, error)

	// List retrieves clients with filtering, sorting and pagination
	List(ctx context.Context, filter ClientFilter) ([]models.Client, int64, error)

	// Save writes every column of the client
	Save(ctx context.Context, client *models.Client) error

	// UpdateColumns writes only the given columns
	UpdateColumns(ctx context.Context, id string, columns map[string]interface{}) error

	// Delete deletes a client and detaches its tasks, finances and works
	Delete(ctx context.Context, id string) error
}

// ClientFilter holds filtering options for listing clients
type ClientFilter struct {
	Status     *models.ClientStatus
	Search     string
	SortBy     string
	Ascending  bool
	Pagination utils.PaginationParams
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with its client preloaded
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(ctx context.Context, task *models.Task) error

	// Delete deletes a task
	Delete(ctx context.Context, id string) error

	// Recent returns the newest tasks
	Recent(ctx context.Context, limit int) ([]models.Task, error)

	// UpcomingDeadlines returns open tasks with a due moment, soonest first
	UpcomingDeadlines(ctx context.Context, limit int) ([]models.Task, error)
}

// TaskSort selects the ordering of task lists
type TaskSort string

const (
	TaskSortNewest   TaskSort = "newest"
	TaskSortOldest   TaskSort = "oldest"
	TaskSortDeadline TaskSort = "deadline"
)

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Status     *models.TaskStatus
	ClientID   *string
	AssignedTo *string
	Sort       TaskSort
	Pagination utils.PaginationParams
}

// FinanceRepository defines the interface for finance record data access
type FinanceRepository interface {
	Create(ctx context.Context, record *models.Finance) error
	FindByID(ctx context.Context, id string) (*models.Finance, error)
	List(ctx context.Context, filter FinanceFilter) ([]models.Finance, int64, error)
	Update(ctx context.Context, record *models.Finance) error
	Delete(ctx context.Context, id string) error

	// Totals sums amounts grouped by type and status
	Totals(ctx context.Context, clientID *string) ([]FinanceTotal, error)
}

// FinanceFilter holds filtering options for listing finance records
type FinanceFilter struct {
	Type       *models.FinanceType
	Status     *models.FinanceStatus
	ClientID   *string
	Pagination utils.PaginationParams
}

// FinanceTotal is one row of the grouped finance aggregation
type FinanceTotal struct {
	Type   models.FinanceType
	Status models.FinanceStatus
	Total  float64
	Count  int64
}

// TeamMemberRepository defines the interface for team member data access
type TeamMemberRepository interface {
	Create(ctx context.Context, member *models.TeamMember) error
	FindByID(ctx context.Context, id string) (*models.TeamMember, error)
	List(ctx context.Context, status *models.TeamMemberStatus) ([]models.TeamMember, error)
	Update(ctx context.Context, member *models.TeamMember) error
	Delete(ctx context.Context, id string) error
}

// WorkRepository defines the interface for works and their child records.
// Every expense write adjusts the work's remaining budget in the same transaction.
type WorkRepository interface {
	// Create creates a new work
	Create(ctx context.Context, work *models.Work) error

	// FindByID finds a work by ID with optional preloading
	FindByID(ctx context.Context, id string, preload ...string) (*models.Work, error)

	// List retrieves works with filtering and pagination
	List(ctx context.Context, filter WorkFilter) ([]models.Work, int64, error)

	// Update writes the work. When the total budget changed from previousTotal
	// the remaining budget is shifted by the same delta.
	Update(ctx context.Context, work *models.Work, previousTotal *float64) error

	// Delete deletes a work together with its resources, expenses and documents
	Delete(ctx context.Context, id string) error

	// Reconcile recomputes remaining budget from the expense rows
	Reconcile(ctx context.Context, id string) (*models.Work, error)

	ListResources(ctx context.Context, workID string) ([]models.WorkResource, error)
	FindResource(ctx context.Context, workID, id string) (*models.WorkResource, error)
	CreateResource(ctx context.Context, resource *models.WorkResource) error
	UpdateResource(ctx context.Context, resource *models.WorkResource) error
	DeleteResource(ctx context.Context, workID, id string) error

	ListExpenses(ctx context.Context, workID string) ([]models.WorkExpense, error)
	FindExpense(ctx context.Context, workID, id string) (*models.WorkExpense, error)
	CreateExpense(ctx context.Context, expense *models.WorkExpense) error
	UpdateExpense(ctx context.Context, expense *models.WorkExpense, previousAmount float64) error
	DeleteExpense(ctx context.Context, workID, id string) (*models.WorkExpense, error)

	ListDocuments(ctx context.Context, workID string) ([]models.WorkDocument, error)
	FindDocument(ctx context.Context, workID, id string) (*models.WorkDocument, error)
	CreateDocument(ctx context.Context, document *models.WorkDocument) error
	UpdateDocument(ctx context.Context, document *models.WorkDocument) error
	DeleteDocument(ctx context.Context, workID, id string) error
}

// WorkFilter holds filtering options for listing works
type WorkFilter struct {
	Status     *models.WorkStatus
	ClientID   *string
	Pagination utils.PaginationParams
}

// DashboardRepository provides the aggregate reads and the snapshot history behind the dashboard
type DashboardRepository interface {
	// Ping checks database connectivity
	Ping(ctx context.Context) error

	CountClients(ctx context.Context) (int64, error)
	CountTasks(ctx context.Context) (int64, error)

	// Revenue sums payment records
	Revenue(ctx context.Context) (float64, error)

	// ActiveProjects counts distinct non-null client ids over tasks
	ActiveProjects(ctx context.Context) (int64, error)

	// FindSnapshot returns the snapshot captured on day
	FindSnapshot(ctx context.Context, day time.Time) (*models.MetricSnapshot, error)

	// LatestSnapshotOnOrBefore returns the newest snapshot captured on or before day
	LatestSnapshotOnOrBefore(ctx context.Context, day time.Time) (*models.MetricSnapshot, error)

	// SaveSnapshot inserts the snapshot or replaces the one captured on the same day
	SaveSnapshot(ctx context.Context, snapshot *models.MetricSnapshot) error
}
