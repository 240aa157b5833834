package constants

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Context keys
const (
	ContextKeyRequestID = "request_id"
	ContextKeyWork      = "work"
)

const RequestIDHeader = "X-Request-ID"

// Task suggestions
const (
	MaxSuggestedTasks = 10
)

// Dashboard
const (
	DashboardRecentTasksLimit  = 5
	DashboardDeadlinesLimit    = 5
	DefaultDashboardPeriodDays = 30
)

// DefaultCurrency is used when a client budget carries no currency.
const DefaultCurrency = "USD"
