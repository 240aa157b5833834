package dto

import (
	"time"

	"github.com/yukikurage/agency-ops-api/internal/services"
)

// DashboardDTO is the dashboard response
type DashboardDTO struct {
	Source            string                        `json:"source"`
	GeneratedAt       time.Time                     `json:"generated_at"`
	Stats             services.DashboardMetrics     `json:"stats"`
	Percentages       services.DashboardPercentages `json:"percentages"`
	ComparedTo        *time.Time                    `json:"compared_to"`
	Finance           services.FinanceSummary       `json:"finance"`
	RecentActivity    []TaskDTO                     `json:"recent_activity"`
	UpcomingDeadlines []TaskDTO                     `json:"upcoming_deadlines"`
}

func ToDashboardDTO(d *services.Dashboard) DashboardDTO {
	return DashboardDTO{
		Source:            d.Source,
		GeneratedAt:       d.GeneratedAt,
		Stats:             d.Metrics,
		Percentages:       d.Percentages,
		ComparedTo:        d.ComparedTo,
		Finance:           d.Finance,
		RecentActivity:    ToTaskDTOs(d.RecentTasks, d.GeneratedAt),
		UpcomingDeadlines: ToTaskDTOs(d.UpcomingDeadlines, d.GeneratedAt),
	}
}
