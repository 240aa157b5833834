package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/yukikurage/agency-ops-api/internal/constants"
	"github.com/yukikurage/agency-ops-api/internal/logging"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/repository"
	"github.com/yukikurage/agency-ops-api/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DashboardSourceLive     = "live"
	DashboardSourceFallback = "fallback"
)

// DashboardService aggregates the read-only dashboard
type DashboardService struct {
	dashRepo    repository.DashboardRepository
	taskRepo    repository.TaskRepository
	financeRepo repository.FinanceRepository
	periodDays  int
	log         *zap.Logger
	now         func() time.Time
}

// NewDashboardService creates a new DashboardService. Percentages compare
// against the newest snapshot at least periodDays old.
func NewDashboardService(dashRepo repository.DashboardRepository, taskRepo repository.TaskRepository, financeRepo repository.FinanceRepository, periodDays int, log *zap.Logger) *DashboardService {
	if periodDays <= 0 {
		periodDays = constants.DefaultDashboardPeriodDays
	}
	return &DashboardService{
		dashRepo:    dashRepo,
		taskRepo:    taskRepo,
		financeRepo: financeRepo,
		periodDays:  periodDays,
		log:         logging.OrNop(log),
		now:         time.Now,
	}
}

// DashboardMetrics are the four headline counters
type DashboardMetrics struct {
	ClientCount    int64   `json:"client_count"`
	TaskCount      int64   `json:"task_count"`
	Revenue        float64 `json:"revenue"`
	ActiveProjects int64   `json:"active_projects"`
}

// DashboardPercentages are period-over-period changes. Nil means there is no baseline.
type DashboardPercentages struct {
	Clients  *int `json:"clients"`
	Tasks    *int `json:"tasks"`
	Revenue  *int `json:"revenue"`
	Projects *int `json:"projects"`
}

type Dashboard struct {
	Source            string
	GeneratedAt       time.Time
	Metrics           DashboardMetrics
	Percentages       DashboardPercentages
	ComparedTo        *time.Time
	Finance           FinanceSummary
	RecentTasks       []models.Task
	UpcomingDeadlines []models.Task
}

// Load builds the dashboard. When the database cannot be reached a canned
// dataset flagged as fallback is returned instead of an error.
func (s *DashboardService) Load(ctx context.Context) (*Dashboard, error) {
	now := s.now().UTC()

	if err := s.dashRepo.Ping(ctx); err != nil {
		s.log.Warn("database unreachable, serving fallback dashboard", zap.Error(err))
		return FallbackDashboard(now), nil
	}

	d := &Dashboard{Source: DashboardSourceLive, GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.metrics(gctx)
		d.Metrics = m
		return err
	})
	g.Go(func() error {
		totals, err := s.financeRepo.Totals(gctx, nil)
		if err != nil {
			return fmt.Errorf("failed to aggregate finances: %w", err)
		}
		d.Finance = SummarizeFinances(totals)
		return nil
	})
	g.Go(func() error {
		tasks, err := s.taskRepo.Recent(gctx, constants.DashboardRecentTasksLimit)
		if err != nil {
			return fmt.Errorf("failed to load recent tasks: %w", err)
		}
		d.RecentTasks = tasks
		return nil
	})
	g.Go(func() error {
		tasks, err := s.taskRepo.UpcomingDeadlines(gctx, constants.DashboardDeadlinesLimit)
		if err != nil {
			return fmt.Errorf("failed to load upcoming deadlines: %w", err)
		}
		d.UpcomingDeadlines = tasks
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("dashboard query failed, serving fallback dashboard", zap.Error(err))
		return FallbackDashboard(now), nil
	}

	today := utils.StartOfDay(now)
	if err := s.ensureSnapshot(ctx, today, d.Metrics); err != nil {
		s.log.Warn("failed to record dashboard snapshot", zap.Error(err))
	}

	baseline, err := s.dashRepo.LatestSnapshotOnOrBefore(ctx, today.AddDate(0, 0, -s.periodDays))
	switch {
	case err == nil:
		d.Percentages = comparePercentages(d.Metrics, baseline)
		capturedOn := baseline.CapturedOn
		d.ComparedTo = &capturedOn
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		s.log.Warn("failed to load dashboard baseline", zap.Error(err))
	}

	return d, nil
}

// CaptureSnapshot records today's counters, replacing an earlier capture from the same day
func (s *DashboardService) CaptureSnapshot(ctx context.Context) (*models.MetricSnapshot, error) {
	m, err := s.metrics(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := newSnapshot(utils.StartOfDay(s.now().UTC()), m)
	if err := s.dashRepo.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return snapshot, nil
}

func (s *DashboardService) ensureSnapshot(ctx context.Context, day time.Time, m DashboardMetrics) error {
	_, err := s.dashRepo.FindSnapshot(ctx, day)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.dashRepo.SaveSnapshot(ctx, newSnapshot(day, m))
}

func (s *DashboardService) metrics(ctx context.Context) (DashboardMetrics, error) {
	var m DashboardMetrics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.dashRepo.CountClients(gctx)
		m.ClientCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.dashRepo.CountTasks(gctx)
		m.TaskCount = n
		return err
	})
	g.Go(func() error {
		v, err := s.dashRepo.Revenue(gctx)
		m.Revenue = utils.RoundCents(v)
		return err
	})
	g.Go(func() error {
		n, err := s.dashRepo.ActiveProjects(gctx)
		m.ActiveProjects = n
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardMetrics{}, fmt.Errorf("failed to load dashboard metrics: %w", err)
	}
	return m, nil
}

func newSnapshot(day time.Time, m DashboardMetrics) *models.MetricSnapshot {
	return &models.MetricSnapshot{
		CapturedOn:     day,
		ClientCount:    m.ClientCount,
		TaskCount:      m.TaskCount,
		Revenue:        m.Revenue,
		ActiveProjects: m.ActiveProjects,
	}
}

func comparePercentages(cur DashboardMetrics, prev *models.MetricSnapshot) DashboardPercentages {
	pct := func(c, p float64) *int {
		v := PercentageChange(c, p)
		return &v
	}
	return DashboardPercentages{
		Clients:  pct(float64(cur.ClientCount), float64(prev.ClientCount)),
		Tasks:    pct(float64(cur.TaskCount), float64(prev.TaskCount)),
		Revenue:  pct(cur.Revenue, prev.Revenue),
		Projects: pct(float64(cur.ActiveProjects), float64(prev.ActiveProjects)),
	}
}

// PercentageChange returns round((cur-prev)/prev*100), or 0 when prev is 0.
func PercentageChange(cur, prev float64) int {
	if prev == 0 {
		return 0
	}
	return int(math.Round((cur - prev) / prev * 100))
}

// FallbackDashboard is the canned dataset served while the database is unreachable
func FallbackDashboard(now time.Time) *Dashboard {
	day := 24 * time.Hour
	clientName := func(name string) *models.Client { return &models.Client{Name: name} }
	clientID := func(id string) *string { return &id }
	deadline := func(d time.Duration) *time.Time { t := now.Add(d); return &t }

	return &Dashboard{
		Source:      DashboardSourceFallback,
		GeneratedAt: now,
		Metrics: DashboardMetrics{
			ClientCount:    12,
			TaskCount:      24,
			Revenue:        15750,
			ActiveProjects: 8,
		},
		Finance: FinanceSummary{
			TotalInvoiced:   18900,
			TotalPayments:   15750,
			TotalExpenses:   11025,
			PendingInvoices: 5670,
		},
		RecentTasks: []models.Task{
			{ID: "fallback-1", ClientID: clientID("fallback-client-1"), Title: "Website Redesign Project", Description: "Website redesign", Status: models.TaskStatusCompleted, CreatedAt: now.Add(-day), Client: clientName("Acme Corp")},
			{ID: "fallback-2", ClientID: clientID("fallback-client-2"), Title: "Q2 Social Media Campaign", Description: "Social media campaign", Status: models.TaskStatusInProgress, CreatedAt: now.Add(-2 * day), Client: clientName("TechStart Inc")},
			{ID: "fallback-3", ClientID: clientID("fallback-client-3"), Title: "Blog Content Creation", Description: "Content creation", Status: models.TaskStatusPending, CreatedAt: now.Add(-3 * day), Client: clientName("Global Media")},
		},
		UpcomingDeadlines: []models.Task{
			{ID: "fallback-4", ClientID: clientID("fallback-client-1"), Title: "Monthly Newsletter", Description: "Email newsletter", Status: models.TaskStatusInProgress, Deadline: deadline(day), CreatedAt: now, Client: clientName("Acme Corp")},
			{ID: "fallback-5", ClientID: clientID("fallback-client-2"), Title: "Google Ads Campaign", Description: "Ad campaign setup", Status: models.TaskStatusPending, Deadline: deadline(2 * day), CreatedAt: now, Client: clientName("TechStart Inc")},
			{ID: "fallback-6", ClientID: clientID("fallback-client-3"), Title: "Product Demo Video", Description: "Video editing", Status: models.TaskStatusInProgress, Deadline: deadline(3 * day), CreatedAt: now, Client: clientName("Global Media")},
		},
	}
}
