package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/repository"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type fakeDashboardRepo struct {
	mu        sync.Mutex
	pingErr   error
	countErr  error
	clients   int64
	tasks     int64
	revenue   float64
	projects  int64
	snapshots map[time.Time]*models.MetricSnapshot
}

func newFakeDashboardRepo() *fakeDashboardRepo {
	return &fakeDashboardRepo{snapshots: map[time.Time]*models.MetricSnapshot{}}
}

func (f *fakeDashboardRepo) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeDashboardRepo) CountClients(ctx context.Context) (int64, error) {
	return f.clients, f.countErr
}

func (f *fakeDashboardRepo) CountTasks(ctx context.Context) (int64, error) { return f.tasks, nil }

func (f *fakeDashboardRepo) Revenue(ctx context.Context) (float64, error) { return f.revenue, nil }

func (f *fakeDashboardRepo) ActiveProjects(ctx context.Context) (int64, error) {
	return f.projects, nil
}

func (f *fakeDashboardRepo) FindSnapshot(ctx context.Context, day time.Time) (*models.MetricSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.snapshots[day]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDashboardRepo) LatestSnapshotOnOrBefore(ctx context.Context, day time.Time) (*models.MetricSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.MetricSnapshot
	for d, s := range f.snapshots {
		if d.After(day) {
			continue
		}
		if best == nil || d.After(best.CapturedOn) {
			best = s
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (f *fakeDashboardRepo) SaveSnapshot(ctx context.Context, snapshot *models.MetricSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[snapshot.CapturedOn] = snapshot
	return nil
}

// fakeTaskRepo only serves the dashboard reads; any other call panics
type fakeTaskRepo struct {
	repository.TaskRepository
	recent   []models.Task
	upcoming []models.Task
}

func (f *fakeTaskRepo) Recent(ctx context.Context, limit int) ([]models.Task, error) {
	return f.recent, nil
}

func (f *fakeTaskRepo) UpcomingDeadlines(ctx context.Context, limit int) ([]models.Task, error) {
	return f.upcoming, nil
}

type fakeFinanceRepo struct {
	repository.FinanceRepository
	totals []repository.FinanceTotal
}

func (f *fakeFinanceRepo) Totals(ctx context.Context, clientID *string) ([]repository.FinanceTotal, error) {
	return f.totals, nil
}

var dashboardNow = time.Date(2030, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestDashboardService(repo *fakeDashboardRepo, log *zap.Logger) *DashboardService {
	svc := NewDashboardService(repo, &fakeTaskRepo{
		recent: []models.Task{{ID: "t1", Title: "Recent"}},
	}, &fakeFinanceRepo{
		totals: []repository.FinanceTotal{{Type: models.FinanceTypePayment, Status: models.FinanceStatusCompleted, Total: 80}},
	}, 7, log)
	svc.now = func() time.Time { return dashboardNow }
	return svc
}

func TestPercentageChange(t *testing.T) {
	assert.Equal(t, 0, PercentageChange(10, 0))
	assert.Equal(t, 0, PercentageChange(0, 0))
	assert.Equal(t, 50, PercentageChange(15, 10))
	assert.Equal(t, -100, PercentageChange(0, 10))
	assert.Equal(t, 33, PercentageChange(4, 3))
	assert.Equal(t, -67, PercentageChange(1, 3))
}

func TestDashboardLoad_Live(t *testing.T) {
	repo := newFakeDashboardRepo()
	repo.clients, repo.tasks, repo.revenue, repo.projects = 4, 9, 80.004, 3

	d, err := newTestDashboardService(repo, nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DashboardSourceLive, d.Source)
	assert.Equal(t, DashboardMetrics{ClientCount: 4, TaskCount: 9, Revenue: 80, ActiveProjects: 3}, d.Metrics)
	assert.Equal(t, 80.0, d.Finance.TotalPayments)
	assert.Len(t, d.RecentTasks, 1)
	assert.Nil(t, d.ComparedTo)
	assert.Nil(t, d.Percentages.Clients)

	today := time.Date(2030, 3, 15, 0, 0, 0, 0, time.UTC)
	require.Contains(t, repo.snapshots, today)
	assert.Equal(t, int64(9), repo.snapshots[today].TaskCount)
}

func TestDashboardLoad_KeepsExistingSnapshotForToday(t *testing.T) {
	repo := newFakeDashboardRepo()
	today := time.Date(2030, 3, 15, 0, 0, 0, 0, time.UTC)
	repo.snapshots[today] = &models.MetricSnapshot{CapturedOn: today, ClientCount: 1}
	repo.clients = 5

	_, err := newTestDashboardService(repo, nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), repo.snapshots[today].ClientCount)
}

func TestDashboardLoad_ComparesWithBaseline(t *testing.T) {
	repo := newFakeDashboardRepo()
	repo.clients, repo.tasks, repo.revenue, repo.projects = 6, 10, 150, 0

	old := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2030, 3, 12, 0, 0, 0, 0, time.UTC)
	repo.snapshots[old] = &models.MetricSnapshot{CapturedOn: old, ClientCount: 4, TaskCount: 10, Revenue: 100, ActiveProjects: 0}
	// inside the period, so not used as the baseline
	repo.snapshots[recent] = &models.MetricSnapshot{CapturedOn: recent, ClientCount: 1}

	d, err := newTestDashboardService(repo, nil).Load(context.Background())
	require.NoError(t, err)

	require.NotNil(t, d.ComparedTo)
	assert.Equal(t, old, *d.ComparedTo)
	assert.Equal(t, 50, *d.Percentages.Clients)
	assert.Equal(t, 0, *d.Percentages.Tasks)
	assert.Equal(t, 50, *d.Percentages.Revenue)
	assert.Equal(t, 0, *d.Percentages.Projects)
}

func TestDashboardLoad_FallbackWhenUnreachable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := newFakeDashboardRepo()
	repo.pingErr = errors.New("connection refused")

	d, err := newTestDashboardService(repo, zap.New(core)).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DashboardSourceFallback, d.Source)
	assert.Equal(t, int64(12), d.Metrics.ClientCount)
	assert.Len(t, d.RecentTasks, 3)
	assert.Len(t, d.UpcomingDeadlines, 3)
	assert.Equal(t, 1, logs.Len())
	assert.Empty(t, repo.snapshots)
}

func TestDashboardLoad_FallbackWhenQueryFails(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := newFakeDashboardRepo()
	repo.countErr = errors.New("relation does not exist")

	d, err := newTestDashboardService(repo, zap.New(core)).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DashboardSourceFallback, d.Source)
	assert.Equal(t, int64(12), d.Metrics.ClientCount)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "dashboard query failed, serving fallback dashboard", logs.All()[0].Message)
	assert.Empty(t, repo.snapshots)
}

func TestCaptureSnapshot(t *testing.T) {
	repo := newFakeDashboardRepo()
	repo.clients = 2

	snapshot, err := newTestDashboardService(repo, nil).CaptureSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2030, 3, 15, 0, 0, 0, 0, time.UTC), snapshot.CapturedOn)
	assert.Equal(t, int64(2), snapshot.ClientCount)
	assert.Len(t, repo.snapshots, 1)
}
