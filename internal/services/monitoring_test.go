package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/repositories"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCollector struct {
	cpu     metrics.CPUStats
	mem     metrics.MemoryStats
	disk    metrics.DiskStats
	diskErr error
	uptime  time.Duration
}

func (c *fakeCollector) CPU(context.Context) (metrics.CPUStats, error) { return c.cpu, nil }

func (c *fakeCollector) Memory(context.Context) (metrics.MemoryStats, error) { return c.mem, nil }

func (c *fakeCollector) Disk(_ context.Context, path string) (metrics.DiskStats, error) {
	if c.diskErr != nil {
		return metrics.DiskStats{}, c.diskErr
	}
	d := c.disk
	d.Path = path
	return d, nil
}

func (c *fakeCollector) Uptime(context.Context) (time.Duration, error) { return c.uptime, nil }

func (c *fakeCollector) Process(context.Context) (metrics.ProcessStats, error) {
	return metrics.ProcessStats{PID: 42, RSS: 64 << 20, CPUPercent: 1.234}, nil
}

type fakeMonitoringRepo struct {
	ping    time.Duration
	pingErr error
}

func (r *fakeMonitoringRepo) Ping(context.Context) (time.Duration, error) { return r.ping, r.pingErr }

func (r *fakeMonitoringRepo) PoolStats() repositories.PoolStats {
	return repositories.PoolStats{Total: 4, Idle: 3, Acquired: 1, Max: 10}
}

func (r *fakeMonitoringRepo) DatabaseSize(context.Context) (int64, error) { return 8 << 20, nil }

func (r *fakeMonitoringRepo) ActiveConnections(context.Context) (int64, error) { return 2, nil }

func newTestMonitoringService(c *fakeCollector, repo *fakeMonitoringRepo) *MonitoringService {
	sessions := newFakeSessionRepo()
	sessions.rows["a"] = &entities.ActiveSession{ID: "a"}
	svc := NewMonitoringService(c, repo, sessions, metrics.NewHistory(60, 100), zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	svc.startedAt = fixedNow.Add(-(26*time.Hour + 3*time.Minute + 4*time.Second))
	return svc
}

func healthyCollector() *fakeCollector {
	return &fakeCollector{
		cpu:    metrics.CPUStats{Usage: 12.346, Cores: 8, MHz: 2400, Model: "Test CPU"},
		mem:    metrics.MemoryStats{Total: 1000, Used: 500, Available: 500, Cached: 100},
		disk:   metrics.DiskStats{Total: 1000, Used: 400, Free: 600, UsedPercent: 40},
		uptime: 90 * time.Second,
	}
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0d 0h 0m 0s", formatUptime(0))
	assert.Equal(t, "1d 2h 3m 4s", formatUptime(26*time.Hour+3*time.Minute+4*time.Second))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, dto.StatusHealthy, levelFor(75, cpuWarning, cpuCritical))
	assert.Equal(t, dto.StatusWarning, levelFor(75.1, cpuWarning, cpuCritical))
	assert.Equal(t, dto.StatusCritical, levelFor(90.5, cpuWarning, cpuCritical))
}

func TestMonitoringHealthHealthy(t *testing.T) {
	svc := newTestMonitoringService(healthyCollector(), &fakeMonitoringRepo{ping: 5 * time.Millisecond})

	h, err := svc.Health(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dto.StatusHealthy, h.Status)
	assert.Equal(t, 12.35, h.CPU.Usage)
	assert.Equal(t, []float64{}, h.CPU.LoadAvg)
	assert.Equal(t, 50.0, h.Memory.UsagePercent)
	assert.Equal(t, "/", h.Disk.Path)
	assert.True(t, h.Database.Connected)
	assert.Equal(t, int64(5), h.Database.ConnectionTime)
	assert.Equal(t, "8.0 MiB", h.Database.SizeFormatted)
	assert.Equal(t, int64(1), h.ActiveUsers)
	assert.Equal(t, "0d 0h 1m 30s", h.SystemUptime)
	assert.Equal(t, "1d 2h 3m 4s", h.AppUptime)
	assert.Equal(t, int32(42), h.Process.PID)
	assert.Equal(t, 1.23, h.Process.CPUPercent)

	assert.Equal(t, 1, svc.history.CPU.Len())
	assert.Equal(t, 1, svc.history.Database.Len())
}

func TestMonitoringHealthDegradesFailedSection(t *testing.T) {
	c := healthyCollector()
	c.diskErr = errors.New("statfs failed")
	svc := newTestMonitoringService(c, &fakeMonitoringRepo{pingErr: errors.New("connection refused")})

	h, err := svc.Health(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "statfs failed", h.Disk.Error)
	assert.Equal(t, dto.StatusWarning, h.Disk.Status)
	assert.False(t, h.Database.Connected)
	assert.Equal(t, dto.StatusCritical, h.Status)
	assert.Equal(t, 0, svc.history.Disk.Len())
}

func TestMonitoringAlerts(t *testing.T) {
	c := healthyCollector()
	c.cpu.Usage = 95
	c.mem = metrics.MemoryStats{Total: 100, Used: 85, Available: 15}
	svc := newTestMonitoringService(c, &fakeMonitoringRepo{ping: 1500 * time.Millisecond})

	alerts, err := svc.Alerts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, alerts.Count)
	assert.Equal(t, 1, alerts.Critical)
	assert.Equal(t, 2, alerts.Warning)

	byType := map[string]dto.MonitoringAlertDTO{}
	for _, a := range alerts.Alerts {
		byType[a.Type] = a
	}
	assert.Equal(t, dto.StatusCritical, byType["cpu"].Severity)
	assert.Equal(t, cpuCritical, byType["cpu"].Threshold)
	assert.Equal(t, dto.StatusWarning, byType["memory"].Severity)
	assert.Equal(t, dto.StatusWarning, byType["database"].Severity)
	assert.Equal(t, 1500.0, byType["database"].Value)
}

func TestMonitoringAPIMetrics(t *testing.T) {
	svc := newTestMonitoringService(healthyCollector(), &fakeMonitoringRepo{})

	empty := svc.APIMetrics()
	assert.Zero(t, empty.TotalRequests)
	assert.Nil(t, empty.SlowestEndpoint)

	svc.RecordRequest("/api/subsidiaries", "GET", 200, 20*time.Millisecond)
	svc.RecordRequest("/api/manpower", "POST", 400, 80*time.Millisecond)
	svc.RecordRequest("/api/auth/me", "GET", 200, 5*time.Millisecond)
	svc.RecordRequest("/api/backup/create", "POST", 500, 95*time.Millisecond)

	m := svc.APIMetrics()
	assert.Equal(t, 4, m.TotalRequests)
	assert.Equal(t, 50.0, m.AverageResponseTime)
	assert.Equal(t, 2, m.Errors)
	assert.Equal(t, 50.0, m.ErrorRate)
	assert.Equal(t, &dto.EndpointTimingDTO{Endpoint: "/api/backup/create", Method: "POST", ResponseTime: 95}, m.SlowestEndpoint)
	assert.Equal(t, "/api/auth/me", m.FastestEndpoint.Endpoint)
}

func TestMonitoringMetricsByType(t *testing.T) {
	svc := newTestMonitoringService(healthyCollector(), &fakeMonitoringRepo{ping: time.Millisecond})
	ctx := context.Background()

	cpu, err := svc.Metrics(ctx, "cpu")
	require.NoError(t, err)
	assert.Len(t, cpu.History, 1)

	svc.RecordRequest("/api/x", "GET", 200, time.Millisecond)
	api, err := svc.Metrics(ctx, "api")
	require.NoError(t, err)
	assert.Equal(t, 1, api.Current.(dto.APIMetricsDTO).TotalRequests)

	_, err = svc.Metrics(ctx, "gpu")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}
