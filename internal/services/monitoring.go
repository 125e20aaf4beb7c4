package services

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/repositories"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/metrics"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	cpuCritical      = 90.0
	cpuWarning       = 75.0
	memoryCritical   = 90.0
	memoryWarning    = 80.0
	diskCritical     = 90.0
	diskWarning      = 80.0
	dbSlowMillis     = 1000
	activeUserWindow = 5 * time.Minute
)

var metricTypes = []string{"cpu", "memory", "disk", "database", "api"}

type MonitoringServiceInterface interface {
	Health(ctx context.Context) (*dto.SystemHealthDTO, error)
	CPU(ctx context.Context) dto.CPUInfo
	Memory(ctx context.Context) dto.MemoryInfo
	Disk(ctx context.Context) dto.DiskInfo
	Database(ctx context.Context) dto.DatabaseInfo
	Process(ctx context.Context) dto.ProcessInfo
	Metrics(ctx context.Context, metricType string) (*dto.MetricHistoryDTO, error)
	APIMetrics() dto.APIMetricsDTO
	RecordRequest(endpoint, method string, statusCode int, duration time.Duration)
	Alerts(ctx context.Context) (*dto.AlertsDTO, error)
}

type MonitoringService struct {
	collector         metrics.Collector
	repo              repositories.MonitoringRepositoryInterface
	sessionRepository repositories.SessionRepositoryInterface
	history           *metrics.History
	diskPath          string
	startedAt         time.Time
	logger            *zap.Logger
	now               func() time.Time
}

func NewMonitoringService(
	collector metrics.Collector,
	repo repositories.MonitoringRepositoryInterface,
	sessionRepository repositories.SessionRepositoryInterface,
	history *metrics.History,
	logger *zap.Logger,
) *MonitoringService {
	return &MonitoringService{
		collector:         collector,
		repo:              repo,
		sessionRepository: sessionRepository,
		history:           history,
		diskPath:          "/",
		startedAt:         time.Now(),
		logger:            logger,
		now:               time.Now,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func levelFor(value, warning, critical float64) dto.HealthStatus {
	switch {
	case value > critical:
		return dto.StatusCritical
	case value > warning:
		return dto.StatusWarning
	default:
		return dto.StatusHealthy
	}
}

func worst(statuses ...dto.HealthStatus) dto.HealthStatus {
	out := dto.StatusHealthy
	for _, st := range statuses {
		if st == dto.StatusCritical {
			return dto.StatusCritical
		}
		if st == dto.StatusWarning {
			out = dto.StatusWarning
		}
	}
	return out
}

// formatUptime renders d as "Xd Xh Xm Xs".
func formatUptime(d time.Duration) string {
	total := int64(d.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}

func (s *MonitoringService) sample(v float64) metrics.Sample {
	return metrics.Sample{Timestamp: s.now(), Value: v}
}

func (s *MonitoringService) CPU(ctx context.Context) dto.CPUInfo {
	st, err := s.collector.CPU(ctx)
	if err != nil {
		s.logger.Warn("cpu metrics unavailable", zap.Error(err))
		return dto.CPUInfo{Status: dto.StatusWarning, Error: err.Error(), LoadAvg: []float64{}}
	}
	info := dto.CPUInfo{
		Usage:   round2(st.Usage),
		Cores:   st.Cores,
		Speed:   st.MHz,
		Model:   st.Model,
		LoadAvg: st.LoadAvg,
		Status:  levelFor(st.Usage, cpuWarning, cpuCritical),
	}
	if info.LoadAvg == nil {
		info.LoadAvg = []float64{}
	}
	s.history.CPU.Push(s.sample(info.Usage))
	return info
}

func (s *MonitoringService) Memory(ctx context.Context) dto.MemoryInfo {
	st, err := s.collector.Memory(ctx)
	if err != nil {
		s.logger.Warn("memory metrics unavailable", zap.Error(err))
		return dto.MemoryInfo{Status: dto.StatusWarning, Error: err.Error()}
	}
	info := dto.MemoryInfo{
		Total:              st.Total,
		Used:               st.Used,
		Available:          st.Available,
		Cached:             st.Cached,
		UsagePercent:       percent(st.Used, st.Total),
		AvailablePercent:   percent(st.Available, st.Total),
		TotalFormatted:     humanize.IBytes(st.Total),
		UsedFormatted:      humanize.IBytes(st.Used),
		AvailableFormatted: humanize.IBytes(st.Available),
	}
	info.Status = levelFor(info.UsagePercent, memoryWarning, memoryCritical)
	s.history.Memory.Push(s.sample(info.UsagePercent))
	return info
}

func (s *MonitoringService) Disk(ctx context.Context) dto.DiskInfo {
	st, err := s.collector.Disk(ctx, s.diskPath)
	if err != nil {
		s.logger.Warn("disk metrics unavailable", zap.String("path", s.diskPath), zap.Error(err))
		return dto.DiskInfo{Path: s.diskPath, Status: dto.StatusWarning, Error: err.Error()}
	}
	info := dto.DiskInfo{
		Path:           st.Path,
		Total:          st.Total,
		Used:           st.Used,
		Free:           st.Free,
		UsagePercent:   round2(st.UsedPercent),
		TotalFormatted: humanize.IBytes(st.Total),
		FreeFormatted:  humanize.IBytes(st.Free),
	}
	info.Status = levelFor(info.UsagePercent, diskWarning, diskCritical)
	s.history.Disk.Push(s.sample(info.UsagePercent))
	return info
}

// Database never fails: a broken connection is reported as a critical section.
func (s *MonitoringService) Database(ctx context.Context) dto.DatabaseInfo {
	elapsed, err := s.repo.Ping(ctx)
	if err != nil {
		s.logger.Error("database ping failed", zap.Error(err))
		return dto.DatabaseInfo{Connected: false, Status: dto.StatusCritical, Error: err.Error()}
	}

	pool := s.repo.PoolStats()
	info := dto.DatabaseInfo{
		Connected:      true,
		ConnectionTime: elapsed.Milliseconds(),
		TotalConns:     pool.Total,
		IdleConns:      pool.Idle,
		AcquiredConns:  pool.Acquired,
		MaxConns:       pool.Max,
		Status:         dto.StatusHealthy,
	}
	if info.ConnectionTime > dbSlowMillis {
		info.Status = dto.StatusWarning
	}
	if size, err := s.repo.DatabaseSize(ctx); err == nil {
		info.Size = size
		info.SizeFormatted = humanize.IBytes(uint64(size))
	} else {
		s.logger.Warn("database size unavailable", zap.Error(err))
	}
	if n, err := s.repo.ActiveConnections(ctx); err == nil {
		info.ActiveConnections = n
	} else {
		s.logger.Warn("active connection count unavailable", zap.Error(err))
	}
	s.history.Database.Push(s.sample(float64(info.ConnectionTime)))
	return info
}

func (s *MonitoringService) Process(ctx context.Context) dto.ProcessInfo {
	info := dto.ProcessInfo{Goroutines: runtime.NumGoroutine(), GoVersion: runtime.Version()}
	st, err := s.collector.Process(ctx)
	info.PID = st.PID
	if err != nil {
		s.logger.Warn("process metrics unavailable", zap.Error(err))
		info.Error = err.Error()
		return info
	}
	info.MemoryRSS = st.RSS
	info.MemoryFormatted = humanize.IBytes(st.RSS)
	info.CPUPercent = round2(st.CPUPercent)
	return info
}

func (s *MonitoringService) activeUsers(ctx context.Context) int64 {
	n, err := s.sessionRepository.CountActiveSince(ctx, s.now().Add(-activeUserWindow))
	if err != nil {
		s.logger.Warn("active user count unavailable", zap.Error(err))
		return 0
	}
	return n
}

// Health collects every section concurrently. A failing collector degrades its own section only.
func (s *MonitoringService) Health(ctx context.Context) (*dto.SystemHealthDTO, error) {
	h := &dto.SystemHealthDTO{Timestamp: s.now(), AppUptime: formatUptime(s.now().Sub(s.startedAt))}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { h.CPU = s.CPU(gctx); return nil })
	g.Go(func() error { h.Memory = s.Memory(gctx); return nil })
	g.Go(func() error { h.Disk = s.Disk(gctx); return nil })
	g.Go(func() error { h.Database = s.Database(gctx); return nil })
	g.Go(func() error { h.Process = s.Process(gctx); return nil })
	g.Go(func() error { h.ActiveUsers = s.activeUsers(gctx); return nil })
	g.Go(func() error {
		up, err := s.collector.Uptime(gctx)
		if err != nil {
			s.logger.Warn("host uptime unavailable", zap.Error(err))
		}
		h.SystemUptime = formatUptime(up)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.Status = worst(h.CPU.Status, h.Memory.Status, h.Disk.Status, h.Database.Status)
	return h, nil
}

// Metrics returns the current reading of one metric type plus its recent history.
func (s *MonitoringService) Metrics(ctx context.Context, metricType string) (*dto.MetricHistoryDTO, error) {
	out := &dto.MetricHistoryDTO{Type: metricType}
	switch metricType {
	case "cpu":
		out.Current = s.CPU(ctx)
		out.History = s.history.CPU.Snapshot()
	case "memory":
		out.Current = s.Memory(ctx)
		out.History = s.history.Memory.Snapshot()
	case "disk":
		out.Current = s.Disk(ctx)
		out.History = s.history.Disk.Snapshot()
	case "database":
		out.Current = s.Database(ctx)
		out.History = s.history.Database.Snapshot()
	case "api":
		out.Current = s.APIMetrics()
		out.History = s.history.API.Snapshot()
	default:
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown metric type %q, expected one of %v", metricType, metricTypes))
	}
	return out, nil
}

func (s *MonitoringService) RecordRequest(endpoint, method string, statusCode int, duration time.Duration) {
	s.history.API.Push(metrics.APIRequest{
		Timestamp:    s.now(),
		Endpoint:     endpoint,
		Method:       method,
		StatusCode:   statusCode,
		ResponseTime: float64(duration.Microseconds()) / 1000,
	})
}

func (s *MonitoringService) APIMetrics() dto.APIMetricsDTO {
	requests := s.history.API.Snapshot()
	out := dto.APIMetricsDTO{TotalRequests: len(requests)}
	if len(requests) == 0 {
		return out
	}

	var sum float64
	slowest, fastest := requests[0], requests[0]
	for _, r := range requests {
		sum += r.ResponseTime
		if r.ResponseTime > slowest.ResponseTime {
			slowest = r
		}
		if r.ResponseTime < fastest.ResponseTime {
			fastest = r
		}
		if r.StatusCode >= 400 {
			out.Errors++
		}
	}
	out.AverageResponseTime = round2(sum / float64(len(requests)))
	out.SlowestEndpoint = endpointTiming(slowest)
	out.FastestEndpoint = endpointTiming(fastest)
	out.ErrorRate = round2(float64(out.Errors) / float64(len(requests)) * 100)
	return out
}

func endpointTiming(r metrics.APIRequest) *dto.EndpointTimingDTO {
	return &dto.EndpointTimingDTO{Endpoint: r.Endpoint, Method: r.Method, ResponseTime: int64(math.Round(r.ResponseTime))}
}

func (s *MonitoringService) Alerts(ctx context.Context) (*dto.AlertsDTO, error) {
	h, err := s.Health(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.AlertsDTO{Alerts: []dto.MonitoringAlertDTO{}}
	add := func(kind string, severity dto.HealthStatus, msg string, value, threshold float64) {
		out.Alerts = append(out.Alerts, dto.MonitoringAlertDTO{
			Type:      kind,
			Severity:  severity,
			Message:   msg,
			Value:     value,
			Threshold: threshold,
			Timestamp: h.Timestamp,
		})
		if severity == dto.StatusCritical {
			out.Critical++
		} else {
			out.Warning++
		}
	}

	thresholdAlert := func(kind, label string, value, warning, critical float64) {
		switch levelFor(value, warning, critical) {
		case dto.StatusCritical:
			add(kind, dto.StatusCritical, fmt.Sprintf("%s usage is critical: %.2f%%", label, value), value, critical)
		case dto.StatusWarning:
			add(kind, dto.StatusWarning, fmt.Sprintf("%s usage is high: %.2f%%", label, value), value, warning)
		}
	}
	if h.CPU.Error == "" {
		thresholdAlert("cpu", "CPU", h.CPU.Usage, cpuWarning, cpuCritical)
	}
	if h.Memory.Error == "" {
		thresholdAlert("memory", "Memory", h.Memory.UsagePercent, memoryWarning, memoryCritical)
	}
	if h.Disk.Error == "" {
		thresholdAlert("disk", "Disk", h.Disk.UsagePercent, diskWarning, diskCritical)
	}

	switch {
	case !h.Database.Connected:
		add("database", dto.StatusCritical, "database connection failed", 0, 0)
	case h.Database.ConnectionTime > dbSlowMillis:
		add("database", dto.StatusWarning, fmt.Sprintf("database response is slow: %dms", h.Database.ConnectionTime),
			float64(h.Database.ConnectionTime), dbSlowMillis)
	}

	out.Count = len(out.Alerts)
	return out, nil
}
