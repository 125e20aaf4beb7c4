package dto

import "time"

type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
)

type CPUInfo struct {
	Usage   float64      `json:"usage"`
	Cores   int          `json:"cores"`
	Speed   float64      `json:"speed"`
	Model   string       `json:"model"`
	LoadAvg []float64    `json:"loadAvg"`
	Status  HealthStatus `json:"status"`
	Error   string       `json:"error,omitempty"`
}

type MemoryInfo struct {
	Total              uint64       `json:"total"`
	Used               uint64       `json:"used"`
	Available          uint64       `json:"available"`
	Cached             uint64       `json:"cached"`
	UsagePercent       float64      `json:"usagePercent"`
	AvailablePercent   float64      `json:"availablePercent"`
	TotalFormatted     string       `json:"totalFormatted"`
	UsedFormatted      string       `json:"usedFormatted"`
	AvailableFormatted string       `json:"availableFormatted"`
	Status             HealthStatus `json:"status"`
	Error              string       `json:"error,omitempty"`
}

type DiskInfo struct {
	Path           string       `json:"path"`
	Total          uint64       `json:"total"`
	Used           uint64       `json:"used"`
	Free           uint64       `json:"free"`
	UsagePercent   float64      `json:"usagePercent"`
	TotalFormatted string       `json:"totalFormatted"`
	FreeFormatted  string       `json:"freeFormatted"`
	Status         HealthStatus `json:"status"`
	Error          string       `json:"error,omitempty"`
}

type DatabaseInfo struct {
	Connected         bool         `json:"connected"`
	ConnectionTime    int64        `json:"connectionTime"`
	TotalConns        int32        `json:"totalConnections"`
	IdleConns         int32        `json:"idleConnections"`
	AcquiredConns     int32        `json:"acquiredConnections"`
	MaxConns          int32        `json:"maxConnections"`
	ActiveConnections int64        `json:"activeConnections"`
	Size              int64        `json:"size"`
	SizeFormatted     string       `json:"sizeFormatted"`
	Status            HealthStatus `json:"status"`
	Error             string       `json:"error,omitempty"`
}

type ProcessInfo struct {
	PID             int32   `json:"pid"`
	MemoryRSS       uint64  `json:"memoryRss"`
	MemoryFormatted string  `json:"memoryFormatted"`
	CPUPercent      float64 `json:"cpuPercent"`
	Goroutines      int     `json:"goroutines"`
	GoVersion       string  `json:"goVersion"`
	Error           string  `json:"error,omitempty"`
}

type SystemHealthDTO struct {
	Status       HealthStatus `json:"status"`
	Timestamp    time.Time    `json:"timestamp"`
	SystemUptime string       `json:"systemUptime"`
	AppUptime    string       `json:"appUptime"`
	ActiveUsers  int64        `json:"activeUsers"`
	CPU          CPUInfo      `json:"cpu"`
	Memory       MemoryInfo   `json:"memory"`
	Disk         DiskInfo     `json:"disk"`
	Database     DatabaseInfo `json:"database"`
	Process      ProcessInfo  `json:"process"`
}

type EndpointTimingDTO struct {
	Endpoint     string `json:"endpoint"`
	Method       string `json:"method"`
	ResponseTime int64  `json:"responseTime"`
}

type APIMetricsDTO struct {
	TotalRequests       int                `json:"totalRequests"`
	AverageResponseTime float64            `json:"averageResponseTime"`
	SlowestEndpoint     *EndpointTimingDTO `json:"slowestEndpoint"`
	FastestEndpoint     *EndpointTimingDTO `json:"fastestEndpoint"`
	ErrorRate           float64            `json:"errorRate"`
	Errors              int                `json:"errors"`
}

type MonitoringAlertDTO struct {
	Type      string       `json:"type"`
	Severity  HealthStatus `json:"severity"`
	Message   string       `json:"message"`
	Value     float64      `json:"value"`
	Threshold float64      `json:"threshold"`
	Timestamp time.Time    `json:"timestamp"`
}

type AlertsDTO struct {
	Alerts   []MonitoringAlertDTO `json:"alerts"`
	Count    int                  `json:"count"`
	Critical int                  `json:"critical"`
	Warning  int                  `json:"warning"`
}

type MetricHistoryDTO struct {
	Type    string `json:"type"`
	Current any    `json:"current"`
	History any    `json:"history"`
}
