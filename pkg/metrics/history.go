package metrics

import "time"

// Sample is one timestamped percentage or latency reading.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// APIRequest is one request observed by the monitoring middleware.
type APIRequest struct {
	Timestamp    time.Time `json:"timestamp"`
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	StatusCode   int       `json:"statusCode"`
	ResponseTime float64   `json:"responseTime"`
}

// History bundles the rings kept by the monitoring service.
type History struct {
	CPU      *Ring[Sample]
	Memory   *Ring[Sample]
	Disk     *Ring[Sample]
	Database *Ring[Sample]
	API      *Ring[APIRequest]
}

func NewHistory(size, apiSize int) *History {
	return &History{
		CPU:      NewRing[Sample](size),
		Memory:   NewRing[Sample](size),
		Disk:     NewRing[Sample](size),
		Database: NewRing[Sample](size),
		API:      NewRing[APIRequest](apiSize),
	}
}
