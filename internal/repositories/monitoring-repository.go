package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolStats struct {
	Total    int32
	Idle     int32
	Acquired int32
	Max      int32
}

type MonitoringRepositoryInterface interface {
	Ping(ctx context.Context) (time.Duration, error)
	PoolStats() PoolStats
	DatabaseSize(ctx context.Context) (int64, error)
	ActiveConnections(ctx context.Context) (int64, error)
}

type monitoringRepository struct {
	storage *pgxpool.Pool
}

func NewMonitoringRepository(storage *pgxpool.Pool) MonitoringRepositoryInterface {
	return &monitoringRepository{storage: storage}
}

func (r *monitoringRepository) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := r.storage.Ping(ctx)
	return time.Since(start), err
}

func (r *monitoringRepository) PoolStats() PoolStats {
	s := r.storage.Stat()
	return PoolStats{
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		Acquired: s.AcquiredConns(),
		Max:      s.MaxConns(),
	}
}

func (r *monitoringRepository) DatabaseSize(ctx context.Context) (int64, error) {
	var size int64
	if err := r.storage.QueryRow(ctx, "SELECT pg_database_size(current_database())").Scan(&size); err != nil {
		return 0, mapPgError(err)
	}
	return size, nil
}

func (r *monitoringRepository) ActiveConnections(ctx context.Context) (int64, error) {
	var n int64
	err := r.storage.QueryRow(ctx, "SELECT COUNT(*) FROM pg_stat_activity WHERE datname = current_database()").Scan(&n)
	if err != nil {
		return 0, mapPgError(err)
	}
	return n, nil
}
