//go:build integration

package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/repositories"
	"nusantara-erp/pkg/audittrail"
	"nusantara-erp/pkg/config"
	"nusantara-erp/pkg/database/postgresql"
	"nusantara-erp/pkg/types"
	"nusantara-erp/seeders"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func setupPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "erp",
			"POSTGRES_PASSWORD": "erp",
			"POSTGRES_DB":       "erp_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://erp:erp@%s:%s/erp_test?sslmode=disable", host, port.Port())
	pool, err := postgresql.Connect(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 5}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgresql.Migrate(ctx, pool, zap.NewNop()))
	return pool
}

func TestIntegration_SeedAndQuery(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	logger := zap.NewNop()

	admin := config.SeederConfig{AdminUsername: "superadmin", AdminEmail: "admin@nusantara.test", AdminPassword: "Sup3rSecret!"}
	require.NoError(t, seeders.SeedAdmin(ctx, pool, admin, logger))
	require.NoError(t, seeders.SeedAdmin(ctx, pool, admin, logger), "second run is a no-op")
	require.NoError(t, seeders.SeedSubsidiaries(ctx, pool, logger))
	require.NoError(t, seeders.SeedSubsidiaries(ctx, pool, logger))
	require.NoError(t, seeders.SeedProjects(ctx, pool, logger))

	users := repositories.NewUserRepository(pool, logger)
	user, err := users.FindByLogin(ctx, "superadmin")
	require.NoError(t, err)
	assert.Equal(t, dto.RoleSuperAdmin, user.Role)
	assert.True(t, user.IsActive)

	t.Run("subsidiaries", func(t *testing.T) {
		repo := repositories.NewSubsidiaryRepository(pool, logger)

		list, total, err := repo.List(ctx, types.Filter{Limit: 50})
		require.NoError(t, err)
		assert.EqualValues(t, 6, total)
		assert.Len(t, list, 6)

		list, total, err = repo.List(ctx, types.Filter{Limit: 50, Filter: map[string]interface{}{"specialization": "infrastructure"}})
		require.NoError(t, err)
		require.EqualValues(t, 1, total)
		assert.Equal(t, "KMJ", list[0].Code)

		taken, err := repo.CodeTaken(ctx, "KMJ", "")
		require.NoError(t, err)
		assert.True(t, taken)
		taken, err = repo.CodeTaken(ctx, "KMJ", list[0].ID)
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("budget", func(t *testing.T) {
		repo := repositories.NewBudgetRepository(pool, logger)

		exists, err := repo.ProjectExists(ctx, "PRJ-2025-001")
		require.NoError(t, err)
		assert.True(t, exists)

		items, err := repo.ApprovedRAB(ctx, "PRJ-2025-001")
		require.NoError(t, err)
		require.Len(t, items, 4)
		var total float64
		for _, it := range items {
			total += it.TotalPrice
		}
		assert.InDelta(t, 4200*1_150_000+380_000*14_500+9_500_000_000+14*185_000_000, total, 0.01)
	})

	t.Run("expenses", func(t *testing.T) {
		repo := repositories.NewExpenseRepository(pool, logger)

		e := &entities.AdditionalExpense{
			ProjectID:      "PRJ-2025-001",
			ExpenseType:    "transportation",
			Description:    "Material delivery overtime",
			Amount:         4_500_000,
			ExpenseDate:    time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC),
			ApprovalStatus: entities.ExpensePending,
			CreatedBy:      null.Int64From(int64(user.ID)),
		}
		require.NoError(t, repo.Create(ctx, e))
		require.NotZero(t, e.ID)

		pending, err := repo.List(ctx, "PRJ-2025-001", dto.ExpenseFilter{Status: entities.ExpensePending})
		require.NoError(t, err)
		require.Len(t, pending, 1)

		approved, err := repo.Approve(ctx, "PRJ-2025-001", e.ID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.ExpenseApproved, approved.ApprovalStatus)
		assert.True(t, approved.ApprovedAt.Valid)

		_, err = repo.FindByID(ctx, "PRJ-2025-002", e.ID)
		assert.Error(t, err, "expense is scoped to its project")
	})

	t.Run("audit log", func(t *testing.T) {
		repo := repositories.NewAuditLogRepository(pool, logger)

		entry := &entities.AuditLog{
			UserID:     null.Int64From(int64(user.ID)),
			Username:   null.StringFrom(user.Username),
			Action:     audittrail.ActionUpdate,
			EntityType: "subsidiary",
			EntityID:   null.StringFrom("SUB-1"),
			Before:     audittrail.Snapshot{"status": "active"},
			After:      audittrail.Snapshot{"status": "inactive"},
			Changes:    map[string]audittrail.Change{"status": {Old: "active", New: "inactive"}},
			Method:     null.StringFrom("PUT"),
			StatusCode: null.IntFrom(200),
		}
		require.NoError(t, repo.Insert(ctx, entry))
		require.NotZero(t, entry.ID)

		history, err := repo.EntityHistory(ctx, "subsidiary", "SUB-1", 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "inactive", history[0].After["status"])

		logs, total, err := repo.List(ctx, dto.AuditLogFilter{Action: "UPDATE", Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Len(t, logs, 1)

		deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Zero(t, deleted)

		deleted, err = repo.DeleteAll(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, deleted)
	})
	t.Run("audit retention boundary", func(t *testing.T) {
		repo := repositories.NewAuditLogRepository(pool, logger)
		cutoff := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

		stamps := map[string]time.Time{
			"before": cutoff.Add(-time.Microsecond),
			"at":     cutoff,
			"after":  cutoff.Add(time.Microsecond),
		}
		ids := make(map[string]uint64, len(stamps))
		for name, at := range stamps {
			entry := &entities.AuditLog{Action: audittrail.ActionCreate, EntityType: "subsidiary", EntityID: null.StringFrom(name)}
			require.NoError(t, repo.Insert(ctx, entry))
			_, err := pool.Exec(ctx, "UPDATE audit_logs SET created_at = $1 WHERE id = $2", at, entry.ID)
			require.NoError(t, err)
			ids[name] = entry.ID
		}

		deleted, err := repo.DeleteOlderThan(ctx, cutoff)
		require.NoError(t, err)
		assert.EqualValues(t, 1, deleted)

		rows, err := pool.Query(ctx, "SELECT id FROM audit_logs ORDER BY id")
		require.NoError(t, err)
		var remaining []uint64
		for rows.Next() {
			var id int64
			require.NoError(t, rows.Scan(&id))
			remaining = append(remaining, uint64(id))
		}
		require.NoError(t, rows.Err())
		rows.Close()

		assert.ElementsMatch(t, []uint64{ids["at"], ids["after"]}, remaining)
		assert.NotContains(t, remaining, ids["before"])
	})
}
