package seeders

import (
	"context"
	"errors"
	"fmt"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/repositories"
	"nusantara-erp/pkg/config"
	"nusantara-erp/pkg/utils"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var ErrAdminPasswordMissing = errors.New("ADMIN_PASSWORD is not set")

// SeedAdmin creates the superadmin account unless the username or email is already taken.
func SeedAdmin(ctx context.Context, db *pgxpool.Pool, cfg config.SeederConfig, logger *zap.Logger) error {
	if cfg.AdminPassword == "" {
		return ErrAdminPasswordMissing
	}
	if len(cfg.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}

	userRepo := repositories.NewUserRepository(db, logger)
	exists, err := userRepo.ExistsByUsernameOrEmail(ctx, nil, cfg.AdminUsername, cfg.AdminEmail)
	if err != nil {
		return err
	}
	if exists {
		logger.Info("superadmin already exists, skipping", zap.String("username", cfg.AdminUsername))
		return nil
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	user, err := userRepo.Create(ctx, nil, &entities.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		FullName:     null.StringFrom("System Administrator"),
		Role:         dto.RoleSuperAdmin,
		IsActive:     true,
	})
	if err != nil {
		return fmt.Errorf("create superadmin: %w", err)
	}
	logger.Info("superadmin created", zap.Uint64("id", user.ID), zap.String("username", user.Username))
	return nil
}

// SeedSubsidiaries inserts the group companies. Codes already present are left untouched.
func SeedSubsidiaries(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	repo := repositories.NewSubsidiaryRepository(db, logger)

	created := 0
	for _, s := range groupSubsidiaries() {
		taken, err := repo.CodeTaken(ctx, s.Code, "")
		if err != nil {
			return err
		}
		if taken {
			continue
		}
		if err := repo.Create(ctx, &s); err != nil {
			return fmt.Errorf("create subsidiary %s: %w", s.Code, err)
		}
		created++
		logger.Info("subsidiary seeded", zap.String("id", s.ID), zap.String("code", s.Code))
	}
	logger.Info("subsidiaries seeded", zap.Int("created", created))
	return nil
}

// SeedProjects inserts demo projects with approved RAB lines so budget validation has data to read.
func SeedProjects(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	for _, p := range demoProjects {
		tag, err := db.Exec(ctx, `INSERT INTO projects (id, name, status, budget, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.Status, p.Budget, p.Start, p.End)
		if err != nil {
			return fmt.Errorf("insert project %s: %w", p.ID, err)
		}
		if tag.RowsAffected() == 0 {
			continue
		}

		for _, item := range p.RAB {
			_, err := db.Exec(ctx, `INSERT INTO project_rab
				(project_id, category, description, unit, quantity, unit_price, total_price, status, is_approved)
				VALUES ($1, $2, $3, $4, $5, $6, $7, 'approved', TRUE)`,
				p.ID, item.Category, item.Description, item.Unit, item.Quantity, item.UnitPrice, item.Quantity*item.UnitPrice)
			if err != nil {
				return fmt.Errorf("insert rab for %s: %w", p.ID, err)
			}
		}
		logger.Info("project seeded", zap.String("id", p.ID), zap.Int("rabItems", len(p.RAB)))
	}
	return nil
}
