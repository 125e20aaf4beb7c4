package services

import (
	"context"
	"strings"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/repositories"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/export"
	"nusantara-erp/pkg/types"
	"nusantara-erp/pkg/utils"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const manpowerExportLimit = 10000

type ManpowerServiceInterface interface {
	List(ctx context.Context, filter types.Filter) ([]entities.Employee, uint64, error)
	Get(ctx context.Context, id string) (*entities.Employee, error)
	Create(ctx context.Context, payload dto.CreateEmployeeDTO) (*dto.EmployeeCreatedDTO, error)
	Update(ctx context.Context, id string, payload dto.UpdateEmployeeDTO) (updated, previous *entities.Employee, err error)
	Delete(ctx context.Context, id string) (*entities.Employee, error)
	Overview(ctx context.Context) (*dto.ManpowerOverviewDTO, error)
	BySubsidiary(ctx context.Context) ([]dto.SubsidiaryManpowerDTO, error)
	AvailableUsers(ctx context.Context) ([]dto.AvailableUserDTO, error)
	Export(ctx context.Context, filter types.Filter) (*export.File, error)
}

type ManpowerService struct {
	txManager          repositories.TxManagerInterface
	manpowerRepository repositories.ManpowerRepositoryInterface
	userRepository     repositories.UserRepositoryInterface
	logger             *zap.Logger
	now                func() time.Time
}

func NewManpowerService(
	txManager repositories.TxManagerInterface,
	manpowerRepository repositories.ManpowerRepositoryInterface,
	userRepository repositories.UserRepositoryInterface,
	logger *zap.Logger,
) *ManpowerService {
	return &ManpowerService{
		txManager:          txManager,
		manpowerRepository: manpowerRepository,
		userRepository:     userRepository,
		logger:             logger,
		now:                time.Now,
	}
}

func (s *ManpowerService) List(ctx context.Context, filter types.Filter) ([]entities.Employee, uint64, error) {
	return s.manpowerRepository.List(ctx, filter)
}

func (s *ManpowerService) Get(ctx context.Context, id string) (*entities.Employee, error) {
	return s.manpowerRepository.FindByID(ctx, nil, id)
}

func nullDate(d *types.Date) null.Time {
	return null.TimeFromPtr(d.Ptr())
}

func nullFloat(f *float64) null.Float64 {
	return null.Float64FromPtr(f)
}

func (s *ManpowerService) Create(ctx context.Context, payload dto.CreateEmployeeDTO) (*dto.EmployeeCreatedDTO, error) {
	email := strings.TrimSpace(utils.SafeDeref(payload.Email))
	if payload.CreateUserAccount {
		if email == "" {
			return nil, apperrors.NewBadRequestError("email is required to create a user account")
		}
		exists, err := s.userRepository.ExistsByUsernameOrEmail(ctx, nil, payload.Username, email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperrors.NewBadRequestError("username or email is already in use")
		}
	}

	employee := &entities.Employee{
		EmployeeID:     strings.TrimSpace(payload.EmployeeID),
		Name:           strings.TrimSpace(payload.Name),
		Position:       strings.TrimSpace(payload.Position),
		Department:     strings.TrimSpace(payload.Department),
		Email:          nullStringPtr(payload.Email),
		Phone:          nullStringPtr(payload.Phone),
		JoinDate:       nullDate(payload.JoinDate),
		BirthDate:      nullDate(payload.BirthDate),
		Address:        nullStringPtr(payload.Address),
		Status:         payload.Status,
		EmploymentType: payload.EmploymentType,
		Salary:         nullFloat(payload.Salary),
		CurrentProject: nullStringPtr(payload.CurrentProject),
		Skills:         payload.Skills,
		SubsidiaryID:   nullStringPtr(payload.SubsidiaryID),
	}
	if employee.Status == "" {
		employee.Status = "active"
	}
	if employee.EmploymentType == "" {
		employee.EmploymentType = "permanent"
	}

	var account *entities.User
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.manpowerRepository.Create(ctx, tx, employee); err != nil {
			return err
		}
		if !payload.CreateUserAccount {
			return nil
		}

		hash, err := utils.HashPassword(payload.UserPassword)
		if err != nil {
			return err
		}
		account, err = s.userRepository.Create(ctx, tx, &entities.User{
			Username:     payload.Username,
			Email:        email,
			PasswordHash: hash,
			FullName:     null.StringFrom(employee.Name),
			Phone:        employee.Phone,
			Role:         payload.UserRole,
			IsActive:     true,
			EmployeeID:   null.StringFrom(employee.ID),
		})
		if err != nil {
			return err
		}
		if err := s.manpowerRepository.SetUser(ctx, tx, employee.ID, &account.ID); err != nil {
			return err
		}
		reloaded, err := s.manpowerRepository.FindByID(ctx, tx, employee.ID)
		if err != nil {
			return err
		}
		employee = reloaded
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create employee", zap.String("employeeId", payload.EmployeeID), zap.Error(err))
		return nil, err
	}

	result := &dto.EmployeeCreatedDTO{Employee: employee}
	if account != nil {
		public := dto.NewUserPublicDTO(account)
		result.UserAccount = &public
		s.logger.Info("employee created with user account", zap.String("id", employee.ID), zap.Uint64("userId", account.ID))
	} else {
		s.logger.Info("employee created", zap.String("id", employee.ID))
	}
	return result, nil
}

func mergeEmployee(current entities.Employee, p dto.UpdateEmployeeDTO) entities.Employee {
	next := current
	if p.EmployeeID != nil {
		next.EmployeeID = strings.TrimSpace(*p.EmployeeID)
	}
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.Position != nil {
		next.Position = strings.TrimSpace(*p.Position)
	}
	if p.Department != nil {
		next.Department = strings.TrimSpace(*p.Department)
	}
	if p.Email != nil {
		next.Email = nullStringPtr(p.Email)
	}
	if p.Phone != nil {
		next.Phone = nullStringPtr(p.Phone)
	}
	if p.JoinDate != nil {
		next.JoinDate = nullDate(p.JoinDate)
	}
	if p.BirthDate != nil {
		next.BirthDate = nullDate(p.BirthDate)
	}
	if p.Address != nil {
		next.Address = nullStringPtr(p.Address)
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.EmploymentType != nil {
		next.EmploymentType = *p.EmploymentType
	}
	if p.Salary != nil {
		next.Salary = nullFloat(p.Salary)
	}
	if p.CurrentProject != nil {
		next.CurrentProject = nullStringPtr(p.CurrentProject)
	}
	if p.Skills != nil {
		next.Skills = p.Skills
	}
	if p.SubsidiaryID != nil {
		next.SubsidiaryID = nullStringPtr(p.SubsidiaryID)
	}
	return next
}

// Update applies a partial change and optionally re-links or unlinks the user account.
func (s *ManpowerService) Update(ctx context.Context, id string, payload dto.UpdateEmployeeDTO) (*entities.Employee, *entities.Employee, error) {
	var updated, previous *entities.Employee
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.manpowerRepository.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		previous = current

		next := mergeEmployee(*current, payload)
		if err := s.manpowerRepository.Update(ctx, tx, &next); err != nil {
			return err
		}

		if payload.UserID.Set {
			if err := s.relink(ctx, tx, current, payload.UserID.UserID); err != nil {
				return err
			}
			reloaded, err := s.manpowerRepository.FindByID(ctx, tx, id)
			if err != nil {
				return err
			}
			next = *reloaded
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("employee updated", zap.String("id", id))
	return updated, previous, nil
}

func (s *ManpowerService) relink(ctx context.Context, tx pgx.Tx, employee *entities.Employee, userID *uint64) error {
	if userID != nil && employee.UserID.Valid && uint64(employee.UserID.Int64) == *userID {
		return nil
	}

	if userID != nil {
		user, err := s.userRepository.FindByID(ctx, *userID)
		if err != nil {
			return err
		}
		if user.EmployeeID.Valid && user.EmployeeID.String != employee.ID {
			return apperrors.NewBadRequestError("user is already linked to another employee")
		}
	}

	if err := s.userRepository.UnlinkEmployee(ctx, tx, employee.ID); err != nil {
		return err
	}
	if userID != nil {
		if err := s.userRepository.SetEmployeeLink(ctx, tx, *userID, &employee.ID); err != nil {
			return err
		}
	}
	return s.manpowerRepository.SetUser(ctx, tx, employee.ID, userID)
}

// Delete unlinks the user account and removes the employee in one transaction.
func (s *ManpowerService) Delete(ctx context.Context, id string) (*entities.Employee, error) {
	var deleted *entities.Employee
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.manpowerRepository.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.userRepository.UnlinkEmployee(ctx, tx, id); err != nil {
			return err
		}
		if err := s.manpowerRepository.Delete(ctx, tx, id); err != nil {
			return err
		}
		deleted = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("employee deleted", zap.String("id", id), zap.String("employeeId", deleted.EmployeeID))
	return deleted, nil
}

func (s *ManpowerService) Overview(ctx context.Context) (*dto.ManpowerOverviewDTO, error) {
	return s.manpowerRepository.Overview(ctx)
}

func (s *ManpowerService) BySubsidiary(ctx context.Context) ([]dto.SubsidiaryManpowerDTO, error) {
	return s.manpowerRepository.BySubsidiary(ctx)
}

func (s *ManpowerService) AvailableUsers(ctx context.Context) ([]dto.AvailableUserDTO, error) {
	return s.userRepository.FindAvailable(ctx)
}

var manpowerExportHeaders = []string{
	"ID", "Employee ID", "Name", "Position", "Department", "Email", "Phone", "Join Date", "Status",
	"Employment Type", "Salary", "Current Project", "Subsidiary", "Username",
}

func formatNullDate(t null.Time) interface{} {
	if !t.Valid {
		return nil
	}
	return t.Time.Format("2006-01-02")
}

func (s *ManpowerService) Export(ctx context.Context, filter types.Filter) (*export.File, error) {
	filter.Limit, filter.Offset = manpowerExportLimit, 0
	employees, _, err := s.manpowerRepository.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	table := export.Table{Sheet: "Manpower", Headers: manpowerExportHeaders, Rows: make([][]interface{}, 0, len(employees))}
	for _, e := range employees {
		var salary interface{}
		if e.Salary.Valid {
			salary = e.Salary.Float64
		}
		table.Rows = append(table.Rows, []interface{}{
			e.ID, e.EmployeeID, e.Name, e.Position, e.Department, e.Email.String, e.Phone.String,
			formatNullDate(e.JoinDate), e.Status, e.EmploymentType, salary, e.CurrentProject.String,
			e.SubsidiaryName.String, e.Username.String,
		})
	}
	return export.Render(table, export.FormatXLSX, "manpower", s.now())
}
