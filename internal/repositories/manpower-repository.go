package repositories

import (
	"context"
	"fmt"
	"strings"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	db "nusantara-erp/internal/infrastructure/bd"
	"nusantara-erp/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	manpowerTable  = "manpower"
	manpowerFields = "m.id, m.employee_id, m.name, m.position, m.department, m.email, m.phone, m.join_date, m.birth_date, m.address, m.status, m.employment_type, m.salary::FLOAT8, m.current_project, m.skills, m.metadata, m.subsidiary_id, m.user_id, m.created_at, m.updated_at, s.name, s.code, u.username, u.role"
	manpowerFrom   = "manpower m LEFT JOIN subsidiaries s ON s.id = m.subsidiary_id LEFT JOIN users u ON u.id = m.user_id"
)

var manpowerFilterMap = map[string]string{
	"status":         "m.status",
	"employmentType": "m.employment_type",
	"subsidiaryId":   "m.subsidiary_id",
	"project":        "m.current_project",
}

var manpowerSortMap = map[string]string{
	"name":       "m.name",
	"position":   "m.position",
	"department": "m.department",
	"join_date":  "m.join_date",
	"joinDate":   "m.join_date",
	"salary":     "m.salary",
	"createdAt":  "m.created_at",
}

type ManpowerRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, e *entities.Employee) error
	FindByID(ctx context.Context, tx pgx.Tx, id string) (*entities.Employee, error)
	List(ctx context.Context, filter types.Filter) ([]entities.Employee, uint64, error)
	Update(ctx context.Context, tx pgx.Tx, e *entities.Employee) error
	SetUser(ctx context.Context, tx pgx.Tx, id string, userID *uint64) error
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	Overview(ctx context.Context) (*dto.ManpowerOverviewDTO, error)
	BySubsidiary(ctx context.Context) ([]dto.SubsidiaryManpowerDTO, error)
}

type manpowerRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
	psql    sq.StatementBuilderType
}

func NewManpowerRepository(storage *pgxpool.Pool, logger *zap.Logger) ManpowerRepositoryInterface {
	return &manpowerRepository{
		storage: storage,
		logger:  logger,
		psql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanEmployee(row pgx.Row) (*entities.Employee, error) {
	var e entities.Employee
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.Name, &e.Position, &e.Department, &e.Email, &e.Phone, &e.JoinDate, &e.BirthDate,
		&e.Address, &e.Status, &e.EmploymentType, &e.Salary, &e.CurrentProject, &e.Skills, &e.Metadata,
		&e.SubsidiaryID, &e.UserID, &e.CreatedAt, &e.UpdatedAt,
		&e.SubsidiaryName, &e.SubsidiaryCode, &e.Username, &e.UserRole,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &e, nil
}

func employeeArgs(e *entities.Employee) []interface{} {
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return []interface{}{
		e.EmployeeID, e.Name, e.Position, e.Department, e.Email, e.Phone, e.JoinDate, e.BirthDate, e.Address,
		e.Status, e.EmploymentType, e.Salary, e.CurrentProject, nonNil(e.Skills), metadata, e.SubsidiaryID, e.UserID,
	}
}

func (r *manpowerRepository) Create(ctx context.Context, tx pgx.Tx, e *entities.Employee) error {
	query := fmt.Sprintf(`INSERT INTO %s (employee_id, name, position, department, email, phone, join_date, birth_date, address,
			status, employment_type, salary, current_project, skills, metadata, subsidiary_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`, manpowerTable)
	if err := getQuerier(r.storage, tx).QueryRow(ctx, query, employeeArgs(e)...).Scan(&e.ID); err != nil {
		return mapPgError(err)
	}
	created, err := r.FindByID(ctx, tx, e.ID)
	if err != nil {
		return err
	}
	*e = *created
	return nil
}

func (r *manpowerRepository) FindByID(ctx context.Context, tx pgx.Tx, id string) (*entities.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE m.id = $1", manpowerFields, manpowerFrom)
	return scanEmployee(getQuerier(r.storage, tx).QueryRow(ctx, query, id))
}

func (r *manpowerRepository) List(ctx context.Context, filter types.Filter) ([]entities.Employee, uint64, error) {
	base := func(columns string) sq.SelectBuilder {
		b := r.psql.Select(columns).From(manpowerFrom)
		b = db.ApplyFilters(b, filter, manpowerFilterMap)
		if v, ok := filter.FilterString("department"); ok {
			b = b.Where(sq.ILike{"m.department": "%" + v + "%"})
		}
		if v, ok := filter.FilterString("position"); ok {
			b = b.Where(sq.ILike{"m.position": "%" + v + "%"})
		}
		return db.ApplySearch(b, filter.Search, "m.name", "m.employee_id", "m.email")
	}

	countSQL, countArgs, err := base("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapPgError(err)
	}
	if total == 0 {
		return []entities.Employee{}, 0, nil
	}

	query, args, err := db.ApplySortAndPage(base(manpowerFields), filter, manpowerSortMap, "m.name ASC").ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapPgError(err)
	}
	defer rows.Close()

	list := make([]entities.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *e)
	}
	return list, total, rows.Err()
}

// Update writes every editable column of e; user_id is managed by SetUser.
func (r *manpowerRepository) Update(ctx context.Context, tx pgx.Tx, e *entities.Employee) error {
	cols := []string{"employee_id", "name", "position", "department", "email", "phone", "join_date", "birth_date", "address",
		"status", "employment_type", "salary", "current_project", "skills", "metadata", "subsidiary_id"}
	args := employeeArgs(e)[:len(cols)]

	sets := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+1))
	}
	sets = append(sets, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", manpowerTable, strings.Join(sets, ", "), len(cols)+1)
	args = append(args, e.ID)

	tag, err := getQuerier(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows)
	}
	updated, err := r.FindByID(ctx, tx, e.ID)
	if err != nil {
		return err
	}
	*e = *updated
	return nil
}

func (r *manpowerRepository) SetUser(ctx context.Context, tx pgx.Tx, id string, userID *uint64) error {
	query := fmt.Sprintf("UPDATE %s SET user_id = $1, updated_at = NOW() WHERE id = $2", manpowerTable)
	tag, err := getQuerier(r.storage, tx).Exec(ctx, query, userID, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows)
	}
	return nil
}

func (r *manpowerRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := getQuerier(r.storage, tx).Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", manpowerTable), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows)
	}
	return nil
}

func (r *manpowerRepository) Overview(ctx context.Context) (*dto.ManpowerOverviewDTO, error) {
	o := &dto.ManpowerOverviewDTO{ByDepartment: make(map[string]int64)}
	err := r.storage.QueryRow(ctx, fmt.Sprintf(`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status <> 'active'),
			COUNT(*) FILTER (WHERE employment_type = 'permanent'),
			COUNT(*) FILTER (WHERE employment_type = 'contract'),
			COUNT(DISTINCT department),
			COUNT(DISTINCT current_project) FILTER (WHERE current_project IS NOT NULL AND current_project <> '')
		FROM %s`, manpowerTable)).Scan(&o.Total, &o.Active, &o.Inactive, &o.Permanent, &o.Contract, &o.Departments, &o.ActiveProjects)
	if err != nil {
		return nil, mapPgError(err)
	}

	rows, err := r.storage.Query(ctx, fmt.Sprintf("SELECT department, COUNT(*) FROM %s GROUP BY department", manpowerTable))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var dep string
		var n int64
		if err := rows.Scan(&dep, &n); err != nil {
			return nil, err
		}
		o.ByDepartment[dep] = n
	}
	return o, rows.Err()
}

func (r *manpowerRepository) BySubsidiary(ctx context.Context) ([]dto.SubsidiaryManpowerDTO, error) {
	rows, err := r.storage.Query(ctx, fmt.Sprintf(`SELECT s.id, s.name, s.code,
			COUNT(m.id),
			COUNT(m.id) FILTER (WHERE m.department = 'Direksi'),
			COUNT(m.id) FILTER (WHERE m.department <> 'Direksi'),
			COUNT(m.id) FILTER (WHERE m.status = 'active'),
			COALESCE(AVG(m.salary), 0)::FLOAT8
		FROM %s s
		LEFT JOIN %s m ON m.subsidiary_id = s.id
		WHERE s.deleted_at IS NULL
		GROUP BY s.id, s.name, s.code
		ORDER BY s.name`, subsidiaryTable, manpowerTable))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]dto.SubsidiaryManpowerDTO, 0)
	for rows.Next() {
		var d dto.SubsidiaryManpowerDTO
		if err := rows.Scan(&d.SubsidiaryID, &d.SubsidiaryName, &d.SubsidiaryCode, &d.Total, &d.Directors, &d.Staff, &d.Active, &d.AverageSalary); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
