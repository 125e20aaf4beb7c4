package repositories

import (
	"context"
	"fmt"

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
	subsidiaryTable  = "subsidiaries"
	subsidiaryFields = "id, name, code, description, specialization, contact_info, address, established_year, employee_count, certification, status, parent_company, board_of_directors, legal_info, permits, financial_info, profile_info, attachments, created_at, updated_at, deleted_at"
)

var subsidiaryFilterMap = map[string]string{
	"specialization": "specialization",
	"status":         "status",
	"parentCompany":  "parent_company",
}

var subsidiarySortMap = map[string]string{
	"name":            "name",
	"code":            "code",
	"specialization":  "specialization",
	"status":          "status",
	"establishedYear": "established_year",
	"employeeCount":   "employee_count",
	"createdAt":       "created_at",
}

type SubsidiaryRepositoryInterface interface {
	Create(ctx context.Context, s *entities.Subsidiary) error
	FindByID(ctx context.Context, id string) (*entities.Subsidiary, error)
	CodeTaken(ctx context.Context, code, excludeID string) (bool, error)
	List(ctx context.Context, filter types.Filter) ([]entities.Subsidiary, uint64, error)
	Update(ctx context.Context, s *entities.Subsidiary) error
	SoftDelete(ctx context.Context, id string) error
	SetAttachments(ctx context.Context, id string, attachments []entities.Attachment) error
	Stats(ctx context.Context) (*dto.SubsidiaryStatsDTO, error)
}

type subsidiaryRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
	psql    sq.StatementBuilderType
}

func NewSubsidiaryRepository(storage *pgxpool.Pool, logger *zap.Logger) SubsidiaryRepositoryInterface {
	return &subsidiaryRepository{
		storage: storage,
		logger:  logger,
		psql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanSubsidiary(row pgx.Row) (*entities.Subsidiary, error) {
	var s entities.Subsidiary
	err := row.Scan(
		&s.ID, &s.Name, &s.Code, &s.Description, &s.Specialization, &s.ContactInfo, &s.Address, &s.EstablishedYear,
		&s.EmployeeCount, &s.Certification, &s.Status, &s.ParentCompany, &s.BoardOfDirectors, &s.LegalInfo,
		&s.Permits, &s.FinancialInfo, &s.ProfileInfo, &s.Attachments, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &s, nil
}

// nonNil keeps NOT NULL jsonb array columns from receiving SQL NULL.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (r *subsidiaryRepository) Create(ctx context.Context, s *entities.Subsidiary) error {
	query := fmt.Sprintf(`INSERT INTO %s (name, code, description, specialization, contact_info, address, established_year,
			employee_count, certification, status, parent_company, board_of_directors, legal_info, permits, financial_info,
			profile_info, attachments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING %s`, subsidiaryTable, subsidiaryFields)
	created, err := scanSubsidiary(r.storage.QueryRow(ctx, query,
		s.Name, s.Code, s.Description, s.Specialization, s.ContactInfo, s.Address, s.EstablishedYear,
		s.EmployeeCount, nonNil(s.Certification), s.Status, s.ParentCompany, nonNil(s.BoardOfDirectors), s.LegalInfo,
		nonNil(s.Permits), s.FinancialInfo, s.ProfileInfo, nonNil(s.Attachments),
	))
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

func (r *subsidiaryRepository) FindByID(ctx context.Context, id string) (*entities.Subsidiary, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL", subsidiaryFields, subsidiaryTable)
	return scanSubsidiary(r.storage.QueryRow(ctx, query, id))
}

// CodeTaken also counts soft-deleted rows, the unique index covers them.
func (r *subsidiaryRepository) CodeTaken(ctx context.Context, code, excludeID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE code = $1 AND id <> $2)", subsidiaryTable)
	if err := r.storage.QueryRow(ctx, query, code, excludeID).Scan(&exists); err != nil {
		return false, mapPgError(err)
	}
	return exists, nil
}

func (r *subsidiaryRepository) List(ctx context.Context, filter types.Filter) ([]entities.Subsidiary, uint64, error) {
	base := func(columns string) sq.SelectBuilder {
		b := r.psql.Select(columns).From(subsidiaryTable).Where("deleted_at IS NULL")
		b = db.ApplyFilters(b, filter, subsidiaryFilterMap)
		return db.ApplySearch(b, filter.Search, "name", "code", "description")
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
		return []entities.Subsidiary{}, 0, nil
	}

	query, args, err := db.ApplySortAndPage(base(subsidiaryFields), filter, subsidiarySortMap, "name ASC").ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapPgError(err)
	}
	defer rows.Close()

	list := make([]entities.Subsidiary, 0)
	for rows.Next() {
		s, err := scanSubsidiary(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *s)
	}
	return list, total, rows.Err()
}

// Update writes every column of s; the caller merges the partial payload first.
func (r *subsidiaryRepository) Update(ctx context.Context, s *entities.Subsidiary) error {
	query := fmt.Sprintf(`UPDATE %s SET name = $1, code = $2, description = $3, specialization = $4, contact_info = $5,
			address = $6, established_year = $7, employee_count = $8, certification = $9, status = $10, parent_company = $11,
			board_of_directors = $12, legal_info = $13, permits = $14, financial_info = $15, profile_info = $16,
			updated_at = NOW()
		WHERE id = $17 AND deleted_at IS NULL
		RETURNING %s`, subsidiaryTable, subsidiaryFields)
	updated, err := scanSubsidiary(r.storage.QueryRow(ctx, query,
		s.Name, s.Code, s.Description, s.Specialization, s.ContactInfo, s.Address, s.EstablishedYear,
		s.EmployeeCount, nonNil(s.Certification), s.Status, s.ParentCompany, nonNil(s.BoardOfDirectors), s.LegalInfo,
		nonNil(s.Permits), s.FinancialInfo, s.ProfileInfo, s.ID,
	))
	if err != nil {
		return err
	}
	*s = *updated
	return nil
}

func (r *subsidiaryRepository) SoftDelete(ctx context.Context, id string) error {
	query := fmt.Sprintf("UPDATE %s SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL", subsidiaryTable)
	tag, err := r.storage.Exec(ctx, query, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows)
	}
	return nil
}

func (r *subsidiaryRepository) SetAttachments(ctx context.Context, id string, attachments []entities.Attachment) error {
	query := fmt.Sprintf("UPDATE %s SET attachments = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL", subsidiaryTable)
	tag, err := r.storage.Exec(ctx, query, nonNil(attachments), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows)
	}
	return nil
}

func (r *subsidiaryRepository) Stats(ctx context.Context) (*dto.SubsidiaryStatsDTO, error) {
	stats := &dto.SubsidiaryStatsDTO{BySpecialization: make(map[string]int64)}

	err := r.storage.QueryRow(ctx, fmt.Sprintf(`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'inactive')
		FROM %s WHERE deleted_at IS NULL`, subsidiaryTable)).Scan(&stats.Total, &stats.Active, &stats.Inactive)
	if err != nil {
		return nil, mapPgError(err)
	}

	rows, err := r.storage.Query(ctx, fmt.Sprintf(`SELECT specialization, COUNT(*) FROM %s
		WHERE deleted_at IS NULL GROUP BY specialization`, subsidiaryTable))
	if err != nil {
		return nil, mapPgError(err)
	}
	for rows.Next() {
		var spec string
		var n int64
		if err := rows.Scan(&spec, &n); err != nil {
			rows.Close()
			return nil, err
		}
		stats.BySpecialization[spec] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.storage.QueryRow(ctx, fmt.Sprintf(`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('active', 'in_progress'))
		FROM %s WHERE subsidiary_id IS NOT NULL`, projectTable)).Scan(&stats.TotalProjects, &stats.ActiveProjects)
	if err != nil {
		return nil, mapPgError(err)
	}
	return stats, nil
}
