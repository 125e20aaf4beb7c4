package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/events"
	"nusantara-erp/internal/repositories"
	"nusantara-erp/pkg/audittrail"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/eventbus"
	"nusantara-erp/pkg/export"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"
)

const (
	ClearAllConfirmationCode = "CLEAR_ALL_LOGS"

	defaultAuditLimit       = 50
	defaultHistoryLimit     = 20
	defaultUserActivityDays = 30
	defaultSystemDays       = 7
	defaultAuditRetention   = 90
	auditExportLimit        = 10000
	topListSize             = 10
)

// EventPublisher is satisfied by *eventbus.Bus.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

type AuditServiceInterface interface {
	Log(ctx context.Context, entry dto.AuditEntry)
	LogCreate(ctx context.Context, actor dto.Actor, entityType, entityID, entityName string, after any)
	LogUpdate(ctx context.Context, actor dto.Actor, entityType, entityID, entityName string, before, after any)
	LogDelete(ctx context.Context, actor dto.Actor, entityType, entityID, entityName string, before any)
	LogLogin(ctx context.Context, actor dto.Actor, success bool, errorMessage string)
	LogLogout(ctx context.Context, actor dto.Actor)
	LogView(ctx context.Context, actor dto.Actor, entityType, entityID string)
	LogExport(ctx context.Context, actor dto.Actor, entityType, format string, filters map[string]any)
	LogImport(ctx context.Context, actor dto.Actor, entityType string, recordCount int)

	GetLogs(ctx context.Context, filter dto.AuditLogFilter) (*dto.AuditLogPageDTO, error)
	GetByID(ctx context.Context, id uint64) (*entities.AuditLog, error)
	GetEntityHistory(ctx context.Context, entityType, entityID string, limit int) ([]entities.AuditLog, error)
	GetUserActivity(ctx context.Context, userID uint64, days int) (*dto.UserActivityDTO, error)
	GetSystemActivity(ctx context.Context, days int) (*dto.SystemActivityDTO, error)
	EntityTypes(ctx context.Context) ([]string, error)
	Export(ctx context.Context, actor dto.Actor, filter dto.AuditLogFilter, format string) (*export.File, error)

	CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error)
	ClearAllLogs(ctx context.Context, actor dto.Actor, confirmationCode string) (int64, error)
}

type AuditService struct {
	repo      repositories.AuditLogRepositoryInterface
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuditService(repo repositories.AuditLogRepositoryInterface, publisher EventPublisher, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// Log redacts the snapshots, diffs UPDATEs and hands the row to the event bus.
// It never blocks on storage and never fails the caller.
func (s *AuditService) Log(ctx context.Context, entry dto.AuditEntry) {
	row, ok := s.buildRow(entry)
	if !ok {
		return
	}
	s.publisher.Publish(ctx, events.AuditEntryRecorded{Log: *row})
}

func (s *AuditService) buildRow(entry dto.AuditEntry) (*entities.AuditLog, bool) {
	if !entry.Action.Valid() {
		s.logger.Warn("audit entry dropped: unknown action", zap.String("action", string(entry.Action)))
		return nil, false
	}
	if entry.EntityType == "" {
		s.logger.Warn("audit entry dropped: empty entity type", zap.String("action", string(entry.Action)))
		return nil, false
	}

	before := audittrail.Redact(entry.Before)
	after := audittrail.Redact(entry.After)

	row := &entities.AuditLog{
		Action:       entry.Action,
		EntityType:   entry.EntityType,
		EntityID:     nullString(entry.EntityID),
		EntityName:   nullString(entry.EntityName),
		Before:       before,
		After:        after,
		IPAddress:    nullString(entry.IPAddress),
		UserAgent:    nullString(entry.UserAgent),
		Method:       nullString(entry.Method),
		Endpoint:     nullString(entry.Endpoint),
		ErrorMessage: nullString(entry.ErrorMessage),
		Metadata:     entry.Metadata,
	}
	if entry.UserID != nil {
		row.UserID = null.Int64From(int64(*entry.UserID))
	}
	row.Username = nullString(entry.Username)
	if entry.StatusCode != 0 {
		row.StatusCode = null.IntFrom(entry.StatusCode)
	}
	if entry.Duration != 0 {
		row.Duration = null.IntFrom(entry.Duration)
	}
	if entry.Action == audittrail.ActionUpdate {
		row.Changes = audittrail.Changes(before, after)
	}
	return row, true
}

func nullString(s string) null.String {
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}

func actorEntry(actor dto.Actor, action audittrail.Action, entityType string) dto.AuditEntry {
	return dto.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		Action:     action,
		EntityType: entityType,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
	}
}

func (s *AuditService) LogCreate(ctx context.Context, actor dto.Actor, entityType, entityID, entityName string, after any) {
	e := actorEntry(actor, audittrail.ActionCreate, entityType)
	e.EntityID, e.EntityName, e.After = entityID, entityName, audittrail.ToSnapshot(after)
	s.Log(ctx, e)
}

func (s *AuditService) LogUpdate(ctx context.Context, actor dto.Actor, entityType, entityID, entityName string, before, after any) {
	e := actorEntry(actor, audittrail.ActionUpdate, entityType)
	e.EntityID, e.EntityName = entityID, entityName
	e.Before, e.After = audittrail.ToSnapshot(before), audittrail.ToSnapshot(after)
	s.Log(ctx, e)
}

func (s *AuditService) LogDelete(ctx context.Context, actor dto.Actor, entityType, entityID, entityName string, before any) {
	e := actorEntry(actor, audittrail.ActionDelete, entityType)
	e.EntityID, e.EntityName, e.Before = entityID, entityName, audittrail.ToSnapshot(before)
	s.Log(ctx, e)
}

func (s *AuditService) LogLogin(ctx context.Context, actor dto.Actor, success bool, errorMessage string) {
	e := actorEntry(actor, audittrail.ActionLogin, "auth")
	e.EntityName = actor.Username
	if actor.UserID != nil {
		e.EntityID = fmt.Sprint(*actor.UserID)
	}
	e.Method, e.Endpoint = "POST", "/api/auth/login"
	e.StatusCode = 200
	if !success {
		e.StatusCode = 401
		e.ErrorMessage = errorMessage
	}
	s.Log(ctx, e)
}

func (s *AuditService) LogLogout(ctx context.Context, actor dto.Actor) {
	e := actorEntry(actor, audittrail.ActionLogout, "auth")
	e.EntityName = actor.Username
	if actor.UserID != nil {
		e.EntityID = fmt.Sprint(*actor.UserID)
	}
	e.Method, e.Endpoint, e.StatusCode = "POST", "/api/auth/logout", 200
	s.Log(ctx, e)
}

func (s *AuditService) LogView(ctx context.Context, actor dto.Actor, entityType, entityID string) {
	e := actorEntry(actor, audittrail.ActionView, entityType)
	e.EntityID = entityID
	s.Log(ctx, e)
}

func (s *AuditService) LogExport(ctx context.Context, actor dto.Actor, entityType, format string, filters map[string]any) {
	e := actorEntry(actor, audittrail.ActionExport, entityType)
	e.EntityName = fmt.Sprintf("%s_export.%s", entityType, format)
	e.Metadata = map[string]any{"format": format, "filters": filters}
	s.Log(ctx, e)
}

func (s *AuditService) LogImport(ctx context.Context, actor dto.Actor, entityType string, recordCount int) {
	e := actorEntry(actor, audittrail.ActionImport, entityType)
	e.Metadata = map[string]any{"recordCount": recordCount}
	s.Log(ctx, e)
}

func normalizeAuditFilter(f dto.AuditLogFilter) dto.AuditLogFilter {
	if f.Limit <= 0 {
		f.Limit = defaultAuditLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.SortBy == "" {
		f.SortBy = "createdAt"
	}
	if !strings.EqualFold(f.Order, "asc") {
		f.Order = "desc"
	}
	return f
}

func (s *AuditService) GetLogs(ctx context.Context, filter dto.AuditLogFilter) (*dto.AuditLogPageDTO, error) {
	filter = normalizeAuditFilter(filter)
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.AuditLogPageDTO{
		Logs:   logs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Pages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *AuditService) GetByID(ctx context.Context, id uint64) (*entities.AuditLog, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *AuditService) GetEntityHistory(ctx context.Context, entityType, entityID string, limit int) ([]entities.AuditLog, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.repo.EntityHistory(ctx, entityType, entityID, limit)
}

func (s *AuditService) since(days int) time.Time {
	return s.now().AddDate(0, 0, -days)
}

func (s *AuditService) GetUserActivity(ctx context.Context, userID uint64, days int) (*dto.UserActivityDTO, error) {
	if days <= 0 {
		days = defaultUserActivityDays
	}
	since := s.since(days)

	total, err := s.repo.CountSince(ctx, &userID, since)
	if err != nil {
		return nil, err
	}
	byAction, err := s.repo.CountByAction(ctx, &userID, since)
	if err != nil {
		return nil, err
	}
	return &dto.UserActivityDTO{UserID: userID, Days: days, Total: total, ByAction: byAction}, nil
}

func (s *AuditService) GetSystemActivity(ctx context.Context, days int) (*dto.SystemActivityDTO, error) {
	if days <= 0 {
		days = defaultSystemDays
	}
	since := s.since(days)

	total, err := s.repo.CountSince(ctx, nil, since)
	if err != nil {
		return nil, err
	}
	byAction, err := s.repo.CountByAction(ctx, nil, since)
	if err != nil {
		return nil, err
	}
	byEntity, err := s.repo.CountByEntityType(ctx, since, topListSize)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.MostActiveUsers(ctx, since, topListSize)
	if err != nil {
		return nil, err
	}
	return &dto.SystemActivityDTO{
		Days:            days,
		Total:           total,
		ByAction:        byAction,
		ByEntityType:    byEntity,
		MostActiveUsers: users,
	}, nil
}

func (s *AuditService) EntityTypes(ctx context.Context) ([]string, error) {
	return s.repo.DistinctEntityTypes(ctx)
}

var auditExportHeaders = []string{
	"ID", "Timestamp", "User ID", "Username", "Action", "Entity Type", "Entity ID", "Entity Name",
	"Method", "Endpoint", "Status Code", "IP Address", "Duration (ms)", "Error",
}

func auditExportRow(l entities.AuditLog) []interface{} {
	var userID interface{}
	if l.UserID.Valid {
		userID = l.UserID.Int64
	}
	var status, duration interface{}
	if l.StatusCode.Valid {
		status = l.StatusCode.Int
	}
	if l.Duration.Valid {
		duration = l.Duration.Int
	}
	return []interface{}{
		l.ID, l.CreatedAt.UTC().Format(time.RFC3339), userID, l.Username.String, string(l.Action), l.EntityType,
		l.EntityID.String, l.EntityName.String, l.Method.String, l.Endpoint.String, status, l.IPAddress.String,
		duration, l.ErrorMessage.String,
	}
}

// Export renders at most auditExportLimit matching rows and records an EXPORT entry.
func (s *AuditService) Export(ctx context.Context, actor dto.Actor, filter dto.AuditLogFilter, format string) (*export.File, error) {
	if format == "" {
		format = export.FormatCSV
	}
	if format != export.FormatCSV && format != export.FormatXLSX {
		return nil, apperrors.NewBadRequestError("format must be csv or xlsx")
	}

	filter = normalizeAuditFilter(filter)
	filter.Limit, filter.Offset = auditExportLimit, 0
	logs, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	table := export.Table{Sheet: "Audit Logs", Headers: auditExportHeaders, Rows: make([][]interface{}, 0, len(logs))}
	for _, l := range logs {
		table.Rows = append(table.Rows, auditExportRow(l))
	}
	file, err := export.Render(table, format, "audit_logs", s.now())
	if err != nil {
		return nil, err
	}

	s.LogExport(ctx, actor, "audit_logs", format, auditFilterMetadata(filter))
	return file, nil
}

func auditFilterMetadata(f dto.AuditLogFilter) map[string]any {
	m := map[string]any{}
	if f.UserID != nil {
		m["userId"] = *f.UserID
	}
	if f.Action != "" {
		m["action"] = f.Action
	}
	if f.EntityType != "" {
		m["entityType"] = f.EntityType
	}
	if f.EntityID != "" {
		m["entityId"] = f.EntityID
	}
	if f.StartDate != nil {
		m["startDate"] = f.StartDate.Format(time.RFC3339)
	}
	if f.EndDate != nil {
		m["endDate"] = f.EndDate.Format(time.RFC3339)
	}
	return m
}

func (s *AuditService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = defaultAuditRetention
	}
	deleted, err := s.repo.DeleteOlderThan(ctx, s.since(retentionDays))
	if err != nil {
		return 0, err
	}
	s.logger.Info("old audit logs removed", zap.Int64("deleted", deleted), zap.Int("retentionDays", retentionDays))
	return deleted, nil
}

// ClearAllLogs writes its own DELETE entry synchronously before wiping the table.
func (s *AuditService) ClearAllLogs(ctx context.Context, actor dto.Actor, confirmationCode string) (int64, error) {
	if confirmationCode != ClearAllConfirmationCode {
		return 0, apperrors.ErrInvalidConfirmation
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}

	e := actorEntry(actor, audittrail.ActionDelete, "audit_logs")
	e.EntityID, e.EntityName = "ALL", "All Audit Logs"
	e.Method, e.Endpoint, e.StatusCode = "DELETE", "/api/audit/logs/clear-all", 200
	e.Metadata = map[string]any{
		"description": fmt.Sprintf("%s cleared all audit logs", actor.Username),
		"rowCount":    count,
	}
	row, _ := s.buildRow(e)
	if err := s.repo.Insert(ctx, row); err != nil {
		return 0, fmt.Errorf("record clear-all audit entry: %w", err)
	}

	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("all audit logs cleared", zap.Int64("deleted", deleted), zap.String("by", actor.Username))
	return deleted, nil
}
