package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/services"
	"nusantara-erp/pkg/audittrail"
	"nusantara-erp/pkg/contextkeys"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/export"
	"nusantara-erp/pkg/types"
	"nusantara-erp/pkg/validation"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Fakes embed the service interface so only the methods a test touches need bodies.

type fakeBackupService struct {
	services.BackupServiceInterface
	restored []uint64
	deleted  map[uint64]bool
}

func (f *fakeBackupService) Restore(_ context.Context, id uint64, _ dto.RestoreBackupDTO) (*dto.RestoreResultDTO, error) {
	f.restored = append(f.restored, id)
	return &dto.RestoreResultDTO{Duration: 1.5}, nil
}

func (f *fakeBackupService) Delete(_ context.Context, id uint64, hard bool) error {
	if f.deleted == nil {
		f.deleted = make(map[uint64]bool)
	}
	f.deleted[id] = hard
	return nil
}

type fakeAuditService struct {
	services.AuditServiceInterface
	retention []int
	exports   []string
	exported  map[string]any
	filters   []dto.AuditLogFilter
}

func (f *fakeAuditService) CleanupOldLogs(_ context.Context, days int) (int64, error) {
	f.retention = append(f.retention, days)
	return 12, nil
}

func (f *fakeAuditService) GetLogs(_ context.Context, filter dto.AuditLogFilter) (*dto.AuditLogPageDTO, error) {
	f.filters = append(f.filters, filter)
	return &dto.AuditLogPageDTO{}, nil
}

func (f *fakeAuditService) Export(_ context.Context, _ dto.Actor, _ dto.AuditLogFilter, format string) (*export.File, error) {
	f.exports = append(f.exports, format)
	return &export.File{Name: "audit_logs." + format, ContentType: "text/csv", Data: []byte("id,action\n1,CREATE\n")}, nil
}

func (f *fakeAuditService) LogExport(_ context.Context, _ dto.Actor, entityType, format string, filters map[string]any) {
	f.exports = append(f.exports, entityType+":"+format)
	f.exported = filters
}

type fakeSubsidiaryService struct {
	services.SubsidiaryServiceInterface
	uploads []services.NewAttachment
	filter  types.Filter
}

func (f *fakeSubsidiaryService) List(_ context.Context, filter types.Filter) ([]entities.Subsidiary, uint64, error) {
	f.filter = filter
	return []entities.Subsidiary{{ID: "SUB-1", Code: "KMJ", Name: "PT. KARYA MANDIRI JAYA"}}, 3, nil
}

func (f *fakeSubsidiaryService) AddAttachment(_ context.Context, id string, uploadedBy uint64, upload services.NewAttachment) (*entities.Attachment, error) {
	f.uploads = append(f.uploads, upload)
	return &entities.Attachment{ID: "att-1", OriginalName: upload.OriginalName, MimeType: upload.MimeType, UploadedBy: uploadedBy}, nil
}

type fakeManpowerService struct {
	services.ManpowerServiceInterface
	filter types.Filter
}

func (f *fakeManpowerService) Export(_ context.Context, filter types.Filter) (*export.File, error) {
	f.filter = filter
	return &export.File{Name: "manpower.xlsx", ContentType: export.ContentTypeXLSX, Data: []byte("PK")}, nil
}

type fakeSecurityService struct {
	services.SecurityServiceInterface
	terminated []string
}

func (f *fakeSecurityService) TerminateSession(_ context.Context, claims *dto.UserClaims, sessionID string) (*entities.ActiveSession, error) {
	if sessionID == "missing" {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	f.terminated = append(f.terminated, sessionID)
	return &entities.ActiveSession{ID: sessionID, UserID: claims.UserID, Device: null.StringFrom("Firefox on Linux"), IsActive: true}, nil
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	return e
}

func withClaims(req *http.Request) *http.Request {
	claims := &dto.UserClaims{UserID: 7, Username: "dewi", Role: dto.RoleAdmin, SessionID: "sess-1"}
	return req.WithContext(context.WithValue(req.Context(), contextkeys.UserClaimsKey, claims))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return withClaims(req)
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBackupRestoreRequiresConfirmation(t *testing.T) {
	svc := &fakeBackupService{}
	e := newTestEcho()
	ctrl := NewBackupController(svc, zap.NewNop())
	e.POST("/backup/:id/restore", ctrl.Restore)

	rec := serve(e, jsonRequest(http.MethodPost, "/backup/4/restore", `{"confirm":false}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.restored)

	rec = serve(e, jsonRequest(http.MethodPost, "/backup/4/restore", `{"confirm":true}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uint64{4}, svc.restored)
}

func TestBackupRejectsInvalidID(t *testing.T) {
	e := newTestEcho()
	ctrl := NewBackupController(&fakeBackupService{}, zap.NewNop())
	e.DELETE("/backup/:id", ctrl.Delete)

	rec := serve(e, jsonRequest(http.MethodDelete, "/backup/abc", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackupDeleteHardFlag(t *testing.T) {
	svc := &fakeBackupService{}
	e := newTestEcho()
	ctrl := NewBackupController(svc, zap.NewNop())
	e.DELETE("/backup/:id", ctrl.Delete)

	rec := serve(e, jsonRequest(http.MethodDelete, "/backup/5?hard=true", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[uint64]bool{5: true}, svc.deleted)

	rec = serve(e, jsonRequest(http.MethodDelete, "/backup/6", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.deleted[6])
}

func TestAuditCleanupFallsBackToConfiguredRetention(t *testing.T) {
	svc := &fakeAuditService{}
	e := newTestEcho()
	ctrl := NewAuditController(svc, 90, zap.NewNop())
	e.POST("/audit/cleanup", ctrl.Cleanup)

	rec := serve(e, jsonRequest(http.MethodPost, "/audit/cleanup", `{}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, jsonRequest(http.MethodPost, "/audit/cleanup", `{"retentionDays":30}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{90, 30}, svc.retention)

	var body struct {
		Success bool                      `json:"success"`
		Data    dto.AuditCleanupResultDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.EqualValues(t, 12, body.Data.DeletedCount)
	assert.Equal(t, 30, body.Data.RetentionDays)
}

func TestAuditCleanupRejectsNegativeRetention(t *testing.T) {
	svc := &fakeAuditService{}
	e := newTestEcho()
	ctrl := NewAuditController(svc, 90, zap.NewNop())
	e.POST("/audit/cleanup", ctrl.Cleanup)

	rec := serve(e, jsonRequest(http.MethodPost, "/audit/cleanup", `{"retentionDays":-5}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.retention)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
	assert.NotContains(t, body, "data")
}

func TestAuditLogsQueryParsing(t *testing.T) {
	svc := &fakeAuditService{}
	e := newTestEcho()
	ctrl := NewAuditController(svc, 90, zap.NewNop())
	e.GET("/audit/logs", ctrl.GetLogs)

	rec := serve(e, jsonRequest(http.MethodGet, "/audit/logs?action=create&userId=3&startDate=2025-01-01&limit=20", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.filters, 1)

	f := svc.filters[0]
	assert.Equal(t, "CREATE", f.Action)
	require.NotNil(t, f.UserID)
	assert.EqualValues(t, 3, *f.UserID)
	require.NotNil(t, f.StartDate)
	assert.Equal(t, "2025-01-01", f.StartDate.Format("2006-01-02"))
	assert.Equal(t, 20, f.Limit)

	for _, bad := range []string{"/audit/logs?userId=x", "/audit/logs?endDate=31-12-2025"} {
		rec = serve(e, jsonRequest(http.MethodGet, bad, ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
	assert.Len(t, svc.filters, 1)
}

func TestAuditExportDefaultsToCSV(t *testing.T) {
	svc := &fakeAuditService{}
	e := newTestEcho()
	ctrl := NewAuditController(svc, 90, zap.NewNop())
	e.GET("/audit/export", ctrl.Export)

	rec := serve(e, jsonRequest(http.MethodGet, "/audit/export", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"csv"}, svc.exports)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `filename="audit_logs.csv"`)
	assert.Equal(t, "id,action\n1,CREATE\n", rec.Body.String())
}

func TestAuditExportRequiresClaims(t *testing.T) {
	e := newTestEcho()
	ctrl := NewAuditController(&fakeAuditService{}, 90, zap.NewNop())
	e.GET("/audit/export", ctrl.Export)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/audit/export", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubsidiaryListIsPaginated(t *testing.T) {
	svc := &fakeSubsidiaryService{}
	e := newTestEcho()
	ctrl := NewSubsidiaryController(svc, zap.NewNop())
	e.GET("/subsidiaries", ctrl.List)

	rec := serve(e, jsonRequest(http.MethodGet, "/subsidiaries?status=active&specialization=infrastructure&limit=1", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "active", svc.filter.Filter["status"])
	assert.Equal(t, "infrastructure", svc.filter.Filter["specialization"])

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			List       []entities.Subsidiary `json:"list"`
			Pagination map[string]any        `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.List, 1)
	assert.Equal(t, "KMJ", body.Data.List[0].Code)
	assert.NotEmpty(t, body.Data.Pagination)
}

func TestTerminateSessionRecordsBeforeSnapshot(t *testing.T) {
	svc := &fakeSecurityService{}
	e := newTestEcho()
	var before []audittrail.Snapshot
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			before = append(before, audittrail.GetBefore(c))
			return err
		}
	})
	ctrl := NewAuthController(nil, svc, zap.NewNop())
	e.DELETE("/security/session/:sessionId", ctrl.TerminateSession)

	rec := serve(e, jsonRequest(http.MethodDelete, "/security/session/sess-2", ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"sess-2"}, svc.terminated)
	require.Len(t, before, 1)
	assert.Equal(t, "sess-2", before[0]["id"])
	assert.Equal(t, "Firefox on Linux", before[0]["device"])
	assert.Equal(t, true, before[0]["isActive"])

	rec = serve(e, jsonRequest(http.MethodDelete, "/security/session/missing", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, before, 2)
	assert.Nil(t, before[1])
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("description", "site photo"))
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/subsidiaries/SUB-1/attachments", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return withClaims(req)
}

func TestSubsidiaryUploadDetectsContentType(t *testing.T) {
	svc := &fakeSubsidiaryService{}
	e := newTestEcho()
	ctrl := NewSubsidiaryController(svc, zap.NewNop())
	e.POST("/subsidiaries/:id/attachments", ctrl.UploadAttachment)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	rec := serve(e, multipartUpload(t, "site.png", png))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, svc.uploads, 1)

	up := svc.uploads[0]
	assert.Equal(t, "image/png", up.MimeType)
	assert.Equal(t, "site.png", up.OriginalName)
	assert.Equal(t, "site photo", up.Description)
	assert.EqualValues(t, len(png), up.Size)
}

func TestSubsidiaryUploadRejectsDisallowedFiles(t *testing.T) {
	svc := &fakeSubsidiaryService{}
	e := newTestEcho()
	ctrl := NewSubsidiaryController(svc, zap.NewNop())
	e.POST("/subsidiaries/:id/attachments", ctrl.UploadAttachment)

	rec := serve(e, multipartUpload(t, "setup.exe", []byte("MZ\x90\x00")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// extension allowed, content is not
	rec = serve(e, multipartUpload(t, "report.pdf", []byte("#!/bin/sh\necho hi\n")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, svc.uploads)
}

func TestManpowerExportIsAudited(t *testing.T) {
	mp := &fakeManpowerService{}
	audit := &fakeAuditService{}
	e := newTestEcho()
	ctrl := NewManpowerController(mp, audit, zap.NewNop())
	e.GET("/manpower/export", ctrl.Export)

	rec := serve(e, jsonRequest(http.MethodGet, "/manpower/export?department=Engineering", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Engineering", mp.filter.Filter["department"])
	assert.Equal(t, []string{"manpower:xlsx"}, audit.exports)
	assert.Equal(t, map[string]any{"department": "Engineering"}, audit.exported)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "manpower.xlsx")
}
