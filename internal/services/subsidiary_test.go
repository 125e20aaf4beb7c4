package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/filestorage"
	"nusantara-erp/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSubsidiaryRepo struct {
	rows map[string]*entities.Subsidiary
	seq  int
}

func newFakeSubsidiaryRepo() *fakeSubsidiaryRepo {
	return &fakeSubsidiaryRepo{rows: map[string]*entities.Subsidiary{}}
}

func (f *fakeSubsidiaryRepo) Create(_ context.Context, s *entities.Subsidiary) error {
	f.seq++
	s.ID = fmt.Sprintf("SUB%03d", f.seq)
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSubsidiaryRepo) FindByID(_ context.Context, id string) (*entities.Subsidiary, error) {
	s, ok := f.rows[id]
	if !ok || s.DeletedAt.Valid {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubsidiaryRepo) CodeTaken(_ context.Context, code, excludeID string) (bool, error) {
	for id, s := range f.rows {
		if s.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubsidiaryRepo) List(context.Context, types.Filter) ([]entities.Subsidiary, uint64, error) {
	return nil, 0, nil
}

func (f *fakeSubsidiaryRepo) Update(_ context.Context, s *entities.Subsidiary) error {
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSubsidiaryRepo) SoftDelete(_ context.Context, id string) error {
	f.rows[id].DeletedAt.Valid = true
	return nil
}

func (f *fakeSubsidiaryRepo) SetAttachments(_ context.Context, id string, a []entities.Attachment) error {
	f.rows[id].Attachments = a
	return nil
}

func (f *fakeSubsidiaryRepo) Stats(context.Context) (*dto.SubsidiaryStatsDTO, error) {
	return &dto.SubsidiaryStatsDTO{}, nil
}

func newTestSubsidiaryService(t *testing.T) (*SubsidiaryService, *fakeSubsidiaryRepo) {
	t.Helper()
	store, err := filestorage.NewLocalFileStorage(t.TempDir())
	require.NoError(t, err)
	repo := newFakeSubsidiaryRepo()
	svc := NewSubsidiaryService(repo, store, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func TestSubsidiaryCreateDefaults(t *testing.T) {
	svc, _ := newTestSubsidiaryService(t)

	sub, err := svc.Create(context.Background(), dto.CreateSubsidiaryDTO{Name: "  PT Beton Jaya ", Code: "bj"})
	require.NoError(t, err)

	assert.Equal(t, "SUB001", sub.ID)
	assert.Equal(t, "PT Beton Jaya", sub.Name)
	assert.Equal(t, "BJ", sub.Code)
	assert.Equal(t, "general", sub.Specialization)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, entities.DefaultParentCompany, sub.ParentCompany)
	require.NotNil(t, sub.Address.Country)
	assert.Equal(t, "Indonesia", *sub.Address.Country)
	require.NotNil(t, sub.FinancialInfo.Currency)
	assert.Equal(t, "IDR", *sub.FinancialInfo.Currency)
}

func TestSubsidiaryCreateRejectsDuplicateCodeAndFutureYear(t *testing.T) {
	svc, _ := newTestSubsidiaryService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, dto.CreateSubsidiaryDTO{Name: "A", Code: "AB"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, dto.CreateSubsidiaryDTO{Name: "B", Code: "ab"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	year := 2026
	_, err = svc.Create(ctx, dto.CreateSubsidiaryDTO{Name: "C", Code: "CD", EstablishedYear: &year})
	var inputErr *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestSubsidiaryUpdateMergesAndReturnsPrevious(t *testing.T) {
	svc, _ := newTestSubsidiaryService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, dto.CreateSubsidiaryDTO{Name: "Old", Code: "OLD", Certification: []string{"ISO 9001"}})
	require.NoError(t, err)

	name, status := "New", "inactive"
	updated, previous, err := svc.Update(ctx, created.ID, dto.UpdateSubsidiaryDTO{Name: &name, Status: &status})
	require.NoError(t, err)

	assert.Equal(t, "Old", previous.Name)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "inactive", updated.Status)
	assert.Equal(t, "OLD", updated.Code)
	assert.Equal(t, []string{"ISO 9001"}, updated.Certification)
}

func TestSubsidiaryDeleteHidesRow(t *testing.T) {
	svc, _ := newTestSubsidiaryService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, dto.CreateSubsidiaryDTO{Name: "Gone", Code: "GN"})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "GN", deleted.Code)

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSubsidiaryAttachments(t *testing.T) {
	svc, repo := newTestSubsidiaryService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, dto.CreateSubsidiaryDTO{Name: "Docs", Code: "DOC"})
	require.NoError(t, err)

	att, err := svc.AddAttachment(ctx, created.ID, 3, NewAttachment{
		File:         strings.NewReader("%PDF-1.4"),
		OriginalName: "siup.pdf",
		Size:         8,
		MimeType:     "application/pdf",
		Description:  "business license",
	})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("/api/subsidiaries/%s/attachments/%s/download", created.ID, att.ID), att.URL)
	assert.Len(t, repo.rows[created.ID].Attachments, 1)

	path, found, err := svc.AttachmentFile(ctx, created.ID, att.ID)
	require.NoError(t, err)
	assert.Equal(t, "siup.pdf", found.OriginalName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = svc.RemoveAttachment(ctx, created.ID, att.ID)
	require.NoError(t, err)
	assert.Empty(t, repo.rows[created.ID].Attachments)
	assert.NoFileExists(t, path)

	_, err = svc.RemoveAttachment(ctx, created.ID, att.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
