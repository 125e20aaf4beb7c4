package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"nusantara-erp/config"
	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/repositories"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/filestorage"
	"nusantara-erp/pkg/types"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultSpecialization   = "general"
	defaultCountry          = "Indonesia"
	defaultCurrency         = "IDR"
	SubsidiaryUploadContext = "subsidiary_attachment"
)

// NewAttachment is an already validated upload.
type NewAttachment struct {
	File         io.Reader
	OriginalName string
	Size         int64
	MimeType     string
	Description  string
}

type SubsidiaryServiceInterface interface {
	List(ctx context.Context, filter types.Filter) ([]entities.Subsidiary, uint64, error)
	Get(ctx context.Context, id string) (*entities.Subsidiary, error)
	Create(ctx context.Context, payload dto.CreateSubsidiaryDTO) (*entities.Subsidiary, error)
	Update(ctx context.Context, id string, payload dto.UpdateSubsidiaryDTO) (updated, previous *entities.Subsidiary, err error)
	Delete(ctx context.Context, id string) (*entities.Subsidiary, error)
	Stats(ctx context.Context) (*dto.SubsidiaryStatsDTO, error)
	AddAttachment(ctx context.Context, id string, uploadedBy uint64, upload NewAttachment) (*entities.Attachment, error)
	RemoveAttachment(ctx context.Context, id, attachmentID string) (*entities.Attachment, error)
	AttachmentFile(ctx context.Context, id, attachmentID string) (path string, attachment *entities.Attachment, err error)
}

type SubsidiaryService struct {
	repo    repositories.SubsidiaryRepositoryInterface
	storage filestorage.FileStorageInterface
	logger  *zap.Logger
	now     func() time.Time
}

func NewSubsidiaryService(
	repo repositories.SubsidiaryRepositoryInterface,
	storage filestorage.FileStorageInterface,
	logger *zap.Logger,
) *SubsidiaryService {
	return &SubsidiaryService{repo: repo, storage: storage, logger: logger, now: time.Now}
}

func (s *SubsidiaryService) List(ctx context.Context, filter types.Filter) ([]entities.Subsidiary, uint64, error) {
	return s.repo.List(ctx, filter)
}

func (s *SubsidiaryService) Get(ctx context.Context, id string) (*entities.Subsidiary, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *SubsidiaryService) checkYear(year *int) error {
	if year != nil && *year > s.now().Year() {
		return apperrors.NewInvalidInputError("establishedYear cannot be later than %d", s.now().Year())
	}
	return nil
}

func (s *SubsidiaryService) ensureCodeFree(ctx context.Context, code, excludeID string) error {
	taken, err := s.repo.CodeTaken(ctx, code, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewHttpError(409, fmt.Sprintf("subsidiary code %s already exists", code), apperrors.ErrConflict, nil)
	}
	return nil
}

func applyAddressDefaults(a entities.Address) entities.Address {
	if a.Country == nil || strings.TrimSpace(*a.Country) == "" {
		country := defaultCountry
		a.Country = &country
	}
	return a
}

func applyFinancialDefaults(f entities.FinancialInfo) entities.FinancialInfo {
	if f.Currency == nil || strings.TrimSpace(*f.Currency) == "" {
		currency := defaultCurrency
		f.Currency = &currency
	}
	return f
}

func (s *SubsidiaryService) Create(ctx context.Context, payload dto.CreateSubsidiaryDTO) (*entities.Subsidiary, error) {
	payload.Normalize()
	if err := s.checkYear(payload.EstablishedYear); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, payload.Code, ""); err != nil {
		return nil, err
	}

	sub := &entities.Subsidiary{
		Name:             payload.Name,
		Code:             payload.Code,
		Description:      nullStringPtr(payload.Description),
		Specialization:   payload.Specialization,
		Certification:    payload.Certification,
		Status:           payload.Status,
		ParentCompany:    strings.TrimSpace(payload.ParentCompany),
		BoardOfDirectors: payload.BoardOfDirectors,
		Permits:          payload.Permits,
	}
	if sub.Specialization == "" {
		sub.Specialization = defaultSpecialization
	}
	if sub.Status == "" {
		sub.Status = "active"
	}
	if sub.ParentCompany == "" {
		sub.ParentCompany = entities.DefaultParentCompany
	}
	if payload.ContactInfo != nil {
		sub.ContactInfo = *payload.ContactInfo
	}
	if payload.Address != nil {
		sub.Address = *payload.Address
	}
	sub.Address = applyAddressDefaults(sub.Address)
	if payload.LegalInfo != nil {
		sub.LegalInfo = *payload.LegalInfo
	}
	if payload.FinancialInfo != nil {
		sub.FinancialInfo = *payload.FinancialInfo
	}
	sub.FinancialInfo = applyFinancialDefaults(sub.FinancialInfo)
	if payload.ProfileInfo != nil {
		sub.ProfileInfo = *payload.ProfileInfo
	}
	if payload.EstablishedYear != nil {
		sub.EstablishedYear = null.IntFrom(*payload.EstablishedYear)
	}
	if payload.EmployeeCount != nil {
		sub.EmployeeCount = *payload.EmployeeCount
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		s.logger.Error("failed to create subsidiary", zap.String("code", sub.Code), zap.Error(err))
		return nil, err
	}
	s.logger.Info("subsidiary created", zap.String("id", sub.ID), zap.String("code", sub.Code))
	return sub, nil
}

// mergeSubsidiary applies the fields present in payload onto a copy of current.
func mergeSubsidiary(current entities.Subsidiary, p dto.UpdateSubsidiaryDTO) entities.Subsidiary {
	next := current
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Code != nil {
		next.Code = *p.Code
	}
	if p.Description != nil {
		next.Description = nullStringPtr(p.Description)
	}
	if p.Specialization != nil {
		next.Specialization = *p.Specialization
	}
	if p.ContactInfo != nil {
		next.ContactInfo = *p.ContactInfo
	}
	if p.Address != nil {
		next.Address = applyAddressDefaults(*p.Address)
	}
	if p.EstablishedYear != nil {
		next.EstablishedYear = null.IntFrom(*p.EstablishedYear)
	}
	if p.EmployeeCount != nil {
		next.EmployeeCount = *p.EmployeeCount
	}
	if p.Certification != nil {
		next.Certification = p.Certification
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.ParentCompany != nil {
		next.ParentCompany = strings.TrimSpace(*p.ParentCompany)
	}
	if p.BoardOfDirectors != nil {
		next.BoardOfDirectors = p.BoardOfDirectors
	}
	if p.LegalInfo != nil {
		next.LegalInfo = *p.LegalInfo
	}
	if p.Permits != nil {
		next.Permits = p.Permits
	}
	if p.FinancialInfo != nil {
		next.FinancialInfo = applyFinancialDefaults(*p.FinancialInfo)
	}
	if p.ProfileInfo != nil {
		next.ProfileInfo = *p.ProfileInfo
	}
	return next
}

func (s *SubsidiaryService) Update(ctx context.Context, id string, payload dto.UpdateSubsidiaryDTO) (*entities.Subsidiary, *entities.Subsidiary, error) {
	payload.Normalize()
	if err := s.checkYear(payload.EstablishedYear); err != nil {
		return nil, nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if payload.Code != nil && *payload.Code != current.Code {
		if err := s.ensureCodeFree(ctx, *payload.Code, id); err != nil {
			return nil, nil, err
		}
	}

	next := mergeSubsidiary(*current, payload)
	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, nil, err
	}
	s.logger.Info("subsidiary updated", zap.String("id", id))
	return &next, current, nil
}

// Delete soft-deletes and returns the row as it was.
func (s *SubsidiaryService) Delete(ctx context.Context, id string) (*entities.Subsidiary, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("subsidiary deleted", zap.String("id", id), zap.String("code", current.Code))
	return current, nil
}

func (s *SubsidiaryService) Stats(ctx context.Context) (*dto.SubsidiaryStatsDTO, error) {
	return s.repo.Stats(ctx)
}

func (s *SubsidiaryService) AddAttachment(ctx context.Context, id string, uploadedBy uint64, upload NewAttachment) (*entities.Attachment, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rel, err := s.storage.Save(upload.File, upload.OriginalName, config.UploadContexts[SubsidiaryUploadContext].PathPrefix)
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	att := entities.Attachment{
		ID:           uuid.NewString(),
		Name:         rel,
		OriginalName: upload.OriginalName,
		Size:         upload.Size,
		MimeType:     upload.MimeType,
		Description:  strings.TrimSpace(upload.Description),
		UploadedBy:   uploadedBy,
		UploadedAt:   s.now(),
	}
	att.URL = fmt.Sprintf("/api/subsidiaries/%s/attachments/%s/download", id, att.ID)

	attachments := append(append([]entities.Attachment{}, sub.Attachments...), att)
	if err := s.repo.SetAttachments(ctx, id, attachments); err != nil {
		if delErr := s.storage.Delete(rel); delErr != nil {
			s.logger.Warn("orphaned attachment file", zap.String("path", rel), zap.Error(delErr))
		}
		return nil, err
	}
	s.logger.Info("attachment uploaded", zap.String("subsidiaryId", id), zap.String("attachmentId", att.ID))
	return &att, nil
}

func findAttachment(list []entities.Attachment, attachmentID string) (int, bool) {
	for i, a := range list {
		if a.ID == attachmentID {
			return i, true
		}
	}
	return -1, false
}

// RemoveAttachment returns the removed entry.
func (s *SubsidiaryService) RemoveAttachment(ctx context.Context, id, attachmentID string) (*entities.Attachment, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	i, ok := findAttachment(sub.Attachments, attachmentID)
	if !ok {
		return nil, apperrors.NewNotFoundError("attachment not found")
	}
	removed := sub.Attachments[i]

	rest := make([]entities.Attachment, 0, len(sub.Attachments)-1)
	rest = append(rest, sub.Attachments[:i]...)
	rest = append(rest, sub.Attachments[i+1:]...)
	if err := s.repo.SetAttachments(ctx, id, rest); err != nil {
		return nil, err
	}
	if err := s.storage.Delete(removed.Name); err != nil {
		s.logger.Warn("could not remove attachment file", zap.String("path", removed.Name), zap.Error(err))
	}
	return &removed, nil
}

func (s *SubsidiaryService) AttachmentFile(ctx context.Context, id, attachmentID string) (string, *entities.Attachment, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	i, ok := findAttachment(sub.Attachments, attachmentID)
	if !ok {
		return "", nil, apperrors.NewNotFoundError("attachment not found")
	}
	path, err := s.storage.Path(sub.Attachments[i].Name)
	if err != nil {
		return "", nil, err
	}
	return path, &sub.Attachments[i], nil
}
