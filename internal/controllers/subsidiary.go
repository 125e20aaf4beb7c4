package controllers

import (
	"io"
	"net/http"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/services"
	"nusantara-erp/pkg/audittrail"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/utils"
	"nusantara-erp/pkg/validation"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type SubsidiaryController struct {
	subsidiaryService services.SubsidiaryServiceInterface
	logger            *zap.Logger
}

func NewSubsidiaryController(subsidiaryService services.SubsidiaryServiceInterface, logger *zap.Logger) *SubsidiaryController {
	return &SubsidiaryController{subsidiaryService: subsidiaryService, logger: logger}
}

func (c *SubsidiaryController) List(ctx echo.Context) error {
	filter := listFilter(ctx, "specialization", "status", "parentCompany")
	rows, total, err := c.subsidiaryService.List(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, rows, "Successfully", http.StatusOK, total)
}

func (c *SubsidiaryController) Stats(ctx echo.Context) error {
	res, err := c.subsidiaryService.Stats(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *SubsidiaryController) Get(ctx echo.Context) error {
	res, err := c.subsidiaryService.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *SubsidiaryController) Create(ctx echo.Context) error {
	var payload dto.CreateSubsidiaryDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.subsidiaryService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Subsidiary created", http.StatusCreated)
}

func (c *SubsidiaryController) Update(ctx echo.Context) error {
	var payload dto.UpdateSubsidiaryDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	updated, previous, err := c.subsidiaryService.Update(ctx.Request().Context(), ctx.Param("id"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	audittrail.SetBefore(ctx, previous)
	return utils.SuccessResponse(ctx, updated, "Subsidiary updated", http.StatusOK)
}

func (c *SubsidiaryController) Delete(ctx echo.Context) error {
	previous, err := c.subsidiaryService.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	audittrail.SetBefore(ctx, previous)
	return utils.SuccessResponse(ctx, map[string]string{"id": previous.ID, "name": previous.Name}, "Subsidiary deleted", http.StatusOK)
}

func (c *SubsidiaryController) UploadAttachment(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UploadAttachmentDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("file is required"), c.logger)
	}
	src, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusInternalServerError, "could not read uploaded file", err, nil),
			c.logger)
	}
	defer src.Close()

	if err := validation.ValidateFile(fileHeader, src, services.SubsidiaryUploadContext); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError(err.Error()), c.logger)
	}
	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("could not detect file type"), c.logger)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	att, err := c.subsidiaryService.AddAttachment(ctx.Request().Context(), ctx.Param("id"), claims.UserID, services.NewAttachment{
		File:         src,
		OriginalName: fileHeader.Filename,
		Size:         fileHeader.Size,
		MimeType:     mtype.String(),
		Description:  payload.Description,
	})
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, att, "Attachment uploaded", http.StatusCreated)
}

func (c *SubsidiaryController) DeleteAttachment(ctx echo.Context) error {
	removed, err := c.subsidiaryService.RemoveAttachment(ctx.Request().Context(), ctx.Param("id"), ctx.Param("attachmentId"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	audittrail.SetBefore(ctx, removed)
	return utils.SuccessResponse(ctx, map[string]string{"id": removed.ID}, "Attachment deleted", http.StatusOK)
}

func (c *SubsidiaryController) DownloadAttachment(ctx echo.Context) error {
	path, att, err := c.subsidiaryService.AttachmentFile(ctx.Request().Context(), ctx.Param("id"), ctx.Param("attachmentId"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.Attachment(path, att.OriginalName)
}
