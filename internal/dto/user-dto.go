package dto

import "nusantara-erp/internal/entities"

type UpdateProfileDTO struct {
	FullName *string `json:"fullName" validate:"omitempty,min=1,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
}

type LoginHistoryPageDTO struct {
	History []entities.LoginHistory `json:"history"`
	Total   uint64                  `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}
