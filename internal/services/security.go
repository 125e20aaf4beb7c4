package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/repositories"
	"nusantara-erp/pkg/config"
	apperrors "nusantara-erp/pkg/errors"

	"go.uber.org/zap"
)

const (
	revokedSessionKeyPrefix = "session_revoked:"
	sessionTouchKeyPrefix   = "session_touch:"
)

type SecurityServiceInterface interface {
	CheckSession(ctx context.Context, sessionID string) error
	RevokeSession(ctx context.Context, userID uint64, sessionID string) error
	RevokeAll(ctx context.Context, userID uint64, exceptID string) (int, error)
	Sessions(ctx context.Context, claims *dto.UserClaims) ([]entities.ActiveSession, error)
	TerminateSession(ctx context.Context, claims *dto.UserClaims, sessionID string) (*entities.ActiveSession, error)
}

// SecurityService owns session revocation. Postgres is the record of truth, Redis answers
// the per-request "is this session still alive" question.
type SecurityService struct {
	sessionRepository repositories.SessionRepositoryInterface
	cacheRepository   repositories.CacheRepositoryInterface
	cfg               config.AuthConfig
	revokeTTL         time.Duration
	logger            *zap.Logger
}

// NewSecurityService keeps revocation markers for revokeTTL, which must cover the access token lifetime.
func NewSecurityService(
	sessionRepository repositories.SessionRepositoryInterface,
	cacheRepository repositories.CacheRepositoryInterface,
	cfg config.AuthConfig,
	revokeTTL time.Duration,
	logger *zap.Logger,
) *SecurityService {
	return &SecurityService{
		sessionRepository: sessionRepository,
		cacheRepository:   cacheRepository,
		cfg:               cfg,
		revokeTTL:         revokeTTL,
		logger:            logger,
	}
}

// CheckSession rejects revoked sessions and refreshes last_active at most once per SessionTouchTTL.
func (s *SecurityService) CheckSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.ErrSessionRevoked
	}
	revoked, err := s.cacheRepository.Exists(ctx, revokedSessionKeyPrefix+sessionID)
	if err != nil {
		s.logger.Warn("session revocation lookup failed", zap.String("sessionID", sessionID), zap.Error(err))
	}
	if revoked {
		return apperrors.ErrSessionRevoked
	}

	first, err := s.cacheRepository.SetNX(ctx, sessionTouchKeyPrefix+sessionID, "1", s.cfg.SessionTouchTTL)
	if err != nil || !first {
		return nil
	}
	if err := s.sessionRepository.Touch(ctx, sessionID); err != nil {
		s.logger.Warn("failed to touch session", zap.String("sessionID", sessionID), zap.Error(err))
	}
	return nil
}

func (s *SecurityService) markRevoked(ctx context.Context, sessionID string) {
	if err := s.cacheRepository.Set(ctx, revokedSessionKeyPrefix+sessionID, "1", s.revokeTTL); err != nil {
		s.logger.Error("failed to cache session revocation", zap.String("sessionID", sessionID), zap.Error(err))
	}
	_ = s.cacheRepository.Del(ctx, sessionTouchKeyPrefix+sessionID)
}

func (s *SecurityService) RevokeSession(ctx context.Context, userID uint64, sessionID string) error {
	if err := s.sessionRepository.Revoke(ctx, userID, sessionID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("session not found")
		}
		return err
	}
	s.markRevoked(ctx, sessionID)
	return nil
}

// RevokeAll revokes every active session of the user except exceptID (when set).
func (s *SecurityService) RevokeAll(ctx context.Context, userID uint64, exceptID string) (int, error) {
	revoked, err := s.sessionRepository.RevokeAllForUser(ctx, userID, exceptID)
	if err != nil {
		return 0, err
	}
	for _, sess := range revoked {
		s.markRevoked(ctx, sess.ID)
	}
	s.logger.Info("sessions revoked", zap.Uint64("userID", userID), zap.Int("count", len(revoked)))
	return len(revoked), nil
}

func (s *SecurityService) Sessions(ctx context.Context, claims *dto.UserClaims) ([]entities.ActiveSession, error) {
	sessions, err := s.sessionRepository.ListActiveByUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].IsCurrent = sessions[i].ID == claims.SessionID
	}
	return sessions, nil
}

// TerminateSession revokes another session of the caller and returns it as it was before.
func (s *SecurityService) TerminateSession(ctx context.Context, claims *dto.UserClaims, sessionID string) (*entities.ActiveSession, error) {
	if sessionID == claims.SessionID {
		return nil, apperrors.NewBadRequestError("use logout to end the current session")
	}
	session, err := s.sessionRepository.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("session not found")
		}
		return nil, err
	}
	if session.UserID != claims.UserID || !session.IsActive {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	if err := s.RevokeSession(ctx, claims.UserID, sessionID); err != nil {
		return nil, err
	}
	return session, nil
}

// deviceLabel turns a User-Agent into a short "Browser on OS" label.
func deviceLabel(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "Unknown device"
	}
	browser := "Unknown browser"
	switch {
	case strings.Contains(ua, "Edg/"):
		browser = "Edge"
	case strings.Contains(ua, "OPR/"), strings.Contains(ua, "Opera"):
		browser = "Opera"
	case strings.Contains(ua, "Firefox/"):
		browser = "Firefox"
	case strings.Contains(ua, "Chrome/"):
		browser = "Chrome"
	case strings.Contains(ua, "Safari/"):
		browser = "Safari"
	case strings.HasPrefix(ua, "curl/"):
		browser = "curl"
	case strings.HasPrefix(ua, "PostmanRuntime/"):
		browser = "Postman"
	}

	os := "Unknown OS"
	switch {
	case strings.Contains(ua, "Android"):
		os = "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		os = "iOS"
	case strings.Contains(ua, "Windows"):
		os = "Windows"
	case strings.Contains(ua, "Mac OS X"), strings.Contains(ua, "Macintosh"):
		os = "macOS"
	case strings.Contains(ua, "Linux"):
		os = "Linux"
	}
	if os == "Unknown OS" {
		return browser
	}
	return browser + " on " + os
}
