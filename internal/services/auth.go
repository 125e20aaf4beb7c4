package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/repositories"
	"nusantara-erp/pkg/config"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/service"
	"nusantara-erp/pkg/utils"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	loginAttemptsKeyPrefix  = "login_attempts:"
	loginLockKeyPrefix      = "login_lock:"
	defaultLoginHistorySize = 20
	maxLoginHistorySize     = 100
)

const (
	failureUnknownUser   = "user not found"
	failureInactive      = "account inactive"
	failureLocked        = "account locked"
	failureWrongPassword = "invalid password"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO, client dto.ClientInfo) (*dto.AuthResponseDTO, error)
	Logout(ctx context.Context, claims *dto.UserClaims, client dto.ClientInfo) error
	LogoutAll(ctx context.Context, claims *dto.UserClaims, client dto.ClientInfo) (int, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error)
	Me(ctx context.Context, userID uint64) (*dto.UserPublicDTO, error)
	UpdateProfile(ctx context.Context, userID uint64, payload dto.UpdateProfileDTO) (*dto.UserPublicDTO, *dto.UserPublicDTO, error)
	ChangePassword(ctx context.Context, claims *dto.UserClaims, payload dto.ChangePasswordDTO) (int, error)
	LoginHistory(ctx context.Context, userID uint64, limit, offset int) (*dto.LoginHistoryPageDTO, error)
}

type AuthService struct {
	userRepository         repositories.UserRepositoryInterface
	sessionRepository      repositories.SessionRepositoryInterface
	loginHistoryRepository repositories.LoginHistoryRepositoryInterface
	cacheRepository        repositories.CacheRepositoryInterface
	security               SecurityServiceInterface
	jwtService             service.JWTService
	auditService           AuditServiceInterface
	cfg                    config.AuthConfig
	logger                 *zap.Logger
	now                    func() time.Time
}

func NewAuthService(
	userRepository repositories.UserRepositoryInterface,
	sessionRepository repositories.SessionRepositoryInterface,
	loginHistoryRepository repositories.LoginHistoryRepositoryInterface,
	cacheRepository repositories.CacheRepositoryInterface,
	security SecurityServiceInterface,
	jwtService service.JWTService,
	auditService AuditServiceInterface,
	cfg config.AuthConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepository:         userRepository,
		sessionRepository:      sessionRepository,
		loginHistoryRepository: loginHistoryRepository,
		cacheRepository:        cacheRepository,
		security:               security,
		jwtService:             jwtService,
		auditService:           auditService,
		cfg:                    cfg,
		logger:                 logger,
		now:                    time.Now,
	}
}

func loginKey(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// Login checks the credentials against the lockout counters and opens a new session.
func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO, client dto.ClientInfo) (*dto.AuthResponseDTO, error) {
	login := loginKey(payload.Username)
	logger := s.logger.With(zap.String("login", login), zap.String("ip", client.IPAddress))

	user, err := s.userRepository.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("login attempt for unknown user")
			s.recordAttempt(ctx, nil, payload.Username, client, failureUnknownUser)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		logger.Warn("login attempt for inactive account", zap.Uint64("userID", user.ID))
		s.recordAttempt(ctx, user, user.Username, client, failureInactive)
		return nil, apperrors.ErrAccountInactive
	}

	locked, _ := s.cacheRepository.Exists(ctx, loginLockKeyPrefix+login)
	if locked || user.IsLocked(s.now()) {
		logger.Warn("login attempt for locked account", zap.Uint64("userID", user.ID))
		s.recordAttempt(ctx, user, user.Username, client, failureLocked)
		return nil, apperrors.ErrAccountLocked
	}

	if err := utils.ComparePasswords(user.PasswordHash, payload.Password); err != nil {
		s.registerFailure(ctx, logger, user, login)
		s.recordAttempt(ctx, user, user.Username, client, failureWrongPassword)
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.cacheRepository.Del(ctx, loginAttemptsKeyPrefix+login, loginLockKeyPrefix+login); err != nil {
		logger.Warn("failed to reset login counters", zap.Error(err))
	}
	if err := s.userRepository.RecordLoginSuccess(ctx, user.ID); err != nil {
		return nil, err
	}

	session := &entities.ActiveSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		IPAddress: nullString(client.IPAddress),
		UserAgent: nullString(client.UserAgent),
		Device:    null.StringFrom(deviceLabel(client.UserAgent)),
		ExpiresAt: s.now().Add(s.jwtService.GetRefreshTokenTTL()),
	}
	if err := s.sessionRepository.Create(ctx, session); err != nil {
		return nil, err
	}

	resp, err := s.issueTokens(user, session.ID)
	if err != nil {
		return nil, err
	}

	s.recordAttempt(ctx, user, user.Username, client, "")
	logger.Info("user logged in", zap.Uint64("userID", user.ID), zap.String("sessionID", session.ID))
	return resp, nil
}

// registerFailure counts a wrong password and locks the account once MaxLoginAttempts is reached.
func (s *AuthService) registerFailure(ctx context.Context, logger *zap.Logger, user *entities.User, login string) {
	attemptsKey := loginAttemptsKeyPrefix + login
	attempts, err := s.cacheRepository.Incr(ctx, attemptsKey)
	if err != nil {
		logger.Error("failed to count login attempt", zap.Error(err))
		attempts = int64(user.FailedAttempts + 1)
	}
	if attempts == 1 {
		_, _ = s.cacheRepository.Expire(ctx, attemptsKey, s.cfg.LockoutDuration)
	}

	var lockedUntil *time.Time
	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		until := s.now().Add(s.cfg.LockoutDuration)
		lockedUntil = &until
		if err := s.cacheRepository.Set(ctx, loginLockKeyPrefix+login, strconv.FormatInt(attempts, 10), s.cfg.LockoutDuration); err != nil {
			logger.Error("failed to set login lock", zap.Error(err))
		}
		_ = s.cacheRepository.Del(ctx, attemptsKey)
		logger.Warn("account locked after failed attempts", zap.Uint64("userID", user.ID), zap.Int64("attempts", attempts))
	}
	if err := s.userRepository.RecordFailedAttempt(ctx, user.ID, lockedUntil); err != nil {
		logger.Error("failed to persist failed attempt", zap.Error(err))
	}
}

// recordAttempt writes the login history row and the LOGIN audit entry. An empty reason means success.
func (s *AuthService) recordAttempt(ctx context.Context, user *entities.User, username string, client dto.ClientInfo, reason string) {
	entry := &entities.LoginHistory{
		Username:      username,
		IPAddress:     nullString(client.IPAddress),
		UserAgent:     nullString(client.UserAgent),
		Device:        null.StringFrom(deviceLabel(client.UserAgent)),
		Success:       reason == "",
		FailureReason: nullString(reason),
	}
	actor := dto.Actor{Username: username, IPAddress: client.IPAddress, UserAgent: client.UserAgent}
	if user != nil {
		entry.UserID = null.Int64From(int64(user.ID))
		id := user.ID
		actor.UserID = &id
	}
	if err := s.loginHistoryRepository.Create(ctx, entry); err != nil {
		s.logger.Error("failed to write login history", zap.String("username", username), zap.Error(err))
	}
	s.auditService.LogLogin(ctx, actor, reason == "", reason)
}

func (s *AuthService) issueTokens(user *entities.User, sessionID string) (*dto.AuthResponseDTO, error) {
	access, refresh, err := s.jwtService.GenerateTokens(service.TokenSubject{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	return &dto.AuthResponseDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtService.GetAccessTokenTTL().Seconds()),
		SessionID:    sessionID,
		User:         dto.NewUserPublicDTO(user),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, claims *dto.UserClaims, client dto.ClientInfo) error {
	if err := s.security.RevokeSession(ctx, claims.UserID, claims.SessionID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	s.auditService.LogLogout(ctx, dto.ActorFromClaims(claims, client))
	s.logger.Info("user logged out", zap.Uint64("userID", claims.UserID), zap.String("sessionID", claims.SessionID))
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, claims *dto.UserClaims, client dto.ClientInfo) (int, error) {
	count, err := s.security.RevokeAll(ctx, claims.UserID, "")
	if err != nil {
		return 0, err
	}
	s.auditService.LogLogout(ctx, dto.ActorFromClaims(claims, client))
	return count, nil
}

// RefreshToken issues a new pair for the same session.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	session, err := s.sessionRepository.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrSessionRevoked
		}
		return nil, err
	}
	if !session.IsActive || session.UserID != claims.UserID || !session.ExpiresAt.After(s.now()) {
		return nil, apperrors.ErrSessionRevoked
	}
	if err := s.security.CheckSession(ctx, session.ID); err != nil {
		return nil, err
	}

	user, err := s.userRepository.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountInactive
	}
	return s.issueTokens(user, session.ID)
}

func (s *AuthService) Me(ctx context.Context, userID uint64) (*dto.UserPublicDTO, error) {
	user, err := s.userRepository.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, err
	}
	out := dto.NewUserPublicDTO(user)
	return &out, nil
}

// UpdateProfile returns the updated profile and the one it replaced.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, payload dto.UpdateProfileDTO) (*dto.UserPublicDTO, *dto.UserPublicDTO, error) {
	previous, err := s.Me(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if payload.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*payload.Email))
		payload.Email = &email
		if email != previous.Email {
			taken, err := s.userRepository.ExistsByUsernameOrEmail(ctx, nil, "", email)
			if err != nil {
				return nil, nil, err
			}
			if taken {
				return nil, nil, apperrors.NewBadRequestError("email is already in use")
			}
		}
	}
	if payload.FullName != nil {
		name := strings.TrimSpace(*payload.FullName)
		payload.FullName = &name
	}

	user, err := s.userRepository.UpdateProfile(ctx, userID, payload)
	if err != nil {
		return nil, nil, err
	}
	updated := dto.NewUserPublicDTO(user)
	return &updated, previous, nil
}

// ChangePassword verifies the current password and revokes every other session of the user.
func (s *AuthService) ChangePassword(ctx context.Context, claims *dto.UserClaims, payload dto.ChangePasswordDTO) (int, error) {
	user, err := s.userRepository.FindByID(ctx, claims.UserID)
	if err != nil {
		return 0, err
	}
	if err := utils.ComparePasswords(user.PasswordHash, payload.CurrentPassword); err != nil {
		return 0, apperrors.NewBadRequestError("current password is incorrect")
	}
	if payload.CurrentPassword == payload.NewPassword {
		return 0, apperrors.NewBadRequestError("new password must differ from the current one")
	}

	hash, err := utils.HashPassword(payload.NewPassword)
	if err != nil {
		return 0, err
	}
	if err := s.userRepository.UpdatePassword(ctx, user.ID, hash); err != nil {
		return 0, err
	}

	revoked, err := s.security.RevokeAll(ctx, user.ID, claims.SessionID)
	if err != nil {
		s.logger.Error("password changed but sessions were not revoked", zap.Uint64("userID", user.ID), zap.Error(err))
		return 0, nil
	}
	s.logger.Info("password changed", zap.Uint64("userID", user.ID), zap.Int("revokedSessions", revoked))
	return revoked, nil
}

func (s *AuthService) LoginHistory(ctx context.Context, userID uint64, limit, offset int) (*dto.LoginHistoryPageDTO, error) {
	if limit <= 0 {
		limit = defaultLoginHistorySize
	}
	if limit > maxLoginHistorySize {
		limit = maxLoginHistorySize
	}
	if offset < 0 {
		offset = 0
	}
	history, total, err := s.loginHistoryRepository.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &dto.LoginHistoryPageDTO{History: history, Total: total, Limit: limit, Offset: offset}, nil
}
