package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/pkg/audittrail"
	"nusantara-erp/pkg/config"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/service"
	"nusantara-erp/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCache struct {
	values map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{values: map[string]string{}} }

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.values[key] = toString(value)
	return nil
}

func (c *fakeCache) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = toString(value)
	return true, nil
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	return c.values[key], nil
}

func (c *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.values[key]
	return ok, nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *fakeCache) Incr(_ context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(c.values[key], 10, 64)
	n++
	c.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *fakeCache) Expire(context.Context, string, time.Duration) (bool, error) { return true, nil }

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return "1"
	}
}

type fakeSessionRepo struct {
	rows    map[string]*entities.ActiveSession
	touched []string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{rows: map[string]*entities.ActiveSession{}}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *entities.ActiveSession) error {
	s.IsActive = true
	s.LastActive, s.CreatedAt = fixedNow, fixedNow
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) FindByID(_ context.Context, id string) (*entities.ActiveSession, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionRepo) ListActiveByUser(_ context.Context, userID uint64) ([]entities.ActiveSession, error) {
	var out []entities.ActiveSession
	for _, s := range f.rows {
		if s.UserID == userID && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Revoke(_ context.Context, userID uint64, id string) error {
	s, ok := f.rows[id]
	if !ok || s.UserID != userID || !s.IsActive {
		return apperrors.ErrNotFound
	}
	s.IsActive = false
	return nil
}

func (f *fakeSessionRepo) RevokeAllForUser(_ context.Context, userID uint64, exceptID string) ([]entities.ActiveSession, error) {
	var out []entities.ActiveSession
	for _, s := range f.rows {
		if s.UserID == userID && s.IsActive && s.ID != exceptID {
			s.IsActive = false
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Touch(_ context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeSessionRepo) CountActiveSince(context.Context, time.Time) (int64, error) {
	return int64(len(f.rows)), nil
}

type fakeLoginHistoryRepo struct {
	rows []entities.LoginHistory
}

func (f *fakeLoginHistoryRepo) Create(_ context.Context, e *entities.LoginHistory) error {
	f.rows = append(f.rows, *e)
	return nil
}

func (f *fakeLoginHistoryRepo) ListByUser(_ context.Context, _ uint64, limit, offset int) ([]entities.LoginHistory, uint64, error) {
	end := offset + limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	if offset > end {
		offset = end
	}
	return f.rows[offset:end], uint64(len(f.rows)), nil
}

type authFixture struct {
	svc      *AuthService
	security *SecurityService
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	history  *fakeLoginHistoryRepo
	cache    *fakeCache
	audit    *recordingPublisher
	jwt      service.JWTService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    newFakeUserRepo(),
		sessions: newFakeSessionRepo(),
		history:  &fakeLoginHistoryRepo{},
		cache:    newFakeCache(),
		jwt:      service.NewJWTService("test-secret", time.Hour, 24*time.Hour),
	}
	cfg := config.AuthConfig{MaxLoginAttempts: 3, LockoutDuration: 15 * time.Minute, SessionTouchTTL: time.Minute}
	audit, _, pub := newTestAuditService()
	f.audit = pub
	f.security = NewSecurityService(f.sessions, f.cache, cfg, time.Hour, zap.NewNop())
	f.svc = NewAuthService(f.users, f.sessions, f.history, f.cache, f.security, f.jwt, audit, cfg, zap.NewNop())
	f.svc.now = func() time.Time { return fixedNow }

	hash, err := utils.HashPassword("rahasia123")
	require.NoError(t, err)
	f.users.users[1] = &entities.User{ID: 1, Username: "budi", Email: "budi@nusantara.co.id", PasswordHash: hash, Role: dto.RoleAdmin, IsActive: true}
	return f
}

var browserClient = dto.ClientInfo{
	IPAddress: "10.0.0.7",
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
}

func TestAuthLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.Login(context.Background(), dto.LoginDTO{Username: "Budi", Password: "rahasia123"}, browserClient)
	require.NoError(t, err)

	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "budi", resp.User.Username)

	claims, err := f.jwt.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, claims.SessionID)
	assert.Equal(t, dto.RoleAdmin, claims.Role)

	session := f.sessions.rows[resp.SessionID]
	require.NotNil(t, session)
	assert.Equal(t, "Chrome on Windows", session.Device.String)
	assert.Equal(t, fixedNow.Add(24*time.Hour), session.ExpiresAt)

	require.Len(t, f.history.rows, 1)
	assert.True(t, f.history.rows[0].Success)
	assert.True(t, f.users.users[1].LastLoginAt.Valid)

	logs := f.audit.logs()
	require.Len(t, logs, 1)
	assert.Equal(t, audittrail.ActionLogin, logs[0].Action)
	assert.Equal(t, 200, logs[0].StatusCode.Int)
}

func TestAuthLoginFailures(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Login(context.Background(), dto.LoginDTO{Username: "ghost", Password: "whatever"}, browserClient)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		require.Len(t, f.history.rows, 1)
		assert.False(t, f.history.rows[0].UserID.Valid)
		assert.Equal(t, failureUnknownUser, f.history.rows[0].FailureReason.String)
	})

	t.Run("inactive account", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.users[1].IsActive = false
		_, err := f.svc.Login(context.Background(), dto.LoginDTO{Username: "budi", Password: "rahasia123"}, browserClient)
		assert.ErrorIs(t, err, apperrors.ErrAccountInactive)
	})

	t.Run("persisted lock", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.users[1].LockedUntil.SetValid(fixedNow.Add(time.Minute))
		_, err := f.svc.Login(context.Background(), dto.LoginDTO{Username: "budi", Password: "rahasia123"}, browserClient)
		assert.ErrorIs(t, err, apperrors.ErrAccountLocked)
		assert.Empty(t, f.sessions.rows)
	})
}

func TestAuthLoginLocksAfterMaxAttempts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	bad := dto.LoginDTO{Username: "budi", Password: "wrong-password"}

	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(ctx, bad, browserClient)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}
	assert.Equal(t, 3, f.users.users[1].FailedAttempts)
	require.True(t, f.users.users[1].LockedUntil.Valid)
	assert.Equal(t, fixedNow.Add(15*time.Minute), f.users.users[1].LockedUntil.Time)

	_, err := f.svc.Login(ctx, dto.LoginDTO{Username: "budi", Password: "rahasia123"}, browserClient)
	assert.ErrorIs(t, err, apperrors.ErrAccountLocked)

	failed := 0
	for _, l := range f.audit.logs() {
		if l.StatusCode.Int == 401 {
			failed++
		}
	}
	assert.Equal(t, 4, failed)
}

func TestAuthLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp, err := f.svc.Login(ctx, dto.LoginDTO{Username: "budi", Password: "rahasia123"}, browserClient)
	require.NoError(t, err)

	claims := &dto.UserClaims{UserID: 1, Username: "budi", Role: dto.RoleAdmin, SessionID: resp.SessionID}
	require.NoError(t, f.security.CheckSession(ctx, resp.SessionID))
	require.NoError(t, f.svc.Logout(ctx, claims, browserClient))

	assert.False(t, f.sessions.rows[resp.SessionID].IsActive)
	assert.ErrorIs(t, f.security.CheckSession(ctx, resp.SessionID), apperrors.ErrSessionRevoked)

	_, err = f.svc.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrSessionRevoked)

	logs := f.audit.logs()
	assert.Equal(t, audittrail.ActionLogout, logs[len(logs)-1].Action)
}

func TestAuthRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp, err := f.svc.Login(ctx, dto.LoginDTO{Username: "budi", Password: "rahasia123"}, browserClient)
	require.NoError(t, err)

	_, err = f.svc.RefreshToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenIsNotRefresh)

	refreshed, err := f.svc.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, refreshed.SessionID)

	f.users.users[1].IsActive = false
	_, err = f.svc.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrAccountInactive)
}

func TestAuthChangePasswordRevokesOtherSessions(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	login := dto.LoginDTO{Username: "budi", Password: "rahasia123"}
	first, err := f.svc.Login(ctx, login, browserClient)
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, login, dto.ClientInfo{UserAgent: "curl/8.4.0"})
	require.NoError(t, err)
	assert.Equal(t, "curl", f.sessions.rows[second.SessionID].Device.String)

	claims := &dto.UserClaims{UserID: 1, Username: "budi", Role: dto.RoleAdmin, SessionID: first.SessionID}

	_, err = f.svc.ChangePassword(ctx, claims, dto.ChangePasswordDTO{CurrentPassword: "nope", NewPassword: "baru-sekali"})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	revoked, err := f.svc.ChangePassword(ctx, claims, dto.ChangePasswordDTO{CurrentPassword: "rahasia123", NewPassword: "baru-sekali"})
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)
	assert.True(t, f.sessions.rows[first.SessionID].IsActive)
	assert.False(t, f.sessions.rows[second.SessionID].IsActive)
	assert.NoError(t, utils.ComparePasswords(f.users.users[1].PasswordHash, "baru-sekali"))
}

func TestSecuritySessionsFlagCurrent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	login := dto.LoginDTO{Username: "budi", Password: "rahasia123"}
	first, err := f.svc.Login(ctx, login, browserClient)
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, login, browserClient)
	require.NoError(t, err)

	claims := &dto.UserClaims{UserID: 1, SessionID: first.SessionID}
	sessions, err := f.security.Sessions(ctx, claims)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.Equal(t, s.ID == first.SessionID, s.IsCurrent)
	}

	_, err = f.security.TerminateSession(ctx, claims, first.SessionID)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = f.security.TerminateSession(ctx, &dto.UserClaims{UserID: 2, SessionID: "other"}, second.SessionID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "sessions of another user are invisible")

	terminated, err := f.security.TerminateSession(ctx, claims, second.SessionID)
	require.NoError(t, err)
	assert.Equal(t, second.SessionID, terminated.ID)
	assert.True(t, terminated.IsActive, "the returned session is the state before revocation")

	_, err = f.security.TerminateSession(ctx, claims, second.SessionID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSecurityCheckSessionThrottlesTouch(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.security.CheckSession(ctx, "sid-1"))
	require.NoError(t, f.security.CheckSession(ctx, "sid-1"))
	assert.Equal(t, []string{"sid-1"}, f.sessions.touched)

	assert.ErrorIs(t, f.security.CheckSession(ctx, ""), apperrors.ErrSessionRevoked)
}

func TestAuthLoginHistoryPaging(t *testing.T) {
	f := newAuthFixture(t)
	for i := 0; i < 25; i++ {
		f.history.rows = append(f.history.rows, entities.LoginHistory{ID: uint64(i + 1)})
	}

	page, err := f.svc.LoginHistory(context.Background(), 1, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.Len(t, page.History, 20)
	assert.Equal(t, uint64(25), page.Total)
}

func TestDeviceLabel(t *testing.T) {
	cases := []struct {
		ua   string
		want string
	}{
		{"", "Unknown device"},
		{"curl/8.4.0", "curl"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Safari/604.1", "Safari on iOS"},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0", "Firefox on Linux"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, deviceLabel(tc.ua), tc.ua)
	}
}
