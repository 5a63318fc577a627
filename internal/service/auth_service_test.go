package service

import (
	"context"
	"testing"
	"time"

	"visit_portal/internal/model"
	"visit_portal/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(sessionTTL time.Duration) (AuthService, *fakeUserRepo, *fakeSessionRepo, *fakeResetTokenRepo, *fakeLoginAttemptRepo) {
	userRepo := newFakeUserRepo()
	sessionRepo := newFakeSessionRepo()
	resetRepo := newFakeResetTokenRepo()
	attemptRepo := newFakeLoginAttemptRepo()
	tokenUtil := utils.NewSessionTokenUtil("test-secret", sessionTTL)
	mailer := utils.NewMailer("", "", "", "", "") // unconfigured, mail is skipped
	svc := NewAuthService(userRepo, sessionRepo, resetRepo, attemptRepo, tokenUtil, mailer, sessionTTL, 20*time.Minute, "http://localhost:3000")
	return svc, userRepo, sessionRepo, resetRepo, attemptRepo
}

func registerReq(email string) model.RegisterRequest {
	return model.RegisterRequest{
		Name:     "Maria Silva",
		Email:    email,
		Phone:    "(21) 99876-5432",
		Password: "password123",
	}
}

func TestAuthService_Register(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	user, cookieToken, err := svc.Register(ctx, registerReq("Maria@Example.com"))

	require.NoError(t, err)
	assert.NotEmpty(t, cookieToken)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Equal(t, "21998765432", user.Phone) // digits only
	assert.Equal(t, model.RoleVolunteer, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	// the session opened at registration resolves back to the user
	got, err := svc.GetSessionUser(ctx, cookieToken)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthService_Register_EmailTakenCaseInsensitive(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerReq("maria@example.com"))
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, registerReq("MARIA@EXAMPLE.COM"))
	assert.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)

	req := registerReq("maria@example.com")
	req.Password = "12345"
	_, _, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrPasswordTooShort)
}

func TestAuthService_Register_InvalidPhone(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	req := registerReq("maria@example.com")
	req.Phone = "abc" // no digits at all
	_, _, err := svc.Register(ctx, req)
	assert.ErrorIs(t, err, model.ErrInvalidPhone)

	req = registerReq("maria2@example.com")
	req.Phone = "123456789012" // 12 digits, above the limit
	_, _, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, model.ErrInvalidPhone)
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, registerReq("maria@example.com"))
	require.NoError(t, err)

	user, cookieToken, err := svc.Login(ctx, "Maria@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, cookieToken)
}

func TestAuthService_Login_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerReq("maria@example.com"))
	require.NoError(t, err)

	_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "password123")
	_, _, errWrongPass := svc.Login(ctx, "maria@example.com", "wrongpassword")

	assert.ErrorIs(t, errUnknown, model.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPass, model.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
}

func TestAuthService_Login_LockoutAfterFiveFailures(t *testing.T) {
	svc, _, _, _, attemptRepo := newTestAuthService(time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerReq("maria@example.com"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, err := svc.Login(ctx, "maria@example.com", "wrongpassword")
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	}

	// sixth attempt hits the lock even with the right password
	_, _, err = svc.Login(ctx, "maria@example.com", "password123")
	assert.ErrorIs(t, err, model.ErrAccountLocked)

	// expired lock clears and login works again
	attempt, err := attemptRepo.Find(ctx, "maria@example.com")
	require.NoError(t, err)
	require.NotNil(t, attempt.LockedUntil)
	past := time.Now().Add(-time.Minute)
	attempt.LockedUntil = &past
	require.NoError(t, attemptRepo.Save(ctx, attempt))

	_, _, err = svc.Login(ctx, "maria@example.com", "password123")
	assert.NoError(t, err)
}

func TestAuthService_Login_SuccessClearsFailureCount(t *testing.T) {
	svc, _, _, _, attemptRepo := newTestAuthService(time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerReq("maria@example.com"))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, _, err := svc.Login(ctx, "maria@example.com", "wrongpassword")
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	}
	_, _, err = svc.Login(ctx, "maria@example.com", "password123")
	require.NoError(t, err)

	attempt, err := attemptRepo.Find(ctx, "maria@example.com")
	require.NoError(t, err)
	assert.Nil(t, attempt)
}

func TestAuthService_GetSessionUser_ExpiredSession(t *testing.T) {
	svc, _, sessionRepo, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	_, cookieToken, err := svc.Register(ctx, registerReq("maria@example.com"))
	require.NoError(t, err)

	// force the stored session into the past
	sessionRepo.mu.Lock()
	for _, s := range sessionRepo.sessions {
		s.ExpiresAt = time.Now().Add(-time.Minute)
	}
	sessionRepo.mu.Unlock()

	user, err := svc.GetSessionUser(ctx, cookieToken)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestAuthService_GetSessionUser_GarbageToken(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)

	user, err := svc.GetSessionUser(context.Background(), "not-a-token")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	_, cookieToken, err := svc.Register(ctx, registerReq("maria@example.com"))
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, cookieToken))

	user, err := svc.GetSessionUser(ctx, cookieToken)
	require.NoError(t, err)
	assert.Nil(t, user)

	// a second logout and a garbage token are both fine
	assert.NoError(t, svc.Logout(ctx, cookieToken))
	assert.NoError(t, svc.Logout(ctx, "garbage"))
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerReq("maria@example.com"))
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(ctx, "Maria@Example.com")
	require.NoError(t, err)
	assert.Len(t, token, 6)

	err = svc.ConfirmPasswordReset(ctx, "maria@example.com", token, "newpassword")
	require.NoError(t, err)

	// old password no longer works, new one does
	_, _, err = svc.Login(ctx, "maria@example.com", "password123")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "maria@example.com", "newpassword")
	assert.NoError(t, err)
}

func TestAuthService_ConfirmPasswordReset_SingleUse(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerReq("maria@example.com"))
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(ctx, "maria@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, "maria@example.com", token, "newpassword"))
	err = svc.ConfirmPasswordReset(ctx, "maria@example.com", token, "anotherpassword")
	assert.ErrorIs(t, err, model.ErrInvalidResetToken)
}

func TestAuthService_RequestPasswordReset_ReplacesPriorToken(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerReq("maria@example.com"))
	require.NoError(t, err)

	first, err := svc.RequestPasswordReset(ctx, "maria@example.com")
	require.NoError(t, err)
	second, err := svc.RequestPasswordReset(ctx, "maria@example.com")
	require.NoError(t, err)

	if first != second {
		err = svc.ConfirmPasswordReset(ctx, "maria@example.com", first, "newpassword")
		assert.ErrorIs(t, err, model.ErrInvalidResetToken)
	}
	assert.NoError(t, svc.ConfirmPasswordReset(ctx, "maria@example.com", second, "newpassword"))
}

func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)

	_, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestAuthService_ConfirmPasswordReset_ExpiredToken(t *testing.T) {
	svc, _, _, resetRepo, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerReq("maria@example.com"))
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(ctx, "maria@example.com")
	require.NoError(t, err)

	resetRepo.mu.Lock()
	resetRepo.tokens["maria@example.com"].ExpiresAt = time.Now().Add(-time.Minute)
	resetRepo.mu.Unlock()

	err = svc.ConfirmPasswordReset(ctx, "maria@example.com", token, "newpassword")
	assert.ErrorIs(t, err, model.ErrInvalidResetToken)
}

func TestAuthService_ConfirmPasswordReset_ShortPassword(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)

	err := svc.ConfirmPasswordReset(context.Background(), "maria@example.com", "ABC123", "123")
	assert.ErrorIs(t, err, model.ErrPasswordTooShort)
}

func TestAuthService_SeedAdmin(t *testing.T) {
	svc, userRepo, _, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx, "Admin@Example.com", "adminpass"))

	admin, err := userRepo.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	// second seed is a no-op
	require.NoError(t, svc.SeedAdmin(ctx, "admin@example.com", "otherpass"))
	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestAuthService_SeedAdmin_SkippedWhenUnset(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx, "", ""))
	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
