package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"visit_portal/internal/model"
	"visit_portal/internal/repository"
	"visit_portal/internal/utils"

	"github.com/google/uuid"
)

const (
	maxLoginAttempts   = 5
	loginAttemptWindow = 15 * time.Minute
	loginLockDuration  = 10 * time.Minute
	maxPhoneDigits     = 11
	minPasswordLength  = 6
)

var nonDigits = regexp.MustCompile(`\D`)

// AuthService provides registration, login, session resolution and the
// password-reset token lifecycle
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(ctx context.Context, cookieToken string) error
	GetSessionUser(ctx context.Context, cookieToken string) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, email, token, newPassword string) error
	ListUsers(ctx context.Context) ([]model.User, error)
	SeedAdmin(ctx context.Context, email, password string) error
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	resetRepo   repository.ResetTokenRepository
	attemptRepo repository.LoginAttemptRepository
	tokenUtil   *utils.SessionTokenUtil
	mailer      *utils.Mailer
	sessionTTL  time.Duration
	resetTTL    time.Duration
	baseURL     string
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	resetRepo repository.ResetTokenRepository,
	attemptRepo repository.LoginAttemptRepository,
	tokenUtil *utils.SessionTokenUtil,
	mailer *utils.Mailer,
	sessionTTL, resetTTL time.Duration,
	baseURL string,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		resetRepo:   resetRepo,
		attemptRepo: attemptRepo,
		tokenUtil:   tokenUtil,
		mailer:      mailer,
		sessionTTL:  sessionTTL,
		resetTTL:    resetTTL,
		baseURL:     baseURL,
	}
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new volunteer account and opens a session for it
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error) {
	s.pruneExpired(ctx)

	email := NormalizeEmail(req.Email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", model.ErrEmailTaken
	}

	if len(req.Password) < minPasswordLength {
		return nil, "", model.ErrPasswordTooShort
	}
	phone := nonDigits.ReplaceAllString(req.Phone, "")
	if len(phone) == 0 || len(phone) > maxPhoneDigits {
		return nil, "", model.ErrInvalidPhone
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        phone,
		PasswordHash: passwordHash,
		Role:         model.RoleVolunteer,
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user in repository: %w", err)
	}

	cookieToken, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, cookieToken, nil
}

// Login verifies credentials and opens a new session. The error is identical
// for unknown email and wrong password. Failed attempts feed the lockout
// window: 5 failures within 15 minutes lock the email for 10 minutes.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	s.pruneExpired(ctx)

	email = NormalizeEmail(email)

	if err := s.checkLockout(ctx, email); err != nil {
		return nil, "", err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		s.recordLoginFailure(ctx, email)
		return nil, "", model.ErrInvalidCredentials
	}

	if err := s.attemptRepo.Clear(ctx, email); err != nil {
		log.Printf("WARN: failed to clear login attempts for %s: %v", email, err)
	}

	cookieToken, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, cookieToken, nil
}

// Logout deletes the session behind the cookie token. An unparsable token is
// not an error: the handler clears the cookie regardless.
func (s *authService) Logout(ctx context.Context, cookieToken string) error {
	sessionID, err := s.tokenUtil.Validate(cookieToken)
	if err != nil {
		return nil
	}
	return s.sessionRepo.Delete(ctx, sessionID)
}

// GetSessionUser resolves cookie token -> unexpired session -> user.
// Returns (nil, nil) for anything that is not an authenticated user; the
// caller clears the cookie in that case.
func (s *authService) GetSessionUser(ctx context.Context, cookieToken string) (*model.User, error) {
	if cookieToken == "" {
		return nil, nil
	}
	s.pruneExpired(ctx)

	sessionID, err := s.tokenUtil.Validate(cookieToken)
	if err != nil {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session user: %w", err)
	}
	if user == nil {
		// session points at a deleted user, drop it
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			log.Printf("WARN: failed to delete orphan session %s: %v", session.ID, err)
		}
		return nil, nil
	}
	return user, nil
}

// RequestPasswordReset issues a fresh 6-character token with a 20-minute TTL,
// replacing any prior token for the email, and mails it best-effort. The
// token is returned so the handler can echo it in development mode.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	s.pruneExpired(ctx)

	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to find user for reset: %w", err)
	}
	if user == nil {
		return "", model.ErrUserNotFound
	}

	token, err := utils.GenerateResetToken()
	if err != nil {
		return "", err
	}
	rt := &model.ResetToken{
		Email:     email,
		Token:     token,
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resetRepo.Replace(ctx, rt); err != nil {
		return "", err
	}

	// Fire and forget: a mail failure must never fail token issuance.
	go s.sendResetMail(email, token)

	return token, nil
}

// ConfirmPasswordReset consumes a token and replaces the password hash.
// Single use: the token is deleted on success. A successful reset also clears
// the login lockout counter.
func (s *authService) ConfirmPasswordReset(ctx context.Context, email, token, newPassword string) error {
	s.pruneExpired(ctx)

	email = NormalizeEmail(email)

	if len(newPassword) < minPasswordLength {
		return model.ErrPasswordTooShort
	}

	rt, err := s.resetRepo.Find(ctx, email, token)
	if err != nil {
		return fmt.Errorf("failed to find reset token: %w", err)
	}
	if rt == nil {
		return model.ErrInvalidResetToken
	}

	passwordHash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, email, passwordHash); err != nil {
		return err
	}
	if err := s.resetRepo.Delete(ctx, email, token); err != nil {
		return err
	}
	if err := s.attemptRepo.Clear(ctx, email); err != nil {
		log.Printf("WARN: failed to clear login attempts for %s: %v", email, err)
	}
	return nil
}

// ListUsers returns all registered users
func (s *authService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SeedAdmin creates the bootstrap admin account if it does not exist yet.
// This is the only way an admin is provisioned; registration always yields
// volunteers.
func (s *authService) SeedAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	email = NormalizeEmail(email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin account: %w", err)
	}
	if existing != nil {
		return nil
	}

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &model.User{
		ID:           uuid.New(),
		Name:         "Admin",
		Email:        email,
		Phone:        "",
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}
	log.Printf("Seeded admin account %s", email)
	return nil
}

func (s *authService) openSession(ctx context.Context, userID uuid.UUID) (string, error) {
	session := &model.Session{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	cookieToken, err := s.tokenUtil.Generate(session.ID)
	if err != nil {
		return "", err
	}
	return cookieToken, nil
}

func (s *authService) checkLockout(ctx context.Context, email string) error {
	attempt, err := s.attemptRepo.Find(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check login attempts: %w", err)
	}
	if attempt == nil || attempt.LockedUntil == nil {
		return nil
	}
	if attempt.LockedUntil.After(time.Now()) {
		return model.ErrAccountLocked
	}
	// lock expired, start fresh
	if err := s.attemptRepo.Clear(ctx, email); err != nil {
		log.Printf("WARN: failed to clear expired lock for %s: %v", email, err)
	}
	return nil
}

func (s *authService) recordLoginFailure(ctx context.Context, email string) {
	now := time.Now()
	attempt, err := s.attemptRepo.Find(ctx, email)
	if err != nil {
		log.Printf("WARN: failed to load login attempts for %s: %v", email, err)
		return
	}
	if attempt == nil || now.Sub(attempt.FirstAt) > loginAttemptWindow {
		attempt = &model.LoginAttempt{Email: email, Count: 0, FirstAt: now}
	}
	attempt.Count++
	if attempt.Count >= maxLoginAttempts {
		lockedUntil := now.Add(loginLockDuration)
		attempt.LockedUntil = &lockedUntil
	}
	if err := s.attemptRepo.Save(ctx, attempt); err != nil {
		log.Printf("WARN: failed to save login attempts for %s: %v", email, err)
	}
}

// pruneExpired lazily removes expired sessions and reset tokens whenever the
// auth store is touched. There is no background sweeper.
func (s *authService) pruneExpired(ctx context.Context) {
	if err := s.sessionRepo.DeleteExpired(ctx); err != nil {
		log.Printf("WARN: failed to prune expired sessions: %v", err)
	}
	if err := s.resetRepo.DeleteExpired(ctx); err != nil {
		log.Printf("WARN: failed to prune expired reset tokens: %v", err)
	}
}

func (s *authService) sendResetMail(email, token string) {
	if !s.mailer.Configured() {
		log.Printf("SMTP not configured, reset token for %s not mailed", email)
		return
	}
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; padding: 16px;">
      <h2>Password recovery</h2>
      <p>We received a request to reset your password.</p>
      <p><strong>Token:</strong> %s</p>
      <p>Use this token on the recovery screen to set a new password. If you did not ask for this, ignore this email.</p>
      <p><a href="%s/login">Open the portal</a></p>
    </div>`, token, s.baseURL)
	if err := s.mailer.Send(email, "Password recovery", html); err != nil {
		log.Printf("ERROR: failed to send reset mail to %s: %v", email, err)
	}
}
