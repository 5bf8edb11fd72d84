package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/mail"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/token"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Session is the result of a successful register, login or refresh.
type Session struct {
	User         models.PublicUser
	AccessToken  string
	RefreshToken string
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthService struct {
	users   UserStore
	access  *token.Maker
	refresh *token.Maker
	admin   *token.Maker
	mailer  Mailer
	cfg     config.AuthConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewAuthService(users UserStore, mailer Mailer, cfg config.AuthConfig, logger *zap.Logger) (*AuthService, error) {
	access, err := token.NewMaker(cfg.AccessSecret, cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := token.NewMaker(cfg.RefreshSecret, cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	admin, err := token.NewMaker(cfg.AccessSecret, cfg.AdminTTL)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		users:   users,
		access:  access,
		refresh: refresh,
		admin:   admin,
		mailer:  mailer,
		cfg:     cfg,
		logger:  logger.Named("auth"),
		now:     time.Now,
	}, nil
}

func (s *AuthService) AccessTTL() time.Duration { return s.access.TTL() }
func (s *AuthService) RefreshTTL() time.Duration { return s.refresh.TTL() }
func (s *AuthService) AdminTTL() time.Duration { return s.admin.TTL() }

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := models.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.BadRequest("All fields (name, email, password) are required.")
	}
	if !validEmail(email) {
		return nil, apperr.BadRequest("Please provide a valid email address.")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.BadRequest("Password must be at least 8 characters.")
	}
	if len(in.Password) > maxPasswordLength {
		return nil, errPasswordTooLong
	}

	user := &models.User{Name: name, Email: email}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, apperr.Internal("User creation failed, please try again.", err)
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("User with this email already exists.")
		}
		return nil, apperr.Internal("User creation failed, please try again.", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.Hex()))
	return s.issueSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.BadRequest("Email and password are required.")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials: User not found")
		}
		return nil, apperr.Internal("Login failed", err)
	}
	if !user.CheckPassword(password) {
		return nil, apperr.Unauthorized("Invalid credentials: Password incorrect")
	}

	return s.issueSession(ctx, user)
}

// issueSession creates an access and refresh token pair and persists the
// refresh token so that only the latest one can be exchanged.
func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	subject := user.ID.Hex()
	access, _, err := s.access.Create(subject, models.RoleUser, "")
	if err != nil {
		return nil, apperr.Internal("Failed to generate security tokens.", err)
	}
	refresh, _, err := s.refresh.Create(subject, models.RoleUser, "")
	if err != nil {
		return nil, apperr.Internal("Failed to generate security tokens.", err)
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, apperr.Internal("Failed to generate security tokens.", err)
	}
	user.RefreshToken = refresh

	return &Session{User: user.Public(), AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperr.Internal("Logout failed", err)
	}
	return nil
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// be the one persisted on the user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthorized("Refresh token not found")
	}

	claims, err := s.refresh.Verify(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid Refresh Token")
		}
		return nil, apperr.Internal("Token refresh failed", err)
	}
	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, apperr.Unauthorized("Invalid Refresh Token")
	}

	return s.issueSession(ctx, user)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID primitive.ObjectID) (*models.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "User not found", "Failed to load user")
	}
	public := user.Public()
	return &public, nil
}

// ForgotPassword mails a reset link when email belongs to a user. Unknown
// addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if !validEmail(email) {
		return apperr.BadRequest("Please enter a valid email address")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperr.Internal("Failed to start password reset", err)
	}

	raw, err := randomToken()
	if err != nil {
		return apperr.Internal("Failed to start password reset", err)
	}
	expiry := s.now().Add(s.cfg.ResetTokenTTL)
	user.ResetTokenHash = hashToken(raw)
	user.ResetTokenExpiry = &expiry
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return apperr.Internal("Failed to start password reset", err)
	}

	link := strings.TrimRight(s.cfg.ResetRedirectURL, "/") + "/" + raw
	msg, err := mail.PasswordReset(user.Email, user.Name, link, s.cfg.ResetTokenTTL)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		user.ResetTokenHash = ""
		user.ResetTokenExpiry = nil
		if uerr := s.users.UpdateUser(ctx, user); uerr != nil {
			s.logger.Warn("failed to clear reset token", zap.String("user_id", user.ID.Hex()), zap.Error(uerr))
		}
		return apperr.Internal("Failed to send password reset email", err)
	}

	s.logger.Info("password reset requested", zap.String("user_id", user.ID.Hex()))
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if newPassword == "" {
		return apperr.BadRequest("New password is required.")
	}

	user, err := s.users.GetUserByResetToken(ctx, hashToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Unauthorized("Token is invalid or expired. Please request a new link.")
		}
		return apperr.Internal("Password reset failed", err)
	}
	if len(newPassword) < minPasswordLength {
		return apperr.BadRequest("Password must be at least 8 characters.")
	}
	if len(newPassword) > maxPasswordLength {
		return errPasswordTooLong
	}

	if err := user.SetPassword(newPassword); err != nil {
		return apperr.Internal("Password reset failed", err)
	}
	user.ResetTokenHash = ""
	user.ResetTokenExpiry = nil
	user.RefreshToken = ""
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return apperr.Internal("Password reset failed", err)
	}

	s.logger.Info("password reset", zap.String("user_id", user.ID.Hex()))
	return nil
}

// AdminLogin checks the configured admin credentials and returns an admin token.
func (s *AuthService) AdminLogin(email, password string) (string, error) {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		return "", apperr.Unauthorized("Invalid admin credentials.")
	}
	emailOK := subtle.ConstantTimeCompare([]byte(models.NormalizeEmail(email)), []byte(models.NormalizeEmail(s.cfg.AdminEmail))) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
	if !emailOK || !passOK {
		return "", apperr.Unauthorized("Invalid admin credentials.")
	}

	tok, _, err := s.admin.Create("admin", models.RoleAdmin, models.NormalizeEmail(s.cfg.AdminEmail))
	if err != nil {
		return "", apperr.Internal("Failed to generate admin token", err)
	}
	return tok, nil
}

// AuthenticateUser resolves an access token to its user.
func (s *AuthService) AuthenticateUser(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, apperr.Unauthorized("Unauthorized request")
	}
	claims, err := s.access.Verify(accessToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired access token")
	}
	if claims.Role != models.RoleUser {
		return nil, apperr.Forbidden("Access token does not belong to a user")
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired access token")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("User not found")
		}
		return nil, apperr.Internal("Authentication failed", err)
	}
	return user, nil
}

// AuthenticateAdmin accepts only admin tokens issued for the configured admin.
func (s *AuthService) AuthenticateAdmin(accessToken string) (*token.Claims, error) {
	if accessToken == "" {
		return nil, apperr.Unauthorized("Unauthorized: No admin token provided")
	}
	claims, err := s.admin.Verify(accessToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired admin token")
	}
	if claims.Role != models.RoleAdmin || claims.Email != models.NormalizeEmail(s.cfg.AdminEmail) {
		return nil, apperr.Forbidden("Token belongs to a non-admin user.")
	}
	return claims, nil
}

func randomToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
