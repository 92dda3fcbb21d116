package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
	"github.com/leadflow/leadflow/internal/validation"
)

const AuthCookieName = "auth_token"

var (
	ErrInvalidCredentials = errors.New("e-mail ou senha inválidos")
	ErrEmailAlreadyExists = errors.New("já existe uma conta com este e-mail")
	ErrEmailNotVerified   = errors.New("confirme seu e-mail antes de entrar")
	ErrInvalidEmail       = errors.New("endereço de e-mail inválido")
	ErrPasswordless       = errors.New("esta conta entra sem senha, use o link mágico")
	ErrInvalidLink        = errors.New("link inválido ou expirado")
)

type AuthService struct {
	userRepository         repository.UserRepository
	profileRepository      repository.ProfileRepository
	tokenRepository        repository.TokenRepository
	emailService           *EmailService
	jwtSecret              string
	isProduction           bool
	jwtExpiry              time.Duration
	tokenEmailVerifyExpiry time.Duration
	tokenMagicLinkExpiry   time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	tokenRepository repository.TokenRepository,
	emailService *EmailService,
	jwtSecret string,
	isProduction bool,
	jwtExpiry time.Duration,
	tokenEmailVerifyExpiry time.Duration,
	tokenMagicLinkExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:         userRepository,
		profileRepository:      profileRepository,
		tokenRepository:        tokenRepository,
		emailService:           emailService,
		jwtSecret:              jwtSecret,
		isProduction:           isProduction,
		jwtExpiry:              jwtExpiry,
		tokenEmailVerifyExpiry: tokenEmailVerifyExpiry,
		tokenMagicLinkExpiry:   tokenMagicLinkExpiry,
	}
}

// Signup creates a password account and mails a verification link. The user
// cannot log in with the password until the link is followed.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateName(name)
	if err != nil {
		return nil, err
	}

	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.createUser(ctx, email, name, &hash, nil)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, ErrEmailAlreadyExists
	}
	if err != nil {
		return nil, err
	}

	err = s.sendVerification(ctx, user, name)
	if err != nil {
		return nil, err
	}

	slog.Info("user signed up", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// ResendVerification mails a fresh verification link. Unknown or already
// verified addresses succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.Verified() {
		return nil
	}

	return s.sendVerification(ctx, user, s.profileName(ctx, user.ID))
}

// VerifyEmail consumes a verification token and marks the address confirmed.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	user, err := s.consume(ctx, token, model.TokenTypeEmailVerify)
	if err != nil {
		return nil, err
	}

	if !user.Verified() {
		now := time.Now()
		user.EmailVerifiedAt = &now
		err = s.userRepository.Update(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to verify email: %w", err)
		}

		err = s.emailService.SendWelcomeEmail(ctx, user.Email, s.profileName(ctx, user.ID))
		if err != nil {
			slog.Warn("failed to send welcome email", "error", err, "email", user.Email)
		}
	}

	slog.Info("email verified", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrPasswordless
	}

	err = s.ComparePassword(password, *user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Verified() {
		return nil, ErrEmailNotVerified
	}

	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateToken returns 32 random bytes, hex encoded.
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     now.Add(s.jwtExpiry).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// StartSession issues a JWT for user and stores it in the auth cookie.
func (s *AuthService) StartSession(w http.ResponseWriter, user *model.User) error {
	token, err := s.GenerateJWT(user)
	if err != nil {
		return fmt.Errorf("failed to generate session: %w", err)
	}

	s.SetJWTCookie(w, token, time.Now().Add(s.jwtExpiry))
	return nil
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// SendMagicLink is the combined passwordless login/signup: unknown addresses get a
// new account whose email is verified when the link is followed.
func (s *AuthService) SendMagicLink(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = s.createUser(ctx, email, "", nil, nil)
		if err != nil {
			return err
		}
		slog.Info("new passwordless user created", "email", email, "user_id", user.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.issueToken(ctx, user.ID, model.TokenTypeMagicLink, s.tokenMagicLinkExpiry)
	if err != nil {
		return err
	}

	err = s.emailService.SendMagicLinkEmail(ctx, user.Email, token)
	if err != nil {
		slog.Error("failed to send magic link email", "error", err, "email", user.Email)
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("magic link sent", "email", user.Email)
	return nil
}

// SendForgotPasswordLink mails a one-time login link that also removes the
// password. Unknown and passwordless addresses succeed silently.
func (s *AuthService) SendForgotPasswordLink(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		slog.Info("forgot password requested for unknown email", "email", email)
		return nil
	}

	if !user.HasPassword() {
		slog.Info("forgot password requested for passwordless account", "email", email)
		return nil
	}

	token, err := s.issueToken(ctx, user.ID, model.TokenTypeMagicLink, s.tokenMagicLinkExpiry)
	if err != nil {
		return err
	}

	err = s.emailService.SendForgotPasswordEmail(ctx, user.Email, token)
	if err != nil {
		slog.Error("failed to send forgot password email", "error", err, "email", user.Email)
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("forgot password link sent", "email", user.Email)
	return nil
}

// VerifyMagicLink consumes a magic link token. Following the link proves the
// address, so unverified accounts become verified.
func (s *AuthService) VerifyMagicLink(ctx context.Context, token string) (*model.User, error) {
	user, err := s.consume(ctx, token, model.TokenTypeMagicLink)
	if err != nil {
		return nil, err
	}

	if !user.Verified() {
		now := time.Now()
		user.EmailVerifiedAt = &now
		err = s.userRepository.Update(ctx, user)
		if err != nil {
			slog.Warn("failed to verify email", "error", err, "user_id", user.ID)
		}
	}

	slog.Info("user authenticated via magic link", "user_id", user.ID)
	return user, nil
}

// ResetPassword follows a forgot-password link: the password is removed and the
// user is logged in to set a new one.
func (s *AuthService) ResetPassword(ctx context.Context, token string) (*model.User, error) {
	user, err := s.VerifyMagicLink(ctx, token)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = nil
	err = s.userRepository.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to remove password: %w", err)
	}

	slog.Info("password removed by reset link", "user_id", user.ID)
	return user, nil
}

// NeedsOnboarding reports whether the user still has no name.
func (s *AuthService) NeedsOnboarding(ctx context.Context, userID string) (bool, error) {
	profile, err := s.profileRepository.ByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile.Name == "", nil
}

func (s *AuthService) CompleteOnboarding(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)

	err := validation.ValidateName(name)
	if err != nil {
		return err
	}

	err = s.profileRepository.UpdateName(ctx, userID, name)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if err == nil {
		err = s.emailService.SendWelcomeEmail(ctx, user.Email, name)
		if err != nil {
			slog.Warn("failed to send welcome email", "error", err, "email", user.Email)
		}
	}

	slog.Info("onboarding completed", "user_id", userID)
	return nil
}

// AuthenticateOAuth logs in or creates the account behind a provider-verified email.
func (s *AuthService) AuthenticateOAuth(ctx context.Context, email, name, provider string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	now := time.Now()

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		if validation.ValidateName(name) != nil {
			name = ""
		}
		user, err = s.createUser(ctx, email, name, nil, &now)
		if err != nil {
			return nil, err
		}
		slog.Info("new OAuth user created", "email", email, "user_id", user.ID, "provider", provider)
		return user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}

	if !user.Verified() {
		user.EmailVerifiedAt = &now
		err = s.userRepository.Update(ctx, user)
		if err != nil {
			slog.Warn("failed to mark email as verified", "error", err, "user_id", user.ID)
		}
	}

	slog.Info("user authenticated via OAuth", "user_id", user.ID, "provider", provider)
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, email, name string, passwordHash *string, verifiedAt *time.Time) (*model.User, error) {
	now := time.Now()
	user := &model.User{
		ID:              uuid.New().String(),
		Email:           email,
		PasswordHash:    passwordHash,
		EmailVerifiedAt: verifiedAt,
		CreatedAt:       now,
	}

	err := s.userRepository.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// An empty name sends the user through onboarding
	profile := &model.Profile{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.profileRepository.Create(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return user, nil
}

// issueToken replaces any unused token of the same type for the user.
func (s *AuthService) issueToken(ctx context.Context, userID, tokenType string, expiry time.Duration) (string, error) {
	err := s.tokenRepository.DeleteByUserAndType(ctx, userID, tokenType)
	if err != nil {
		slog.Warn("failed to delete old tokens", "error", err, "user_id", userID, "type", tokenType)
	}

	value, err := GenerateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	err = s.tokenRepository.Create(ctx, &model.Token{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      tokenType,
		Token:     value,
		ExpiresAt: time.Now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return value, nil
}

// consume marks the token used and returns its user. ConsumeToken is a single
// UPDATE, so a link can only be followed once.
func (s *AuthService) consume(ctx context.Context, token, tokenType string) (*model.User, error) {
	tokenModel, err := s.tokenRepository.ConsumeToken(ctx, token)
	if err != nil {
		return nil, ErrInvalidLink
	}

	if tokenModel.Type != tokenType {
		return nil, ErrInvalidLink
	}

	user, err := s.userRepository.ByID(ctx, tokenModel.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return user, nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *model.User, name string) error {
	token, err := s.issueToken(ctx, user.ID, model.TokenTypeEmailVerify, s.tokenEmailVerifyExpiry)
	if err != nil {
		return err
	}

	err = s.emailService.SendVerificationEmail(ctx, user.Email, token, name)
	if err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

func (s *AuthService) profileName(ctx context.Context, userID string) string {
	profile, err := s.profileRepository.ByUserID(ctx, userID)
	if err != nil {
		return ""
	}
	return profile.Name
}
