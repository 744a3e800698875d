package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"taskhub/internal/domain"
	"taskhub/internal/mail"
	"taskhub/internal/security"
)

// AuthService implements the access-code login flow: a 6-digit code is mailed
// to a known address, validating it issues the JWT cookie pair. The very first
// account created this way becomes the owner.
type AuthService struct {
	users    domain.UserRepository
	tokens   *security.TokenService
	codes    *security.AccessCodeHasher
	mailer   mail.Mailer
	loginURL string
}

func NewAuthService(
	users domain.UserRepository,
	tokens *security.TokenService,
	codes *security.AccessCodeHasher,
	mailer mail.Mailer,
	loginURL string,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		codes:    codes,
		mailer:   mailer,
		loginURL: loginURL,
	}
}

// TokenPair is the cookie-bound access/refresh pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RequestAccessCode generates a fresh login code for the given email and mails
// it. If the users collection is empty the email signs up as the owner;
// otherwise only registered addresses may log in.
func (s *AuthService) RequestAccessCode(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	code, err := security.GenerateAccessCode()
	if err != nil {
		return err
	}
	hashed, err := s.codes.Hash(code)
	if err != nil {
		return fmt.Errorf("hash access code: %w", err)
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}

	isNewUser := total == 0
	if isNewUser {
		owner := &domain.User{
			Email:      email,
			Role:       domain.RoleOwner,
			AccessCode: hashed,
		}
		if err := s.users.Create(ctx, owner); err != nil {
			return fmt.Errorf("create owner: %w", err)
		}
		log.Printf("auth: first user created: %s", email)
	} else {
		u, err := s.users.GetByEmail(ctx, email)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: this email is not registered", domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if err := s.users.SetAccessCode(ctx, u.ID, hashed); err != nil {
			return fmt.Errorf("set access code: %w", err)
		}
	}

	subject := "Your Login Access Code - Task Management"
	body := fmt.Sprintf(`
		<h2>Your Login Access Code</h2>
		<p>Your 6-digit access code is: <strong>%s</strong></p>
		<p>Use this code to log in to your account.</p>
	`, code)
	if isNewUser {
		subject = "Welcome! Your Access Code - Task Management"
		body = fmt.Sprintf(`
			<h2>Welcome to Task Management!</h2>
			<p>Your account has been created successfully.</p>
			<p>Your 6-digit access code is: <strong>%s</strong></p>
			<p>Use this code to complete your registration.</p>
		`, code)
	}
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("send access code: %w", err)
	}
	return nil
}

// ValidateAccessCode checks the code against the stored hash, consumes it, and
// issues the token pair. A code is single-use.
func (s *AuthService) ValidateAccessCode(ctx context.Context, email, code string) (*domain.User, *TokenPair, error) {
	if email == "" || code == "" {
		return nil, nil, fmt.Errorf("%w: email and access code are required", domain.ErrInvalidInput)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if u.AccessCode == "" || s.codes.Verify(code, u.AccessCode) != nil {
		return nil, nil, fmt.Errorf("%w: invalid access code", domain.ErrInvalidInput)
	}

	if err := s.users.ConsumeAccessCode(ctx, u.ID); err != nil {
		return nil, nil, fmt.Errorf("consume access code: %w", err)
	}
	u.AccessCode = ""
	u.IsVerified = true

	pair, err := s.issueTokens(u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Refresh validates the refresh token and mints a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return "", fmt.Errorf("%w: unknown user", domain.ErrUnauthorized)
	}
	access, err := s.tokens.CreateAccessToken(userID)
	if err != nil {
		return "", fmt.Errorf("create access token: %w", err)
	}
	return access, nil
}

type ProfileEditInput struct {
	Name        string
	Email       string
	PhoneNumber string
	Department  string
	Role        string
}

// EditProfile updates the caller's own record. Changing the email resets
// verification and re-sends a verification mail; mail failure does not fail
// the edit.
func (s *AuthService) EditProfile(ctx context.Context, userID string, in ProfileEditInput) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	emailChanged := in.Email != "" && in.Email != u.Email
	if emailChanged {
		if other, err := s.users.GetByEmail(ctx, in.Email); err == nil && other.ID != u.ID {
			return nil, fmt.Errorf("%w: this email is already in use by another account", domain.ErrConflict)
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("check email: %w", err)
		}
		u.Email = in.Email
		u.IsVerified = false
	}
	u.Name = in.Name
	u.PhoneNumber = in.PhoneNumber
	u.Department = in.Department
	if in.Role != "" {
		u.Role = in.Role
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if emailChanged {
		body := fmt.Sprintf(`
			<h2>Hello %s,</h2>
			<p>You have updated your email address in our Task Management Tool.</p>
			<p>Please verify your new email address by logging in again:</p>
			<p><a href="%s">Verify Email</a></p>
			<p>If you did not make this change, please contact your administrator immediately.</p>
		`, u.Name, s.loginURL)
		if err := s.mailer.Send(ctx, u.Email, "Email Verification Required", body); err != nil {
			log.Printf("auth: verification mail to %s: %v", u.Email, err)
		}
	}

	return u, nil
}

func (s *AuthService) issueTokens(userID string) (*TokenPair, error) {
	access, err := s.tokens.CreateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}
	refresh, err := s.tokens.CreateRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
