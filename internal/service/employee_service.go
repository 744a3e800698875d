package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"taskhub/internal/domain"
	"taskhub/internal/mail"
)

// EmployeeService implements the owner-facing employee directory.
type EmployeeService struct {
	users        domain.UserRepository
	mailer       mail.Mailer
	loginURL     string
	supportEmail string
}

func NewEmployeeService(users domain.UserRepository, mailer mail.Mailer, loginURL, supportEmail string) *EmployeeService {
	return &EmployeeService{
		users:        users,
		mailer:       mailer,
		loginURL:     loginURL,
		supportEmail: supportEmail,
	}
}

type EmployeeInput struct {
	Name        string
	Email       string
	PhoneNumber string
	Department  string
	Role        string
}

// Create registers a new employee and mails an invitation with the login link.
func (s *EmployeeService) Create(ctx context.Context, in EmployeeInput, creatorID string) (*domain.User, error) {
	if in.Email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: user with this email already exists", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	role := in.Role
	if role == "" {
		role = domain.RoleEmployee
	}
	u := &domain.User{
		Name:        in.Name,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Department:  in.Department,
		Role:        role,
		CreatedBy:   creatorID,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}

	body := fmt.Sprintf(`
		<h2>Welcome, %s!</h2>
		<p>You have been successfully added as an employee in our Task Management Tool.</p>
		<p>Your role is: <strong>%s</strong></p>
		<p>For any assistance, please contact us at %s.</p>
		<p>Please click on the verification link to set up your account: %s</p>
	`, u.Name, u.Role, s.supportEmail, s.loginURL)
	if err := s.mailer.Send(ctx, u.Email, "Welcome to Task Management", body); err != nil {
		return nil, fmt.Errorf("send welcome mail: %w", err)
	}

	return u, nil
}

// ListAll returns every user regardless of role.
func (s *EmployeeService) ListAll(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

// ListEmployees returns only users with the employee role.
func (s *EmployeeService) ListEmployees(ctx context.Context) ([]*domain.User, error) {
	return s.users.ListByRole(ctx, domain.RoleEmployee)
}

func (s *EmployeeService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Update edits an employee record. A changed email must stay unique; it resets
// verification and triggers a best-effort verification mail.
func (s *EmployeeService) Update(ctx context.Context, id string, in EmployeeInput) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	emailChanged := in.Email != "" && in.Email != u.Email
	if emailChanged {
		if other, err := s.users.GetByEmail(ctx, in.Email); err == nil && other.ID != id {
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
		return nil, fmt.Errorf("update employee: %w", err)
	}

	if emailChanged {
		body := fmt.Sprintf(`
			<h2>Hello %s,</h2>
			<p>Your email address was updated in our Task Management Tool.</p>
			<p>Please verify your new email address by logging in again:</p>
			<p><a href="%s">Verify Email</a></p>
		`, u.Name, s.loginURL)
		if err := s.mailer.Send(ctx, u.Email, "Email Verification Required", body); err != nil {
			log.Printf("employee: verification mail to %s: %v", u.Email, err)
		}
	}

	return u, nil
}

func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}
