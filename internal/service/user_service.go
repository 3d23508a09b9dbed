package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"expenseflow/internal/mailer"
	"expenseflow/internal/model"
	"expenseflow/internal/repository"
	"expenseflow/pkg/apperr"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type ChangeManagerRequest struct {
	ManagerID *string `json:"manager_id"` // null clears the manager
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type ManagerInfo struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type UserResponse struct {
	UserID    string       `json:"user_id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Role      string       `json:"role"`
	Manager   *ManagerInfo `json:"manager,omitempty"`
	CreatedAt string       `json:"created_at"`
}

// UserService covers the admin-side user management plus the user-initiated
// password change.
type UserService interface {
	CreateUser(ctx context.Context, companyID string, req CreateUserRequest) (*UserResponse, error)
	ListUsers(ctx context.Context, companyID string) ([]UserResponse, error)
	ChangeRole(ctx context.Context, companyID, userID, role string) error
	ChangeManager(ctx context.Context, companyID, userID string, managerID *string) error
	SendPassword(ctx context.Context, companyID, userID string) error
	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error
}

type userService struct {
	tx       repository.TransactionManager
	users    repository.UserRepository
	audits   repository.AuditLogRepository
	notifier mailer.Notifier
}

// NewUserService returns a new instance of UserService
func NewUserService(tx repository.TransactionManager, users repository.UserRepository, audits repository.AuditLogRepository, notifier mailer.Notifier) UserService {
	return &userService{tx: tx, users: users, audits: audits, notifier: notifier}
}

func validRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleManager || role == model.RoleEmployee
}

func toUserResponse(user *model.User) UserResponse {
	resp := UserResponse{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if user.Manager != nil {
		resp.Manager = &ManagerInfo{UserID: user.Manager.ID, Name: user.Manager.Name}
	}
	return resp
}

// CreateUser provisions a user with a generated password delivered by email.
// Email delivery is best-effort and never fails the creation.
func (s *userService) CreateUser(ctx context.Context, companyID string, req CreateUserRequest) (*UserResponse, error) {
	if !validRole(req.Role) {
		return nil, apperr.Validation("invalid role: must be admin, manager, or employee")
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Conflict("user with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking user email: %w", err)
	}

	password, err := randomPassword(10)
	if err != nil {
		return nil, err
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: passwordHash,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if createErr := s.users.Create(ctx, user); createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("user with this email already exists")
			}
			return fmt.Errorf("creating user: %w", createErr)
		}
		return s.writeAudit(ctx, companyID, model.ActionCreateUser, user.ID, fmt.Sprintf(`{"role":%q}`, user.Role))
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(
		"Your Expense Account Details",
		fmt.Sprintf("Hello %s,\n\nYour account has been created.\nYour password is: %s\n\nPlease change it after your first login.", user.Name, password),
		user.Email,
	)

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) ListUsers(ctx context.Context, companyID string) ([]UserResponse, error) {
	users, err := s.users.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, toUserResponse(&users[i]))
	}
	return responses, nil
}

func (s *userService) ChangeRole(ctx context.Context, companyID, userID, role string) error {
	if !validRole(role) {
		return apperr.Validation("invalid role: must be admin, manager, or employee")
	}

	user, err := s.users.GetByIDInCompany(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return fmt.Errorf("loading user: %w", err)
	}

	user.Role = role
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("updating role: %w", err)
		}
		return s.writeAudit(ctx, companyID, model.ActionChangeRole, user.ID, fmt.Sprintf(`{"role":%q}`, role))
	})
}

// ChangeManager reassigns a user's manager. The manager must belong to the
// same company and the resulting manager chain must stay acyclic.
func (s *userService) ChangeManager(ctx context.Context, companyID, userID string, managerID *string) error {
	user, err := s.users.GetByIDInCompany(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return fmt.Errorf("loading user: %w", err)
	}

	if managerID != nil {
		if *managerID == userID {
			return apperr.Validation("user cannot be their own manager")
		}
		manager, err := s.users.GetByIDInCompany(ctx, *managerID, companyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("manager not found")
			}
			return fmt.Errorf("loading manager: %w", err)
		}
		if err := s.checkNoCycle(ctx, companyID, userID, manager); err != nil {
			return err
		}
	}

	user.ManagerID = managerID
	user.Manager = nil

	details := `{"manager_id":null}`
	if managerID != nil {
		details = fmt.Sprintf(`{"manager_id":%q}`, *managerID)
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("updating manager: %w", err)
		}
		return s.writeAudit(ctx, companyID, model.ActionChangeManager, user.ID, details)
	})
}

// checkNoCycle walks the manager chain upward from the proposed manager.
// Reaching userID means the assignment would close a loop.
func (s *userService) checkNoCycle(ctx context.Context, companyID, userID string, manager *model.User) error {
	visited := map[string]bool{}
	current := manager
	for current != nil {
		if current.ID == userID {
			return apperr.Validation("assignment would create a management cycle")
		}
		if visited[current.ID] {
			// Pre-existing loop in stored data; refuse to extend it.
			return apperr.Validation("manager chain already contains a cycle")
		}
		visited[current.ID] = true

		if current.ManagerID == nil {
			return nil
		}
		next, err := s.users.GetByIDInCompany(ctx, *current.ManagerID, companyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // dangling reference terminates the chain
			}
			return fmt.Errorf("walking manager chain: %w", err)
		}
		current = next
	}
	return nil
}

// SendPassword regenerates the user's password and mails it to them.
// The mail send is fire-and-forget; its failure never rolls back the reset.
func (s *userService) SendPassword(ctx context.Context, companyID, userID string) error {
	user, err := s.users.GetByIDInCompany(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return fmt.Errorf("loading user: %w", err)
	}

	password, err := randomPassword(10)
	if err != nil {
		return err
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return err
	}

	user.PasswordHash = passwordHash
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("updating password: %w", err)
		}
		return s.writeAudit(ctx, companyID, model.ActionResetPassword, user.ID, "")
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(
		"Your New Expense Account Password",
		fmt.Sprintf("Hello %s,\n\nYour new password is: %s", user.Name, password),
		user.Email,
	)
	return nil
}

func (s *userService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return fmt.Errorf("loading user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(truncateSecret(req.OldPassword))) != nil {
		return apperr.Validation("incorrect old password")
	}

	passwordHash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = passwordHash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// writeAudit records an admin action; admin actions are audited with the
// company id as the actor. Runs under the caller's transaction.
func (s *userService) writeAudit(ctx context.Context, companyID, action, entityID, details string) error {
	err := s.audits.Create(ctx, &model.AuditLog{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		ActorID:   companyID,
		Action:    action,
		EntityID:  entityID,
		Details:   details,
	})
	if err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomPassword(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordCharset))))
		if err != nil {
			return "", fmt.Errorf("generating password: %w", err)
		}
		buf[i] = passwordCharset[n.Int64()]
	}
	return string(buf), nil
}
