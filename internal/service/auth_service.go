package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expenseflow/internal/currency"
	"expenseflow/internal/middleware"
	"expenseflow/internal/model"
	"expenseflow/internal/repository"
	"expenseflow/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// --- DTOs ---

type SignupRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Country     string `json:"country" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
}

type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type CompanyResponse struct {
	CompanyID  string `json:"company_id"`
	Name       string `json:"company_name"`
	Country    string `json:"country"`
	Currency   string `json:"currency"`
	AdminEmail string `json:"admin_email"`
	CreatedAt  string `json:"created_at"`
}

// AuthService issues and rotates tokens for both principal kinds: company
// admins (subject = company id) and users (subject = user id).
type AuthService interface {
	SignupCompany(ctx context.Context, req SignupRequest) (*TokenPair, error)
	AdminSignin(ctx context.Context, req SigninRequest) (*TokenPair, error)
	UserSignin(ctx context.Context, req SigninRequest) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	CompanyProfile(ctx context.Context, companyID string) (*CompanyResponse, error)
}

type authService struct {
	tx        repository.TransactionManager
	companies repository.CompanyRepository
	users     repository.UserRepository
	tokens    repository.RefreshTokenRepository
	audits    repository.AuditLogRepository
	resolver  currency.Resolver
}

// NewAuthService returns a new instance of AuthService
func NewAuthService(
	tx repository.TransactionManager,
	companies repository.CompanyRepository,
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	audits repository.AuditLogRepository,
	resolver currency.Resolver,
) AuthService {
	return &authService{
		tx:        tx,
		companies: companies,
		users:     users,
		tokens:    tokens,
		audits:    audits,
		resolver:  resolver,
	}
}

// SignupCompany onboards a new company. The currency is resolved from the
// country exactly once; a resolver failure blocks the signup.
func (s *authService) SignupCompany(ctx context.Context, req SignupRequest) (*TokenPair, error) {
	if _, err := s.companies.GetByAdminEmail(ctx, req.Email); err == nil {
		return nil, apperr.Conflict("company with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking admin email: %w", err)
	}

	currencyCode, err := s.resolver.Resolve(ctx, req.Country)
	if err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	company := &model.Company{
		ID:                uuid.NewString(),
		Name:              req.CompanyName,
		Country:           req.Country,
		Currency:          currencyCode,
		AdminEmail:        req.Email,
		AdminPasswordHash: passwordHash,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if createErr := s.companies.Create(ctx, company); createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("company with this name or email already exists")
			}
			return fmt.Errorf("creating company: %w", createErr)
		}
		auditErr := s.audits.Create(ctx, &model.AuditLog{
			ID:        uuid.NewString(),
			CompanyID: company.ID,
			ActorID:   company.ID,
			Action:    model.ActionCompanySignup,
			EntityID:  company.ID,
			Details:   fmt.Sprintf(`{"country":%q,"currency":%q}`, company.Country, company.Currency),
		})
		if auditErr != nil {
			return fmt.Errorf("writing audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokenPair(ctx, company.ID, model.PrincipalAdmin)
}

func (s *authService) AdminSignin(ctx context.Context, req SigninRequest) (*TokenPair, error) {
	company, err := s.companies.GetByAdminEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(company.AdminPasswordHash), []byte(truncateSecret(req.Password))) != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return s.issueTokenPair(ctx, company.ID, model.PrincipalAdmin)
}

func (s *authService) UserSignin(ctx context.Context, req SigninRequest) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(truncateSecret(req.Password))) != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return s.issueTokenPair(ctx, user.ID, model.PrincipalUser)
}

// Refresh rotates a stored refresh token: the presented token is revoked
// and a fresh pair is issued for the same principal.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := middleware.ParseToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token")
	}

	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("refresh token is revoked or unknown")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.tokens.Delete(ctx, refreshToken)
		return nil, apperr.Unauthorized("refresh token expired")
	}

	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("revoking refresh token: %w", err)
	}

	return s.issueTokenPair(ctx, claims.Subject, claims.Kind)
}

// CompanyProfile returns the company record behind an admin token,
// including the currency resolved at signup.
func (s *authService) CompanyProfile(ctx context.Context, companyID string) (*CompanyResponse, error) {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("company not found")
		}
		return nil, fmt.Errorf("loading company: %w", err)
	}
	return &CompanyResponse{
		CompanyID:  company.ID,
		Name:       company.Name,
		Country:    company.Country,
		Currency:   company.Currency,
		AdminEmail: company.AdminEmail,
		CreatedAt:  company.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *authService) issueTokenPair(ctx context.Context, subjectID, kind string) (*TokenPair, error) {
	access, err := signToken(subjectID, kind, accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	refresh, err := signToken(subjectID, kind, refreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	if err := s.tokens.Create(ctx, &model.RefreshToken{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Kind:      kind,
		Token:     refresh,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func signToken(subjectID, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := middleware.Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(middleware.GetJWTSecret())
}

// hashPassword bcrypt-hashes the secret, truncated to bcrypt's 72-byte limit.
func hashPassword(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(truncateSecret(secret)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

func truncateSecret(secret string) string {
	if len(secret) > 72 {
		return secret[:72]
	}
	return secret
}
