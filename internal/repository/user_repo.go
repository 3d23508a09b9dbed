package repository

import (
	"context"

	"expenseflow/internal/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities.
// Company-scoped lookups exist so callers cannot accidentally reach across
// tenants; email lookup is global because emails are unique system-wide.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByIDInCompany(ctx context.Context, id, companyID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListByCompany(ctx context.Context, companyID string) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return dbFrom(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := dbFrom(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDInCompany(ctx context.Context, id, companyID string) (*model.User, error) {
	var user model.User
	if err := dbFrom(ctx, r.db).First(&user, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := dbFrom(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListByCompany(ctx context.Context, companyID string) ([]model.User, error) {
	var users []model.User
	if err := dbFrom(ctx, r.db).
		Preload("Manager").
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return dbFrom(ctx, r.db).Save(user).Error
}
