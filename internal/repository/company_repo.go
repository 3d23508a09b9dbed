package repository

import (
	"context"

	"expenseflow/internal/model"

	"gorm.io/gorm"
)

// CompanyRepository defines the interface for data access of Company entities
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	GetByID(ctx context.Context, id string) (*model.Company, error)
	GetByAdminEmail(ctx context.Context, email string) (*model.Company, error)
}

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository returns a new instance of CompanyRepository
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	return dbFrom(ctx, r.db).Create(company).Error
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*model.Company, error) {
	var company model.Company
	if err := dbFrom(ctx, r.db).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) GetByAdminEmail(ctx context.Context, email string) (*model.Company, error) {
	var company model.Company
	if err := dbFrom(ctx, r.db).First(&company, "admin_email = ?", email).Error; err != nil {
		return nil, err
	}
	return &company, nil
}
