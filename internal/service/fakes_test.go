package service

import (
	"context"
	"sync"

	"expenseflow/internal/model"
	"expenseflow/pkg/apperr"

	"gorm.io/gorm"
)

// In-memory fakes behind the repository interfaces, used by the service
// tests so no database is required.

// fakeTxManager runs the function directly; the fakes have no rollback.
type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) add(user *model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *user
	f.users[user.ID] = &clone
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByIDInCompany(ctx context.Context, id, companyID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok && user.CompanyID == companyID {
		clone := *user
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) ListByCompany(ctx context.Context, companyID string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []model.User
	for _, user := range f.users {
		if user.CompanyID == companyID {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

type fakeCompanyRepo struct {
	mu        sync.Mutex
	companies map[string]*model.Company
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{companies: map[string]*model.Company{}}
}

func (f *fakeCompanyRepo) Create(ctx context.Context, company *model.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.companies {
		if existing.AdminEmail == company.AdminEmail || existing.Name == company.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	clone := *company
	f.companies[company.ID] = &clone
	return nil
}

func (f *fakeCompanyRepo) GetByID(ctx context.Context, id string) (*model.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if company, ok := f.companies[id]; ok {
		clone := *company
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCompanyRepo) GetByAdminEmail(ctx context.Context, email string) (*model.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, company := range f.companies {
		if company.AdminEmail == email {
			clone := *company
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]*model.RefreshToken{}}
}

func (f *fakeTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *token
	f.tokens[token.Token] = &clone
	return nil
}

func (f *fakeTokenRepo) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rt, ok := f.tokens[token]; ok {
		clone := *rt
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTokenRepo) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeTokenRepo) DeleteExpired(ctx context.Context) error { return nil }

type fakeAuditRepo struct {
	mu       sync.Mutex
	entries  []model.AuditLog
	failWith error
}

func newFakeAuditRepo() *fakeAuditRepo { return &fakeAuditRepo{} }

func (f *fakeAuditRepo) Create(ctx context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) ListByCompany(ctx context.Context, companyID string, limit int) ([]model.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []model.AuditLog
	for _, entry := range f.entries {
		if entry.CompanyID == companyID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string // destinations
	calls int
}

func (f *fakeNotifier) Notify(subject, body, to string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	f.calls++
}

type fakeResolver struct {
	currencies map[string]string
	err        error
}

func (f *fakeResolver) Resolve(ctx context.Context, country string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if code, ok := f.currencies[country]; ok {
		return code, nil
	}
	return "", apperr.Validation("could not find currency for country: " + country)
}
