package service

import (
	"context"
	"errors"
	"testing"

	"expenseflow/internal/model"
	"expenseflow/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserServiceForTest() (UserService, *fakeUserRepo, *fakeAuditRepo, *fakeNotifier) {
	users := newFakeUserRepo()
	audits := newFakeAuditRepo()
	notifier := &fakeNotifier{}
	return NewUserService(fakeTxManager{}, users, audits, notifier), users, audits, notifier
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	svc, users, audits, notifier := newUserServiceForTest()

	resp, err := svc.CreateUser(ctx, "comp-1", CreateUserRequest{
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  model.RoleEmployee,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", resp.Name)
	assert.Equal(t, model.RoleEmployee, resp.Role)
	assert.NotEmpty(t, resp.UserID)

	stored, err := users.GetByID(ctx, resp.UserID)
	require.NoError(t, err)
	assert.Equal(t, "comp-1", stored.CompanyID)
	assert.NotEmpty(t, stored.PasswordHash)

	assert.Equal(t, []string{"alice@example.com"}, notifier.sent)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, model.ActionCreateUser, audits.entries[0].Action)
}

func TestCreateUserFailsWhenAuditWriteFails(t *testing.T) {
	svc, _, audits, notifier := newUserServiceForTest()
	audits.failWith = errors.New("insert failed")

	// The audit row commits with the user row or not at all; its failure
	// must surface, not vanish into a success response.
	_, err := svc.CreateUser(context.Background(), "comp-1", CreateUserRequest{
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  model.RoleEmployee,
	})
	require.Error(t, err)
	assert.Zero(t, notifier.calls)
}

func TestChangeRoleFailsWhenAuditWriteFails(t *testing.T) {
	svc, users, audits, _ := newUserServiceForTest()
	users.add(&model.User{ID: "u-1", CompanyID: "comp-1", Email: "a@example.com", Role: model.RoleEmployee})
	audits.failWith = errors.New("insert failed")

	err := svc.ChangeRole(context.Background(), "comp-1", "u-1", model.RoleManager)
	require.Error(t, err)
}

func TestCreateUserInvalidRole(t *testing.T) {
	svc, _, _, notifier := newUserServiceForTest()

	_, err := svc.CreateUser(context.Background(), "comp-1", CreateUserRequest{
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  "intern",
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	assert.Zero(t, notifier.calls)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newUserServiceForTest()
	users.add(&model.User{ID: "u-1", CompanyID: "comp-2", Email: "alice@example.com", Role: model.RoleEmployee})

	// The email index is global, so a clash with another company still conflicts.
	_, err := svc.CreateUser(ctx, "comp-1", CreateUserRequest{
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  model.RoleEmployee,
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
}

func TestChangeRole(t *testing.T) {
	ctx := context.Background()
	svc, users, audits, _ := newUserServiceForTest()
	users.add(&model.User{ID: "u-1", CompanyID: "comp-1", Email: "a@example.com", Role: model.RoleEmployee})

	require.NoError(t, svc.ChangeRole(ctx, "comp-1", "u-1", model.RoleManager))

	stored, err := users.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, stored.Role)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, model.ActionChangeRole, audits.entries[0].Action)
}

func TestChangeRoleCrossCompanyNotFound(t *testing.T) {
	svc, users, _, _ := newUserServiceForTest()
	users.add(&model.User{ID: "u-1", CompanyID: "comp-2", Email: "a@example.com", Role: model.RoleEmployee})

	err := svc.ChangeRole(context.Background(), "comp-1", "u-1", model.RoleManager)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestChangeManager(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newUserServiceForTest()
	users.add(&model.User{ID: "mgr", CompanyID: "comp-1", Email: "m@example.com", Role: model.RoleManager})
	users.add(&model.User{ID: "emp", CompanyID: "comp-1", Email: "e@example.com", Role: model.RoleEmployee})

	mgrID := "mgr"
	require.NoError(t, svc.ChangeManager(ctx, "comp-1", "emp", &mgrID))

	stored, err := users.GetByID(ctx, "emp")
	require.NoError(t, err)
	require.NotNil(t, stored.ManagerID)
	assert.Equal(t, "mgr", *stored.ManagerID)

	// null manager_id clears the assignment
	require.NoError(t, svc.ChangeManager(ctx, "comp-1", "emp", nil))
	stored, err = users.GetByID(ctx, "emp")
	require.NoError(t, err)
	assert.Nil(t, stored.ManagerID)
}

func TestChangeManagerSelf(t *testing.T) {
	svc, users, _, _ := newUserServiceForTest()
	users.add(&model.User{ID: "u-1", CompanyID: "comp-1", Email: "a@example.com", Role: model.RoleEmployee})

	id := "u-1"
	err := svc.ChangeManager(context.Background(), "comp-1", "u-1", &id)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestChangeManagerCycle(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newUserServiceForTest()

	// a manages b manages c; assigning c as a's manager closes a loop.
	aID, bID := "a", "b"
	users.add(&model.User{ID: "a", CompanyID: "comp-1", Email: "a@example.com", Role: model.RoleManager})
	users.add(&model.User{ID: "b", CompanyID: "comp-1", Email: "b@example.com", Role: model.RoleManager, ManagerID: &aID})
	users.add(&model.User{ID: "c", CompanyID: "comp-1", Email: "c@example.com", Role: model.RoleEmployee, ManagerID: &bID})

	cID := "c"
	err := svc.ChangeManager(ctx, "comp-1", "a", &cID)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	// the user is untouched
	stored, getErr := users.GetByID(ctx, "a")
	require.NoError(t, getErr)
	assert.Nil(t, stored.ManagerID)
}

func TestChangeManagerCrossCompany(t *testing.T) {
	svc, users, _, _ := newUserServiceForTest()
	users.add(&model.User{ID: "emp", CompanyID: "comp-1", Email: "e@example.com", Role: model.RoleEmployee})
	users.add(&model.User{ID: "mgr", CompanyID: "comp-2", Email: "m@example.com", Role: model.RoleManager})

	mgrID := "mgr"
	err := svc.ChangeManager(context.Background(), "comp-1", "emp", &mgrID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestSendPassword(t *testing.T) {
	ctx := context.Background()
	svc, users, audits, notifier := newUserServiceForTest()
	users.add(&model.User{ID: "u-1", CompanyID: "comp-1", Name: "Alice", Email: "alice@example.com", Role: model.RoleEmployee, PasswordHash: "old"})

	require.NoError(t, svc.SendPassword(ctx, "comp-1", "u-1"))

	stored, err := users.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.NotEqual(t, "old", stored.PasswordHash)
	assert.Equal(t, []string{"alice@example.com"}, notifier.sent)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, model.ActionResetPassword, audits.entries[0].Action)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newUserServiceForTest()

	hash, err := hashPassword("old-secret")
	require.NoError(t, err)
	users.add(&model.User{ID: "u-1", CompanyID: "comp-1", Email: "a@example.com", Role: model.RoleEmployee, PasswordHash: hash})

	err = svc.ChangePassword(ctx, "u-1", ChangePasswordRequest{OldPassword: "wrong", NewPassword: "new-secret"})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	require.NoError(t, svc.ChangePassword(ctx, "u-1", ChangePasswordRequest{OldPassword: "old-secret", NewPassword: "new-secret"}))

	stored, err := users.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, stored.PasswordHash)
}
