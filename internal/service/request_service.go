package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expenseflow/internal/model"
	"expenseflow/internal/repository"
	"expenseflow/internal/rule"
	"expenseflow/pkg/apperr"
	"expenseflow/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- DTOs ---

type CreateRequestDTO struct {
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required"`
	ExpenseDate string `json:"expense_date" binding:"required"` // YYYY-MM-DD
	PaidBy      string `json:"paid_by"`
	Currency    string `json:"currency" binding:"required"`
	Amount      string `json:"amount" binding:"required"` // decimal string, must be > 0
	Remarks     string `json:"remarks"`
}

type AttachRuleDTO struct {
	Description         string   `json:"description"`
	Approvers           []string `json:"approvers" binding:"required"`
	CompulsoryApprovers []string `json:"compulsory_approvers"`
	Sequential          bool     `json:"sequential"`
	PercentageRequired  string   `json:"percentage_required" binding:"required"` // decimal string in (0, 100]
}

type RequestResponse struct {
	RequestID     string        `json:"request_id"`
	RequestorID   string        `json:"requestor_id"`
	RequestorName string        `json:"requestor_name,omitempty"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	ExpenseDate   string        `json:"expense_date"`
	PaidBy        string        `json:"paid_by"`
	Currency      string        `json:"currency"`
	Amount        string        `json:"amount"`
	Remarks       string        `json:"remarks,omitempty"`
	Status        string        `json:"status"`
	ApprovedBy    []string      `json:"approved_by"`
	RejectedBy    *string       `json:"rejected_by"`
	Rule          *RuleResponse `json:"rule,omitempty"` // populated on the detail view
	CreatedAt     string        `json:"created_at"`
}

type RuleResponse struct {
	RuleID              string   `json:"rule_id"`
	RequestID           string   `json:"request_id"`
	Description         string   `json:"description"`
	Approvers           []string `json:"approvers"`
	CompulsoryApprovers []string `json:"compulsory_approvers"`
	Sequential          bool     `json:"sequential"`
	PercentageRequired  string   `json:"percentage_required"`
}

// RequestService orchestrates the request lifecycle: creation, rule
// attachment and incremental approval/rejection up to a terminal status.
type RequestService interface {
	Create(ctx context.Context, requestorID string, dto CreateRequestDTO) (*RequestResponse, error)
	ListMine(ctx context.Context, requestorID string) ([]RequestResponse, error)
	ListCompany(ctx context.Context, companyID string, p pagination.Params) ([]RequestResponse, int64, error)
	Get(ctx context.Context, companyID, requestID string) (*RequestResponse, error)
	AttachRule(ctx context.Context, companyID, requestID string, dto AttachRuleDTO) (*RuleResponse, error)
	Approve(ctx context.Context, actorID, requestID string) (*RequestResponse, error)
	Reject(ctx context.Context, actorID, requestID string) (*RequestResponse, error)
}

type requestService struct {
	db       *gorm.DB
	requests repository.RequestRepository
	rules    repository.RuleRepository
	users    repository.UserRepository
}

// NewRequestService returns a new instance of RequestService. Status
// mutations run on db directly so the row lock, the set update and the
// audit entry commit in one transaction.
func NewRequestService(db *gorm.DB, requests repository.RequestRepository, rules repository.RuleRepository, users repository.UserRepository) RequestService {
	return &requestService{db: db, requests: requests, rules: rules, users: users}
}

// --- Implementation ---

func (s *requestService) Create(ctx context.Context, requestorID string, dto CreateRequestDTO) (*RequestResponse, error) {
	requestor, err := s.users.GetByID(ctx, requestorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("loading requestor: %w", err)
	}

	amount, err := decimal.NewFromString(dto.Amount)
	if err != nil {
		return nil, apperr.Validation("invalid amount: " + dto.Amount)
	}
	if !amount.IsPositive() {
		return nil, apperr.Validation("amount must be greater than zero")
	}

	expenseDate, err := time.Parse("2006-01-02", dto.ExpenseDate)
	if err != nil {
		return nil, apperr.Validation("invalid expense_date, expected YYYY-MM-DD")
	}

	request := &model.Request{
		ID:          uuid.NewString(),
		CompanyID:   requestor.CompanyID,
		RequestorID: requestor.ID,
		Description: dto.Description,
		Category:    dto.Category,
		ExpenseDate: expenseDate,
		PaidBy:      dto.PaidBy,
		Currency:    dto.Currency,
		Amount:      amount,
		Remarks:     dto.Remarks,
		Status:      model.StatusSubmitted,
		ApprovedBy:  datatypes.NewJSONSlice([]string{}),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if createErr := tx.Create(request).Error; createErr != nil {
			return fmt.Errorf("creating request: %w", createErr)
		}
		return writeAudit(tx, requestor.CompanyID, requestor.ID, model.ActionCreateRequest, request.ID,
			fmt.Sprintf(`{"amount":%q,"currency":%q}`, amount.String(), dto.Currency))
	})
	if err != nil {
		return nil, err
	}

	resp := toRequestResponse(request)
	return &resp, nil
}

func (s *requestService) ListMine(ctx context.Context, requestorID string) ([]RequestResponse, error) {
	requests, err := s.requests.ListByRequestor(ctx, requestorID)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	return toRequestResponses(requests), nil
}

func (s *requestService) ListCompany(ctx context.Context, companyID string, p pagination.Params) ([]RequestResponse, int64, error) {
	requests, total, err := s.requests.ListByCompany(ctx, companyID, p.Offset, p.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("listing requests: %w", err)
	}
	return toRequestResponses(requests), total, nil
}

// Get returns one request with its rule, when one is attached.
func (s *requestService) Get(ctx context.Context, companyID, requestID string) (*RequestResponse, error) {
	request, err := s.requests.GetByIDInCompany(ctx, requestID, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("request not found")
		}
		return nil, fmt.Errorf("loading request: %w", err)
	}
	resp := toRequestResponse(request)

	rl, err := s.rules.GetByRequestID(ctx, requestID)
	if err == nil {
		ruleResp := toRuleResponse(rl)
		resp.Rule = &ruleResp
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("loading rule: %w", err)
	}
	return &resp, nil
}

// AttachRule binds the approval rule to a request and moves it to pending.
// A request carries at most one rule; a second attachment is a conflict.
func (s *requestService) AttachRule(ctx context.Context, companyID, requestID string, dto AttachRuleDTO) (*RuleResponse, error) {
	if len(dto.Approvers) == 0 {
		return nil, apperr.Validation("approvers must not be empty")
	}
	if hasDuplicates(dto.Approvers) {
		return nil, apperr.Validation("approvers must not contain duplicates")
	}
	if !subset(dto.CompulsoryApprovers, dto.Approvers) {
		return nil, apperr.Validation("compulsory_approvers must be a subset of approvers")
	}

	percentage, err := decimal.NewFromString(dto.PercentageRequired)
	if err != nil {
		return nil, apperr.Validation("invalid percentage_required: " + dto.PercentageRequired)
	}
	if !percentage.IsPositive() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, apperr.Validation("percentage_required must be in (0, 100]")
	}

	newRule := &model.Rule{
		ID:                  uuid.NewString(),
		RequestID:           requestID,
		CompanyID:           companyID,
		Description:         dto.Description,
		Approvers:           datatypes.NewJSONSlice(dto.Approvers),
		CompulsoryApprovers: datatypes.NewJSONSlice(dto.CompulsoryApprovers),
		Sequential:          dto.Sequential,
		PercentageRequired:  percentage,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.Request
		if findErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&request, "id = ? AND company_id = ?", requestID, companyID).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("request not found")
			}
			return fmt.Errorf("loading request: %w", findErr)
		}

		if request.IsTerminal() {
			return apperr.InvalidState(fmt.Sprintf("request is already %s", request.Status))
		}

		var existing model.Rule
		if findErr := tx.First(&existing, "request_id = ?", requestID).Error; findErr == nil {
			return apperr.Conflict("request already has an approval rule")
		} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return fmt.Errorf("checking existing rule: %w", findErr)
		}

		var memberCount int64
		if countErr := tx.Model(&model.User{}).
			Where("id IN ? AND company_id = ?", dto.Approvers, companyID).
			Count(&memberCount).Error; countErr != nil {
			return fmt.Errorf("validating approvers: %w", countErr)
		}
		if memberCount != int64(len(dto.Approvers)) {
			return apperr.Validation("all approvers must be users of the company")
		}

		if createErr := tx.Create(newRule).Error; createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("request already has an approval rule")
			}
			return fmt.Errorf("creating rule: %w", createErr)
		}

		request.Status = model.StatusPending
		if saveErr := tx.Save(&request).Error; saveErr != nil {
			return fmt.Errorf("updating request status: %w", saveErr)
		}

		return writeAudit(tx, companyID, companyID, model.ActionAttachRule, requestID,
			fmt.Sprintf(`{"rule_id":%q,"sequential":%t,"percentage_required":%q}`,
				newRule.ID, dto.Sequential, percentage.String()))
	})
	if err != nil {
		return nil, err
	}

	resp := toRuleResponse(newRule)
	return &resp, nil
}

// Approve records an approval by actor and recomputes the request status.
// The request row is locked for the duration so concurrent approvals
// serialize instead of racing on the approved_by set.
func (s *requestService) Approve(ctx context.Context, actorID, requestID string) (*RequestResponse, error) {
	return s.applyDecision(ctx, actorID, requestID, model.ActionApproveRequest,
		func(rl *model.Rule, request *model.Request) (rule.Outcome, error) {
			return rule.Approve(rl, request.Status, request.ApprovedBy, request.RejectedBy, actorID)
		})
}

// Reject records a rejection by actor. A single authorized rejection is
// terminal.
func (s *requestService) Reject(ctx context.Context, actorID, requestID string) (*RequestResponse, error) {
	return s.applyDecision(ctx, actorID, requestID, model.ActionRejectRequest,
		func(rl *model.Rule, request *model.Request) (rule.Outcome, error) {
			return rule.Reject(rl, request.Status, request.ApprovedBy, actorID)
		})
}

func (s *requestService) applyDecision(
	ctx context.Context,
	actorID, requestID, action string,
	decide func(rl *model.Rule, request *model.Request) (rule.Outcome, error),
) (*RequestResponse, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("loading actor: %w", err)
	}

	var request model.Request
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Cross-tenant lookups land here and report NotFound, never
		// Forbidden, so foreign request ids do not leak existence.
		if findErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&request, "id = ? AND company_id = ?", requestID, actor.CompanyID).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("request not found")
			}
			return fmt.Errorf("loading request: %w", findErr)
		}

		var rl model.Rule
		if findErr := tx.First(&rl, "request_id = ?", requestID).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.InvalidState("request has no approval rule attached yet")
			}
			return fmt.Errorf("loading rule: %w", findErr)
		}

		outcome, decideErr := decide(&rl, &request)
		if decideErr != nil {
			return decideErr
		}
		if !outcome.Changed {
			// Idempotent repeat: leave stored state untouched, skip audit.
			return nil
		}

		request.ApprovedBy = datatypes.NewJSONSlice(outcome.ApprovedBy)
		request.RejectedBy = outcome.RejectedBy
		request.Status = outcome.Status
		if saveErr := tx.Save(&request).Error; saveErr != nil {
			return fmt.Errorf("updating request: %w", saveErr)
		}

		return writeAudit(tx, actor.CompanyID, actorID, action, requestID,
			fmt.Sprintf(`{"status":%q}`, outcome.Status))
	})
	if err != nil {
		return nil, err
	}

	resp := toRequestResponse(&request)
	return &resp, nil
}

// --- Helpers ---

func writeAudit(tx *gorm.DB, companyID, actorID, action, entityID, details string) error {
	entry := &model.AuditLog{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		ActorID:   actorID,
		Action:    action,
		EntityID:  entityID,
		Details:   details,
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

func toRequestResponse(r *model.Request) RequestResponse {
	resp := RequestResponse{
		RequestID:   r.ID,
		RequestorID: r.RequestorID,
		Description: r.Description,
		Category:    r.Category,
		ExpenseDate: r.ExpenseDate.Format("2006-01-02"),
		PaidBy:      r.PaidBy,
		Currency:    r.Currency,
		Amount:      r.Amount.String(),
		Remarks:     r.Remarks,
		Status:      r.Status,
		ApprovedBy:  r.ApprovedBy,
		RejectedBy:  r.RejectedBy,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if resp.ApprovedBy == nil {
		resp.ApprovedBy = []string{}
	}
	if r.Requestor != nil {
		resp.RequestorName = r.Requestor.Name
	}
	return resp
}

func toRuleResponse(rl *model.Rule) RuleResponse {
	resp := RuleResponse{
		RuleID:              rl.ID,
		RequestID:           rl.RequestID,
		Description:         rl.Description,
		Approvers:           rl.Approvers,
		CompulsoryApprovers: rl.CompulsoryApprovers,
		Sequential:          rl.Sequential,
		PercentageRequired:  rl.PercentageRequired.String(),
	}
	if resp.Approvers == nil {
		resp.Approvers = []string{}
	}
	if resp.CompulsoryApprovers == nil {
		resp.CompulsoryApprovers = []string{}
	}
	return resp
}

func toRequestResponses(requests []model.Request) []RequestResponse {
	responses := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, toRequestResponse(&requests[i]))
	}
	return responses
}

func hasDuplicates(list []string) bool {
	seen := make(map[string]bool, len(list))
	for _, v := range list {
		if seen[v] {
			return true
		}
		seen[v] = true
	}
	return false
}

func subset(sub, super []string) bool {
	members := make(map[string]bool, len(super))
	for _, v := range super {
		members[v] = true
	}
	for _, v := range sub {
		if !members[v] {
			return false
		}
	}
	return true
}
