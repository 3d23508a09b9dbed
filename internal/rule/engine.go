// Package rule implements the approval-rule decision engine. It is pure
// logic over in-memory state; persistence and tenancy checks belong to the
// caller.
package rule

import (
	"fmt"

	"expenseflow/internal/model"
	"expenseflow/pkg/apperr"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Outcome is the result of applying an approval or rejection to a request.
type Outcome struct {
	Status     string
	ApprovedBy []string
	RejectedBy *string
	// Changed is false when the action was an idempotent repeat; callers
	// must not re-fire side effects in that case.
	Changed bool
}

// RequiredApprovals returns the smallest k such that k/total >= pct/100,
// floored at 1. Decimal arithmetic avoids the float truncation trap where
// 2 approvers at 50% would require 0 approvals.
func RequiredApprovals(total int, pct decimal.Decimal) int {
	required := decimal.NewFromInt(int64(total)).Mul(pct).Div(hundred).Ceil().IntPart()
	if required < 1 {
		required = 1
	}
	return int(required)
}

// Evaluate computes the status a pending request should hold given the
// current approval and rejection state. A single rejection is a veto and
// wins regardless of how many approvals accumulated.
func Evaluate(rl *model.Rule, approvedBy []string, rejectedBy *string) string {
	if rejectedBy != nil && *rejectedBy != "" {
		return model.StatusRejected
	}

	required := RequiredApprovals(len(rl.Approvers), rl.PercentageRequired)

	approved := toSet(approvedBy)
	for _, compulsory := range rl.CompulsoryApprovers {
		if !approved[compulsory] {
			return model.StatusPending
		}
	}

	if len(approved) >= required {
		return model.StatusApproved
	}
	return model.StatusPending
}

// Approve validates an approval by actor against the rule and the current
// request state and returns the resulting state. The input slices are never
// mutated.
func Approve(rl *model.Rule, status string, approvedBy []string, rejectedBy *string, actor string) (Outcome, error) {
	if err := checkActionable(rl, status, actor); err != nil {
		return Outcome{}, err
	}

	approved := toSet(approvedBy)
	if approved[actor] {
		// Idempotent repeat: same set, same status, no side effects.
		return Outcome{Status: status, ApprovedBy: approvedBy, RejectedBy: rejectedBy}, nil
	}

	if rl.Sequential {
		if err := checkSequence(rl, approved, actor); err != nil {
			return Outcome{}, err
		}
	}

	next := make([]string, len(approvedBy), len(approvedBy)+1)
	copy(next, approvedBy)
	next = append(next, actor)

	return Outcome{
		Status:     Evaluate(rl, next, rejectedBy),
		ApprovedBy: next,
		RejectedBy: rejectedBy,
		Changed:    true,
	}, nil
}

// Reject validates a rejection by actor. Any single authorized rejection is
// terminal; no quorum applies.
func Reject(rl *model.Rule, status string, approvedBy []string, actor string) (Outcome, error) {
	if err := checkActionable(rl, status, actor); err != nil {
		return Outcome{}, err
	}

	rejector := actor
	return Outcome{
		Status:     model.StatusRejected,
		ApprovedBy: approvedBy,
		RejectedBy: &rejector,
		Changed:    true,
	}, nil
}

func checkActionable(rl *model.Rule, status string, actor string) error {
	switch status {
	case model.StatusApproved, model.StatusRejected:
		return apperr.InvalidState(fmt.Sprintf("request is already %s", status))
	case model.StatusPending:
		// fall through to the approver check
	default:
		return apperr.InvalidState("request has no approval rule attached yet")
	}
	if !contains(rl.Approvers, actor) {
		return apperr.Forbidden("you are not an approver for this request")
	}
	return nil
}

// checkSequence enforces that every predecessor of actor in the approver
// sequence already approved.
func checkSequence(rl *model.Rule, approved map[string]bool, actor string) error {
	for _, approver := range rl.Approvers {
		if approver == actor {
			return nil
		}
		if !approved[approver] {
			return apperr.OutOfOrder(fmt.Sprintf("approver %s must approve before you", approver))
		}
	}
	return nil
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, v := range list {
		set[v] = true
	}
	return set
}
