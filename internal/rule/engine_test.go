package rule

import (
	"testing"

	"expenseflow/internal/model"
	"expenseflow/pkg/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRule(approvers []string, compulsory []string, sequential bool, pct int64) *model.Rule {
	return &model.Rule{
		Approvers:           approvers,
		CompulsoryApprovers: compulsory,
		Sequential:          sequential,
		PercentageRequired:  decimal.NewFromInt(pct),
	}
}

func TestRequiredApprovals(t *testing.T) {
	tests := []struct {
		name  string
		total int
		pct   int64
		want  int
	}{
		{"two approvers at 50 requires one", 2, 50, 1},
		{"four approvers at 50 requires two", 4, 50, 2},
		{"three approvers at 50 rounds up", 3, 50, 2},
		{"full quorum", 4, 100, 4},
		{"tiny percentage still requires one", 10, 1, 1},
		{"single approver", 1, 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiredApprovals(tt.total, decimal.NewFromInt(tt.pct)))
		})
	}
}

func TestEvaluateFullQuorumNeedsSetEquality(t *testing.T) {
	rl := newRule([]string{"a", "b", "c"}, nil, false, 100)

	assert.Equal(t, model.StatusPending, Evaluate(rl, []string{"a", "b"}, nil))
	assert.Equal(t, model.StatusApproved, Evaluate(rl, []string{"c", "a", "b"}, nil))
}

func TestEvaluateRejectionIsVeto(t *testing.T) {
	rl := newRule([]string{"a", "b", "c", "d"}, nil, false, 50)
	rejector := "d"

	// Rejection wins even with enough approvals accumulated.
	assert.Equal(t, model.StatusRejected, Evaluate(rl, []string{"a", "b", "c"}, &rejector))
}

func TestEvaluateCompulsoryApprovers(t *testing.T) {
	rl := newRule([]string{"a", "b", "c", "d"}, []string{"a"}, false, 50)

	// A and B approve: count 2 >= required 2, compulsory satisfied.
	assert.Equal(t, model.StatusApproved, Evaluate(rl, []string{"a", "b"}, nil))

	// B and C approve: count meets the threshold but A is missing.
	assert.Equal(t, model.StatusPending, Evaluate(rl, []string{"b", "c"}, nil))
}

func TestEvaluateHalfOfTwoApprovesImmediately(t *testing.T) {
	rl := newRule([]string{"a", "b"}, nil, false, 50)

	assert.Equal(t, model.StatusApproved, Evaluate(rl, []string{"a"}, nil))
}

func TestApproveAccumulatesUntilThreshold(t *testing.T) {
	rl := newRule([]string{"a", "b", "c", "d"}, []string{"a"}, false, 50)

	out, err := Approve(rl, model.StatusPending, nil, nil, "b")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, out.Status)
	assert.True(t, out.Changed)

	out, err = Approve(rl, out.Status, out.ApprovedBy, nil, "a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, out.Status)
	assert.ElementsMatch(t, []string{"a", "b"}, out.ApprovedBy)
}

func TestApproveIdempotent(t *testing.T) {
	rl := newRule([]string{"a", "b", "c"}, nil, false, 100)

	first, err := Approve(rl, model.StatusPending, nil, nil, "a")
	require.NoError(t, err)
	require.True(t, first.Changed)

	second, err := Approve(rl, first.Status, first.ApprovedBy, nil, "a")
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.ApprovedBy, second.ApprovedBy)
}

func TestApproveByNonApproverForbidden(t *testing.T) {
	rl := newRule([]string{"a", "b"}, nil, false, 50)

	_, err := Approve(rl, model.StatusPending, nil, nil, "mallory")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
}

func TestApproveTerminalRequestInvalidState(t *testing.T) {
	rl := newRule([]string{"a", "b"}, nil, false, 50)

	for _, status := range []string{model.StatusApproved, model.StatusRejected} {
		_, err := Approve(rl, status, []string{"a"}, nil, "b")
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidState), status)
	}
}

func TestApproveSubmittedRequestInvalidState(t *testing.T) {
	rl := newRule([]string{"a"}, nil, false, 100)

	_, err := Approve(rl, model.StatusSubmitted, nil, nil, "a")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidState))
}

func TestSequentialApprovalOrder(t *testing.T) {
	rl := newRule([]string{"a", "b", "c"}, nil, true, 100)

	// B before A fails and changes nothing.
	_, err := Approve(rl, model.StatusPending, nil, nil, "b")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeOutOfOrder))

	out, err := Approve(rl, model.StatusPending, nil, nil, "a")
	require.NoError(t, err)

	out, err = Approve(rl, out.Status, out.ApprovedBy, nil, "b")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, out.Status)

	// C last completes the chain.
	out, err = Approve(rl, out.Status, out.ApprovedBy, nil, "c")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, out.Status)
}

func TestSequentialSkippingMiddleApprover(t *testing.T) {
	rl := newRule([]string{"a", "b", "c"}, nil, true, 100)

	out, err := Approve(rl, model.StatusPending, nil, nil, "a")
	require.NoError(t, err)

	_, err = Approve(rl, out.Status, out.ApprovedBy, nil, "c")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeOutOfOrder))
}

func TestRejectTerminatesImmediately(t *testing.T) {
	rl := newRule([]string{"a", "b", "c", "d"}, nil, false, 100)

	out, err := Reject(rl, model.StatusPending, []string{"a", "b"}, "c")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, out.Status)
	require.NotNil(t, out.RejectedBy)
	assert.Equal(t, "c", *out.RejectedBy)
	// Prior approvals are preserved for the record.
	assert.ElementsMatch(t, []string{"a", "b"}, out.ApprovedBy)
}

func TestRejectByNonApproverForbidden(t *testing.T) {
	rl := newRule([]string{"a"}, nil, false, 100)

	_, err := Reject(rl, model.StatusPending, nil, "mallory")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
}

func TestRejectTerminalRequestInvalidState(t *testing.T) {
	rl := newRule([]string{"a", "b"}, nil, false, 50)

	_, err := Reject(rl, model.StatusApproved, []string{"a"}, "b")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidState))
}

func TestApproveDoesNotMutateInputSlice(t *testing.T) {
	rl := newRule([]string{"a", "b", "c"}, nil, false, 100)
	approved := make([]string, 1, 4)
	approved[0] = "a"

	out, err := Approve(rl, model.StatusPending, approved, nil, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, approved)
	assert.ElementsMatch(t, []string{"a", "b"}, out.ApprovedBy)
}
