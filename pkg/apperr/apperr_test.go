package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("taken"), http.StatusConflict},
		{InvalidState("terminal"), http.StatusConflict},
		{Forbidden("not an approver"), http.StatusForbidden},
		{Unauthorized("bad credentials"), http.StatusUnauthorized},
		{OutOfOrder("wrong turn"), http.StatusUnprocessableEntity},
		{Validation("bad input"), http.StatusBadRequest},
		{Upstream("down", nil), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err))
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("applying decision: %w", Forbidden("not an approver"))

	code, ok := CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, CodeForbidden, code)
	assert.True(t, HasCode(err, CodeForbidden))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(err))
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	assert.True(t, errors.Is(NotFound("request not found"), NotFound("user not found")))
	assert.False(t, errors.Is(NotFound("request not found"), Conflict("rule already attached")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("currency lookup failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "UPSTREAM_UNAVAILABLE")
	assert.Contains(t, err.Error(), "connection refused")
}
