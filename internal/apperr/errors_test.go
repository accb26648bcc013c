package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", New(Validation, "title required"), http.StatusBadRequest},
		{"conflict", New(Conflict, "username already exists"), http.StatusBadRequest},
		{"bad credentials", New(InvalidCredentials, "invalid credentials"), http.StatusBadRequest},
		{"no token", New(Unauthenticated, "missing bearer token"), http.StatusUnauthorized},
		{"expired", New(Expired, "token expired"), http.StatusUnauthorized},
		{"forbidden", New(Forbidden, "access denied"), http.StatusForbidden},
		{"not found", New(NotFound, "show not found"), http.StatusNotFound},
		{"plain error", errors.New("disk full"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("get show: %w", New(NotFound, "show not found")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "show not found", Message(fmt.Errorf("x: %w", New(NotFound, "show not found"))))
	assert.Equal(t, "list shows: no such table", Message(Wrap(Internal, errors.New("no such table"), "list shows")))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("login: %w", New(InvalidCredentials, "invalid credentials"))
	assert.True(t, errors.Is(err, &Error{Kind: InvalidCredentials}))
	assert.False(t, errors.Is(err, &Error{Kind: Forbidden}))
	assert.True(t, Is(err, InvalidCredentials))
}
