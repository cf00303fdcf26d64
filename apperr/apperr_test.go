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
		code Code
		want int
	}{
		{NotFound, http.StatusNotFound},
		{InvalidArgument, http.StatusBadRequest},
		{InvalidState, http.StatusBadRequest},
		{Conflict, http.StatusConflict},
		{Unauthorized, http.StatusUnauthorized},
		{DependencyTimeout, http.StatusGatewayTimeout},
		{Internal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(New(tc.code, "order", "o1", "boom")))
	}

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestCodeOf(t *testing.T) {
	err := New(NotFound, "order", "o1", "order not found")
	assert.Equal(t, NotFound, CodeOf(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, NotFound, CodeOf(wrapped))

	assert.Equal(t, Internal, CodeOf(errors.New("plain")))
	assert.Equal(t, Internal, CodeOf(nil))
}

func TestIs(t *testing.T) {
	err := Newf(Conflict, "order", "o1", "concurrent transition: now %s", "paid")
	assert.True(t, Is(err, Conflict))
	assert.False(t, Is(err, NotFound))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(DependencyTimeout, "payment_intent", "o1", cause)

	assert.Equal(t, DependencyTimeout, CodeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
