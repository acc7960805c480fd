package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	wrapped := fmt.Errorf("load invoice: %w", NotFound("invoice", "42"))

	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbidden("not your order")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(BadRequest("already paid")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(&ErrInvalidStateTransition{From: "processing", To: "delivered"}))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("raced")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(&ErrUnauthorized{}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := &ErrInvalidStateTransition{From: "processing", To: "delivered", Valid: []string{"in_transit", "cancelled"}}
	assert.Equal(t, "invalid status transition from processing to delivered; valid transitions: in_transit, cancelled", err.Error())

	terminal := &ErrInvalidStateTransition{From: "delivered", To: "processing"}
	assert.Contains(t, terminal.Error(), "final status")
}
