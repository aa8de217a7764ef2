package apperror

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func respondWith(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Respond(c, err)
	return w
}

func TestRespond_StatusMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		code int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Auth("invalid credentials"), http.StatusUnauthorized},
		{Forbidden("forbidden"), http.StatusForbidden},
		{NotFound("not found"), http.StatusNotFound},
		{Delivery("mail failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := respondWith(tt.err)
		assert.Equal(t, tt.code, w.Code)
		assert.Contains(t, w.Body.String(), tt.err.Message)
	}
}

func TestRespond_FailVsError(t *testing.T) {
	w := respondWith(Validation("nope"))
	assert.Contains(t, w.Body.String(), `"status":"fail"`)

	w = respondWith(Delivery("smtp down"))
	assert.Contains(t, w.Body.String(), `"status":"error"`)
}

func TestRespond_UnexpectedErrorDoesNotLeak(t *testing.T) {
	w := respondWith(errors.New("pq: connection refused on 10.0.0.3"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
	assert.Contains(t, w.Body.String(), "something went wrong")
}

func TestRespond_WrappedOperationalError(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), NotFound("no tour found with that id"))
	w := respondWith(wrapped)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
