package errors

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "not found",
			err:    NewError("tenant missing").WithHint("Tenant not found").Mark(ErrNotFound),
			status: http.StatusNotFound,
			code:   ErrCodeNotFound,
		},
		{
			name:   "already exists",
			err:    NewError("duplicate").Mark(ErrAlreadyExists),
			status: http.StatusConflict,
			code:   ErrCodeAlreadyExists,
		},
		{
			name:   "validation",
			err:    NewError("bad volume").Mark(ErrValidation),
			status: http.StatusBadRequest,
			code:   ErrCodeValidation,
		},
		{
			name:   "invalid operation",
			err:    NewError("period not closed").Mark(ErrInvalidOperation),
			status: http.StatusBadRequest,
			code:   ErrCodeInvalidOperation,
		},
		{
			name:   "database",
			err:    WithError(errors.New("conn reset")).WithMessage("insert failed").Mark(ErrDatabase),
			status: http.StatusInternalServerError,
			code:   ErrCodeDatabase,
		},
		{
			name:   "unmarked",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   ErrCodeSystemError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatusFromErr(tt.err))
			assert.Equal(t, tt.code, CodeFromErr(tt.err))
		})
	}
}

func TestMarkSurvivesWrapping(t *testing.T) {
	base := NewError("rate missing").Mark(ErrNotFound)
	wrapped := WithError(base).WithMessage("charge message").Error()

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.False(t, IsAlreadyExists(wrapped))
}

func TestHintsAndDetails(t *testing.T) {
	err := NewError("tier overlap").
		WithHintf("Tier for %s overlaps", "BR").
		WithReportableDetails(map[string]any{"country_code": "BR"}).
		Mark(ErrValidation)

	assert.Contains(t, errors.GetAllHints(err), "Tier for BR overlaps")

	var found bool
	for _, sd := range errors.GetAllSafeDetails(err) {
		for _, payload := range sd.SafeDetails {
			if payload == DetailsPrefix+`{"country_code":"BR"}` {
				found = true
			}
		}
	}
	assert.True(t, found)
}
