package validator

import (
	"testing"

	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Period   string `json:"period" validate:"required,billing_period"`
	Category string `json:"category" validate:"required,message_category"`
}

func TestValidateRequest(t *testing.T) {
	NewValidator()

	require.NoError(t, ValidateRequest(&sample{Period: "2026-02", Category: "marketing"}))

	err := ValidateRequest(&sample{Period: "2026-13", Category: "SERVICE"})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
