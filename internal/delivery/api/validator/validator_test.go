package validator

import (
	"testing"

	domainerrors "storefront/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quantityRequest struct {
	Key      string `json:"key" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

func TestCustomValidator_Validate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&quantityRequest{Key: "7", Quantity: 2}))

	err := v.Validate(&quantityRequest{Quantity: -1})
	require.Error(t, err)
	assert.True(t, domainerrors.IsKind(err, domainerrors.KindValidation))

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "key is required", appErr.Message())
	assert.Equal(t, "key,quantity", appErr.Details())
}
