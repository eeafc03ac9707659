package utils

import (
	"errors"
	"testing"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	EntityType string   `validate:"required"`
	Columns    []string `validate:"required,min=1"`
	Format     string   `validate:"omitempty,oneof=csv excel json"`
}

func TestValidateObject(t *testing.T) {
	assert.NoError(t, ValidateObject(testRequest{EntityType: "candidate", Columns: []string{"email"}}))

	var customErr *exception.CustomError
	err := ValidateObject(testRequest{Format: "csv"})
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, exception.RequiredParamsMissing, customErr.Code)
	assert.Equal(t, "entityType, columns", customErr.Params["params"])

	err = ValidateObject(testRequest{EntityType: "candidate", Columns: []string{"email"}, Format: "pdf"})
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, exception.InvalidParameterValue, customErr.Code)
	assert.Equal(t, "format (oneof)", customErr.Params["params"])
}
