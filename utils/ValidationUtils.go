package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateObject checks the `validate` tags of a request and reports every failed field in one error.
func ValidateObject(object interface{}) error {
	err := validate.Struct(object)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	missing := make([]string, 0)
	invalid := make([]string, 0)
	for _, fieldErr := range validationErrors {
		if fieldErr.Tag() == "required" {
			missing = append(missing, lowerFirst(fieldErr.Field()))
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s (%s)", lowerFirst(fieldErr.Field()), fieldErr.Tag()))
	}
	if len(missing) > 0 {
		return &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": strings.Join(missing, ", ")},
		}
	}
	return &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.InvalidParameterValue,
		Message: exception.InvalidParametersMsg,
		Params:  map[string]interface{}{"params": strings.Join(invalid, ", ")},
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
