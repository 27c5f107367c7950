package utils

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	var zero T
	if len(defaults) > 0 {
		return defaults[0]
	}
	return zero
}

func ParseDecimal(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(value)
}
