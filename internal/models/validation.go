package models

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// cepPattern matches Brazilian postal codes, with or without the dash.
var cepPattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

// NewValidate returns a validator with the request-level custom rules
// registered. Both the HTTP binder and the pipeline validate requests
// with it, so a request rejected in one place is rejected in the other.
func NewValidate() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("cep", func(fl validator.FieldLevel) bool {
		return cepPattern.MatchString(fl.Field().String())
	})
	return validate
}
