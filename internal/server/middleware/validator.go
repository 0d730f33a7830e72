package middleware

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nguyentranbao-ct/product-concierge/internal/models"
)

// Validator adapts the shared validate instance to echo's Validator
// interface, reporting field names by their wire tags instead of Go
// struct field names.
type Validator struct {
	validate *validator.Validate
}

var wireTags = []string{"json", "param", "query", "header"}

func NewValidator() *Validator {
	validate := models.NewValidate()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range wireTags {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})
	return &Validator{validate: validate}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
