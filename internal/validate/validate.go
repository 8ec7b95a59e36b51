// Package validate checks request structs against their `validate` tags and
// reports the first failure as an apperr Validation error.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/mealplan/internal/apperr"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name.
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return val
}

// Struct validates s. The returned error, if any, is an *apperr.Error of kind
// Validation whose message names the first offending field.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return apperr.Wrap(err, "validation failed")
	}
	return &apperr.Error{Kind: apperr.Validation, Message: message(errs[0]), Err: err}
}

// Var validates a single value against tag.
func Var(field string, value any, tag string) error {
	err := v.Var(value, tag)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return apperr.Wrap(err, "validation failed")
	}
	fe := errs[0]
	return &apperr.Error{Kind: apperr.Validation, Message: describe(field, fe.Tag(), fe.Param()), Err: err}
}

func message(fe validator.FieldError) string {
	return describe(fe.Field(), fe.Tag(), fe.Param())
}

func describe(field, tag, param string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "email":
		return "invalid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(param), ", "))
	case "datetime":
		return fmt.Sprintf("invalid %s, use YYYY-MM-DD", field)
	case "url", "http_url":
		return field + " must be a valid URL"
	default:
		return field + " is invalid"
	}
}
