// Package validation provides request validation on top of validator/v10.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"recipebox/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	// PriceMaxDigits and PriceDecimalPlaces mirror the numeric(5,2) column.
	PriceMaxDigits     = 5
	PriceDecimalPlaces = 2
)

// Validator wraps go-playground/validator and reports failures as
// FIELD_VALIDATION errors keyed by JSON field name.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for request payloads.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return true
		}
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	// Decimals are validated through their canonical string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return ValidPrice(d)
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a *models.AppError listing every
// offending field.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[fieldKey(e)] = v.friendlyMessage(e)
	}
	return models.NewFieldValidationError(fieldErrors)
}

func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "notblank":
		return "This field may not be blank."
	case "email":
		return "Enter a valid email address."
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", e.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", e.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", e.Param())
	case "gte":
		return "Ensure this value is greater than or equal to " + e.Param() + "."
	case "url":
		return "Enter a valid URL."
	case "price":
		return fmt.Sprintf("Ensure that there are no more than %d digits in total and no more than %d decimal places.",
			PriceMaxDigits, PriceDecimalPlaces)
	case "dive":
		return "Invalid item."
	default:
		return "This field is invalid."
	}
}

// fieldKey is the JSON path of the field without the root struct name,
// e.g. "tags[1].name".
func fieldKey(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// ValidPrice reports whether d fits numeric(5,2).
func ValidPrice(d decimal.Decimal) bool {
	if !d.Round(PriceDecimalPlaces).Equal(d) {
		return false
	}
	limit := decimal.New(1, PriceMaxDigits-PriceDecimalPlaces)
	return d.Abs().LessThan(limit)
}
