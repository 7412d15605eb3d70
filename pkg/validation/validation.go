// Package validation turns binding failures and explicit rule checks into
// field-level error lists that forms can render inline.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// FormError is the key of errors that do not belong to one field.
const FormError = "_form"

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Errors []FieldError

func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Get returns the first message recorded for field.
func (e Errors) Get(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

func (e Errors) Has(field string) bool {
	return e.Get(field) != ""
}

func (e Errors) Any() bool {
	return len(e) > 0
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(formFieldName)
	}
}

func formFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// FromBinding converts the error returned by gin's ShouldBind into field errors.
func FromBinding(err error) Errors {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Field: FormError, Message: "The submitted form could not be read: " + err.Error()}}
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters.", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s.", fe.Param())
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "email":
		return "Must be a valid email address."
	case "datetime":
		return "Must be a date in the form YYYY-MM-DD."
	case "numeric":
		return "Must be a number."
	case "eqfield":
		return "Does not match."
	default:
		return "Invalid value."
	}
}

// OptionalString trims value and returns nil when it is empty.
func OptionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// OptionalID returns nil for zero, the value a select posts for "none".
func OptionalID(id int) *int {
	if id <= 0 {
		return nil
	}
	return &id
}

// Date parses a required YYYY-MM-DD value into errs.
func Date(errs *Errors, field, value string) time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		if !errs.Has(field) {
			errs.Add(field, "Must be a date in the form YYYY-MM-DD.")
		}
		return time.Time{}
	}
	return t
}

// OptionalDate is Date that allows an empty value.
func OptionalDate(errs *Errors, field, value string) *time.Time {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	t := Date(errs, field, value)
	return &t
}

// Price parses a non-negative decimal. An empty value is a missing price.
func Price(errs *Errors, field, value string) decimal.NullDecimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		errs.Add(field, "Must be a number.")
		return decimal.NullDecimal{}
	}
	if d.IsNegative() {
		errs.Add(field, "Must not be negative.")
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
