package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/joltsms/joltsms-mcp/internal/joltsms"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their argument names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// opaqueid accepts the dashed hexadecimal identifiers the API issues.
	_ = v.RegisterValidation("opaqueid", func(fl validator.FieldLevel) bool {
		return joltsms.IsOpaqueID(fl.Field().String())
	})

	return v
}

// ArgumentError lists every problem found in a tool call's arguments.
type ArgumentError struct {
	Problems []string
}

func (e *ArgumentError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Unwrap makes errors.Is(err, joltsms.ErrValidation) true.
func (e *ArgumentError) Unwrap() error {
	return joltsms.ErrValidation
}

// BindArguments decodes the request arguments into target, a pointer to a
// struct with json and validate tags, and validates the result.
func BindArguments(request mcp.CallToolRequest, target any) error {
	if err := request.BindArguments(target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &ArgumentError{Problems: []string{
				fmt.Sprintf("%s must be a %s", typeErr.Field, typeName(typeErr.Type)),
			}}
		}
		return &ArgumentError{Problems: []string{"invalid arguments: " + err.Error()}}
	}

	return Validate(target)
}

// Validate runs struct validation on v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return &ArgumentError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	kind := fe.Kind()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "opaqueid", "uuid":
		return field + " must be a UUID"
	case "number", "numeric":
		return field + " must contain only digits"
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "min":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("%s must have at least %s items", field, fe.Param())
		default:
			return fmt.Sprintf("%s must be at least %s", field, fe.Param())
		}
	case "max":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		default:
			return fmt.Sprintf("%s must be at most %s", field, fe.Param())
		}
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int64:
		return "whole number"
	case reflect.Float64:
		return "number"
	case reflect.Slice:
		return "list"
	default:
		return t.Kind().String()
	}
}
