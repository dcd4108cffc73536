package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "gatekeeper/pkg/domain-errors"
	s "gatekeeper/pkg/string"
)

// messageTag overrides the generated message for a field, e.g. `msg:"Invalid user ID"`.
const messageTag = "msg"

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates a struct and returns a validation domain error carrying
// one message per failing field.
func Validate(req any) error {
	err := defaultValidator.Struct(req)
	if err == nil {
		return nil
	}
	fields := FieldMessages(req, err)
	return dErrors.NewValidation(firstMessage(err, fields), fields)
}

// firstMessage is the message of the first failing field.
func firstMessage(err error, fields map[string]string) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		if msg, ok := fields[fieldName(validationErrs[0])]; ok {
			return msg
		}
	}
	return ErrorMessage(err)
}

// FieldMessages maps each failing field to its message, preferring the
// field's msg tag.
func FieldMessages(req any, err error) map[string]string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}
	t := reflect.TypeOf(req)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		key := fieldName(fe)
		if _, seen := fields[key]; seen {
			continue
		}
		if t != nil && t.Kind() == reflect.Struct {
			if sf, ok := t.FieldByName(fe.StructField()); ok {
				if msg := sf.Tag.Get(messageTag); msg != "" {
					fields[key] = msg
					continue
				}
			}
		}
		fields[key] = fieldMessage(fe)
	}
	return fields
}

// ErrorMessage converts a validator error into a human-readable message
// describing the first failing field.
func ErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "invalid request body"
	}
	return fieldMessage(validationErrs[0])
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" || name == fe.StructField() {
		return s.ToSnakeCase(fe.StructField())
	}
	return name
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldName(fe)
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid uuid", field)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	default:
		if field == "" {
			return "invalid request body"
		}
		return fmt.Sprintf("%s is invalid", field)
	}
}
