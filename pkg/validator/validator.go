package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		if err.Param != "" {
			parts[i] = err.Field + " failed on " + err.Tag + "=" + err.Param
		} else {
			parts[i] = err.Field + " failed on " + err.Tag
		}
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct validates a struct using registered rules.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		failures := make(ValidationErrors, 0, len(ve))
		for _, fe := range ve {
			failures = append(failures, ValidationError{
				Field: fe.Field(),
				Tag:   fe.Tag(),
				Param: fe.Param(),
			})
		}
		return failures
	}

	return err
}

// Precondition validates s and converts failures into a local precondition error, which
// callers return before any request is sent.
func Precondition(s interface{}) error {
	err := ValidateStruct(s)
	if err == nil {
		return nil
	}
	if failures, ok := err.(ValidationErrors); ok {
		return apperrors.NewPrecondition(describe(failures)).WithInternal(failures)
	}
	return apperrors.NewPrecondition(err.Error()).WithInternal(err)
}

// RegisterValidation exposes underlying validator custom rules.
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

func describe(failures ValidationErrors) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		switch f.Tag {
		case "required", "notblank":
			parts = append(parts, f.Field+" is required")
		case "min", "gte":
			parts = append(parts, f.Field+" must be at least "+f.Param)
		case "max", "lte":
			parts = append(parts, f.Field+" must be at most "+f.Param)
		case "oneof":
			parts = append(parts, f.Field+" must be one of: "+f.Param)
		default:
			parts = append(parts, f.Field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if name == "" {
				return fld.Name
			}

			comma := strings.Index(name, ",")
			if comma != -1 {
				name = name[:comma]
			}

			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", notBlank)
	})
	return validate
}
