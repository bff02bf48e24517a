// Package validation validates untrusted input at the edge of the system
// (HTTP handlers, CLI flags) before it is turned into the compile-time
// validated value types the rest of the module operates on. Each request
// struct carries go-playground/validator tags; domain invariants that
// depend on more than one field's relationship, or on loaded state, still
// live in the pkg/care Validate() methods and are not duplicated here.
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
	})
	return instance
}

// Struct validates s against its `validate` struct tags, translating the
// first failure into a *care.Error of kind VALIDATION so callers never
// need to inspect validator.ValidationErrors directly.
func Struct(s interface{}) error {
	if err := get().Struct(s); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return fieldErrorToCareError(fieldErrs[0])
		}
		return care.NewValidationError("", err.Error())
	}
	return nil
}

func fieldErrorToCareError(fe validator.FieldError) *care.Error {
	field := lowerFirstFieldPath(fe.Namespace())
	return care.NewValidationError(field, describeTag(fe))
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "latitude":
		return "must be a valid latitude"
	case "longitude":
		return "must be a valid longitude"
	case "dive":
		return "contains an invalid element"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// lowerFirstFieldPath turns validator's "StructName.Field.Nested" namespace
// into a lowerCamel-leading field path matching the rest of the module's
// care.Error.Field convention (e.g. "clockInRequest.serviceAddress.state").
func lowerFirstFieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToLower(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}
