package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"retreat/shared/failure"

	val "github.com/go-playground/validator/v10"
)

var validate *val.Validate

func init() {
	validate = val.New(val.WithRequiredStructEnabled())

	// report json names so details line up with the request body
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		if name == "" {
			return field.Name
		}

		return name
	})

	err := validate.RegisterValidation("notblank", func(fl val.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	if err != nil {
		panic(err)
	}
}

// Validate decodes a JSON body into data and validates it.
// Unknown fields are ignored; a body that is not JSON is a bad request.
// https://github.com/go-playground/validator
func Validate[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)

	if err := decoder.Decode(data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

// ValidateStruct fails with a 400 whose message names the first failing field and whose
// details map every failing field to its message.
func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		msg, details := describe(err)
		if details == nil {
			return failure.BadRequestFromString(msg) //nolint:wrapcheck
		}

		return failure.BadRequestWithDetails(msg, details) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	if err := validate.Var(field, tag); err != nil {
		msg, _ := describe(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}

// Message formats err the way ValidateStruct reports the first failure.
func Message(err error) string {
	msg, _ := describe(err)

	return msg
}
