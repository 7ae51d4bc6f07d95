package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var (
	messages = map[string]string{
		"required":         "{field} is required",
		"required_if":      "{field} is required",
		"notblank":         "{field} is required",
		"gte":              "{field} must be greater than or equal to {param}",
		"lte":              "{field} must be less than or equal to {param}",
		"gt":               "{field} must be greater than {param}",
		"oneof":            "{field} must be one of {param}",
		"max":              "{field} must be at most {param}",
		"min":              "{field} must be at least {param}",
		"email":            "{field} must be a valid email address",
		"e164":             "{field} must be a valid phone number",
		"url":              "{field} must be a valid URL",
		"datetime":         "{field} must match {param}",
		"iso4217":          "{field} must be a valid currency code",
		"lowercase":        "{field} must be lowercase",
		"excluded_with":    "{field} must not be combined with {param}",
		"required_without": "{field} is required when {param} is missing",
	}
)

// describe returns the first failure's message plus a field->message map of every failure.
func describe(err error) (string, map[string]string) {
	var valErrors val.ValidationErrors

	if !errors.As(err, &valErrors) || len(valErrors) == 0 {
		return err.Error(), nil
	}

	details := make(map[string]string, len(valErrors))
	first := ""

	for _, valErr := range valErrors {
		field := fieldPath(valErr)

		msg := messages[valErr.Tag()]
		if msg == "" {
			msg = "{field} is invalid"
		}

		msg = strings.ReplaceAll(msg, "{field}", field)
		msg = strings.ReplaceAll(msg, "{param}", valErr.Param())

		if _, seen := details[field]; !seen {
			details[field] = msg
		}

		if first == "" {
			first = msg
		}
	}

	return first, details
}

// fieldPath drops the root struct name from the namespace: "Request.contact.email" -> "contact.email".
func fieldPath(valErr val.FieldError) string {
	namespace := valErr.Namespace()
	if _, rest, found := strings.Cut(namespace, "."); found {
		return rest
	}

	return valErr.Field()
}
