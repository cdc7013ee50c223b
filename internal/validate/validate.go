// Package validate turns ozzo-validation results into apperr validation
// failures and holds the rules shared by several services.
package validate

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/coworkdir/admin-api/internal/apperr"
)

// Check converts the result of validation.Errors{...}.Filter() or
// validation.ValidateStruct into an *apperr.Error, or returns nil.  Field
// messages are flattened to dotted keys ("contact.email") and sorted.
func Check(err error) error {
	if err == nil {
		return nil
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return apperr.Unexpected(err)
	}
	var ve validation.Errors
	if !errors.As(err, &ve) {
		return apperr.Validation(err.Error())
	}

	var fields []apperr.FieldError
	flatten("", ve, &fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	if len(fields) == 0 {
		return nil
	}
	return apperr.Validation("Validation failed", fields...)
}

func flatten(prefix string, ve validation.Errors, out *[]apperr.FieldError) {
	for k, v := range ve {
		if v == nil {
			continue
		}
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		var nested validation.Errors
		if errors.As(v, &nested) {
			flatten(key, nested, out)
			continue
		}
		*out = append(*out, apperr.FieldError{Field: key, Message: v.Error()})
	}
}

const passwordSpecials = "@$!%*?&"

const passwordPolicyMessage = "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character"

// StrongPassword requires at least 8 characters with an upper-case letter,
// a lower-case letter, a digit and one of @$!%*?&.
var StrongPassword = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if len(s) < 8 {
		return errors.New("Password must be at least 8 characters long")
	}
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return errors.New(passwordPolicyMessage)
	}
	return nil
})

// Positive accepts a nil *float64 or one greater than zero.
var Positive = validation.By(func(value interface{}) error {
	if p, ok := value.(*float64); ok && p != nil && *p <= 0 {
		return errors.New("must be greater than 0")
	}
	return nil
})

// Phone requires at least 10 characters.
var Phone = validation.Length(10, 0).Error("Phone number must be at least 10 digits")

// OneOf accepts an empty string or one of values.
func OneOf(values ...string) validation.Rule {
	allowed := make([]interface{}, len(values))
	for i, v := range values {
		allowed[i] = v
	}
	return validation.In(allowed...).Error("must be one of " + strings.Join(values, ", "))
}

// MinInt accepts a nil *int or one that is at least n.  ozzo's Min treats 0
// as empty and would let it through.
func MinInt(n int, msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		if p, ok := value.(*int); ok && p != nil && *p < n {
			return errors.New(msg)
		}
		return nil
	})
}
