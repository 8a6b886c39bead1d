// Package validator wraps go-playground/validator with JSON field names, a
// "notblank" rule, and per-rule messages that forms can localise.
package validator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MessageFunc renders a failed rule as a user-facing message.
type MessageFunc func(fe validator.FieldError) string

func fixed(msg string) MessageFunc {
	return func(validator.FieldError) string { return msg }
}

func withParam(format string) MessageFunc {
	return func(fe validator.FieldError) string { return fmt.Sprintf(format, fe.Param()) }
}

// defaultMessages covers the rules used by request and form structs.
var defaultMessages = map[string]MessageFunc{
	"required": fixed("is required"),
	"notblank": fixed("is required"),
	"email":    fixed("must be a valid email address"),
	"uuid":     fixed("must be a valid UUID"),
	"url":      fixed("must be a valid URL"),
	"min":      withParam("must be at least %s characters"),
	"max":      withParam("must be at most %s characters"),
	"gte":      withParam("must be greater than or equal to %s"),
	"lte":      withParam("must be less than or equal to %s"),
	"oneof":    withParam("must be one of: %s"),
}

func defaultMessage(fe validator.FieldError) string {
	if fn, ok := defaultMessages[fe.Tag()]; ok {
		return fn(fe)
	}
	return fmt.Sprintf("failed on '%s' validation", fe.Tag())
}

// Validator checks structs by their validate tags. Overridden messages are
// looked up as "field.tag" first, then "tag".
type Validator struct {
	engine   *validator.Validate
	messages map[string]MessageFunc
}

// New returns a Validator with "notblank" registered: strings must contain a
// non-space character, other kinds must be non-zero.
func New() *Validator {
	engine := validator.New(validator.WithRequiredStructEnabled())
	engine.RegisterTagNameFunc(jsonName)
	_ = engine.RegisterValidation("notblank", notBlank)
	return &Validator{engine: engine, messages: make(map[string]MessageFunc)}
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func notBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() == reflect.String {
		return strings.TrimSpace(f.String()) != ""
	}
	return !f.IsZero()
}

// RegisterPattern adds rule tag, passing when the trimmed string matches re.
// Empty strings pass so the rule composes with "notblank".
func (v *Validator) RegisterPattern(tag string, re *regexp.Regexp) error {
	err := v.engine.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return s == "" || re.MatchString(s)
	})
	if err != nil {
		return fmt.Errorf("register %s rule: %w", tag, err)
	}
	return nil
}

// RegisterMessage sets the message for key, a bare tag ("email") or a
// field-qualified one ("tel.notblank").
func (v *Validator) RegisterMessage(key, message string) {
	v.messages[key] = fixed(message)
}

// Struct validates s. Rule failures come back as *ValidationError.
func (v *Validator) Struct(s any) error {
	err := v.engine.Struct(s)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		return &ValidationError{Errors: verrs, render: v.message}
	}
	return err
}

func (v *Validator) message(fe validator.FieldError) string {
	for _, key := range []string{fe.Field() + "." + fe.Tag(), fe.Tag()} {
		if fn, ok := v.messages[key]; ok {
			return fn(fe)
		}
	}
	return defaultMessage(fe)
}

var std = New()

// Validate checks s with the default Validator.
func Validate(s any) error {
	return std.Struct(s)
}

// DecodeAndValidate decodes the JSON request body into dst and validates it.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}

// ValidationError lists the rules a struct failed.
type ValidationError struct {
	Errors validator.ValidationErrors
	render MessageFunc
}

func (e *ValidationError) msg(fe validator.FieldError) string {
	if e.render == nil {
		return defaultMessage(fe)
	}
	return e.render(fe)
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fmt.Sprintf("field '%s' %s", fe.Field(), e.msg(fe))
	}
	return strings.Join(parts, "; ")
}

// Fields maps each failing field to the message of its first failed rule.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = e.msg(fe)
		}
	}
	return fields
}
