// Package order validates the delivery form and submits orders.
package order

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/utafrali/storefront/pkg/validator"
	"github.com/utafrali/storefront/services/storefront/internal/domain"
)

// Form is the checkout form as the shopper fills it in.
type Form struct {
	Email   string `json:"email" validate:"notblank,shopemail"`
	Name    string `json:"name" validate:"notblank"`
	Tel     string `json:"tel" validate:"notblank,twphone"`
	Address string `json:"address" validate:"notblank"`
	Message string `json:"message"`
}

// Reset clears every field.
func (f *Form) Reset() {
	*f = Form{}
}

// Request builds the upstream order body. Values are trimmed.
func (f Form) Request() domain.OrderRequest {
	return domain.OrderRequest{
		User: domain.OrderUser{
			Name:    strings.TrimSpace(f.Name),
			Email:   strings.TrimSpace(f.Email),
			Tel:     strings.TrimSpace(f.Tel),
			Address: strings.TrimSpace(f.Address),
		},
		Message: f.Message,
	}
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// Landline 0[2-8] plus seven digits, or mobile 09 plus eight digits.
	telPattern = regexp.MustCompile(`^(0[2-8]\d{7}|09\d{8})$`)
)

var formValidator = newFormValidator()

func newFormValidator() *validator.Validator {
	v := validator.New()
	if err := v.RegisterPattern("shopemail", emailPattern); err != nil {
		panic(err)
	}
	if err := v.RegisterPattern("twphone", telPattern); err != nil {
		panic(err)
	}
	v.RegisterMessage("email.notblank", "Email 欄位必填")
	v.RegisterMessage("email.shopemail", "Email 格式錯誤")
	v.RegisterMessage("name.notblank", "收件人姓名為必填")
	v.RegisterMessage("tel.notblank", "收件人電話為必填")
	v.RegisterMessage("tel.twphone", "電話格式錯誤")
	v.RegisterMessage("address.notblank", "收件人地址為必填")
	return v
}

// FieldErrors maps a form field (by its JSON name) to its message.
type FieldErrors map[string]string

// Fields returns the failing field names in sorted order.
func (fe FieldErrors) Fields() []string {
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks f and returns one message per failing field, or nil when
// the form is valid. It performs no I/O.
func Validate(f Form) FieldErrors {
	err := formValidator.Struct(f)
	if err == nil {
		return nil
	}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return FieldErrors(valErr.Fields())
	}
	// Only reachable if the struct tags themselves are broken.
	panic(err)
}
