package validator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addItem struct {
	ProductID string `json:"product_id" validate:"notblank"`
	Qty       int    `json:"qty" validate:"gte=1,lte=10"`
}

type shipping struct {
	Name    string `json:"name" validate:"required,min=2,max=20"`
	Email   string `json:"email" validate:"required,email"`
	Method  string `json:"method" validate:"oneof=home pickup"`
	OrderID string `json:"order_id" validate:"omitempty,uuid"`
	Site    string `json:"site" validate:"omitempty,url"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_DefaultMessages(t *testing.T) {
	valid := shipping{Name: "Mei", Email: "mei@example.com", Method: "home"}
	require.NoError(t, Validate(valid))

	tests := []struct {
		name  string
		edit  func(s *shipping)
		field string
		want  string
	}{
		{"required", func(s *shipping) { s.Email = "" }, "email", "is required"},
		{"email", func(s *shipping) { s.Email = "mei@" }, "email", "must be a valid email address"},
		{"min", func(s *shipping) { s.Name = "M" }, "name", "must be at least 2 characters"},
		{"max", func(s *shipping) { s.Name = strings.Repeat("x", 21) }, "name", "must be at most 20 characters"},
		{"oneof", func(s *shipping) { s.Method = "drone" }, "method", "must be one of: home pickup"},
		{"uuid", func(s *shipping) { s.OrderID = "ord-1" }, "order_id", "must be a valid UUID"},
		{"url", func(s *shipping) { s.Site = "not a url" }, "site", "must be a valid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.edit(&s)
			assert.Equal(t, map[string]string{tt.field: tt.want}, fieldsOf(t, Validate(s)))
		})
	}
}

func TestValidate_RangeAndNotBlank(t *testing.T) {
	fields := fieldsOf(t, Validate(addItem{ProductID: " \t", Qty: 11}))
	assert.Equal(t, "is required", fields["product_id"])
	assert.Equal(t, "must be less than or equal to 10", fields["qty"])

	fields = fieldsOf(t, Validate(addItem{ProductID: "p1", Qty: 0}))
	assert.Equal(t, map[string]string{"qty": "must be greater than or equal to 1"}, fields)
}

func TestNotBlank_NonString(t *testing.T) {
	type pick struct {
		Qty int `json:"qty" validate:"notblank"`
	}
	assert.Error(t, Validate(pick{}))
	assert.NoError(t, Validate(pick{Qty: 2}))
}

func TestValidationError_ErrorAndFirstRuleOnly(t *testing.T) {
	err := Validate(shipping{Name: "", Email: "", Method: "home"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'name' is required")
	assert.Contains(t, err.Error(), "field 'email' is required")

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Len(t, valErr.Fields(), 2)
}

func TestValidator_UnknownRuleMessage(t *testing.T) {
	type line struct {
		SKU string `json:"sku" validate:"sku"`
	}
	v := New()
	require.NoError(t, v.RegisterPattern("sku", regexp.MustCompile(`^[A-Z]{3}-\d+$`)))
	assert.Equal(t, map[string]string{"sku": "failed on 'sku' validation"}, fieldsOf(t, v.Struct(line{SKU: "abc"})))
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantValid bool
	}{
		{"valid", `{"product_id":"p1","qty":2}`, false, false},
		{"malformed", `{"product_id":`, true, false},
		{"fails rules", `{"product_id":"","qty":2}`, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(tt.body))
			var dst addItem
			err := DecodeAndValidate(req, &dst)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, addItem{ProductID: "p1", Qty: 2}, dst)
				return
			}
			require.Error(t, err)
			var valErr *ValidationError
			assert.Equal(t, tt.wantValid, errors.As(err, &valErr))
		})
	}
}

type orderForm struct {
	Email string `json:"email" validate:"notblank,email"`
	Tel   string `json:"tel" validate:"notblank,tel"`
	Note  string `json:"-" validate:"max=3"`
}

func newOrderFormValidator(t *testing.T) *Validator {
	t.Helper()
	v := New()
	require.NoError(t, v.RegisterPattern("tel", regexp.MustCompile(`^09\d{8}$`)))
	v.RegisterMessage("notblank", "必填")
	v.RegisterMessage("tel.tel", "電話格式錯誤")
	return v
}

func TestValidator_Overrides(t *testing.T) {
	v := newOrderFormValidator(t)

	tests := []struct {
		name string
		form orderForm
		want map[string]string
	}{
		{"valid", orderForm{Email: "a@b.co", Tel: "0912345678"}, nil},
		{"pattern input is trimmed", orderForm{Email: "a@b.co", Tel: " 0912345678 "}, nil},
		{"blank uses bare tag override", orderForm{Email: "  ", Tel: "\t"}, map[string]string{"email": "必填", "tel": "必填"}},
		{"qualified override wins", orderForm{Email: "a@b.co", Tel: "12345"}, map[string]string{"tel": "電話格式錯誤"}},
		{"no override keeps default", orderForm{Email: "nope", Tel: "0912345678"}, map[string]string{"email": "must be a valid email address"}},
		{"dash json tag uses struct name", orderForm{Email: "a@b.co", Tel: "0912345678", Note: "long"}, map[string]string{"Note": "must be at most 3 characters"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.form)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, fieldsOf(t, err))
		})
	}
}

func TestValidator_OverridesAreLocal(t *testing.T) {
	newOrderFormValidator(t)
	assert.Equal(t, map[string]string{"product_id": "is required"}, fieldsOf(t, Validate(addItem{Qty: 1})))
}

func TestRegisterPattern_InvalidTag(t *testing.T) {
	assert.Error(t, New().RegisterPattern("", regexp.MustCompile(`x`)))
}
