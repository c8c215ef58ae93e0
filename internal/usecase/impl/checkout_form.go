package impl

import (
	"reflect"
	"strings"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// legacyCountryCodes maps numeric country codes still found in old saved addresses.
// ISO 3166-1 numeric codes are accepted next to the legacy storefront indexes.
var legacyCountryCodes = map[string]string{
	"102": "IN",
	"356": "IN",
	"840": "US",
	"826": "GB",
	"124": "CA",
	"036": "AU",
	"702": "SG",
	"784": "AE",
}

var addressFieldLabels = map[string]string{
	"first_name": "First name",
	"last_name":  "Last name",
	"address_1":  "Street address",
	"city":       "Town / City",
	"state":      "State",
	"postcode":   "Postcode / ZIP",
	"country":    "Country",
}

// NewFormValidator returns a validator reporting fields by their JSON names.
// Address fields use notblank, so whitespace-only values count as missing.
func NewFormValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("notblank", validators.NotBlank)
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return validate
}

// normalizeCountry returns an upper-case ISO alpha-2 code. Numeric codes go through
// the legacy table; anything unrecognised becomes fallback.
func normalizeCountry(raw, fallback string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return fallback
	}

	if isDigits(code) {
		if mapped, ok := legacyCountryCodes[code]; ok {
			return mapped
		}

		return fallback
	}

	if len(code) == 2 && isLetters(code) {
		return code
	}

	return fallback
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return s != ""
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}

	return s != ""
}

// validateForm checks the form locally. The shipping address is only checked when
// it differs from billing.
func validateForm(validate *validator.Validate, form *entity.CheckoutForm) error {
	var (
		fields  []string
		message string
	)
	report := func(field, msg string) {
		fields = append(fields, field)
		if message == "" {
			message = msg
		}
	}

	checkAddress(validate, "billing", form.Billing, report)
	if err := validate.Var(form.Billing.Email, "required,email"); err != nil {
		report("billing.email", "A valid email address is required")
	}
	if form.ShipToDifferent {
		checkAddress(validate, "shipping", form.Shipping, report)
	}
	if form.PaymentMethod.Flow() == entity.PaymentFlowUnknown {
		report("payment_method", "Please choose a payment method")
	}

	if len(fields) == 0 {
		return nil
	}

	return domainerrors.ErrValidation.WithMessage(message).WithDetails(strings.Join(fields, ","))
}

func checkAddress(validate *validator.Validate, prefix string, address entity.Address, report func(field, msg string)) {
	err := validate.Struct(address)
	if err == nil {
		return
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		report(prefix, "Please check the "+prefix+" address")

		return
	}

	for _, fieldErr := range validationErrors {
		label, ok := addressFieldLabels[fieldErr.Field()]
		if !ok {
			label = fieldErr.Field()
		}
		report(prefix+"."+fieldErr.Field(), label+" is required")
	}
}
