package checkout

import (
	"regexp"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	phonePattern      = regexp.MustCompile(`^\d{9,11}$`)
	cardNumberPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{4}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	cvvPattern        = regexp.MustCompile(`^\d{3,4}$`)
)

// newValidator registers the checkout form rules. now decides whether a card
// expiry is in the past.
func newValidator(now func() time.Time) *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("phone", matches(phonePattern))
	_ = v.RegisterValidation("card_number", matches(cardNumberPattern))
	_ = v.RegisterValidation("cvv", matches(cvvPattern))
	_ = v.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
		return validExpiry(fl.Field().String(), now())
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		payment := sl.Current().Interface().(models.PaymentInfo)
		if payment.Method == models.PaymentMethodCreditCard && payment.CreditCard == nil {
			sl.ReportError(payment.CreditCard, "CreditCard", "CreditCard", "required", "")
		}
	}, models.PaymentInfo{})

	return v
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// validExpiry accepts MM/YY up to and including the current month.
func validExpiry(value string, now time.Time) bool {
	m := expiryPattern.FindStringSubmatch(value)
	if m == nil {
		return false
	}

	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])

	currentYear := now.Year() % 100
	currentMonth := int(now.Month())

	if year < currentYear || (year == currentYear && month < currentMonth) {
		return false
	}

	return true
}
