package checkout

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

var (
	// Accepts +971/971/00971/0 prefixes followed by a UAE mobile operator
	// code and 7 digits.
	uaePhonePattern = regexp.MustCompile(`^(?:\+971|971|00971|0)?(?:50|51|52|54|55|56|58)\d{7}$`)

	// 784-YYYY-NNNNNNN-C, the printed Emirates ID format.
	emiratesIDPattern = regexp.MustCompile(`^784-\d{4}-\d{7}-\d{1}$`)
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	Validate.RegisterValidation("uaephone", func(fl validator.FieldLevel) bool {
		return uaePhonePattern.MatchString(fl.Field().String())
	})

	Validate.RegisterValidation("emiratesid", func(fl validator.FieldLevel) bool {
		return emiratesIDPattern.MatchString(fl.Field().String())
	})
}

// Emirates are the selectable values for the address "emirate" field.
var Emirates = []string{
	"Abu Dhabi",
	"Dubai",
	"Sharjah",
	"Ajman",
	"Umm Al Quwain",
	"Ras Al Khaimah",
	"Fujairah",
}

// Cities is the delivery city list shown by the checkout form.
var Cities = []string{
	"Abu Dhabi",
	"Dubai",
	"Sharjah",
	"Al Ain",
	"Ajman",
	"Ras Al Khaimah",
	"Fujairah",
	"Umm Al Quwain",
	"Khor Fakkan",
	"Dibba Al-Fujairah",
}

// fieldMessages turns validator output into a field→message map the
// checkout form can render inline.
var fieldMessages = map[string]string{
	"CustomerInfo.Name":       "Please enter your full name",
	"CustomerInfo.Email":      "Please enter a valid email address",
	"CustomerInfo.Phone":      "Please enter a valid UAE phone number",
	"CustomerInfo.EmiratesID": "Please enter a valid Emirates ID (784-XXXX-XXXXXXX-X)",
	"BillingAddress.Street":   "Please enter your street address",
	"BillingAddress.City":     "Please select a city",
	"BillingAddress.Emirate":  "Please select an emirate",
	"BillingAddress.Country":  "Delivery is available within the UAE only",
}

// ValidateCheckoutInput checks the customer block and the billing address
// together. The returned map is empty when the input is valid.
func ValidateCheckoutInput(customer CustomerInfo, billing BillingAddress) map[string]string {
	problems := map[string]string{}
	collect := func(err error) {
		if err == nil {
			return
		}
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			problems["form"] = "Invalid checkout information"
			return
		}
		for _, fe := range errs {
			key := fe.StructNamespace()
			msg, ok := fieldMessages[key]
			if !ok {
				msg = "Invalid value"
			}
			problems[fe.Field()] = msg
		}
	}

	collect(Validate.Struct(customer))
	collect(Validate.Struct(billing))
	return problems
}
