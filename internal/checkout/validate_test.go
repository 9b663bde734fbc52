package checkout

import "testing"

func TestUAEPhoneValidation(t *testing.T) {
	valid := []string{
		"+971501234567",
		"971551234567",
		"00971521234567",
		"0561234567",
		"581234567",
	}
	for _, phone := range valid {
		c := testCustomer()
		c.Phone = phone
		if problems := ValidateCheckoutInput(c, testBilling()); len(problems) != 0 {
			t.Fatalf("phone %q should be valid, got %v", phone, problems)
		}
	}

	invalid := []string{
		"+971401234567", // bad operator code
		"050123456",     // too short
		"05012345678",   // too long
		"12345",
		"",
	}
	for _, phone := range invalid {
		c := testCustomer()
		c.Phone = phone
		problems := ValidateCheckoutInput(c, testBilling())
		if problems["Phone"] == "" {
			t.Fatalf("phone %q should be rejected, got %v", phone, problems)
		}
	}
}

func TestEmiratesIDValidation(t *testing.T) {
	c := testCustomer()

	// Optional field: empty passes.
	if problems := ValidateCheckoutInput(c, testBilling()); len(problems) != 0 {
		t.Fatalf("empty emirates id should pass, got %v", problems)
	}

	c.EmiratesID = "784-1990-1234567-1"
	if problems := ValidateCheckoutInput(c, testBilling()); len(problems) != 0 {
		t.Fatalf("valid emirates id rejected: %v", problems)
	}

	c.EmiratesID = "784-1990-123456-1"
	if problems := ValidateCheckoutInput(c, testBilling()); problems["EmiratesID"] == "" {
		t.Fatalf("malformed emirates id should be rejected, got %v", problems)
	}
}

func TestBillingAddressValidation(t *testing.T) {
	b := testBilling()
	b.Country = "Oman"
	problems := ValidateCheckoutInput(testCustomer(), b)
	if problems["Country"] != "Delivery is available within the UAE only" {
		t.Fatalf("non-UAE country should be rejected, got %v", problems)
	}

	b = testBilling()
	b.Street = "x"
	if problems := ValidateCheckoutInput(testCustomer(), b); problems["Street"] == "" {
		t.Fatalf("short street should be rejected, got %v", problems)
	}
}

func TestValidationCollectsAllProblems(t *testing.T) {
	problems := ValidateCheckoutInput(CustomerInfo{}, BillingAddress{})
	for _, field := range []string{"Name", "Email", "Phone", "Street", "City", "Emirate", "Country"} {
		if problems[field] == "" {
			t.Fatalf("missing problem for %s: %v", field, problems)
		}
	}
}
