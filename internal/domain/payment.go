package domain

type PaymentMethod string

const (
	PaymentPaystack    PaymentMethod = "paystack"
	PaymentFlutterwave PaymentMethod = "flutterwave"
)

const Currency = "NGN"

func (m PaymentMethod) Valid() bool {
	return m == PaymentPaystack || m == PaymentFlutterwave
}

// InitFunction names the backend function that initializes payment for the
// method.
func (m PaymentMethod) InitFunction() string {
	if m == PaymentFlutterwave {
		return "initialize-flutterwave-payment"
	}
	return "initialize-payment"
}
