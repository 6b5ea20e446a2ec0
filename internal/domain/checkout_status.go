package domain

type CheckoutStatus string

const (
	CheckoutStatusDraft            CheckoutStatus = "draft"
	CheckoutStatusItemsConfirmed   CheckoutStatus = "items_confirmed"
	CheckoutStatusPaymentInitiated CheckoutStatus = "payment_initiated"
	// CheckoutStatusCompensating marks an attempt whose order is being
	// voided. Nothing moves it forward again.
	CheckoutStatusCompensating CheckoutStatus = "compensating"
	CheckoutStatusPaid         CheckoutStatus = "paid"
	CheckoutStatusFailed       CheckoutStatus = "failed"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusPaid || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusDraft:            {CheckoutStatusItemsConfirmed, CheckoutStatusCompensating, CheckoutStatusFailed},
	CheckoutStatusItemsConfirmed:   {CheckoutStatusPaymentInitiated, CheckoutStatusCompensating, CheckoutStatusFailed},
	CheckoutStatusPaymentInitiated: {CheckoutStatusPaid, CheckoutStatusCompensating, CheckoutStatusFailed},
	CheckoutStatusCompensating:     {CheckoutStatusFailed},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
