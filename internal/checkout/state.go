package checkout

import "fmt"

// State enumerates the checkout flow positions. The flow is linear with
// explicit allowed transitions; anything else is rejected rather than
// silently renumbered.
type State string

const (
	// StateCollectingDetails gathers the customer's name, phone, and email.
	StateCollectingDetails State = "collecting_details"
	// StateCollectingDelivery gathers address, zone, notes, and promo code.
	StateCollectingDelivery State = "collecting_delivery"
	// StateSelectingPayment is the payment method choice and order summary.
	StateSelectingPayment State = "selecting_payment"
	// StateSubmitting has an order-creation or payment sequence in flight.
	StateSubmitting State = "submitting"
	// StateCompleted ends the session: the order exists and the cart is
	// cleared. A new session starts through Cancel.
	StateCompleted State = "completed"
	// StateFailed holds a surfaced error; the draft is preserved for retry.
	StateFailed State = "failed"
)

var allowedTransitions = map[State][]State{
	StateCollectingDetails:  {StateCollectingDelivery},
	StateCollectingDelivery: {StateCollectingDetails, StateSelectingPayment},
	StateSelectingPayment:   {StateCollectingDelivery, StateSubmitting},
	StateSubmitting:         {StateCompleted, StateFailed},
	StateFailed:             {StateSelectingPayment, StateSubmitting},
	StateCompleted:          {},
}

// TransitionError reports an attempt to move the flow along a disallowed edge.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("checkout: invalid transition %s -> %s", e.From, e.To)
}

func canTransition(from, to State) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentMethod is the fixed enumeration of accepted payment methods.
type PaymentMethod string

const (
	// PaymentCash is cash on delivery.
	PaymentCash PaymentMethod = "cash"
	// PaymentEFT is an electronic funds transfer against the banking details.
	PaymentEFT PaymentMethod = "eft"
	// PaymentYoco is an online card payment through the Yoco widget.
	PaymentYoco PaymentMethod = "yoco"
)

// Valid reports whether the method is one of the accepted values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentEFT, PaymentYoco:
		return true
	}
	return false
}

// Draft is the customer's checkout input. It exists only for the duration of
// the flow and is discarded on cancel or completion.
type Draft struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	DeliveryAddress string
	DeliveryNotes   string
	PaymentMethod   PaymentMethod
}

// GateError is a local validation failure: it blocks progression and carries
// the message shown to the customer. Fully recoverable by editing the draft.
type GateError struct {
	Field   string
	Message string
}

func (e *GateError) Error() string { return e.Message }
