package models

// Severity tells the presentation layer how to surface an outcome
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Reason identifies why an operation was rejected
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonStockExceeded   Reason = "StockExceeded"
	ReasonEmptyCart       Reason = "EmptyCart"
	ReasonDuplicateCoupon Reason = "DuplicateCouponCode"
	ReasonCouponNotFound  Reason = "CouponNotFound"
	ReasonMalformedState  Reason = "MalformedPersistedState"
)

// Outcome is the result of a cart mutation. Cart is always populated:
// on rejection it is an unchanged copy of the input.
type Outcome struct {
	Cart     Cart     `json:"cart"`
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Reason   Reason   `json:"reason,omitempty"`
}

// Succeeded builds a successful outcome
func Succeeded(cart Cart, message string) Outcome {
	return Outcome{Cart: cart, Success: true, Message: message, Severity: SeveritySuccess}
}

// Failed builds a rejected outcome
func Failed(cart Cart, reason Reason, message string) Outcome {
	return Outcome{Cart: cart, Success: false, Message: message, Severity: SeverityError, Reason: reason}
}
