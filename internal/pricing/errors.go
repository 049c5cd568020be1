package pricing

import (
	"fmt"
	"strings"

	"github.com/noah-isme/backend-rental/internal/money"
)

// MinimumCommissionMessage is the message carried by CommissionExceedsTotalError.
// External systems match on this exact text.
const MinimumCommissionMessage = "Minimum commission amount is greater than the amount of money paid in"

// OrderDataError reports order data that cannot be priced.
type OrderDataError struct {
	// Missing lists the absent quantity fields among quantity, units and seats.
	Missing []string
	Reason  string
}

func (e *OrderDataError) Error() string {
	if len(e.Missing) > 0 {
		return "order data is missing quantity information: " + strings.Join(e.Missing, ", ")
	}
	return "invalid order data: " + e.Reason
}

func invalidOrder(format string, args ...any) *OrderDataError {
	return &OrderDataError{Reason: fmt.Sprintf(format, args...)}
}

// CommissionExceedsTotalError is returned when a configured minimum commission
// is larger than the commission computed for the order.
type CommissionExceedsTotalError struct {
	Role     Party
	Computed money.Money
	Minimum  money.Money
}

func (e *CommissionExceedsTotalError) Error() string {
	return MinimumCommissionMessage
}

// CouponError reports a coupon code that could not be applied.
type CouponError struct {
	Code string
	Err  error
}

func (e *CouponError) Error() string {
	return fmt.Sprintf("coupon %q: %v", e.Code, e.Err)
}

func (e *CouponError) Unwrap() error { return e.Err }
