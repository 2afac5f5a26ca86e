package enums

import "fmt"

// PaymentStatus tracks the lifecycle of an order's payment record.
type PaymentStatus string

const (
	PaymentStatusUninitiated PaymentStatus = "UNINITIATED"
	PaymentStatusInitiated   PaymentStatus = "INITIATED"
	PaymentStatusCompleted   PaymentStatus = "COMPLETED"
	PaymentStatusFailed      PaymentStatus = "FAILED"
	PaymentStatusCancelled   PaymentStatus = "CANCELLED"
	PaymentStatusRefunded    PaymentStatus = "REFUNDED"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusUninitiated,
	PaymentStatusInitiated,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusCancelled,
	PaymentStatusRefunded,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsFinalized reports whether the payment has settled. Once COMPLETED the
// only reachable status is REFUNDED.
func (p PaymentStatus) IsFinalized() bool {
	return p == PaymentStatusCompleted || p == PaymentStatusRefunded
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
