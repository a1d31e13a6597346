package enums

import "fmt"

// PendingOrderStatus describes the lifecycle of a supplier order.
type PendingOrderStatus string

const (
	PendingOrderStatusInProgress PendingOrderStatus = "in_progress"
	PendingOrderStatusReceived   PendingOrderStatus = "received"
)

var validPendingOrderStatuses = []PendingOrderStatus{
	PendingOrderStatusInProgress,
	PendingOrderStatusReceived,
}

// IsValid reports whether the value matches the canonical pending order status enum.
func (p PendingOrderStatus) IsValid() bool {
	for _, candidate := range validPendingOrderStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePendingOrderStatus converts the raw string to PendingOrderStatus.
func ParsePendingOrderStatus(value string) (PendingOrderStatus, error) {
	for _, candidate := range validPendingOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pending order status %q", value)
}
