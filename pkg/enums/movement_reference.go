package enums

import "fmt"

// MovementReference names the kind of record that originated a stock movement.
type MovementReference string

const (
	MovementReferenceSale    MovementReference = "Sale"
	MovementReferenceOrder   MovementReference = "Order"
	MovementReferenceInitial MovementReference = "Initial"
	MovementReferenceManual  MovementReference = "Manual"
)

var validMovementReferences = []MovementReference{
	MovementReferenceSale,
	MovementReferenceOrder,
	MovementReferenceInitial,
	MovementReferenceManual,
}

// IsValid reports whether the value matches the canonical movement reference enum.
func (m MovementReference) IsValid() bool {
	for _, candidate := range validMovementReferences {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementReference converts the raw string to MovementReference.
func ParseMovementReference(value string) (MovementReference, error) {
	for _, candidate := range validMovementReferences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement reference %q", value)
}
