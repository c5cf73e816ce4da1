package enums

import "fmt"

// PurchaseStatus describes the lifecycle of a purchase record.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusPaid      PurchaseStatus = "paid"
	PurchaseStatusShipped   PurchaseStatus = "shipped"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

var validPurchaseStatuses = []PurchaseStatus{
	PurchaseStatusPending,
	PurchaseStatusPaid,
	PurchaseStatusShipped,
	PurchaseStatusCompleted,
	PurchaseStatusCancelled,
}

// IsValid reports whether the value matches the canonical purchase status enum.
func (p PurchaseStatus) IsValid() bool {
	for _, candidate := range validPurchaseStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePurchaseStatus converts the raw string to PurchaseStatus.
func ParsePurchaseStatus(value string) (PurchaseStatus, error) {
	for _, candidate := range validPurchaseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase status %q", value)
}
