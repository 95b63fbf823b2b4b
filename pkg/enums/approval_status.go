package enums

import "fmt"

// ApprovalStatus tracks the inventory review workflow.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

var validApprovalStatuses = []ApprovalStatus{
	ApprovalStatusPending,
	ApprovalStatusApproved,
	ApprovalStatusRejected,
}

// String implements fmt.Stringer.
func (s ApprovalStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ApprovalStatus.
func (s ApprovalStatus) IsValid() bool {
	for _, candidate := range validApprovalStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseApprovalStatus converts raw input into an ApprovalStatus.
func ParseApprovalStatus(value string) (ApprovalStatus, error) {
	for _, candidate := range validApprovalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval status %q", value)
}
