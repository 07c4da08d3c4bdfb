package enums

import "fmt"

// ProofStatus is the review state of a manual payment proof.
type ProofStatus string

const (
	ProofStatusPending  ProofStatus = "pending"
	ProofStatusApproved ProofStatus = "approved"
	ProofStatusRejected ProofStatus = "rejected"
)

var validProofStatuses = []ProofStatus{
	ProofStatusPending,
	ProofStatusApproved,
	ProofStatusRejected,
}

func (p ProofStatus) String() string {
	return string(p)
}

func (p ProofStatus) IsValid() bool {
	for _, candidate := range validProofStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProofStatus converts raw input into a ProofStatus.
func ParseProofStatus(value string) (ProofStatus, error) {
	for _, candidate := range validProofStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid proof status %q", value)
}
