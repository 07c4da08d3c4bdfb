package enums

import "fmt"

// VideoStatus controls catalog visibility. Only published videos are listed
// and sold publicly.
type VideoStatus string

const (
	VideoStatusPublished  VideoStatus = "published"
	VideoStatusDraft      VideoStatus = "draft"
	VideoStatusProcessing VideoStatus = "processing"
)

var validVideoStatuses = []VideoStatus{
	VideoStatusPublished,
	VideoStatusDraft,
	VideoStatusProcessing,
}

// String returns the literal string for the status.
func (v VideoStatus) String() string {
	return string(v)
}

// IsValid reports whether the status is known.
func (v VideoStatus) IsValid() bool {
	for _, candidate := range validVideoStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVideoStatus converts raw input into a VideoStatus.
func ParseVideoStatus(value string) (VideoStatus, error) {
	for _, candidate := range validVideoStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid video status %q", value)
}
