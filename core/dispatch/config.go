package dispatch

import "fmt"

// DeadlinePolicy selects what a unit's travel cost is compared against.
type DeadlinePolicy string

const (
	// PolicyAbsolute skips a unit when its cost exceeds the emergency deadline
	// taken as an absolute time value.
	PolicyAbsolute DeadlinePolicy = "absolute"
	// PolicyRemaining skips a unit when its cost exceeds the slack left at the
	// dispatch time, so every selected unit arrives by the deadline.
	PolicyRemaining DeadlinePolicy = "remaining"
)

// ParseDeadlinePolicy validates a policy name; empty selects PolicyAbsolute.
func ParseDeadlinePolicy(s string) (DeadlinePolicy, error) {
	switch DeadlinePolicy(s) {
	case "", PolicyAbsolute:
		return PolicyAbsolute, nil
	case PolicyRemaining:
		return PolicyRemaining, nil
	default:
		return "", fmt.Errorf("unknown deadline policy %q", s)
	}
}
