package addon

// AddonStatus is the lifecycle state of a recurring add-on
type AddonStatus string

const (
	AddonStatusActive    AddonStatus = "active"
	AddonStatusPaused    AddonStatus = "paused"
	AddonStatusCancelled AddonStatus = "cancelled"
	AddonStatusExpired   AddonStatus = "expired"
)

// AllAddonStatuses lists every status in display order
var AllAddonStatuses = []AddonStatus{
	AddonStatusActive,
	AddonStatusPaused,
	AddonStatusCancelled,
	AddonStatusExpired,
}

// IsValid checks if the status is a valid AddonStatus
func (s AddonStatus) IsValid() bool {
	switch s {
	case AddonStatusActive, AddonStatusPaused, AddonStatusCancelled, AddonStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of AddonStatus
func (s AddonStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no transition leaves the status
func (s AddonStatus) IsTerminal() bool {
	return s == AddonStatusCancelled || s == AddonStatusExpired
}

// CanTransitionTo checks if the status can transition to the target status
func (s AddonStatus) CanTransitionTo(target AddonStatus) bool {
	switch s {
	case AddonStatusActive:
		return target == AddonStatusPaused || target == AddonStatusCancelled || target == AddonStatusExpired
	case AddonStatusPaused:
		return target == AddonStatusActive || target == AddonStatusCancelled
	case AddonStatusCancelled, AddonStatusExpired:
		return false // Terminal states
	}
	return false
}
