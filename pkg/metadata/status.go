package metadata

import (
	"fmt"
	"strings"
)

// DamageStatus is the lifecycle state of a damage report. Any state may be
// set from any other.
type DamageStatus string

const (
	DamageDraft     DamageStatus = "draft"
	DamageSubmitted DamageStatus = "submitted"
	DamageResolved  DamageStatus = "resolved"
)

func NewDamageStatus(value string) (DamageStatus, error) {
	status := DamageStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid damage report status: %s", value)
	}
	return status, nil
}

func (s DamageStatus) IsValid() bool {
	switch s {
	case DamageDraft, DamageSubmitted, DamageResolved:
		return true
	default:
		return false
	}
}

func (s DamageStatus) Label() string {
	switch s {
	case DamageDraft:
		return "Draft"
	case DamageSubmitted:
		return "Submitted"
	case DamageResolved:
		return "Resolved"
	default:
		return string(s)
	}
}

func (s DamageStatus) String() string {
	return string(s)
}

func DamageStatuses() []DamageStatus {
	return []DamageStatus{DamageDraft, DamageSubmitted, DamageResolved}
}
