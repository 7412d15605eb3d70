package stock

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusDurable Status = "durable"
	StatusEmpty   Status = "empty"
	StatusLow     Status = "low"
	StatusReorder Status = "reorder"
	StatusSafe    Status = "safe"
)

var statuses = []Status{StatusDurable, StatusEmpty, StatusLow, StatusReorder, StatusSafe}

func NewStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range statuses {
		if s == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid stock status: %s", value)
}

func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

func (s Status) String() string {
	return string(s)
}

func (s Status) Label() string {
	switch s {
	case StatusEmpty:
		return "Empty"
	case StatusLow:
		return "Low"
	case StatusReorder:
		return "Reorder"
	case StatusSafe:
		return "Safe"
	case StatusDurable:
		return "Durable"
	default:
		return string(s)
	}
}

// Kind is the item classification. Durable goods are tracked without
// depletion alerts, consumables are classified against their minimum stock.
type Kind interface {
	Name() string
	Classify(ending, minimum int) Status
	TracksDepletion() bool
}

type durable struct{}

type consumable struct{}

var (
	Durable    Kind = durable{}
	Consumable Kind = consumable{}
)

func (durable) Name() string { return "durable" }

func (durable) Classify(int, int) Status { return StatusDurable }

func (durable) TracksDepletion() bool { return false }

func (consumable) Name() string { return "consumable" }

func (consumable) Classify(ending, minimum int) Status {
	switch {
	case ending == 0:
		return StatusEmpty
	case ending <= minimum:
		return StatusLow
	case ending <= 2*minimum:
		return StatusReorder
	default:
		return StatusSafe
	}
}

func (consumable) TracksDepletion() bool { return true }

func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case Durable.Name():
		return Durable, nil
	case Consumable.Name():
		return Consumable, nil
	default:
		return nil, fmt.Errorf("invalid item kind: %s", value)
	}
}

func Kinds() []Kind {
	return []Kind{Consumable, Durable}
}
