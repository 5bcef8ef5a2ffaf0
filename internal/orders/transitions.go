package orders

import (
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront-orders/pkg/enums"
)

// ErrTransitionNotAllowed is matched by every *TransitionError via errors.Is.
var ErrTransitionNotAllowed = errors.New("order status transition not allowed")

// allowedTransitions is the forward-only pipeline. Cancellation is only
// reachable from pending.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusPreparing},
	enums.OrderStatusPreparing: {enums.OrderStatusReady},
	enums.OrderStatusReady:     {enums.OrderStatusComplete},
}

// staffTargets are the statuses staff may request directly.
var staffTargets = []enums.OrderStatus{
	enums.OrderStatusConfirmed,
	enums.OrderStatusPreparing,
	enums.OrderStatusReady,
	enums.OrderStatusComplete,
}

// TransitionError reports a (current, requested) pair missing from the table.
type TransitionError struct {
	From enums.OrderStatus
	To   enums.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order status cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrTransitionNotAllowed
}

// CanTransition reports whether the table allows moving from -> to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from status in one step.
func NextStatuses(status enums.OrderStatus) []enums.OrderStatus {
	next := allowedTransitions[status]
	out := make([]enums.OrderStatus, len(next))
	copy(out, next)
	return out
}

func checkTransition(from, to enums.OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return &TransitionError{From: from, To: to}
}

func isStaffTarget(status enums.OrderStatus) bool {
	for _, candidate := range staffTargets {
		if candidate == status {
			return true
		}
	}
	return false
}
