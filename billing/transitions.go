package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/qmuntal/stateless"
)

const (
	TriggerCancel = "cancel"
	TriggerRefund = "refund"
	TriggerReopen = "reopen"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// TriggerFor maps a requested manual status to the trigger that reaches it.
// PENDING is the reopen target; the engine derives the real status afterwards.
func TriggerFor(target PaymentStatus) (string, error) {
	switch target {
	case StatusCancelled:
		return TriggerCancel, nil
	case StatusRefunded:
		return TriggerRefund, nil
	case StatusPending:
		return TriggerReopen, nil
	}
	return "", fmt.Errorf("%w: %s cannot be set manually", ErrInvalidTransition, target)
}

func newTransitionMachine(current PaymentStatus) *stateless.StateMachine {
	machine := stateless.NewStateMachine(current)

	for _, open := range []PaymentStatus{StatusPending, StatusOverdue} {
		machine.Configure(open).
			Permit(TriggerCancel, StatusCancelled)
	}

	for _, partial := range []PaymentStatus{StatusPartiallyPaid, StatusPartiallyPaidOverdue} {
		machine.Configure(partial).
			Permit(TriggerCancel, StatusCancelled).
			Permit(TriggerRefund, StatusRefunded)
	}

	machine.Configure(StatusPaid).
		Permit(TriggerRefund, StatusRefunded)

	machine.Configure(StatusCancelled).
		Permit(TriggerReopen, StatusPending)

	machine.Configure(StatusRefunded)

	return machine
}

// ApplyManual fires trigger from current and returns the resulting status.
func ApplyManual(ctx context.Context, current PaymentStatus, trigger string) (PaymentStatus, error) {
	machine := newTransitionMachine(current)

	if err := machine.FireCtx(ctx, trigger); err != nil {
		return current, fmt.Errorf("%w: %s from %s: %v", ErrInvalidTransition, trigger, current, err)
	}

	state, err := machine.State(ctx)
	if err != nil {
		return current, err
	}

	return state.(PaymentStatus), nil
}

// CanApplyManual reports whether trigger is permitted from current.
func CanApplyManual(current PaymentStatus, trigger string) bool {
	ok, err := newTransitionMachine(current).CanFire(trigger)
	return err == nil && ok
}
