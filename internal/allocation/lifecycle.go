package allocation

import (
	"errors"
	"fmt"
	"strings"
)

// PlanStatus is the lifecycle state of a distribution plan.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "Draft"
	PlanApproved  PlanStatus = "Approved"
	PlanOngoing   PlanStatus = "Ongoing"
	PlanCompleted PlanStatus = "Completed"
	PlanCancelled PlanStatus = "Cancelled"
)

var (
	ErrInvalidTransition = errors.New("invalid plan status transition")
	ErrExecuteRequired   = errors.New("plans become Ongoing only by execution")
)

var planTransitions = map[PlanStatus][]PlanStatus{
	PlanDraft:    {PlanApproved, PlanCancelled},
	PlanApproved: {PlanOngoing, PlanCancelled},
	PlanOngoing:  {PlanCompleted},
}

// ParsePlanStatus is case-insensitive.
func ParsePlanStatus(s string) (PlanStatus, bool) {
	for _, st := range []PlanStatus{PlanDraft, PlanApproved, PlanOngoing, PlanCompleted, PlanCancelled} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// CanTransition reports whether the state machine has an edge from -> to.
func CanTransition(from, to PlanStatus) bool {
	for _, next := range planTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckStatusUpdate validates a transition requested through the status endpoint.
// Ongoing is reachable only through CheckExecute.
func CheckStatusUpdate(from, to PlanStatus) error {
	if to == PlanOngoing {
		return fmt.Errorf("%w: %w", ErrInvalidTransition, ErrExecuteRequired)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// CheckExecute validates executing a plan currently in from.
func CheckExecute(from PlanStatus) error {
	if from != PlanApproved {
		return fmt.Errorf("%w: only Approved plans can be executed, plan is %s", ErrInvalidTransition, from)
	}
	return nil
}

// CanDelete reports whether a plan in status may be removed.
func CanDelete(status PlanStatus) bool {
	return status == PlanDraft || status == PlanCancelled
}
