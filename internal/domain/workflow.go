package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// WorkflowState is the department-employee refinement of Status.
type WorkflowState string

const (
	WorkflowPending        WorkflowState = "pending"
	WorkflowInProgress     WorkflowState = "in-progress"
	WorkflowApproved       WorkflowState = "approved"
	WorkflowResolved       WorkflowState = "resolved"
	WorkflowDropped        WorkflowState = "dropped"
	WorkflowPendingRequest WorkflowState = "pending-request"
)

type WorkflowAction string

const (
	ActionStart               WorkflowAction = "start"
	ActionApprove             WorkflowAction = "approve"
	ActionResolve             WorkflowAction = "resolve"
	ActionDrop                WorkflowAction = "drop"
	ActionRequestReassignment WorkflowAction = "request-reassignment"
	ActionGrantReassignment   WorkflowAction = "grant-reassignment"
)

var ErrDropReasonRequired = errors.New("dropping a report requires a reason")

// TransitionError is returned for an action that is not allowed from the current state.
type TransitionError struct {
	From   WorkflowState
	Action WorkflowAction
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("action %s not allowed from state %s", e.Action, e.From)
}

func (s WorkflowState) Terminal() bool {
	return s == WorkflowResolved || s == WorkflowDropped
}

// Status maps the workflow state onto the coarse report status.
func (s WorkflowState) Status() Status {
	switch s {
	case WorkflowInProgress, WorkflowApproved:
		return StatusInProgress
	case WorkflowResolved:
		return StatusResolved
	case WorkflowDropped:
		return StatusClosed
	default:
		return StatusSubmitted
	}
}

var workflowTransitions = map[WorkflowState]map[WorkflowAction]WorkflowState{
	WorkflowPending: {
		ActionStart:               WorkflowInProgress,
		ActionApprove:             WorkflowApproved,
		ActionDrop:                WorkflowDropped,
		ActionRequestReassignment: WorkflowPendingRequest,
	},
	WorkflowInProgress: {
		ActionApprove:             WorkflowApproved,
		ActionResolve:             WorkflowResolved,
		ActionDrop:                WorkflowDropped,
		ActionRequestReassignment: WorkflowPendingRequest,
	},
	WorkflowApproved: {
		ActionStart:               WorkflowInProgress,
		ActionResolve:             WorkflowResolved,
		ActionDrop:                WorkflowDropped,
		ActionRequestReassignment: WorkflowPendingRequest,
	},
	WorkflowPendingRequest: {
		ActionGrantReassignment: WorkflowPending,
		ActionDrop:              WorkflowDropped,
	},
}

// Workflow tracks the sub-status of a single report.
type Workflow struct {
	State      WorkflowState
	Reason     string
	ChangedAt  time.Time
	DropReason string
}

func NewWorkflow(now time.Time) *Workflow {
	return &Workflow{State: WorkflowPending, ChangedAt: now}
}

// Apply performs the action. reason is mandatory for drop and optional otherwise.
// The workflow is left unchanged on error.
func (w *Workflow) Apply(action WorkflowAction, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if action == ActionDrop && reason == "" {
		return ErrDropReasonRequired
	}
	next, ok := workflowTransitions[w.State][action]
	if !ok {
		return &TransitionError{From: w.State, Action: action}
	}
	w.State = next
	w.Reason = reason
	w.ChangedAt = now
	if next == WorkflowDropped {
		w.DropReason = reason
	}
	return nil
}

// Allowed lists the actions available from the current state.
func (w *Workflow) Allowed() []WorkflowAction {
	order := []WorkflowAction{
		ActionStart,
		ActionApprove,
		ActionResolve,
		ActionDrop,
		ActionRequestReassignment,
		ActionGrantReassignment,
	}
	allowed := make([]WorkflowAction, 0, len(order))
	for _, action := range order {
		if _, ok := workflowTransitions[w.State][action]; ok {
			allowed = append(allowed, action)
		}
	}
	return allowed
}
