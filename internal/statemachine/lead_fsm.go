// Package statemachine models the lead status lifecycle. The status set is an
// unordered label set rather than a strict workflow: every known status may
// transition to every other, but unknown values are rejected.
package statemachine

import (
	"context"
	"fmt"
	"strings"

	"github.com/looplab/fsm"
	"github.com/propdesk/leads-api/internal/models"
)

// LeadFSM wraps a lead status with its state machine
type LeadFSM struct {
	fsm *fsm.FSM
}

// NewLeadFSM creates a status machine positioned at the given status.
func NewLeadFSM(current string) *LeadFSM {
	events := make(fsm.Events, 0, len(models.LeadStatuses))
	for _, dst := range models.LeadStatuses {
		events = append(events, fsm.EventDesc{
			Name: eventFor(dst),
			Src:  models.LeadStatuses,
			Dst:  dst,
		})
	}

	return &LeadFSM{
		fsm: fsm.NewFSM(current, events, fsm.Callbacks{}),
	}
}

// MayTransition reports whether the machine can move to the target status.
// It is false when either the current or the target status is unknown.
func (m *LeadFSM) MayTransition(target string) bool {
	return m.fsm.Can(eventFor(target))
}

// Transition moves the machine to the target status. A transition to the
// current status is a no-op, not an error.
func (m *LeadFSM) Transition(ctx context.Context, target string) error {
	if !m.MayTransition(target) {
		return fmt.Errorf("lead status cannot change from %s to %s", m.fsm.Current(), target)
	}
	if err := m.fsm.Event(ctx, eventFor(target)); err != nil {
		// Re-marking a lead with its current status is allowed and harmless
		if _, ok := err.(fsm.NoTransitionError); ok {
			return nil
		}
		return fmt.Errorf("failed to change lead status: %w", err)
	}
	return nil
}

// Current returns the current status
func (m *LeadFSM) Current() string {
	return m.fsm.Current()
}

func eventFor(status string) string {
	return "mark_" + strings.ToLower(status)
}
