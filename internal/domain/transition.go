package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Date layouts written into the workflow columns.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Transition names a precondition-gated state change.
type Transition string

const (
	TransitionOverrideApprove  Transition = "override-approve"
	TransitionExport           Transition = "export"
	TransitionRevertExport     Transition = "revert-export"
	TransitionConfirmCollected Transition = "confirm-collected"
	TransitionRevertCollected  Transition = "revert-collected"
	TransitionEditFields       Transition = "edit-fields"
)

// Transitions lists every known transition.
var Transitions = []Transition{
	TransitionOverrideApprove,
	TransitionExport,
	TransitionRevertExport,
	TransitionConfirmCollected,
	TransitionRevertCollected,
	TransitionEditFields,
}

// preconditions maps each stage-gated transition to the stage a row must be
// in. Edit-Fields is absent because it applies in any stage.
var preconditions = map[Transition]Stage{
	TransitionOverrideApprove:  StageNotEligible,
	TransitionExport:           StageEligiblePendingExport,
	TransitionRevertExport:     StageAwaitingCollection,
	TransitionConfirmCollected: StageAwaitingCollection,
	TransitionRevertCollected:  StageCollected,
}

// EditableFields maps the keys accepted by Edit-Fields to their descriptive
// columns. Workflow columns, reflection flags and the id are never editable.
var EditableFields = map[string]string{
	"sequence_number": ColSequenceNumber,
	"name_local":      ColNameLocal,
	"name_latin":      ColNameLatin,
	"phone":           ColPhone,
	"internship_days": ColInternshipDays,
	"guardian":        ColGuardian,
}

// ParseTransition converts a transition name into a Transition.
func ParseTransition(s string) (Transition, error) {
	for _, t := range Transitions {
		if string(t) == strings.TrimSpace(s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown transition %q", ErrValidation, s)
}

// TransitionParams carries the actor-supplied parameters of a transition.
type TransitionParams struct {
	// Actor is the acting staff member. Required by Export.
	Actor string
	// Confirmed must be true for the reversal transitions.
	Confirmed bool
	// Fields holds new descriptive values for Edit-Fields, keyed by
	// EditableFields keys.
	Fields map[string]string
	// Now is the time stamped into date columns.
	Now time.Time
}

// CellWrite is a single column assignment produced by a transition.
type CellWrite struct {
	Column string
	Value  string
}

// Precondition returns the stage a row must be in for t to apply.
// ok is false for transitions that apply in any stage.
func (t Transition) Precondition() (stage Stage, ok bool) {
	stage, ok = preconditions[t]
	return stage, ok
}

// Allows reports whether t may be applied to a row in stage s.
func (t Transition) Allows(s Stage) bool {
	if t == TransitionEditFields {
		return true
	}
	want, ok := t.Precondition()
	return ok && want == s
}

// Validate checks that p carries everything t requires.
func (t Transition) Validate(p TransitionParams) error {
	switch t {
	case TransitionOverrideApprove, TransitionConfirmCollected:
		return nil
	case TransitionExport:
		if strings.TrimSpace(p.Actor) == "" {
			return fmt.Errorf("%w: acting staff name is required", ErrValidation)
		}
	case TransitionRevertExport, TransitionRevertCollected:
		if !p.Confirmed {
			return fmt.Errorf("%w: %s requires explicit confirmation", ErrValidation, t)
		}
	case TransitionEditFields:
		if len(p.Fields) == 0 {
			return fmt.Errorf("%w: no fields to edit", ErrValidation)
		}
		for key := range p.Fields {
			if _, ok := EditableFields[key]; !ok {
				return fmt.Errorf("%w: field %q is not editable", ErrValidation, key)
			}
		}
	default:
		return fmt.Errorf("%w: unknown transition %q", ErrValidation, t)
	}
	return nil
}

// Writes returns the cell writes t performs on one row. Paired workflow
// fields are always returned together and must be written as a unit.
func (t Transition) Writes(p TransitionParams) ([]CellWrite, error) {
	if err := t.Validate(p); err != nil {
		return nil, err
	}
	switch t {
	case TransitionOverrideApprove:
		return []CellWrite{
			{Column: ColReflectionMeeting, Value: yes},
			{Column: ColReflectionForm, Value: yes},
		}, nil
	case TransitionExport:
		return []CellWrite{
			{Column: ColDocGeneratedDate, Value: p.Now.Format(DateLayout)},
			{Column: ColResponsibleStaff, Value: strings.TrimSpace(p.Actor)},
		}, nil
	case TransitionRevertExport:
		return []CellWrite{
			{Column: ColDocGeneratedDate, Value: ""},
			{Column: ColResponsibleStaff, Value: ""},
		}, nil
	case TransitionConfirmCollected:
		return []CellWrite{
			{Column: ColCollected, Value: yes},
			{Column: ColCollectedDate, Value: p.Now.Format(DateTimeLayout)},
		}, nil
	case TransitionRevertCollected:
		return []CellWrite{
			{Column: ColCollected, Value: ""},
			{Column: ColCollectedDate, Value: ""},
		}, nil
	}

	// Edit-Fields: sort keys so writes are issued in a stable order.
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]CellWrite, 0, len(keys))
	for _, k := range keys {
		out = append(out, CellWrite{Column: EditableFields[k], Value: strings.TrimSpace(p.Fields[k])})
	}
	return out, nil
}

// Apply runs t against r in memory and returns the transitioned row with the
// writes that produced it. It returns ErrIllegalTransition when r's stage
// does not satisfy t's precondition.
func (t Transition) Apply(r Recipient, p TransitionParams) (Recipient, []CellWrite, error) {
	writes, err := t.Writes(p)
	if err != nil {
		return r, nil, err
	}
	if stage := Classify(r); !t.Allows(stage) {
		return r, nil, fmt.Errorf("%w: %s not allowed from %s", ErrIllegalTransition, t, stage)
	}
	for _, w := range writes {
		r.Set(w.Column, w.Value)
	}
	return r, writes, nil
}
