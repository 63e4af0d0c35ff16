package domain

import (
	"fmt"
	"strings"
)

// Stage is a recipient's position in the disbursement pipeline.
// It is never stored: Classify derives it from the row's fields, so it
// cannot drift from the data.
type Stage string

const (
	// StageNotEligible: a reflection flag is not Y and no document was generated.
	StageNotEligible Stage = "not_eligible"
	// StageEligiblePendingExport: both reflection flags are Y, no document yet.
	StageEligiblePendingExport Stage = "eligible_pending_export"
	// StageAwaitingCollection: document generated, stipend not yet collected.
	StageAwaitingCollection Stage = "awaiting_collection"
	// StageCollected: stipend collected.
	StageCollected Stage = "collected"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageNotEligible,
	StageEligiblePendingExport,
	StageAwaitingCollection,
	StageCollected,
}

// ParseStage converts a stage name into a Stage.
func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if string(st) == strings.TrimSpace(s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown stage %q", ErrValidation, s)
}

// isYes reports whether a reflection flag cell holds Y. Staff type these by
// hand, so the comparison ignores case and surrounding whitespace.
func isYes(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), yes)
}

// IsCollected reports whether the Collected cell holds exactly Y. Only
// Confirm-Collected writes this cell, so it is not case-folded.
func (r Recipient) IsCollected() bool {
	return strings.TrimSpace(r.Collected) == yes
}

// Eligible reports whether both reflection flags are Y.
func (r Recipient) Eligible() bool {
	return isYes(r.ReflectionMeeting) && isYes(r.ReflectionForm)
}

// Classify returns the single stage r belongs to. Every combination of field
// values maps to exactly one stage.
func Classify(r Recipient) Stage {
	switch {
	case r.IsCollected():
		return StageCollected
	case strings.TrimSpace(r.DocGeneratedDate) != "":
		return StageAwaitingCollection
	case r.Eligible():
		return StageEligiblePendingExport
	default:
		return StageNotEligible
	}
}

// FilterByStage returns the recipients currently in stage, preserving order.
func FilterByStage(rows []Recipient, stage Stage) []Recipient {
	out := []Recipient{}
	for _, r := range rows {
		if Classify(r) == stage {
			out = append(out, r)
		}
	}
	return out
}

// CountByStage returns how many recipients are in each stage. Every stage is
// present in the result, possibly with a zero count.
func CountByStage(rows []Recipient) map[Stage]int {
	out := make(map[Stage]int, len(Stages))
	for _, st := range Stages {
		out[st] = 0
	}
	for _, r := range rows {
		out[Classify(r)]++
	}
	return out
}
