// Package eligibility decides whether an interviewer role may serve an
// interview round. Rules are purely declarative; the validator suggests a
// compliant role on violation but never picks a replacement itself.
package eligibility

import (
	"fmt"

	"github.com/me/interviewd/pkg/model"
)

// ViolationCode names the rule that rejected an interviewer.
type ViolationCode string

const (
	BlockedRole          ViolationCode = "BlockedRole"
	MissingMandatoryRole ViolationCode = "MissingMandatoryRole"
	NotEligible          ViolationCode = "NotEligible"
	InsufficientSeniority ViolationCode = "InsufficientSeniority"
)

// Violation describes why an interviewer cannot serve a round, with a
// human-readable suggestion for the operator.
type Violation struct {
	Code       ViolationCode `json:"code"`
	Message    string        `json:"message"`
	Suggestion string        `json:"suggestion,omitempty"`
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// Validate checks the interviewer against the round's rules. Precedence is
// fixed: blocked roles, then mandatory roles, then the allow list, then
// seniority. The first matching rule wins; nil means the pairing is valid.
func Validate(round *model.Round, iv *model.Interviewer) *Violation {
	for _, blocked := range round.BlockedRoles {
		if iv.Role == blocked {
			return &Violation{
				Code:       BlockedRole,
				Message:    fmt.Sprintf("role %q is blocked for round %s", iv.Role, round.Name),
				Suggestion: suggestRole(round),
			}
		}
	}

	if len(round.MandatoryRoles) > 0 && !contains(round.MandatoryRoles, iv.Role) {
		return &Violation{
			Code:       MissingMandatoryRole,
			Message:    fmt.Sprintf("round %s requires one of its mandatory roles; %q is not among them", round.Name, iv.Role),
			Suggestion: fmt.Sprintf("assign a %s interviewer", round.MandatoryRoles[0]),
		}
	}

	if len(round.AllowedRoles) > 0 && !contains(round.AllowedRoles, iv.Role) {
		return &Violation{
			Code:       NotEligible,
			Message:    fmt.Sprintf("role %q is not in the allow list for round %s", iv.Role, round.Name),
			Suggestion: suggestRole(round),
		}
	}

	if round.MinSeniority != "" && iv.Seniority.Rank() < round.MinSeniority.Rank() {
		return &Violation{
			Code:       InsufficientSeniority,
			Message:    fmt.Sprintf("seniority %q is below the %q requirement of round %s", iv.Seniority, round.MinSeniority, round.Name),
			Suggestion: fmt.Sprintf("assign an interviewer at %s level or above", round.MinSeniority),
		}
	}

	return nil
}

// suggestRole names a compliant role for the violation message.
func suggestRole(round *model.Round) string {
	if len(round.MandatoryRoles) > 0 {
		return fmt.Sprintf("assign a %s interviewer", round.MandatoryRoles[0])
	}
	for _, allowed := range round.AllowedRoles {
		if !contains(round.BlockedRoles, allowed) {
			return fmt.Sprintf("assign a %s interviewer", allowed)
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
