package model

import "time"

// Seniority levels, ordered. Comparison uses Rank.
type Seniority string

const (
	SeniorityJunior    Seniority = "junior"
	SeniorityMid       Seniority = "mid"
	SenioritySenior    Seniority = "senior"
	SeniorityStaff     Seniority = "staff"
	SeniorityPrincipal Seniority = "principal"
)

var seniorityRanks = map[Seniority]int{
	SeniorityJunior:    1,
	SeniorityMid:       2,
	SenioritySenior:    3,
	SeniorityStaff:     4,
	SeniorityPrincipal: 5,
}

// Rank returns the ordinal of the seniority level, 0 for unknown values.
func (s Seniority) Rank() int {
	return seniorityRanks[s]
}

// Slot is a concrete (date, time) interview window.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Key returns a stable identity for the slot, used in resource keys.
func (s Slot) Key() string {
	return s.Start.UTC().Format(time.RFC3339)
}

// Interviewer is a directory entry ingested from the ATS snapshot.
type Interviewer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Seniority   Seniority `json:"seniority"`
	Contact     string    `json:"contact,omitempty"`
	RoundTypes  []string  `json:"round_types,omitempty"`
	BackupPanel bool      `json:"backup_panel"`
	DailyLimit  int       `json:"daily_limit"`
	WeeklyLimit int       `json:"weekly_limit"`
}

// ServesRound reports whether the interviewer may serve the given round type.
// An empty RoundTypes list means any round.
func (iv *Interviewer) ServesRound(roundType string) bool {
	if len(iv.RoundTypes) == 0 {
		return true
	}
	for _, rt := range iv.RoundTypes {
		if rt == roundType {
			return true
		}
	}
	return false
}

// Candidate is a directory entry ingested from the ATS snapshot.
type Candidate struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Contact string         `json:"contact,omitempty"`
	Notice  NoticeCategory `json:"notice,omitempty"`
}

// Round declares the eligibility policy and SLA-relevant shape of an
// interview round.
type Round struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	PipelinePos    int       `json:"pipeline_pos"` // 1=screening .. 5=final
	AllowedRoles   []string  `json:"allowed_roles,omitempty"`
	BlockedRoles   []string  `json:"blocked_roles,omitempty"`
	MandatoryRoles []string  `json:"mandatory_roles,omitempty"`
	MinSeniority   Seniority `json:"min_seniority,omitempty"`
	DurationMin    int       `json:"duration_min"`
}

// DirectorySnapshot is the inbound ATS payload replacing the engine's view of
// people and rounds.
type DirectorySnapshot struct {
	Interviewers []Interviewer `json:"interviewers"`
	Candidates   []Candidate   `json:"candidates"`
	Rounds       []Round       `json:"rounds"`
	TakenAt      time.Time     `json:"taken_at"`
}
