package entities

import "fmt"

// OutcomeKind classifies the result of processing one backer
type OutcomeKind string

const (
	OutcomeGranted OutcomeKind = "granted"
	OutcomeSkipped OutcomeKind = "skipped"
)

// SkipReason explains why a backer did not receive a role
type SkipReason string

const (
	SkipNoHandle       SkipReason = "no_handle"
	SkipMemberNotFound SkipReason = "member_not_found"
	SkipGrantFailed    SkipReason = "grant_failed"
)

// SyncOutcome is the non-fatal result of syncing one backer
type SyncOutcome struct {
	Kind     OutcomeKind
	Reason   SkipReason // Set when Kind is OutcomeSkipped
	BackerID string
	Tier     string
	RoleName string
	Username string // Extracted Discord handle, empty when none was found
	MemberID string // Matched member, empty when none was found
	Err      error  // Cause of a failed grant
}

// Granted builds a successful outcome
func Granted(backer Backer, role Role, username string, member *Member) SyncOutcome {
	return SyncOutcome{
		Kind:     OutcomeGranted,
		BackerID: backer.ID,
		Tier:     backer.TierName(),
		RoleName: role.Name,
		Username: username,
		MemberID: member.UserID,
	}
}

// Skipped builds a skipped outcome
func Skipped(reason SkipReason, backer Backer, role Role, username string, err error) SyncOutcome {
	return SyncOutcome{
		Kind:     OutcomeSkipped,
		Reason:   reason,
		BackerID: backer.ID,
		Tier:     backer.TierName(),
		RoleName: role.Name,
		Username: username,
		Err:      err,
	}
}

// Message returns the console line reported for the outcome
func (o SyncOutcome) Message() string {
	switch {
	case o.Kind == OutcomeGranted:
		return fmt.Sprintf("Added role %s to member %s", o.RoleName, o.Username)
	case o.Reason == SkipNoHandle:
		return fmt.Sprintf("no discord username found for backer with id=%s, skipping", o.BackerID)
	case o.Reason == SkipMemberNotFound:
		return fmt.Sprintf("member with username %s not found in discord guild, skipping", o.Username)
	case o.Reason == SkipGrantFailed:
		return fmt.Sprintf("failed adding role %s to member %s: %v", o.RoleName, o.Username, o.Err)
	default:
		return fmt.Sprintf("backer %s: %s", o.BackerID, o.Kind)
	}
}

// SyncReport collects the outcomes of one run in processing order
type SyncReport struct {
	RunID    string
	OrgName  string
	GuildID  string
	Eligible int
	Outcomes []SyncOutcome
}

// Add appends an outcome
func (r *SyncReport) Add(outcome SyncOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
}

// GrantedCount returns the number of successful grants
func (r *SyncReport) GrantedCount() int {
	return r.count(func(o SyncOutcome) bool { return o.Kind == OutcomeGranted })
}

// SkippedCount returns the number of skipped backers
func (r *SyncReport) SkippedCount() int {
	return r.count(func(o SyncOutcome) bool { return o.Kind == OutcomeSkipped })
}

// SkippedBy returns the number of backers skipped for a reason
func (r *SyncReport) SkippedBy(reason SkipReason) int {
	return r.count(func(o SyncOutcome) bool { return o.Kind == OutcomeSkipped && o.Reason == reason })
}

func (r *SyncReport) count(match func(SyncOutcome) bool) int {
	n := 0
	for _, o := range r.Outcomes {
		if match(o) {
			n++
		}
	}
	return n
}
