package events

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBackerRoleGranted EventType = "backer_role_granted"
	EventTypeBackerSkipped     EventType = "backer_skipped"
	EventTypeSyncCompleted     EventType = "sync_completed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BackerRoleGrantedEvent is emitted after a tier role was added to a member
type BackerRoleGrantedEvent struct {
	RunID    string `json:"run_id"`
	GuildID  string `json:"guild_id"`
	BackerID string `json:"backer_id"`
	Tier     string `json:"tier"`
	RoleName string `json:"role_name"`
	Username string `json:"username"`
	MemberID string `json:"member_id"`
}

func (e BackerRoleGrantedEvent) Type() EventType {
	return EventTypeBackerRoleGranted
}

// BackerSkippedEvent is emitted when a backer could not be given a role
type BackerSkippedEvent struct {
	RunID    string `json:"run_id"`
	GuildID  string `json:"guild_id"`
	BackerID string `json:"backer_id"`
	Tier     string `json:"tier"`
	Reason   string `json:"reason"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (e BackerSkippedEvent) Type() EventType {
	return EventTypeBackerSkipped
}

// SyncCompletedEvent summarizes a run that reached normal termination
type SyncCompletedEvent struct {
	RunID    string `json:"run_id"`
	OrgName  string `json:"org_name"`
	GuildID  string `json:"guild_id"`
	Eligible int    `json:"eligible"`
	Granted  int    `json:"granted"`
	Skipped  int    `json:"skipped"`
}

func (e SyncCompletedEvent) Type() EventType {
	return EventTypeSyncCompleted
}
