package infrastructure

import (
	"fmt"

	"backersync/domain/events"
)

// Stream that receives every sync event
const SyncEventStream = "backersync_events"

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBackerRoleGranted:
		return "backersync.role_granted"
	case events.EventTypeBackerSkipped:
		return "backersync.backer_skipped"
	case events.EventTypeSyncCompleted:
		return "backersync.sync_completed"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("backersync.unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"backersync.role_granted",
		"backersync.backer_skipped",
		"backersync.sync_completed",
		"backersync.unknown.>",
	}
}
