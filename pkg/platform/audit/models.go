// Package audit defines the audit event model emitted from domain logic.
// Events are transport-agnostic so stores and sinks can fan out.
package audit

import "time"

// EventCategory classifies audit events by their primary purpose, enabling
// different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance:
	// enrollment lifecycle and revocations.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events feeding security monitoring: failed
	// verifications, consumed-challenge replays.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine events useful for debugging:
	// challenge issuance, accepted submissions.
	CategoryOperations EventCategory = "operations"
)

// Event captures one audited action. AnonymousID is the only participant
// handle the system has; no personally identifying data ever enters an event.
type Event struct {
	Category    EventCategory
	Timestamp   time.Time
	AnonymousID string
	Action      string
	Reason      string
	TopicID     string
	Kind        string
	RequestID   string
}

type AuditEvent string

const (
	EventParticipantEnrolled   AuditEvent = "participant_enrolled"
	EventEnrollmentRevoked     AuditEvent = "enrollment_revoked"
	EventChallengeIssued       AuditEvent = "challenge_issued"
	EventVerificationSucceeded AuditEvent = "verification_succeeded"
	EventVerificationFailed    AuditEvent = "verification_failed"
	EventSubmissionRecorded    AuditEvent = "submission_recorded"
	EventTopicCreated          AuditEvent = "topic_created"
)
