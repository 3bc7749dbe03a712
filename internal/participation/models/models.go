// Package models defines the participation domain: topics open for input and
// the submissions recorded against them. A submission is linked only to an
// anonymous participant ID, never to a real-world identity.
package models

import "time"

// SubmissionKind is the category of a submission.
type SubmissionKind string

const (
	KindOpinion SubmissionKind = "opinion"
	KindIdea    SubmissionKind = "idea"
	KindVote    SubmissionKind = "vote"
)

// ParseSubmissionKind maps a wire-level kind name to a SubmissionKind.
func ParseSubmissionKind(name string) (SubmissionKind, bool) {
	switch SubmissionKind(name) {
	case KindOpinion, KindIdea, KindVote:
		return SubmissionKind(name), true
	}
	return "", false
}

// Topic is a question or policy area accepting submissions. Topics are
// created administratively and immutable afterwards.
type Topic struct {
	ID           string
	Title        string
	Description  string
	ClosesAt     *time.Time // nil means the topic never closes
	AllowedKinds []SubmissionKind
	VoteOptions  []string // when set, vote content must be one of these
}

// Allows reports whether the topic accepts submissions of the given kind.
func (t Topic) Allows(kind SubmissionKind) bool {
	for _, k := range t.AllowedKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// AllowsVoteChoice reports whether content is a declared vote option. Topics
// without declared options accept free-form vote content.
func (t Topic) AllowsVoteChoice(content string) bool {
	if len(t.VoteOptions) == 0 {
		return true
	}
	for _, opt := range t.VoteOptions {
		if opt == content {
			return true
		}
	}
	return false
}

// Open reports whether the topic accepts submissions at now.
func (t Topic) Open(now time.Time) bool {
	return t.ClosesAt == nil || now.Before(*t.ClosesAt)
}

// Submission is one recorded opinion, idea, or vote. Immutable once created;
// at most one exists per (topic, participant, kind).
type Submission struct {
	ID          string
	TopicID     string
	AnonymousID string
	Kind        SubmissionKind
	Content     string
	SubmittedAt time.Time
}
