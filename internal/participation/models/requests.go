package models

import (
	"strings"
	"time"

	dErrors "agora/pkg/domain-errors"
	platformstrings "agora/pkg/platform/strings"
)

// CreateTopicRequest is the wire shape for POST /api/topics.
type CreateTopicRequest struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ClosesAt     *time.Time `json:"closes_at,omitempty"`
	AllowedKinds []string   `json:"allowed_kinds"`
	VoteOptions  []string   `json:"vote_options"`
}

// Validate checks the request and maps it to a Topic.
func (r *CreateTopicRequest) Validate() (Topic, error) {
	if strings.TrimSpace(r.ID) == "" {
		return Topic{}, dErrors.New(dErrors.CodeInvalidInput, "topic id is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return Topic{}, dErrors.New(dErrors.CodeInvalidInput, "topic title is required")
	}
	kindNames := platformstrings.DedupeAndTrimLower(r.AllowedKinds)
	if len(kindNames) == 0 {
		return Topic{}, dErrors.New(dErrors.CodeInvalidInput, "at least one submission kind is required")
	}

	kinds := make([]SubmissionKind, 0, len(kindNames))
	for _, name := range kindNames {
		kind, ok := ParseSubmissionKind(name)
		if !ok {
			return Topic{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown submission kind: %q", name)
		}
		kinds = append(kinds, kind)
	}

	return Topic{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		ClosesAt:     r.ClosesAt,
		AllowedKinds: kinds,
		// Vote options stay case-sensitive; ballots must match exactly.
		VoteOptions: platformstrings.DedupeAndTrim(r.VoteOptions),
	}, nil
}

// TopicResponse is the wire shape of a topic.
type TopicResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ClosesAt     *time.Time `json:"closes_at,omitempty"`
	AllowedKinds []string   `json:"allowed_kinds"`
	VoteOptions  []string   `json:"vote_options"`
}

func NewTopicResponse(t Topic) TopicResponse {
	kinds := make([]string, len(t.AllowedKinds))
	for i, k := range t.AllowedKinds {
		kinds[i] = string(k)
	}
	return TopicResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		ClosesAt:     t.ClosesAt,
		AllowedKinds: kinds,
		VoteOptions:  t.VoteOptions,
	}
}

// SubmitRequest is the wire shape for POST /api/submit. Verification inputs
// ride along so a single round trip authenticates and records.
type SubmitRequest struct {
	AnonymousID string `json:"anonymous_id"`
	ChallengeID string `json:"challenge_id"`
	Signature   string `json:"signature"`
	TopicID     string `json:"topic_id"`
	Kind        string `json:"kind"`
	Content     string `json:"content"`
}

func (r *SubmitRequest) Validate() (SubmissionKind, error) {
	kind, ok := ParseSubmissionKind(r.Kind)
	if !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown submission kind: %q", r.Kind)
	}
	if strings.TrimSpace(r.Content) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content is required")
	}
	return kind, nil
}

type SubmitResponse struct {
	Success      bool   `json:"success"`
	SubmissionID string `json:"submission_id"`
	Message      string `json:"message"`
}

// SubmissionResponse is the wire shape of a recorded submission.
type SubmissionResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Content     string    `json:"content"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func NewSubmissionResponse(s Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:          s.ID,
		Kind:        string(s.Kind),
		Content:     s.Content,
		SubmittedAt: s.SubmittedAt,
	}
}

// StatsResponse is the wire shape for GET /api/stats.
type StatsResponse struct {
	EnrolledParticipants int `json:"enrolled_participants"`
	TotalTopics          int `json:"total_topics"`
	TotalSubmissions     int `json:"total_submissions"`
}
