package models

import "time"

// Event types recorded in the activity log.
const (
	EventCandidateCreated = "candidate.created"
	EventCandidateUpdated = "candidate.updated"
	EventCandidateDeleted = "candidate.deleted"
	EventVoteCast         = "vote.cast"
	EventVoteCountDrift   = "vote.drift"
	EventVoteUncounted    = "vote.uncounted"
)

// Event levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
)

// Event is an entry in the activity log.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Level       string    `json:"level"`
	Message     string    `json:"message"`
	CandidateID *string   `json:"candidateId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
