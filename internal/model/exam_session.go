package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSession is one participant's attempt at one exam. At most one row
// may ever exist per (exam, participant) pair; the store enforces this
// with a uniqueness constraint, not an application-level check.
//
// Expiry is derived: a session past ExpiresAt is unusable but the row is
// never mutated by the clock. Once FinishedAt is set the session is
// immutable.
type ExamSession struct {
	ID            uuid.UUID  `json:"id"`
	ExamID        uuid.UUID  `json:"exam_id"`
	ParticipantID int64      `json:"participant_id"`
	StartTime     time.Time  `json:"start_time"`
	ExpiresAt     time.Time  `json:"expires_at"`
	Active        bool       `json:"active"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	DeviceTag     string     `json:"device_tag,omitempty"`
	Score         *int       `json:"score,omitempty"`
	Total         *int       `json:"total,omitempty"`
}

// Usable reports whether the session may still accept answer writes:
// active and not past its deadline.
func (s *ExamSession) Usable(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}

// Session status states reported by GetStatus.
const (
	SessionStateNone     = "no_session"
	SessionStateActive   = "active"
	SessionStateExpired  = "expired"
	SessionStateFinished = "finished"
)

// SessionStatus is the pure-read status report for a participant's most
// recent session. Computing it never mutates expiry.
type SessionStatus struct {
	State            string     `json:"state"`
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	IsExpired        bool       `json:"is_expired"`
	IsFinished       bool       `json:"is_finished"`
}

// GradeResult is the outcome of submitting a session for grading.
type GradeResult struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// FinishedAttempt is one row of the per-exam report: a finished session's
// participant and its score as computed by the scoring engine.
type FinishedAttempt struct {
	SessionID     uuid.UUID  `json:"session_id"`
	ParticipantID int64      `json:"participant_id"`
	Score         int        `json:"score"`
	Total         int        `json:"total"`
	StartTime     time.Time  `json:"start_time"`
	FinishedAt    *time.Time `json:"finished_at"`
}
