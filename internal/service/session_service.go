package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/model"
)

// SessionService owns the attempt lifecycle: whether a participant may
// start or resume an exam, and the time-bound status of the attempt.
// Expiry is never swept in the background; it is recomputed from the
// stored deadline at every point of use.
type SessionService struct {
	sessions    SessionStore
	definitions DefinitionSource
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessions SessionStore, definitions DefinitionSource, log zerolog.Logger) *SessionService {
	return &SessionService{
		sessions:    sessions,
		definitions: definitions,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// Start begins or resumes the participant's attempt at an exam. The store
// uniqueness constraint on (exam, participant) makes concurrent starts
// resolve to exactly one session: the loser of the insert race observes
// the winner's row and resumes it if it is still usable.
//
// Returns resumed=true when an existing active, unexpired session was
// handed back instead of a fresh one.
func (s *SessionService) Start(ctx context.Context, participantID int64, examID uuid.UUID, deviceTag string) (*model.ExamSession, bool, error) {
	exam, err := s.definitions.Definition(ctx, examID)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()

	// An existing session is resolved before the availability window is
	// consulted: a running attempt stays resumable past end_at, and a
	// finished one keeps reporting AlreadySubmitted rather than the
	// window closing. The window only gates fresh creations.
	existing, err := s.sessions.GetByExamAndParticipant(ctx, examID, participantID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("check existing session: %w", err)
	}
	if existing != nil {
		return s.resolveExisting(existing, now)
	}

	if !exam.AvailableAt(now) {
		return nil, false, ErrExamNotAvailable
	}

	session := &model.ExamSession{
		ExamID:        examID,
		ParticipantID: participantID,
		StartTime:     now,
		ExpiresAt:     now.Add(time.Duration(exam.DurationMinutes) * time.Minute),
		DeviceTag:     deviceTag,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a concurrent start: the constraint kept the winner's
			// row, so fetch it and resolve as a resume.
			winner, fetchErr := s.sessions.GetByExamAndParticipant(ctx, examID, participantID)
			if fetchErr != nil {
				return nil, false, fmt.Errorf("fetch winning session: %w", fetchErr)
			}
			return s.resolveExisting(winner, now)
		}
		return nil, false, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("exam_id", examID.String()).
		Int64("participant_id", participantID).
		Time("expires_at", session.ExpiresAt).
		Msg("session started")
	return session, false, nil
}

// resolveExisting applies the start policy to a pre-existing session:
// finished beats expired beats resumable. Expired attempts are consumed;
// there is no restart with time remaining on a fresh clock.
func (s *SessionService) resolveExisting(session *model.ExamSession, now time.Time) (*model.ExamSession, bool, error) {
	if session.FinishedAt != nil {
		return nil, false, ErrAlreadySubmitted
	}
	if !now.Before(session.ExpiresAt) {
		return nil, false, ErrExpired
	}
	if session.Active {
		return session, true, nil
	}
	return nil, false, ErrAlreadyTaken
}

// Status reports the participant's most recent session: finished flag,
// remaining seconds, derived expiry. A pure read; discovering an expired
// session here mutates nothing.
func (s *SessionService) Status(ctx context.Context, participantID int64) (*model.SessionStatus, error) {
	session, err := s.sessions.GetLatestByParticipant(ctx, participantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.SessionStatus{State: model.SessionStateNone}, nil
		}
		return nil, fmt.Errorf("get latest session: %w", err)
	}

	return s.statusOf(session, time.Now()), nil
}

// statusOf derives the status report for one session at one instant.
func (s *SessionService) statusOf(session *model.ExamSession, now time.Time) *model.SessionStatus {
	status := &model.SessionStatus{SessionID: &session.ID}

	if session.FinishedAt != nil {
		status.State = model.SessionStateFinished
		status.IsFinished = true
		return status
	}

	remaining := session.ExpiresAt.Sub(now)
	if remaining > 0 {
		status.State = model.SessionStateActive
		status.RemainingSeconds = int64(remaining.Seconds())
	} else {
		status.State = model.SessionStateExpired
		status.IsExpired = true
	}
	return status
}

// GetOwnedUsable loads a session by id, verifies the caller owns it, and
// applies the usability guard. Read paths (question list, clock stream)
// call this; write paths get the same guard re-checked inside their store
// transactions.
func (s *SessionService) GetOwnedUsable(ctx context.Context, sessionID uuid.UUID, participantID int64) (*model.ExamSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.ParticipantID != participantID {
		return nil, ErrSessionNotFound
	}
	if !session.Usable(time.Now()) {
		return nil, ErrNoActiveSession
	}
	return session, nil
}
