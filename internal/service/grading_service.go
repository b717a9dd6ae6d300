package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/repository"
	"github.com/examforge/examforge-backend/internal/scoring"
)

// GradingService triggers grading. Both attempt finalization and the
// reporting views go through scoring.Grade; the rules live in exactly one
// place.
type GradingService struct {
	sessions    SessionStore
	answers     AnswerStore
	definitions DefinitionSource
	log         zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(sessions SessionStore, answers AnswerStore, definitions DefinitionSource, log zerolog.Logger) *GradingService {
	return &GradingService{
		sessions:    sessions,
		answers:     answers,
		definitions: definitions,
		log:         log.With().Str("component", "grading_service").Logger(),
	}
}

// Finish finalizes the participant's session and returns its grade. The
// store performs the flip-and-grade atomically: answer writes that beat
// the finalization are counted, later ones are rejected by the usability
// guard, and nothing accepted is dropped. A second Finish on the same
// session fails with ErrNoActiveSession; the stored score never changes.
func (g *GradingService) Finish(ctx context.Context, participantID int64, sessionID uuid.UUID) (*model.GradeResult, error) {
	session, err := g.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.ParticipantID != participantID {
		return nil, ErrSessionNotFound
	}

	exam, err := g.definitions.Definition(ctx, session.ExamID)
	if err != nil {
		return nil, err
	}

	result, err := g.sessions.Finalize(ctx, sessionID, func(answers []model.Answer) model.GradeResult {
		return scoring.Grade(exam.Questions, scoring.SelectionsFromAnswers(answers))
	})
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotUsable) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("finalize session: %w", err)
	}

	g.log.Info().
		Str("session_id", sessionID.String()).
		Int("score", result.Score).
		Int("total", result.Total).
		Msg("session graded")
	return &result, nil
}

// ListFinishedAttempts reports every finished attempt at an exam with its
// score, recomputed through the same scoring engine that graded the
// finish. There is no second grading implementation to drift from.
func (g *GradingService) ListFinishedAttempts(ctx context.Context, examID uuid.UUID) ([]model.FinishedAttempt, error) {
	exam, err := g.definitions.Definition(ctx, examID)
	if err != nil {
		return nil, err
	}

	sessions, err := g.sessions.ListFinishedByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list finished sessions: %w", err)
	}

	report := make([]model.FinishedAttempt, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]

		answers, err := g.answers.ListBySession(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("list answers for %s: %w", session.ID, err)
		}

		result := scoring.Grade(exam.Questions, scoring.SelectionsFromAnswers(answers))
		report = append(report, model.FinishedAttempt{
			SessionID:     session.ID,
			ParticipantID: session.ParticipantID,
			Score:         result.Score,
			Total:         result.Total,
			StartTime:     session.StartTime,
			FinishedAt:    session.FinishedAt,
		})
	}
	return report, nil
}
