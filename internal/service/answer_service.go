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
)

// AnswerService records participant answers with replace-wholesale
// semantics: a resubmission fully supersedes the prior answer for the
// same question, never merges with it.
type AnswerService struct {
	answers     AnswerStore
	sessions    SessionStore
	definitions DefinitionSource
	log         zerolog.Logger
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(answers AnswerStore, sessions SessionStore, definitions DefinitionSource, log zerolog.Logger) *AnswerService {
	return &AnswerService{
		answers:     answers,
		sessions:    sessions,
		definitions: definitions,
		log:         log.With().Str("component", "answer_service").Logger(),
	}
}

// Submit records the answer for one question of the participant's session.
// The question must belong to the session's exam, and the selection shape
// must match the question type: choice ids for choice questions (an empty
// set clears the answer), a file reference for free-response.
//
// The store re-checks session usability inside the replace transaction,
// so a finish or expiry that lands first rejects this write instead of
// losing it.
func (s *AnswerService) Submit(ctx context.Context, participantID int64, sessionID uuid.UUID, req model.SubmitAnswerRequest) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("get session: %w", err)
	}
	if session.ParticipantID != participantID {
		return ErrSessionNotFound
	}

	exam, err := s.definitions.Definition(ctx, session.ExamID)
	if err != nil {
		return err
	}

	question := exam.FindQuestion(req.QuestionID)
	if question == nil {
		return ErrQuestionNotFound
	}

	switch question.Type {
	case model.QuestionTypeFreeResponse:
		if len(req.ChoiceIDs) > 0 || req.FileRef == "" {
			return ErrInvalidSelection
		}
	default:
		if req.FileRef != "" {
			return ErrInvalidSelection
		}
	}

	err = s.answers.Replace(ctx, sessionID, req.QuestionID, req.ChoiceIDs, req.FileRef)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotUsable) {
			return ErrNoActiveSession
		}
		return fmt.Errorf("replace answer: %w", err)
	}

	s.log.Debug().
		Str("session_id", sessionID.String()).
		Int64("question_id", req.QuestionID).
		Int("choices", len(req.ChoiceIDs)).
		Msg("answer recorded")
	return nil
}
