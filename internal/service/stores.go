package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/examforge/examforge-backend/internal/model"
)

// Store interfaces consumed by the services. The pgx implementations live
// in internal/repository; tests substitute in-memory fakes.

// SessionStore is the session persistence contract.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	GetByExamAndParticipant(ctx context.Context, examID uuid.UUID, participantID int64) (*model.ExamSession, error)
	GetLatestByParticipant(ctx context.Context, participantID int64) (*model.ExamSession, error)
	// Create must be atomic with the existence check: the store's
	// uniqueness constraint on (exam, participant) decides the winner of
	// concurrent starts, and losers get a no-rows error.
	Create(ctx context.Context, s *model.ExamSession) error
	// Finalize flips a usable session to finished and records the grade
	// computed by the callback over the session's answers, atomically.
	Finalize(ctx context.Context, sessionID uuid.UUID, grade func(answers []model.Answer) model.GradeResult) (model.GradeResult, error)
	ListFinishedByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamSession, error)
}

// AnswerStore is the answer persistence contract.
type AnswerStore interface {
	// Replace swaps the full answer for (session, question) in one
	// transaction, rejecting unusable sessions.
	Replace(ctx context.Context, sessionID uuid.UUID, questionID int64, choiceIDs []int64, fileRef string) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Answer, error)
}

// ExamStore is the exam definition persistence contract.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	List(ctx context.Context) ([]model.ExamSummary, error)
	Create(ctx context.Context, e *model.Exam) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, req model.UpdateExamRequest) (*model.Exam, error)
	// AppendQuestion grows the question document inside one transaction;
	// the build callback assigns ids from the definition's own sequence.
	AppendQuestion(ctx context.Context, examID uuid.UUID, build func(seq *model.Sequence) (model.Question, error)) (model.Question, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DefinitionSource supplies exam definitions to the engine. The concrete
// implementation is ExamService, which fronts PostgreSQL with a Redis
// cache.
type DefinitionSource interface {
	Definition(ctx context.Context, examID uuid.UUID) (*model.Exam, error)
}
