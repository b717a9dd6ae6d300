package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examforge/examforge-backend/internal/model"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AnswerRepository handles answer data access. Answers are normalized
// rows: one row per selected choice id, or a single file-reference row
// for free-response questions.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Replace atomically swaps the recorded answer for (session, question):
// delete whatever is there, insert the new selection, one transaction.
// A reader sees either the old set or the new set, never a partial one.
//
// The owning session row is locked FOR UPDATE first, inside the same
// transaction. That lock does two jobs: it re-checks usability so a
// committed finalization rejects this write, and it serializes concurrent
// replacements for the same session so two racing submissions cannot
// interleave their delete/insert pairs into a merged set.
//
// Exactly one of choiceIDs / fileRef should be populated; the service
// layer validates the shape against the question type.
func (r *AnswerRepository) Replace(ctx context.Context, sessionID uuid.UUID, questionID int64, choiceIDs []int64, fileRef string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var active bool
	var expiresAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT active, expires_at FROM exam_sessions WHERE id = $1 FOR UPDATE`, sessionID,
	).Scan(&active, &expiresAt)
	if err != nil {
		return err
	}
	if !active || !time.Now().Before(expiresAt) {
		return ErrSessionNotUsable
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM answers WHERE session_id = $1 AND question_id = $2`,
		sessionID, questionID,
	); err != nil {
		return fmt.Errorf("delete previous answer: %w", err)
	}

	if fileRef != "" {
		if _, err := tx.Exec(ctx,
			`INSERT INTO answers (session_id, question_id, file_ref)
			 VALUES ($1, $2, $3)`,
			sessionID, questionID, fileRef,
		); err != nil {
			return fmt.Errorf("insert file answer: %w", err)
		}
	} else if len(choiceIDs) > 0 {
		batch := &pgx.Batch{}
		for _, choiceID := range choiceIDs {
			batch.Queue(
				`INSERT INTO answers (session_id, question_id, choice_id)
				 VALUES ($1, $2, $3)`,
				sessionID, questionID, choiceID,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert choices: %w", err)
		}
	}
	// Empty selection: the delete alone clears the recorded answer.

	return tx.Commit(ctx)
}

// ListBySession retrieves the current answer set of a session, one Answer
// per answered question.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Answer, error) {
	return listAnswers(ctx, r.pool, sessionID)
}

// listAnswers groups the raw answer rows of a session by question. Shared
// with ExamSessionRepository.Finalize, which reads answers inside its
// finalization transaction.
func listAnswers(ctx context.Context, q querier, sessionID uuid.UUID) ([]model.Answer, error) {
	rows, err := q.Query(ctx,
		`SELECT question_id, choice_id, file_ref
		 FROM answers
		 WHERE session_id = $1
		 ORDER BY question_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byQuestion := make(map[int64]*model.Answer)
	var order []int64
	for rows.Next() {
		var questionID int64
		var choiceID *int64
		var fileRef *string
		if err := rows.Scan(&questionID, &choiceID, &fileRef); err != nil {
			return nil, err
		}

		a, ok := byQuestion[questionID]
		if !ok {
			a = &model.Answer{SessionID: sessionID, QuestionID: questionID}
			byQuestion[questionID] = a
			order = append(order, questionID)
		}
		if choiceID != nil {
			a.ChoiceIDs = append(a.ChoiceIDs, *choiceID)
		}
		if fileRef != nil {
			a.FileRef = *fileRef
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	answers := make([]model.Answer, 0, len(order))
	for _, qid := range order {
		answers = append(answers, *byQuestion[qid])
	}
	return answers, nil
}
