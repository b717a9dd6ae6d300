package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examforge/examforge-backend/internal/model"
)

// ExamRepository handles exam definition data access. Definitions are
// stored as self-contained documents: the question/choice arrays live in
// the exams row as JSONB next to the id counter that identifies them.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves a full exam definition.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, duration_minutes, start_at, end_at,
		        questions, id_counter, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Description, &e.DurationMinutes, &e.StartAt, &e.EndAt,
		&e.Questions, &e.IDCounter, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List retrieves exam summaries, newest first.
func (r *ExamRepository) List(ctx context.Context) ([]model.ExamSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, duration_minutes, start_at, end_at,
		        jsonb_array_length(questions), created_at
		 FROM exams
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.ExamSummary
	for rows.Next() {
		var e model.ExamSummary
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.DurationMinutes,
			&e.StartAt, &e.EndAt, &e.QuestionCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// Create inserts a new exam with an empty question document.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (name, description, duration_minutes, start_at, end_at, questions, id_counter)
		 VALUES ($1, $2, $3, $4, $5, '[]'::jsonb, 1)
		 RETURNING id, id_counter, created_at, updated_at`,
		e.Name, e.Description, e.DurationMinutes, e.StartAt, e.EndAt,
	).Scan(&e.ID, &e.IDCounter, &e.CreatedAt, &e.UpdatedAt)
}

// UpdateMetadata partially updates exam metadata. Nil fields keep their
// stored values. The question document is never touched here.
func (r *ExamRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, req model.UpdateExamRequest) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`UPDATE exams
		 SET name = COALESCE($1, name),
		     description = COALESCE($2, description),
		     duration_minutes = COALESCE($3, duration_minutes),
		     start_at = COALESCE($4, start_at),
		     end_at = COALESCE($5, end_at),
		     updated_at = NOW()
		 WHERE id = $6
		 RETURNING id, name, description, duration_minutes, start_at, end_at,
		           questions, id_counter, created_at, updated_at`,
		req.Name, req.Description, req.DurationMinutes, req.StartAt, req.EndAt, id,
	).Scan(&e.ID, &e.Name, &e.Description, &e.DurationMinutes, &e.StartAt, &e.EndAt,
		&e.Questions, &e.IDCounter, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// AppendQuestion appends one question to the definition inside a single
// transaction: the exam row is locked, the build callback assigns ids from
// the definition's sequence, and the grown document persists together with
// the advanced counter. Two concurrent appends serialize on the row lock,
// so assigned ids can never collide.
func (r *ExamRepository) AppendQuestion(
	ctx context.Context,
	examID uuid.UUID,
	build func(seq *model.Sequence) (model.Question, error),
) (model.Question, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Question{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var questions []model.Question
	var counter int64
	err = tx.QueryRow(ctx,
		`SELECT questions, id_counter FROM exams WHERE id = $1 FOR UPDATE`, examID,
	).Scan(&questions, &counter)
	if err != nil {
		return model.Question{}, err
	}

	seq := model.NewSequence(counter)
	q, err := build(seq)
	if err != nil {
		return model.Question{}, err
	}
	questions = append(questions, q)

	if _, err := tx.Exec(ctx,
		`UPDATE exams SET questions = $1, id_counter = $2, updated_at = NOW() WHERE id = $3`,
		questions, seq.Counter(), examID,
	); err != nil {
		return model.Question{}, fmt.Errorf("update questions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Question{}, fmt.Errorf("commit: %w", err)
	}
	return q, nil
}

// Delete removes an exam and cascades to its sessions and their answers
// as one transaction, so no answer row can outlive its question set.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM answers
		 WHERE session_id IN (SELECT id FROM exam_sessions WHERE exam_id = $1)`, id,
	); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM exam_sessions WHERE exam_id = $1`, id,
	); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}
