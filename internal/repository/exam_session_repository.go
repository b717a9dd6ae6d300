package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examforge/examforge-backend/internal/model"
)

// ErrSessionNotUsable is returned by guarded writes when the target
// session is inactive, finished, or past its deadline.
var ErrSessionNotUsable = errors.New("session not usable")

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionColumns = `id, exam_id, participant_id, start_time, expires_at,
	active, finished_at, device_tag, score, total`

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := row.Scan(&s.ID, &s.ExamID, &s.ParticipantID, &s.StartTime, &s.ExpiresAt,
		&s.Active, &s.FinishedAt, &s.DeviceTag, &s.Score, &s.Total)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByExamAndParticipant retrieves the session for one (exam, participant)
// pair. There is at most one by construction.
func (r *ExamSessionRepository) GetByExamAndParticipant(ctx context.Context, examID uuid.UUID, participantID int64) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE exam_id = $1 AND participant_id = $2`, examID, participantID))
}

// GetByID retrieves a session by id.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions WHERE id = $1`, id))
}

// GetLatestByParticipant retrieves the participant's most recent session
// by creation order, or pgx.ErrNoRows.
func (r *ExamSessionRepository) GetLatestByParticipant(ctx context.Context, participantID int64) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE participant_id = $1
		 ORDER BY start_time DESC
		 LIMIT 1`, participantID))
}

// Create inserts a new active session. The UNIQUE (exam_id, participant_id)
// constraint makes the existence check and the insert one atomic step:
// when a concurrent start already won, DO NOTHING yields no row and the
// call returns pgx.ErrNoRows so the caller can re-fetch the winner.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions
		   (exam_id, participant_id, start_time, expires_at, active, device_tag)
		 VALUES ($1, $2, $3, $4, TRUE, $5)
		 ON CONFLICT (exam_id, participant_id) DO NOTHING
		 RETURNING id, active`,
		s.ExamID, s.ParticipantID, s.StartTime, s.ExpiresAt, s.DeviceTag,
	).Scan(&s.ID, &s.Active)
}

// Finalize flips a usable session to finished and records its grade, all
// in one transaction. The session row is locked FOR UPDATE, which
// serializes finalization against in-flight answer replacements: a replace
// that passed its own guard commits first and its answers are read here;
// anything later fails the guard. The grade callback sees exactly the
// answer rows that made it in.
//
// A session that is already finished, inactive, or past its deadline
// yields ErrSessionNotUsable and no write. Second finalizations are
// rejected, never re-graded.
func (r *ExamSessionRepository) Finalize(
	ctx context.Context,
	sessionID uuid.UUID,
	grade func(answers []model.Answer) model.GradeResult,
) (model.GradeResult, error) {
	var result model.GradeResult

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var active bool
	var expiresAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT active, expires_at FROM exam_sessions WHERE id = $1 FOR UPDATE`, sessionID,
	).Scan(&active, &expiresAt)
	if err != nil {
		return result, err
	}
	if !active || !time.Now().Before(expiresAt) {
		return result, ErrSessionNotUsable
	}

	answers, err := listAnswers(ctx, tx, sessionID)
	if err != nil {
		return result, fmt.Errorf("list answers: %w", err)
	}

	result = grade(answers)

	if _, err := tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET active = FALSE, finished_at = NOW(), score = $2, total = $3
		 WHERE id = $1`,
		sessionID, result.Score, result.Total,
	); err != nil {
		return result, fmt.Errorf("finalize session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

// ListFinishedByExam retrieves all finished sessions for an exam, newest
// finish first.
func (r *ExamSessionRepository) ListFinishedByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE exam_id = $1 AND finished_at IS NOT NULL
		 ORDER BY finished_at DESC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
