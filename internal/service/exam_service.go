package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/config"
	"github.com/examforge/examforge-backend/internal/model"
)

// ExamService owns the authoring surface of exam definitions and fronts
// the definition read path with a Redis cache. The engine never mutates a
// definition; every write here comes from the content surface, and every
// write invalidates the cached document.
type ExamService struct {
	examStore ExamStore
	rdb       *redis.Client
	cacheTTL  time.Duration
	log       zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(examStore ExamStore, rdb *redis.Client, cacheTTL time.Duration, log zerolog.Logger) *ExamService {
	return &ExamService{
		examStore: examStore,
		rdb:       rdb,
		cacheTTL:  cacheTTL,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

// Definition returns the full exam definition, cache-aside: Redis first,
// PostgreSQL on miss, self-healing the cache. Cache failures degrade to
// the database rather than failing the request.
func (s *ExamService) Definition(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	key := config.CacheKey.ExamDefinitionKey(examID.String())

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		exam := &model.Exam{}
		if err := json.Unmarshal([]byte(raw), exam); err == nil {
			return exam, nil
		}
		// Corrupt cache entry: drop it and fall through to the database.
		_ = s.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("definition cache read failed")
	}

	exam, err := s.examStore.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	if raw, err := json.Marshal(exam); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("definition cache write failed")
		}
	}

	return exam, nil
}

// invalidate drops the cached definition after an authoring write.
func (s *ExamService) invalidate(ctx context.Context, examID uuid.UUID) {
	key := config.CacheKey.ExamDefinitionKey(examID.String())
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("definition cache invalidation failed")
	}
}

// Create inserts a new exam with an empty question document.
func (s *ExamService) Create(ctx context.Context, req model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
	}
	if err := s.examStore.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	exam.Questions = []model.Question{}

	s.log.Info().Str("exam_id", exam.ID.String()).Str("name", exam.Name).Msg("exam created")
	return exam, nil
}

// Get retrieves a full definition for the admin surface (uncached read;
// authoring wants the stored truth).
func (s *ExamService) Get(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.examStore.GetByID(ctx, examID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	return exam, err
}

// List retrieves exam summaries for the admin surface.
func (s *ExamService) List(ctx context.Context) ([]model.ExamSummary, error) {
	exams, err := s.examStore.List(ctx)
	if err != nil {
		return nil, err
	}
	if exams == nil {
		exams = []model.ExamSummary{}
	}
	return exams, nil
}

// UpdateMetadata partially updates name/description/duration/window.
func (s *ExamService) UpdateMetadata(ctx context.Context, examID uuid.UUID, req model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.examStore.UpdateMetadata(ctx, examID, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}
	s.invalidate(ctx, examID)
	return exam, nil
}

// AppendQuestion builds a fully-identified question from the request and
// appends it to the definition. Ids come from the definition's monotonic
// sequence inside the store transaction, so they are unique within the
// exam by construction, not by chance.
func (s *ExamService) AppendQuestion(ctx context.Context, examID uuid.UUID, req model.AppendQuestionRequest) (*model.Question, error) {
	q, err := s.examStore.AppendQuestion(ctx, examID, func(seq *model.Sequence) (model.Question, error) {
		return model.BuildQuestion(seq, req)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}
	s.invalidate(ctx, examID)

	s.log.Info().
		Str("exam_id", examID.String()).
		Int64("question_id", q.ID).
		Str("type", string(q.Type)).
		Msg("question appended")
	return &q, nil
}

// Delete removes an exam, cascading to its sessions and answers.
func (s *ExamService) Delete(ctx context.Context, examID uuid.UUID) error {
	if err := s.examStore.Delete(ctx, examID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrExamNotFound
		}
		return fmt.Errorf("delete exam: %w", err)
	}
	s.invalidate(ctx, examID)

	s.log.Info().Str("exam_id", examID.String()).Msg("exam deleted")
	return nil
}

// QuestionsForParticipant returns the definition's questions in randomized
// order with correctness flags stripped. Randomization is per call; the
// order is presentation-only and never persisted.
func (s *ExamService) QuestionsForParticipant(ctx context.Context, examID uuid.UUID) ([]model.QuestionForParticipant, error) {
	exam, err := s.Definition(ctx, examID)
	if err != nil {
		return nil, err
	}

	questions := make([]model.QuestionForParticipant, 0, len(exam.Questions))
	for i := range exam.Questions {
		questions = append(questions, exam.Questions[i].ForParticipant())
	}
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	return questions, nil
}
