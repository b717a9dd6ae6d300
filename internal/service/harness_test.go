package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/repository"
)

// fakeStore is an in-memory stand-in for the pgx repositories. It keeps
// the same contract: no-rows errors for misses, a uniqueness constraint
// on (exam, participant), and the usability guard inside Replace and
// Finalize.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.ExamSession
	answers  map[uuid.UUID][]model.Answer
	exams    map[uuid.UUID]*model.Exam

	// onCreate runs just before the uniqueness check in Create, letting
	// tests inject a concurrent winner.
	onCreate func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uuid.UUID]*model.ExamSession),
		answers:  make(map[uuid.UUID][]model.Answer),
		exams:    make(map[uuid.UUID]*model.Exam),
	}
}

func (f *fakeStore) addExam(e *model.Exam) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exams[e.ID] = e
}

func (f *fakeStore) addSession(s *model.ExamSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == (uuid.UUID{}) {
		s.ID = uuid.New()
	}
	cp := *s
	f.sessions[s.ID] = &cp
}

func (f *fakeStore) Definition(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exam, ok := f.exams[examID]
	if !ok {
		return nil, ErrExamNotFound
	}
	return exam, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) GetByExamAndParticipant(ctx context.Context, examID uuid.UUID, participantID int64) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ExamID == examID && s.ParticipantID == participantID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) GetLatestByParticipant(ctx context.Context, participantID int64) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.ExamSession
	for _, s := range f.sessions {
		if s.ParticipantID != participantID {
			continue
		}
		if latest == nil || s.StartTime.After(latest.StartTime) {
			latest = s
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) Create(ctx context.Context, s *model.ExamSession) error {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.ExamID == s.ExamID && existing.ParticipantID == s.ParticipantID {
			return pgx.ErrNoRows
		}
	}
	s.ID = uuid.New()
	s.Active = true
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) Finalize(ctx context.Context, sessionID uuid.UUID, grade func(answers []model.Answer) model.GradeResult) (model.GradeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return model.GradeResult{}, pgx.ErrNoRows
	}
	if !s.Usable(time.Now()) {
		return model.GradeResult{}, repository.ErrSessionNotUsable
	}

	result := grade(f.answers[sessionID])
	now := time.Now()
	s.Active = false
	s.FinishedAt = &now
	s.Score = &result.Score
	s.Total = &result.Total
	return result, nil
}

func (f *fakeStore) ListFinishedByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ExamSession
	for _, s := range f.sessions {
		if s.ExamID == examID && s.FinishedAt != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) Replace(ctx context.Context, sessionID uuid.UUID, questionID int64, choiceIDs []int64, fileRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !s.Usable(time.Now()) {
		return repository.ErrSessionNotUsable
	}

	kept := f.answers[sessionID][:0]
	for _, a := range f.answers[sessionID] {
		if a.QuestionID != questionID {
			kept = append(kept, a)
		}
	}
	if len(choiceIDs) > 0 || fileRef != "" {
		kept = append(kept, model.Answer{
			SessionID:  sessionID,
			QuestionID: questionID,
			ChoiceIDs:  append([]int64(nil), choiceIDs...),
			FileRef:    fileRef,
		})
	}
	f.answers[sessionID] = kept
	return nil
}

func (f *fakeStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Answer(nil), f.answers[sessionID]...), nil
}

// twoQuestionExam builds a 30 minute exam with a single-choice and a
// multi-choice question, ids assigned the same way authoring does.
func twoQuestionExam() *model.Exam {
	seq := model.NewSequence(1)
	q1, _ := model.BuildQuestion(seq, model.AppendQuestionRequest{
		Text:           "capital of France?",
		Type:           "single_choice",
		Choices:        []string{"Paris", "Lyon"},
		CorrectIndices: []int{0},
	})
	q2, _ := model.BuildQuestion(seq, model.AppendQuestionRequest{
		Text:           "primary colors?",
		Type:           "multi_choice",
		Choices:        []string{"red", "green", "blue"},
		CorrectIndices: []int{0, 2},
	})
	return &model.Exam{
		ID:              uuid.New(),
		Name:            "General Knowledge",
		DurationMinutes: 30,
		Questions:       []model.Question{q1, q2},
		IDCounter:       seq.Counter(),
	}
}
