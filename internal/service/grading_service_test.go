package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/model"
)

func gradingFixture(t *testing.T) (*fakeStore, *GradingService, *AnswerService, *model.Exam, *model.ExamSession) {
	t.Helper()
	store := newFakeStore()
	exam := twoQuestionExam()
	store.addExam(exam)

	session := &model.ExamSession{
		ExamID:        exam.ID,
		ParticipantID: 7,
		StartTime:     time.Now(),
		ExpiresAt:     time.Now().Add(30 * time.Minute),
		Active:        true,
	}
	store.addSession(session)

	grading := NewGradingService(store, store, store, zerolog.Nop())
	answers := NewAnswerService(store, store, store, zerolog.Nop())
	return store, grading, answers, exam, session
}

func TestFinishGradesAndStoresResult(t *testing.T) {
	store, grading, answers, exam, session := gradingFixture(t)
	ctx := context.Background()

	single := exam.Questions[0]
	multi := exam.Questions[1]
	if err := answers.Submit(ctx, 7, session.ID, model.SubmitAnswerRequest{
		QuestionID: single.ID,
		ChoiceIDs:  single.CorrectChoiceIDs(),
	}); err != nil {
		t.Fatalf("submit single: %v", err)
	}
	if err := answers.Submit(ctx, 7, session.ID, model.SubmitAnswerRequest{
		QuestionID: multi.ID,
		ChoiceIDs:  multi.CorrectChoiceIDs(),
	}); err != nil {
		t.Fatalf("submit multi: %v", err)
	}

	result, err := grading.Finish(ctx, 7, session.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Score != 2 || result.Total != 2 {
		t.Fatalf("grade = %d/%d, want 2/2", result.Score, result.Total)
	}

	stored, _ := store.GetByID(ctx, session.ID)
	if stored.Active {
		t.Fatal("finished session still active")
	}
	if stored.FinishedAt == nil {
		t.Fatal("finished_at not set")
	}
	if stored.Score == nil || *stored.Score != 2 {
		t.Fatalf("stored score = %v, want 2", stored.Score)
	}
}

func TestFinishWithWrongAnswersScoresZero(t *testing.T) {
	_, grading, answers, exam, session := gradingFixture(t)
	ctx := context.Background()

	single := exam.Questions[0]
	var wrong int64
	for _, c := range single.Choices {
		if !c.IsCorrect {
			wrong = c.ID
			break
		}
	}
	if err := answers.Submit(ctx, 7, session.ID, model.SubmitAnswerRequest{
		QuestionID: single.ID,
		ChoiceIDs:  []int64{wrong},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := grading.Finish(ctx, 7, session.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Score != 0 || result.Total != 2 {
		t.Fatalf("grade = %d/%d, want 0/2", result.Score, result.Total)
	}
}

func TestFinishTwiceRejected(t *testing.T) {
	_, grading, _, _, session := gradingFixture(t)
	ctx := context.Background()

	if _, err := grading.Finish(ctx, 7, session.ID); err != nil {
		t.Fatalf("first finish: %v", err)
	}

	_, err := grading.Finish(ctx, 7, session.ID)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("second finish: err = %v, want ErrNoActiveSession", err)
	}
}

func TestFinishForeignSessionRejected(t *testing.T) {
	_, grading, _, _, session := gradingFixture(t)

	_, err := grading.Finish(context.Background(), 99, session.ID)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestFinishUnknownSessionRejected(t *testing.T) {
	_, grading, _, _, _ := gradingFixture(t)

	_, err := grading.Finish(context.Background(), 7, uuid.New())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestFinishAfterExpiryRejected(t *testing.T) {
	store, grading, _, exam, _ := gradingFixture(t)

	expired := &model.ExamSession{
		ExamID:        exam.ID,
		ParticipantID: 8,
		StartTime:     time.Now().Add(-time.Hour),
		ExpiresAt:     time.Now().Add(-time.Minute),
		Active:        true,
	}
	store.addSession(expired)

	_, err := grading.Finish(context.Background(), 8, expired.ID)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestListFinishedAttempts(t *testing.T) {
	store, grading, answers, exam, session := gradingFixture(t)
	ctx := context.Background()

	single := exam.Questions[0]
	if err := answers.Submit(ctx, 7, session.ID, model.SubmitAnswerRequest{
		QuestionID: single.ID,
		ChoiceIDs:  single.CorrectChoiceIDs(),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	finishResult, err := grading.Finish(ctx, 7, session.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	// A still-active session must not appear in the report.
	store.addSession(&model.ExamSession{
		ExamID:        exam.ID,
		ParticipantID: 8,
		StartTime:     time.Now(),
		ExpiresAt:     time.Now().Add(30 * time.Minute),
		Active:        true,
	})

	report, err := grading.ListFinishedAttempts(ctx, exam.ID)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("report rows = %d, want 1", len(report))
	}

	row := report[0]
	if row.SessionID != session.ID || row.ParticipantID != 7 {
		t.Fatalf("report row = %+v", row)
	}
	// The report recomputes through the same engine that graded the
	// finish, so the numbers cannot disagree.
	if row.Score != finishResult.Score || row.Total != finishResult.Total {
		t.Fatalf("report grade %d/%d differs from finish grade %d/%d",
			row.Score, row.Total, finishResult.Score, finishResult.Total)
	}
}

func TestListFinishedAttemptsUnknownExam(t *testing.T) {
	_, grading, _, _, _ := gradingFixture(t)

	_, err := grading.ListFinishedAttempts(context.Background(), uuid.New())
	if !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("err = %v, want ErrExamNotFound", err)
	}
}
