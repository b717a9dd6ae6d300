package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is a self-contained exam definition: metadata plus the ordered
// question document. Questions and choices live embedded in the exam row
// (JSONB), not as normalized tables; sessions and answers reference their
// ids directly.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	StartAt         *time.Time `json:"start_at,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	Questions       []Question `json:"questions"`
	// IDCounter is the per-definition sequence backing question/choice id
	// assignment. Persisted with the document so ids are never reused for
	// the lifetime of the definition.
	IDCounter int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvailableAt reports whether the exam's availability window (if any)
// contains the given instant.
func (e *Exam) AvailableAt(now time.Time) bool {
	if e.StartAt != nil && now.Before(*e.StartAt) {
		return false
	}
	if e.EndAt != nil && now.After(*e.EndAt) {
		return false
	}
	return true
}

// FindQuestion returns the question with the given id, or nil.
func (e *Exam) FindQuestion(questionID int64) *Question {
	for i := range e.Questions {
		if e.Questions[i].ID == questionID {
			return &e.Questions[i]
		}
	}
	return nil
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Name            string     `json:"name" binding:"required,min=3,max=255"`
	Description     string     `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int        `json:"duration_minutes" binding:"required,min=1,max=480"`
	StartAt         *time.Time `json:"start_at" binding:"omitempty"`
	EndAt           *time.Time `json:"end_at" binding:"omitempty,gtfield=StartAt"`
}

// UpdateExamRequest is the payload for partially updating exam metadata.
// Question content is edited through the question endpoints, never here.
type UpdateExamRequest struct {
	Name            *string    `json:"name" binding:"omitempty,min=3,max=255"`
	Description     *string    `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	StartAt         *time.Time `json:"start_at" binding:"omitempty"`
	EndAt           *time.Time `json:"end_at" binding:"omitempty"`
}

// ExamSummary is the admin list view (question document omitted).
type ExamSummary struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	StartAt         *time.Time `json:"start_at,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	QuestionCount   int        `json:"question_count"`
	CreatedAt       time.Time  `json:"created_at"`
}
