package model

import (
	"github.com/google/uuid"
)

// Answer is the current response of a session to one question: either a
// set of selected choice ids or a file reference for free-response
// questions. Resubmission replaces the whole value, never merges.
type Answer struct {
	SessionID  uuid.UUID `json:"session_id"`
	QuestionID int64     `json:"question_id"`
	ChoiceIDs  []int64   `json:"choice_ids,omitempty"`
	FileRef    string    `json:"file_ref,omitempty"`
}

// SubmitAnswerRequest is the participant payload for recording an answer.
// Exactly one of ChoiceIDs / FileRef is meaningful, depending on the
// question type; the answer service validates the shape.
type SubmitAnswerRequest struct {
	QuestionID int64   `json:"question_id" binding:"required,min=1"`
	ChoiceIDs  []int64 `json:"choice_ids"`
	FileRef    string  `json:"file_ref" binding:"omitempty,max=1024"`
}
