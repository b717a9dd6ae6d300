package model

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	// QuestionTypeSingleChoice has exactly one correct choice.
	QuestionTypeSingleChoice QuestionType = "single_choice"
	// QuestionTypeMultiChoice is graded by exact set equality.
	QuestionTypeMultiChoice QuestionType = "multi_choice"
	// QuestionTypeFreeResponse is answered with an uploaded file reference
	// and is not auto-gradable.
	QuestionTypeFreeResponse QuestionType = "free_response"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultiChoice, QuestionTypeFreeResponse:
		return true
	}
	return false
}

// Question is one entry of an exam definition. The id is unique within the
// definition and stable across edits; answers correlate to it directly.
type Question struct {
	ID      int64        `json:"id"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Choices []Choice     `json:"choices,omitempty"`
}

// CorrectChoiceIDs returns the ids of the choices flagged correct.
func (q *Question) CorrectChoiceIDs() []int64 {
	var ids []int64
	for _, c := range q.Choices {
		if c.IsCorrect {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Choice is one selectable option. IsCorrect never reaches the
// participant-facing read path (see ChoiceForParticipant).
type Choice struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionForParticipant is the sanitized view served to a participant:
// no correctness flags, choice text only.
type QuestionForParticipant struct {
	ID      int64                  `json:"id"`
	Text    string                 `json:"text"`
	Type    QuestionType           `json:"type"`
	Choices []ChoiceForParticipant `json:"choices"`
}

// ChoiceForParticipant strips the correctness flag from a choice.
type ChoiceForParticipant struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// ForParticipant converts a question to its sanitized participant view.
func (q *Question) ForParticipant() QuestionForParticipant {
	choices := make([]ChoiceForParticipant, 0, len(q.Choices))
	for _, c := range q.Choices {
		choices = append(choices, ChoiceForParticipant{ID: c.ID, Text: c.Text})
	}
	return QuestionForParticipant{
		ID:      q.ID,
		Text:    q.Text,
		Type:    q.Type,
		Choices: choices,
	}
}

// AppendQuestionRequest is the authoring payload for adding a question.
// Correct choices are referenced by index into the choices array.
type AppendQuestionRequest struct {
	Text           string   `json:"text" binding:"required,min=1,max=2000"`
	Type           string   `json:"type" binding:"required,oneof=single_choice multi_choice free_response"`
	Choices        []string `json:"choices" binding:"omitempty,dive,min=1,max=500"`
	CorrectIndices []int    `json:"correct_indices" binding:"omitempty"`
}
