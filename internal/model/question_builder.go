package model

import (
	"errors"
	"fmt"
)

// Builder validation errors.
var (
	ErrUnknownQuestionType  = errors.New("unknown question type")
	ErrTooFewChoices        = errors.New("choice questions need at least two choices")
	ErrSingleChoiceCorrect  = errors.New("single_choice questions need exactly one correct choice")
	ErrNoCorrectChoice      = errors.New("multi_choice questions need at least one correct choice")
	ErrFreeResponseChoices  = errors.New("free_response questions cannot have choices")
	ErrCorrectIndexOutRange = errors.New("correct choice index out of range")
)

// Sequence hands out strictly increasing identifiers for one exam
// definition. The caller persists the advanced counter together with the
// content it identified, in the same transaction, so an id handed out once
// is never handed out again for the lifetime of the definition.
type Sequence struct {
	next int64
}

// NewSequence resumes a definition's sequence from its stored counter.
func NewSequence(counter int64) *Sequence {
	if counter < 1 {
		counter = 1
	}
	return &Sequence{next: counter}
}

// Next returns the next identifier and advances the sequence.
func (s *Sequence) Next() int64 {
	id := s.next
	s.next++
	return id
}

// Counter returns the value to persist back onto the definition.
func (s *Sequence) Counter() int64 {
	return s.next
}

// QuestionBuilder assembles a fully-identified Question before it ever
// reaches storage. Identifier assignment is an explicit construction-time
// step here, not a side effect of persistence.
type QuestionBuilder struct {
	seq     *Sequence
	text    string
	qtype   QuestionType
	choices []Choice
}

// NewQuestionBuilder starts building a question whose ids come from seq.
func NewQuestionBuilder(seq *Sequence, text string, qtype QuestionType) *QuestionBuilder {
	return &QuestionBuilder{seq: seq, text: text, qtype: qtype}
}

// AddChoice appends a choice, assigning its id immediately.
func (b *QuestionBuilder) AddChoice(text string, isCorrect bool) *QuestionBuilder {
	b.choices = append(b.choices, Choice{
		ID:        b.seq.Next(),
		Text:      text,
		IsCorrect: isCorrect,
	})
	return b
}

// Build validates the accumulated question and returns it with its id
// assigned. The sequence advances even on failed builds; gaps are fine,
// collisions are not.
func (b *QuestionBuilder) Build() (Question, error) {
	q := Question{
		ID:      b.seq.Next(),
		Text:    b.text,
		Type:    b.qtype,
		Choices: b.choices,
	}

	if !b.qtype.Valid() {
		return Question{}, fmt.Errorf("%w: %q", ErrUnknownQuestionType, b.qtype)
	}

	switch b.qtype {
	case QuestionTypeFreeResponse:
		if len(q.Choices) > 0 {
			return Question{}, ErrFreeResponseChoices
		}
	case QuestionTypeSingleChoice:
		if len(q.Choices) < 2 {
			return Question{}, ErrTooFewChoices
		}
		if len(q.CorrectChoiceIDs()) != 1 {
			return Question{}, ErrSingleChoiceCorrect
		}
	case QuestionTypeMultiChoice:
		if len(q.Choices) < 2 {
			return Question{}, ErrTooFewChoices
		}
		if len(q.CorrectChoiceIDs()) == 0 {
			return Question{}, ErrNoCorrectChoice
		}
	}

	return q, nil
}

// BuildQuestion builds a question from an authoring request, assigning ids
// from the definition's sequence. Correct choices are referenced by index
// into req.Choices.
func BuildQuestion(seq *Sequence, req AppendQuestionRequest) (Question, error) {
	for _, idx := range req.CorrectIndices {
		if idx < 0 || idx >= len(req.Choices) {
			return Question{}, fmt.Errorf("%w: %d", ErrCorrectIndexOutRange, idx)
		}
	}

	correct := make(map[int]bool, len(req.CorrectIndices))
	for _, idx := range req.CorrectIndices {
		correct[idx] = true
	}

	b := NewQuestionBuilder(seq, req.Text, QuestionType(req.Type))
	for i, text := range req.Choices {
		b.AddChoice(text, correct[i])
	}
	return b.Build()
}
