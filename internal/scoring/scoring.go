// Package scoring is the single grading implementation. Attempt
// finalization and the reporting views all call Grade; there is no second
// copy of these rules anywhere in the codebase.
package scoring

import (
	"github.com/examforge/examforge-backend/internal/model"
)

// Selections maps question id to the set of choice ids the participant
// selected. A question with no recorded answer is simply absent.
type Selections map[int64][]int64

// SelectionsFromAnswers flattens recorded answer rows into a Selections
// map. File-reference answers contribute an entry with no choice ids so
// the question is still visibly answered, though never auto-correct.
func SelectionsFromAnswers(answers []model.Answer) Selections {
	sel := make(Selections, len(answers))
	for _, a := range answers {
		sel[a.QuestionID] = append(sel[a.QuestionID], a.ChoiceIDs...)
	}
	return sel
}

// Grade scores a finished attempt against its exam definition, walking the
// questions in definition order.
//
//   - single_choice: correct iff exactly one id is selected and it is the
//     correct one.
//   - multi_choice: correct iff the selected set equals the correct set
//     exactly. No partial credit for subsets or supersets.
//   - free_response: counts toward the total but is never marked correct
//     by this pass; it would need a manual grading step that does not
//     exist yet.
func Grade(questions []model.Question, selections Selections) model.GradeResult {
	result := model.GradeResult{Total: len(questions)}

	for i := range questions {
		q := &questions[i]
		if q.Type == model.QuestionTypeFreeResponse {
			continue
		}

		correct := q.CorrectChoiceIDs()
		selected := selections[q.ID]

		switch q.Type {
		case model.QuestionTypeSingleChoice:
			if len(selected) == 1 && len(correct) == 1 && selected[0] == correct[0] {
				result.Score++
			}
		case model.QuestionTypeMultiChoice:
			if sameSet(selected, correct) {
				result.Score++
			}
		}
	}

	return result
}

// sameSet reports exact set equality of two id slices, ignoring order and
// duplicates.
func sameSet(a, b []int64) bool {
	if len(b) == 0 {
		return len(a) == 0
	}
	want := make(map[int64]bool, len(b))
	for _, id := range b {
		want[id] = true
	}
	seen := make(map[int64]bool, len(a))
	for _, id := range a {
		if !want[id] {
			return false
		}
		seen[id] = true
	}
	return len(seen) == len(want)
}
