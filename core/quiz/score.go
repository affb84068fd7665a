package quiz

import (
	"errors"
)

var ErrIncompleteAnswers = errors.New("please answer all questions before submitting")

// Score counts the answers that exactly match each item's correct answer.
// Every index in [0, len(items)) must be answered, otherwise ErrIncompleteAnswers is returned.
func Score[S ~[]T, T Gradable](items S, answers Answers) (Result, error) {
	res := Result{Total: len(items)}
	for i, item := range items {
		ans, ok := answers[i]
		if !ok {
			return Result{}, ErrIncompleteAnswers
		}
		if ans == item.CorrectAnswer() {
			res.Correct++
		}
	}
	return res, nil
}

// Complete reports whether every one of n items has an answer.
func (a Answers) Complete(n int) bool {
	for i := 0; i < n; i++ {
		if _, ok := a[i]; !ok {
			return false
		}
	}
	return true
}
