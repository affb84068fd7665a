package quiz

import (
	"fmt"
)

// Item is one generated fill-in-the-blank question.
type Item struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

func (it Item) CorrectAnswer() string { return it.Answer }

// Quiz is the ordered list of items generated from one source text.
type Quiz []Item

// Answers maps a 0-based item index to the selected option.
type Answers map[int]string

// Gradable is anything the scorer can check an answer against.
type Gradable interface {
	CorrectAnswer() string
}

// Result is the outcome of scoring a quiz.
type Result struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

func (r Result) String() string {
	return fmt.Sprintf("%d/%d", r.Correct, r.Total)
}

// Perfect reports whether every item was answered correctly.
func (r Result) Perfect() bool {
	return r.Total > 0 && r.Correct == r.Total
}

// ResultKind selects which result log a record belongs to.
type ResultKind string

const (
	ResultLocal    ResultKind = "local"    // quizzes generated from lesson text
	ResultAssigned ResultKind = "assigned" // the teacher-published quiz
)

// LabelPastedContent labels local quizzes generated from pasted text.
const LabelPastedContent = "Pasted Content"

// ResultRecord is one row of a result log.
type ResultRecord struct {
	Identity string `json:"student_name"`
	Label    string `json:"label"` // lesson name or quiz title
	Score    string `json:"score"` // "correct/total"
	Date     string `json:"date"`  // core.TimestampLayout
}
