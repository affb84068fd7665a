package quiz

import (
	"errors"
	"slices"
)

var (
	ErrNothingToQuiz    = errors.New("not enough content to generate a quiz")
	ErrNoActiveQuiz     = errors.New("there is no quiz to answer")
	ErrAlreadySubmitted = errors.New("this quiz has already been submitted")
	ErrInvalidQuestion  = errors.New("invalid question")
	ErrInvalidOption    = errors.New("invalid option")
)

// State of a Session.
type State string

const (
	StateNoQuiz    State = ""
	StateGenerated State = "generated"
	StateSubmitted State = "submitted"
)

// Session tracks one user's generated quiz through NoQuiz -> Generated -> Submitted.
// Its fields are exported so it can be stored in a cookie session.
type Session struct {
	State   State
	Label   string
	Quiz    Quiz
	Answers Answers
	Result  Result
}

// Start replaces any previous quiz with q.
// An empty q leaves the session with no quiz and returns ErrNothingToQuiz.
func (s *Session) Start(label string, q Quiz) error {
	s.Reset()
	if len(q) == 0 {
		return ErrNothingToQuiz
	}
	s.State = StateGenerated
	s.Label = label
	s.Quiz = q
	s.Answers = make(Answers, len(q))
	return nil
}

// Generate builds a fresh quiz from text with g and starts it.
func (s *Session) Generate(g *Generator, label, text string) error {
	return s.Start(label, g.Generate(text))
}

// Select records option as the answer to item i. Selecting again overwrites.
func (s *Session) Select(i int, option string) error {
	switch s.State {
	case StateNoQuiz:
		return ErrNoActiveQuiz
	case StateSubmitted:
		return ErrAlreadySubmitted
	}
	if i < 0 || i >= len(s.Quiz) {
		return ErrInvalidQuestion
	}
	if !slices.Contains(s.Quiz[i].Options, option) {
		return ErrInvalidOption
	}
	if s.Answers == nil {
		s.Answers = make(Answers)
	}
	s.Answers[i] = option
	return nil
}

// Submit scores the quiz once every item is answered.
// On ErrIncompleteAnswers the session stays in StateGenerated.
func (s *Session) Submit() (Result, error) {
	switch s.State {
	case StateNoQuiz:
		return Result{}, ErrNoActiveQuiz
	case StateSubmitted:
		return s.Result, ErrAlreadySubmitted
	}
	res, err := Score(s.Quiz, s.Answers)
	if err != nil {
		return Result{}, err
	}
	s.State = StateSubmitted
	s.Result = res
	return res, nil
}

// Reset drops the quiz, answers and result.
func (s *Session) Reset() {
	*s = Session{}
}

func (s *Session) Active() bool    { return s.State == StateGenerated }
func (s *Session) Submitted() bool { return s.State == StateSubmitted }
