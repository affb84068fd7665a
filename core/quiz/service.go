package quiz

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

var ErrNoPublishedQuiz = errors.New("no quiz has been published")

type (
	// ResultRepository appends to and reads the result logs.
	ResultRepository interface {
		AppendResult(kind ResultKind, rec ResultRecord) error
		QueryResults(kind ResultKind) ([]ResultRecord, error)
	}

	// PublishedRepository stores the single published quiz.
	PublishedRepository interface {
		SavePublishedQuiz(pq PublishedQuiz) error
		// GetPublishedQuiz returns ErrNoPublishedQuiz when none is stored.
		GetPublishedQuiz() (PublishedQuiz, error)
		DeletePublishedQuiz() error
	}

	Service struct {
		results   ResultRepository
		published PublishedRepository
		validate  *validator.Validate
	}
)

func NewService(results ResultRepository, published PublishedRepository, validate *validator.Validate) *Service {
	return &Service{results: results, published: published, validate: validate}
}

// SubmitLocal submits sess and appends the result to the local log under identity.
// sess only becomes submitted once the result is recorded, so a failed append can be retried.
func (svc *Service) SubmitLocal(identity string, sess *Session) (Result, error) {
	next := *sess
	res, err := next.Submit()
	if err != nil {
		return Result{}, err
	}
	if err := svc.record(ResultLocal, identity, sess.Label, res); err != nil {
		return Result{}, err
	}
	*sess = next
	return res, nil
}

// SubmitAssigned scores answers against the published quiz and appends the result under identity.
func (svc *Service) SubmitAssigned(identity string, answers Answers) (PublishedQuiz, Result, error) {
	pq, err := svc.published.GetPublishedQuiz()
	if err != nil {
		return PublishedQuiz{}, Result{}, err
	}
	res, err := Score(pq.Questions, answers)
	if err != nil {
		return pq, Result{}, err
	}
	return pq, res, svc.record(ResultAssigned, identity, pq.Title, res)
}

func (svc *Service) record(kind ResultKind, identity, label string, res Result) error {
	return svc.results.AppendResult(kind, ResultRecord{
		Identity: identity,
		Label:    label,
		Score:    res.String(),
		Date:     core.Timestamp(),
	})
}

// ValidateQuestion cleans and validates a draft question.
func (svc *Service) ValidateQuestion(q *PublishedQuestion) error {
	q.Clean()
	return svc.validate.Struct(q)
}

// Publish validates and stores the quiz, replacing any previous one.
func (svc *Service) Publish(title string, questions []PublishedQuestion) (PublishedQuiz, error) {
	pq := PublishedQuiz{Title: core.CleanString(title), Questions: questions}
	for i := range pq.Questions {
		pq.Questions[i].Clean()
	}
	if err := svc.validate.Struct(pq); err != nil {
		return PublishedQuiz{}, err
	}
	if err := svc.published.SavePublishedQuiz(pq); err != nil {
		return PublishedQuiz{}, err
	}
	return pq, nil
}

func (svc *Service) Published() (PublishedQuiz, error) {
	return svc.published.GetPublishedQuiz()
}

func (svc *Service) DeletePublished() error {
	return svc.published.DeletePublishedQuiz()
}

func (svc *Service) Results(kind ResultKind) ([]ResultRecord, error) {
	return svc.results.QueryResults(kind)
}

// ResultsFor returns the records of one student, oldest first.
func (svc *Service) ResultsFor(kind ResultKind, identity string) ([]ResultRecord, error) {
	all, err := svc.results.QueryResults(kind)
	if err != nil {
		return nil, err
	}
	var recs []ResultRecord
	for _, rec := range all {
		if rec.Identity == identity {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}
