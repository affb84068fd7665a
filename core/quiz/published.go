package quiz

import (
	"slices"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

// PublishedOptions is the number of options of a teacher-authored question.
const PublishedOptions = 3

var (
	distinctOptionsTag  = "distinctopts"
	distinctOptionsText = "{0} must be distinct"

	answerInOptionsTag  = "answerinopts"
	answerInOptionsText = "the correct answer must be one of the options"
)

// PublishedQuestion is one teacher-authored question.
type PublishedQuestion struct {
	Question string   `json:"question" form:"question" validate:"required"`
	Options  []string `json:"options" form:"options" validate:"len=3,distinctopts,dive,required"`
	Answer   string   `json:"answer" form:"answer" validate:"required"`
}

func (q PublishedQuestion) CorrectAnswer() string { return q.Answer }

// Clean trims every field in place.
func (q *PublishedQuestion) Clean() {
	q.Question = core.CleanString(q.Question)
	q.Answer = core.CleanString(q.Answer)
	for i := range q.Options {
		q.Options[i] = core.CleanString(q.Options[i])
	}
}

// PublishedQuiz is the single quiz a teacher assigns to every student.
type PublishedQuiz struct {
	Title     string              `json:"title" form:"title" validate:"required"`
	Questions []PublishedQuestion `json:"questions" validate:"min=1,dive"`
}

// RegisterValidators registers the validations of published questions on validate.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(distinctOptionsTag, distinctOptionsValidation)
	core.RegisterCustomTranslation(validate, translator, distinctOptionsTag, distinctOptionsText)

	validate.RegisterStructValidation(questionStructValidation, PublishedQuestion{})
	core.RegisterCustomTranslation(validate, translator, answerInOptionsTag, answerInOptionsText)
}

// distinctOptionsValidation checks that no option is repeated.
func distinctOptionsValidation(fl validator.FieldLevel) bool {
	opts, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	sorted := slices.Clone(opts)
	slices.Sort(sorted)
	return len(slices.Compact(sorted)) == len(opts)
}

// questionStructValidation checks that the answer is one of the options.
func questionStructValidation(sl validator.StructLevel) {
	q := sl.Current().Interface().(PublishedQuestion)
	if q.Answer != "" && !slices.Contains(q.Options, q.Answer) {
		sl.ReportError(q.Answer, "answer", "Answer", answerInOptionsTag, "")
	}
}
