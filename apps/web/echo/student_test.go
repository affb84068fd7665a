package echoweb

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/core/attendance"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/user"
)

const photosynthesisText = "Photosynthesis converts sunlight into chemical energy inside green leaves. " +
	"Mitochondria produce cellular energy through aerobic respiration processes! " +
	"Chlorophyll absorbs light mostly within blue and red wavelengths?"

// answerForm answers every item of q: correct ones with the answer, the others with another option.
func answerForm(q quiz.Quiz, correct int) url.Values {
	form := make(url.Values)
	for i, item := range q {
		opt := item.Answer
		if i >= correct {
			for _, o := range item.Options {
				if o != item.Answer {
					opt = o
					break
				}
			}
		}
		form.Set("q"+strconv.Itoa(i), opt)
	}
	return form
}

func TestStudentLessons(t *testing.T) {
	app := newTestApp(t)
	student, _ := app.loggedIn(t, user.RoleStudent, "amina", "Amina")

	_, err := app.c.LessonSvc.Upload("Plants.txt", strings.NewReader(photosynthesisText))
	assert.NoError(t, err)
	_, err = app.c.LessonSvc.Upload("Atlas.pdf", strings.NewReader("%PDF-1.4"))
	assert.NoError(t, err)

	checkResponse(t, student.get("/student/lessons"), http.StatusOK, "/student/lessons", "Plants", "Atlas", "Mark as done")

	resp := student.get("/student/lessons/view?name=Plants.txt")
	checkResponse(t, resp, http.StatusOK, "/student/lessons/view", "Photosynthesis converts sunlight", "Generate a quiz from this lesson")

	resp = student.get("/student/lessons/view?name=Atlas.pdf")
	checkResponse(t, resp, http.StatusOK, "/student/lessons/view", `type="application/pdf"`, "/student/lessons/raw?name=Atlas.pdf")

	resp = student.get("/student/lessons/view?name=Nope.txt")
	checkResponse(t, resp, http.StatusOK, "/student/lessons", "lesson not found")

	resp = student.post("/student/lessons/done", url.Values{"name": {"Plants.txt"}})
	checkResponse(t, resp, http.StatusOK, "/student/lessons", "Plants.txt marked as done.", "✔ done")
	student.post("/student/lessons/done", url.Values{"name": {"Plants.txt"}})

	done, err := app.c.LessonSvc.Completed("amina")
	assert.NoError(t, err)
	assert.Len(t, done, 1)

	checkResponse(t, student.get("/student/progress"), http.StatusOK, "/student/progress", "Plants.txt", "No results yet.")
}

func TestStudentLocalQuiz(t *testing.T) {
	app := newTestApp(t)
	student, _ := app.loggedIn(t, user.RoleStudent, "amina", "Amina")
	want := quiz.NewSeededGenerator(testSeed).Generate(photosynthesisText)
	if len(want) == 0 {
		t.Fatal("photosynthesisText yields no quiz")
	}

	// nothing to answer yet
	resp := student.post("/student/quiz/submit", nil)
	checkResponse(t, resp, http.StatusOK, "/student/quiz", "there is no quiz to answer")

	resp = student.post("/student/quiz/generate", url.Values{"text": {"Too short. Nope!"}})
	checkResponse(t, resp, http.StatusOK, "/student/quiz", "Could not generate a quiz")

	resp = student.post("/student/quiz/generate", url.Values{"text": {photosynthesisText}})
	checkResponse(t, resp, http.StatusOK, "/student/quiz", strconv.Itoa(len(want))+" questions generated.", quiz.BlankMarker)

	// incomplete answers keep the quiz open
	partial := answerForm(want, len(want))
	partial.Del("q0")
	resp = student.post("/student/quiz/submit", partial)
	checkResponse(t, resp, http.StatusOK, "/student/quiz", "please answer all questions before submitting", "Submit answers")

	resp = student.post("/student/quiz/submit", url.Values{"q0": {"not-an-option"}})
	checkResponse(t, resp, http.StatusOK, "/student/quiz", "invalid option")

	score := (quiz.Result{Correct: len(want) - 1, Total: len(want)}).String()
	resp = student.post("/student/quiz/submit", answerForm(want, len(want)-1))
	checkResponse(t, resp, http.StatusOK, "/student/quiz", "You scored "+score+".", "New quiz")

	resp = student.post("/student/quiz/submit", answerForm(want, len(want)))
	checkResponse(t, resp, http.StatusOK, "/student/quiz", "this quiz has already been submitted")

	recs, err := app.c.QuizSvc.ResultsFor(quiz.ResultLocal, "amina")
	if assert.NoError(t, err) && assert.Len(t, recs, 1) {
		assert.Equal(t, quiz.LabelPastedContent, recs[0].Label)
		assert.Equal(t, score, recs[0].Score)
	}
}

func TestStudentQuizFromLesson(t *testing.T) {
	app := newTestApp(t)
	student, _ := app.loggedIn(t, user.RoleStudent, "amina", "")
	_, err := app.c.LessonSvc.Upload("Plants.txt", strings.NewReader(photosynthesisText))
	assert.NoError(t, err)
	want := quiz.NewSeededGenerator(testSeed).Generate(photosynthesisText)

	resp := student.get("/student/quiz?lesson=Plants.txt")
	checkResponse(t, resp, http.StatusOK, "/student/quiz", "Photosynthesis converts sunlight")

	resp = student.post("/student/quiz/generate", url.Values{"lesson": {"Plants.txt"}})
	checkResponse(t, resp, http.StatusOK, "/student/quiz", "Source: <em>Plants.txt</em>")

	resp = student.post("/student/quiz/submit", answerForm(want, len(want)))
	checkResponse(t, resp, http.StatusOK, "/student/quiz", "You scored")

	recs, err := app.c.QuizSvc.ResultsFor(quiz.ResultLocal, "amina")
	if assert.NoError(t, err) && assert.Len(t, recs, 1) {
		assert.Equal(t, "Plants.txt", recs[0].Label)
		assert.Equal(t, (quiz.Result{Correct: len(want), Total: len(want)}).String(), recs[0].Score)
	}

	resp = student.post("/student/quiz/reset", nil)
	checkResponse(t, resp, http.StatusOK, "/student/quiz", "Generate quiz")
}

func TestStudentAssignedQuiz(t *testing.T) {
	app := newTestApp(t)
	student, _ := app.loggedIn(t, user.RoleStudent, "amina", "")

	checkResponse(t, student.get("/student/assigned"), http.StatusOK, "/student/assigned", "No quiz has been assigned yet.")
	resp := student.post("/student/assigned", nil)
	checkResponse(t, resp, http.StatusOK, "/student/assigned", "no quiz has been published")

	_, err := app.c.QuizSvc.Publish("Geography", []quiz.PublishedQuestion{
		{Question: "Capital of Kenya?", Options: []string{"Kisumu", "Nairobi", "Nakuru"}, Answer: "Nairobi"},
		{Question: "Largest lake?", Options: []string{"Victoria", "Turkana", "Naivasha"}, Answer: "Victoria"},
	})
	assert.NoError(t, err)

	resp = student.get("/student/assigned")
	checkResponse(t, resp, http.StatusOK, "/student/assigned", "Capital of Kenya?", `value="Kisumu" checked`)

	resp = student.post("/student/assigned", url.Values{"q0": {"Nairobi"}})
	checkResponse(t, resp, http.StatusOK, "/student/assigned", "please answer all questions before submitting")

	resp = student.post("/student/assigned", url.Values{"q0": {"Nairobi"}, "q1": {"Turkana"}})
	checkResponse(t, resp, http.StatusOK, "/student/assigned", "You scored 1/2.", "Take it again")

	resp = student.post("/student/assigned", url.Values{"q0": {"Nairobi"}, "q1": {"Victoria"}})
	checkResponse(t, resp, http.StatusOK, "/student/assigned", "this quiz has already been submitted")

	student.post("/student/assigned/retake", nil)
	resp = student.post("/student/assigned", url.Values{"q0": {"Nairobi"}, "q1": {"Victoria"}})
	checkResponse(t, resp, http.StatusOK, "/student/assigned", "You scored 2/2.")

	recs, err := app.c.QuizSvc.Results(quiz.ResultAssigned)
	if assert.NoError(t, err) && assert.Len(t, recs, 2) {
		assert.Equal(t, quiz.ResultRecord{Identity: "amina", Label: "Geography", Score: "1/2", Date: recs[0].Date}, recs[0])
		assert.Equal(t, "2/2", recs[1].Score)
	}
}

func TestStudentDashboardAttendance(t *testing.T) {
	app := newTestApp(t)
	student, _ := app.loggedIn(t, user.RoleStudent, "amina", "Amina Wanjiru")

	checkResponse(t, student.get("/student"), http.StatusOK, "/student", "No attendance recorded yet.", "No quiz assigned.")

	_, err := app.c.AttendanceSvc.UploadRoster(strings.NewReader("Amina Wanjiru\nBaraka\n"))
	assert.NoError(t, err)
	_, err = app.c.AttendanceSvc.Mark("2020-02-03", []string{"Amina Wanjiru"})
	assert.NoError(t, err)
	_, err = app.c.AttendanceSvc.Mark("2020-02-04", nil)
	assert.NoError(t, err)

	summary, err := app.srv.attendanceFor(user.User{Name: "Amina Wanjiru", Username: "amina"})
	if assert.NoError(t, err) && assert.NotNil(t, summary) {
		assert.Equal(t, attendance.Summary{Student: "Amina Wanjiru", Present: 1, Absent: 1, Rate: .5}, *summary)
	}
	checkResponse(t, student.get("/student"), http.StatusOK, "/student", "Present 1 / 2 days (50% attendance)")
}
