package echoweb

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/core/attendance"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
	testutil "github.com/trezcool/elimu/tests"
)

func TestTeacherAnnouncements(t *testing.T) {
	app := newTestApp(t)
	teacher, _ := app.loggedIn(t, user.RoleTeacher, "mwalimu", "Mwalimu")
	testutil.CreateUser(t, app.c.UserSvc, user.RoleStudent, "baraka", "Baraka", "baraka@test.test")
	testutil.CreateUser(t, app.c.UserSvc, user.RoleParent, "mama_baraka", "", "mama@test.test")
	testutil.CreateUser(t, app.c.UserSvc, user.RoleStudent, "noemail", "", "")

	resp := teacher.post("/teacher/announcements", url.Values{"message": {"  Exams start on Monday  "}})
	checkResponse(t, resp, http.StatusOK, "/teacher", "Announcement posted.", "Exams start on Monday")

	anns, err := app.c.AnnouncementSvc.List()
	if !assert.NoError(t, err) || !assert.Len(t, anns, 1) {
		return
	}
	assert.Equal(t, "Exams start on Monday", anns[0].Message)

	sent := emailsvc.SentMessages()
	if assert.Len(t, sent, 1) {
		assert.Len(t, sent[0].Bcc, 2)
		assert.Contains(t, sent[0].TextContent, "Exams start on Monday")
	}

	resp = teacher.post("/teacher/announcements", url.Values{"message": {"   "}})
	checkResponse(t, resp, http.StatusOK, "/teacher", "this field is required")

	resp = teacher.post("/teacher/announcements/delete", url.Values{"id": {anns[0].ID}})
	checkResponse(t, resp, http.StatusOK, "/teacher", "Announcement deleted.", "No announcements.")

	resp = teacher.post("/teacher/announcements/delete", url.Values{"id": {anns[0].ID}})
	checkResponse(t, resp, http.StatusOK, "/teacher", "announcement not found")
}

func TestTeacherLessons(t *testing.T) {
	app := newTestApp(t)
	teacher, _ := app.loggedIn(t, user.RoleTeacher, "mwalimu", "")

	resp := teacher.upload("/teacher/lessons", "lesson", "../Cells 101.txt", []byte("Cells are small."), nil)
	checkResponse(t, resp, http.StatusOK, "/teacher/lessons", "Uploaded Cells 101.txt.")
	_, err := os.Stat(filepath.Join(app.c.Conf.DataDir, "content", "Cells 101.txt"))
	assert.NoError(t, err)

	resp = teacher.upload("/teacher/lessons", "lesson", "virus.exe", []byte("MZ"), nil)
	checkResponse(t, resp, http.StatusOK, "/teacher/lessons", "only .pdf and .txt lessons are supported")

	resp = teacher.get("/teacher/lessons/raw?name=" + url.QueryEscape("Cells 101.txt"))
	checkResponse(t, resp, http.StatusOK, "", "Cells are small.")

	resp = teacher.get("/teacher/lessons/raw?name=missing.txt")
	checkResponse(t, resp, http.StatusNotFound, "")
}

func TestTeacherQuizBuilder(t *testing.T) {
	app := newTestApp(t)
	teacher, _ := app.loggedIn(t, user.RoleTeacher, "mwalimu", "")

	question := func(q, answer string, opts ...string) url.Values {
		return url.Values{"question": {q}, "options": opts, "answer": {answer}}
	}

	tests := []struct {
		name     string
		form     url.Values
		wantCode int
		wantBody string
	}{
		{"answer not an option", question("Capital of Kenya?", "Mombasa", "Nairobi", "Kisumu", "Nakuru"), http.StatusBadRequest, "the correct answer must be one of the options"},
		{"duplicate options", question("Capital of Kenya?", "Nairobi", "Nairobi", "Nairobi", "Nakuru"), http.StatusBadRequest, "options must be distinct"},
		{"two options", question("Capital of Kenya?", "Nairobi", "Nairobi", "Nakuru"), http.StatusBadRequest, "options must contain 3 items"},
		{"empty question", question(" ", "Nairobi", "Nairobi", "Kisumu", "Nakuru"), http.StatusBadRequest, "question: this field is required"},
		{"valid", question("Capital of Kenya?", " Nairobi ", "Nairobi", "Kisumu", "Nakuru"), http.StatusOK, "Question added to the draft."},
		{"valid 2", question("Largest lake?", "Victoria", "Turkana", "Victoria", "Naivasha"), http.StatusOK, "Draft (2 questions)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := teacher.post("/teacher/quiz/questions", tt.form)
			checkResponse(t, resp, tt.wantCode, "", tt.wantBody)
		})
	}

	resp := teacher.post("/teacher/quiz/publish", url.Values{"title": {"  "}})
	checkResponse(t, resp, http.StatusBadRequest, "/teacher/quiz/publish", "title: this field is required")

	resp = teacher.post("/teacher/quiz/questions/delete", url.Values{"index": {"5"}})
	checkResponse(t, resp, http.StatusOK, "/teacher/quiz", "invalid question")

	resp = teacher.post("/teacher/quiz/publish", url.Values{"title": {"Geography"}})
	checkResponse(t, resp, http.StatusOK, "/teacher/quiz", "published.", "The draft is empty.")

	pq, err := app.c.QuizSvc.Published()
	if assert.NoError(t, err) {
		assert.Equal(t, "Geography", pq.Title)
		assert.Len(t, pq.Questions, 2)
		assert.Equal(t, "Nairobi", pq.Questions[0].Answer)
	}

	resp = teacher.post("/teacher/quiz/publish", nil)
	checkResponse(t, resp, http.StatusOK, "/teacher/quiz", "Add at least one question before publishing.")

	resp = teacher.post("/teacher/quiz/delete", nil)
	checkResponse(t, resp, http.StatusOK, "/teacher/quiz", "Published quiz deleted.", "No quiz published.")
	_, err = app.c.QuizSvc.Published()
	assert.Equal(t, quiz.ErrNoPublishedQuiz, err)
}

func TestTeacherAttendance(t *testing.T) {
	app := newTestApp(t)
	teacher, _ := app.loggedIn(t, user.RoleTeacher, "mwalimu", "")

	resp := teacher.post("/teacher/attendance", url.Values{"present": {"Amina"}})
	checkResponse(t, resp, http.StatusOK, "/teacher/attendance", "the roster has no students")

	resp = teacher.upload("/teacher/attendance/roster", "roster", "roster.csv", []byte("\ufeffStudent Name\nAmina\nBaraka\namina\n\nChausiku\n"), nil)
	checkResponse(t, resp, http.StatusOK, "/teacher/attendance", "Roster saved with 3 students.")

	resp = teacher.post("/teacher/attendance", url.Values{"date": {"2020-02-03"}, "present": {"Amina", "Chausiku", "Stranger"}})
	checkResponse(t, resp, http.StatusOK, "/teacher/attendance", "Attendance saved for 2020-02-03: 2/3 present.")

	resp = teacher.post("/teacher/attendance", url.Values{"date": {"2999-01-01"}})
	checkResponse(t, resp, http.StatusOK, "/teacher/attendance", "attendance cannot be marked for a future date")
	resp = teacher.post("/teacher/attendance", url.Values{"date": {"03/02/2020"}})
	checkResponse(t, resp, http.StatusOK, "/teacher/attendance", "date must be formatted as YYYY-MM-DD")

	// re-marking replaces the day
	teacher.post("/teacher/attendance", url.Values{"date": {"2020-02-03"}, "present": {"Amina", "Baraka", "Chausiku"}})
	report, err := app.c.AttendanceSvc.Report()
	if assert.NoError(t, err) {
		assert.Len(t, report.Days, 1)
		assert.Equal(t, attendance.Summary{Student: "Baraka", Present: 1, Rate: 1}, report.Summaries[1])
	}

	// the textarea replaces the roster
	resp = teacher.post("/teacher/attendance/roster", url.Values{"names": {"Dalia\nEsi"}})
	checkResponse(t, resp, http.StatusOK, "/teacher/attendance", "Roster saved with 2 students.", "Dalia", "100%")
}

func TestTeacherResultsAndReset(t *testing.T) {
	app := newTestApp(t)
	teacher, _ := app.loggedIn(t, user.RoleTeacher, "mwalimu", "")

	_, err := app.c.LessonSvc.Upload("notes.txt", strings.NewReader("Some notes."))
	assert.NoError(t, err)
	_, err = app.c.QuizSvc.Publish("Geography", []quiz.PublishedQuestion{
		{Question: "Capital of Kenya?", Options: []string{"Nairobi", "Kisumu", "Nakuru"}, Answer: "Nairobi"},
	})
	assert.NoError(t, err)
	_, _, err = app.c.QuizSvc.SubmitAssigned("baraka", quiz.Answers{0: "Nairobi"})
	assert.NoError(t, err)
	sess := new(quiz.Session)
	assert.NoError(t, sess.Start(quiz.LabelPastedContent, quiz.Quiz{{Question: "_____ q", Options: []string{"a", "b", "c", "d"}, Answer: "a"}}))
	assert.NoError(t, sess.Select(0, "b"))
	_, err = app.c.QuizSvc.SubmitLocal("amina", sess)
	assert.NoError(t, err)

	resp := teacher.get("/teacher/results")
	checkResponse(t, resp, http.StatusOK, "/teacher/results", "baraka", "Geography", "1/1", "amina", "Pasted Content", "0/1")

	resp = teacher.post("/teacher/reset", nil)
	checkResponse(t, resp, http.StatusOK, "/teacher", "were removed", "0 lessons uploaded", "no quiz published")

	local, err := app.c.QuizSvc.Results(quiz.ResultLocal)
	assert.NoError(t, err)
	assert.Empty(t, local)
	assigned, err := app.c.QuizSvc.Results(quiz.ResultAssigned)
	assert.NoError(t, err)
	assert.Len(t, assigned, 1)
	_, err = os.Stat(filepath.Join(app.c.Conf.DataDir, "content"))
	assert.NoError(t, err)
}
