package echoweb

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/user"
	testutil "github.com/trezcool/elimu/tests"
)

func TestParentDashboard(t *testing.T) {
	app := newTestApp(t)
	parent, _ := app.loggedIn(t, user.RoleParent, "mama_amina", "")
	testutil.CreateUser(t, app.c.UserSvc, user.RoleStudent, "amina", "Amina Wanjiru", "")

	checkResponse(t, parent.get("/parent"), http.StatusOK, "/parent", "Link your child")

	resp := parent.post("/parent/link", url.Values{"student": {"ghost"}})
	checkResponse(t, resp, http.StatusOK, "/parent", "student not found")

	_, err := app.c.QuizSvc.Publish("Geography", []quiz.PublishedQuestion{
		{Question: "Capital of Kenya?", Options: []string{"Kisumu", "Nairobi", "Nakuru"}, Answer: "Nairobi"},
	})
	assert.NoError(t, err)
	_, _, err = app.c.QuizSvc.SubmitAssigned("amina", quiz.Answers{0: "Nairobi"})
	assert.NoError(t, err)
	_, err = app.c.LessonSvc.Upload("Plants.txt", strings.NewReader("Plants grow."))
	assert.NoError(t, err)
	_, err = app.c.LessonSvc.MarkDone("amina", "Plants.txt")
	assert.NoError(t, err)
	_, err = app.c.AttendanceSvc.UploadRoster(strings.NewReader("Amina Wanjiru\n"))
	assert.NoError(t, err)
	_, err = app.c.AttendanceSvc.Mark("2020-02-03", []string{"Amina Wanjiru"})
	assert.NoError(t, err)

	resp = parent.post("/parent/link", url.Values{"student": {" AMINA "}})
	checkResponse(t, resp, http.StatusOK, "/parent",
		"Linked to student amina.",
		"Following <strong>Amina Wanjiru</strong>",
		"Geography", "1/1", "Plants.txt", "Present 1 / 1 days (100% attendance)",
	)

	parentUsr, err := app.c.UserSvc.Get(user.RoleParent, "mama_amina")
	if assert.NoError(t, err) {
		assert.Equal(t, "amina", parentUsr.LinkedStudent)
	}
}
