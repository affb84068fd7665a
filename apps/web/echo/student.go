package echoweb

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/announcement"
	"github.com/trezcool/elimu/core/attendance"
	"github.com/trezcool/elimu/core/lesson"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/user"
)

const (
	studentLessons  = "/student/lessons"
	studentQuiz     = "/student/quiz"
	studentAssigned = "/student/assigned"
)

type (
	lessonEntry struct {
		lesson.Lesson
		Done bool
	}

	studentDashboard struct {
		Announcements []announcement.Announcement
		Lessons       []lessonEntry
		Published     *quiz.PublishedQuiz
		Attendance    *attendance.Summary
	}

	lessonView struct {
		Lesson lesson.Lesson
		Text   string
		Done   bool
	}

	localQuiz struct {
		Quiz        *quiz.Session
		TextLessons []lesson.Lesson
		Lesson      string // prefilled source lesson
		Text        string
	}

	assignedQuiz struct {
		Quiz      *quiz.PublishedQuiz
		Answers   quiz.Answers
		Submitted bool
		Result    quiz.Result
	}

	// progress is what a student, or their parent, sees of the student's work.
	progress struct {
		Student    user.User
		Completed  []lesson.Completion
		Local      []quiz.ResultRecord
		Assigned   []quiz.ResultRecord
		Attendance *attendance.Summary
	}
)

func (s *Server) registerStudent(g *echo.Group) {
	g.GET("", s.studentDashboard)

	g.GET("/lessons", s.studentLessons)
	g.GET("/lessons/view", s.viewLesson)
	g.GET("/lessons/raw", s.lessonRaw)
	g.POST("/lessons/done", s.markLessonDone)

	g.GET("/progress", s.studentProgress)

	g.GET("/quiz", s.localQuiz)
	g.POST("/quiz/generate", s.generateQuiz)
	g.POST("/quiz/submit", s.submitLocalQuiz)
	g.POST("/quiz/reset", s.resetLocalQuiz)

	g.GET("/assigned", s.assignedQuiz)
	g.POST("/assigned", s.submitAssignedQuiz)
	g.POST("/assigned/retake", s.retakeAssignedQuiz)
}

func (s *Server) currentUser(ctx echo.Context) (user.User, error) {
	sc := sessionContext(ctx)
	usr, err := s.UserSvc.Get(sc.Role, sc.Identity)
	return usr, errors.Wrap(err, "getting current user")
}

// lessonEntries lists every lesson, flagging those the student completed.
func (s *Server) lessonEntries(student string) ([]lessonEntry, error) {
	lessons, err := s.LessonSvc.List()
	if err != nil {
		return nil, errors.Wrap(err, "listing lessons")
	}
	done, err := s.LessonSvc.Completed(student)
	if err != nil {
		return nil, errors.Wrap(err, "listing completed lessons")
	}
	isDone := make(map[string]bool, len(done))
	for _, c := range done {
		isDone[c.Lesson] = true
	}

	entries := make([]lessonEntry, 0, len(lessons))
	for _, l := range lessons {
		entries = append(entries, lessonEntry{Lesson: l, Done: isDone[l.Name]})
	}
	return entries, nil
}

// attendanceFor finds the roster entry of a student, by name then by username.
func (s *Server) attendanceFor(student user.User) (*attendance.Summary, error) {
	for _, name := range []string{student.Name, student.Username} {
		if name == "" {
			continue
		}
		summary, ok, err := s.AttendanceSvc.SummaryFor(name)
		if err != nil {
			return nil, errors.Wrap(err, "getting attendance summary")
		}
		if ok {
			return &summary, nil
		}
	}
	return nil, nil
}

func (s *Server) progressOf(student user.User) (progress, error) {
	data := progress{Student: student}
	var err error
	if data.Completed, err = s.LessonSvc.Completed(student.Username); err != nil {
		return data, errors.Wrap(err, "listing completed lessons")
	}
	if data.Local, err = s.QuizSvc.ResultsFor(quiz.ResultLocal, student.Username); err != nil {
		return data, errors.Wrap(err, "querying local results")
	}
	if data.Assigned, err = s.QuizSvc.ResultsFor(quiz.ResultAssigned, student.Username); err != nil {
		return data, errors.Wrap(err, "querying assigned results")
	}
	data.Attendance, err = s.attendanceFor(student)
	return data, err
}

func (s *Server) studentDashboard(ctx echo.Context) error {
	usr, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	var data studentDashboard
	if data.Announcements, err = s.AnnouncementSvc.List(); err != nil {
		return errors.Wrap(err, "listing announcements")
	}
	if data.Lessons, err = s.lessonEntries(usr.Username); err != nil {
		return err
	}
	if data.Published, err = s.published(); err != nil {
		return err
	}
	if data.Attendance, err = s.attendanceFor(usr); err != nil {
		return err
	}
	return render(ctx, http.StatusOK, "student_dashboard", "Student dashboard", data)
}

func (s *Server) studentLessons(ctx echo.Context) error {
	entries, err := s.lessonEntries(sessionContext(ctx).Identity)
	if err != nil {
		return err
	}
	return render(ctx, http.StatusOK, "student_lessons", "Lessons", entries)
}

func (s *Server) viewLesson(ctx echo.Context) error {
	name := ctx.QueryParam("name")
	var data lessonView
	var err error

	data.Lesson, data.Text, err = s.LessonSvc.ReadText(name)
	if err != nil && errors.Cause(err) != lesson.ErrNotText {
		return s.redirectOnUserError(ctx, errors.Wrap(err, "reading lesson"), studentLessons)
	}

	entries, err := s.lessonEntries(sessionContext(ctx).Identity)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name == data.Lesson.Name {
			data.Done = e.Done
		}
	}
	return render(ctx, http.StatusOK, "student_lesson", data.Lesson.Title(), data)
}

func (s *Server) markLessonDone(ctx echo.Context) error {
	name := ctx.FormValue("name")
	c, err := s.LessonSvc.MarkDone(sessionContext(ctx).Identity, name)
	if err != nil {
		return s.redirectOnUserError(ctx, errors.Wrap(err, "marking lesson done"), studentLessons)
	}
	return flashRedirect(ctx, flashSuccess, c.Lesson+" marked as done.", studentLessons)
}

func (s *Server) studentProgress(ctx echo.Context) error {
	usr, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	data, err := s.progressOf(usr)
	if err != nil {
		return err
	}
	return render(ctx, http.StatusOK, "progress", "My progress", data)
}

func (s *Server) textLessons() ([]lesson.Lesson, error) {
	lessons, err := s.LessonSvc.List()
	if err != nil {
		return nil, errors.Wrap(err, "listing lessons")
	}
	var texts []lesson.Lesson
	for _, l := range lessons {
		if l.IsText() {
			texts = append(texts, l)
		}
	}
	return texts, nil
}

func (s *Server) localQuiz(ctx echo.Context) error {
	sc := sessionContext(ctx)
	data := localQuiz{Quiz: &sc.LocalQuiz, Lesson: ctx.QueryParam("lesson")}
	var err error
	if data.TextLessons, err = s.textLessons(); err != nil {
		return err
	}
	if data.Lesson != "" {
		if _, data.Text, err = s.LessonSvc.ReadText(data.Lesson); err != nil {
			return s.redirectOnUserError(ctx, errors.Wrap(err, "reading lesson"), studentQuiz)
		}
	}
	return render(ctx, http.StatusOK, "student_quiz", "Practice quiz", data)
}

// generateQuiz starts a quiz from a text lesson, or from pasted text when no lesson is chosen.
func (s *Server) generateQuiz(ctx echo.Context) error {
	label, text := quiz.LabelPastedContent, ctx.FormValue("text")
	if name := ctx.FormValue("lesson"); name != "" {
		l, content, err := s.LessonSvc.ReadText(name)
		if err != nil {
			return s.redirectOnUserError(ctx, errors.Wrap(err, "reading lesson"), studentQuiz)
		}
		label, text = l.Name, content
	}

	sc := sessionContext(ctx)
	if err := sc.LocalQuiz.Generate(s.NewGenerator(), label, text); err != nil {
		if errors.Cause(err) == quiz.ErrNothingToQuiz {
			msg := "Could not generate a quiz: the text needs sentences with at least four meaningful words."
			return flashRedirect(ctx, flashWarning, msg, studentQuiz)
		}
		return errors.Wrap(err, "generating quiz")
	}
	return flashRedirect(ctx, flashInfo, strconv.Itoa(len(sc.LocalQuiz.Quiz))+" questions generated.", studentQuiz)
}

// formAnswers reads the answers posted as q0, q1, ... for n questions; unanswered ones are left out.
func formAnswers(ctx echo.Context, n int) quiz.Answers {
	answers := make(quiz.Answers, n)
	for i := 0; i < n; i++ {
		if opt := ctx.FormValue("q" + strconv.Itoa(i)); opt != "" {
			answers[i] = opt
		}
	}
	return answers
}

func (s *Server) submitLocalQuiz(ctx echo.Context) error {
	sc := sessionContext(ctx)
	for i, opt := range formAnswers(ctx, len(sc.LocalQuiz.Quiz)) {
		if err := sc.LocalQuiz.Select(i, opt); err != nil {
			return s.redirectOnUserError(ctx, errors.Wrap(err, "selecting answer"), studentQuiz)
		}
	}

	res, err := s.QuizSvc.SubmitLocal(sc.Identity, &sc.LocalQuiz)
	if err != nil {
		return s.redirectOnUserError(ctx, errors.Wrap(err, "submitting quiz"), studentQuiz)
	}
	kind := flashInfo
	if res.Perfect() {
		kind = flashSuccess
	}
	return flashRedirect(ctx, kind, "You scored "+res.String()+".", studentQuiz)
}

func (s *Server) resetLocalQuiz(ctx echo.Context) error {
	sessionContext(ctx).LocalQuiz.Reset()
	return redirect(ctx, studentQuiz)
}

func (s *Server) assignedQuiz(ctx echo.Context) error {
	pq, err := s.published()
	if err != nil {
		return err
	}

	sc := sessionContext(ctx)
	data := assignedQuiz{Quiz: pq}
	if pq != nil && sc.AssignedTitle == pq.Title {
		data.Answers = sc.AssignedAnswers
		data.Submitted = sc.AssignedSubmitted
		data.Result = sc.AssignedResult
	}
	return render(ctx, http.StatusOK, "student_assigned", "Assigned quiz", data)
}

func (s *Server) submitAssignedQuiz(ctx echo.Context) error {
	pq, err := s.published()
	if err != nil {
		return err
	}
	if pq == nil {
		return flashRedirect(ctx, flashWarning, quiz.ErrNoPublishedQuiz.Error(), studentAssigned)
	}

	sc := sessionContext(ctx)
	if sc.AssignedSubmitted && sc.AssignedTitle == pq.Title {
		return flashRedirect(ctx, flashWarning, quiz.ErrAlreadySubmitted.Error(), studentAssigned)
	}
	answers := formAnswers(ctx, len(pq.Questions))
	sc.AssignedTitle = pq.Title
	sc.AssignedAnswers = answers

	pq2, res, err := s.QuizSvc.SubmitAssigned(sc.Identity, answers)
	if err != nil {
		return s.redirectOnUserError(ctx, errors.Wrap(err, "submitting assigned quiz"), studentAssigned)
	}
	sc.AssignedTitle = pq2.Title
	sc.AssignedSubmitted = true
	sc.AssignedResult = res
	return flashRedirect(ctx, flashSuccess, "Quiz submitted. You scored "+res.String()+".", studentAssigned)
}

func (s *Server) retakeAssignedQuiz(ctx echo.Context) error {
	sessionContext(ctx).ResetAssigned()
	return redirect(ctx, studentAssigned)
}
