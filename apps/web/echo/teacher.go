package echoweb

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/announcement"
	"github.com/trezcool/elimu/core/attendance"
	"github.com/trezcool/elimu/core/quiz"
)

const (
	teacherHome       = "/teacher"
	teacherLessons    = "/teacher/lessons"
	teacherQuiz       = "/teacher/quiz"
	teacherAttendance = "/teacher/attendance"
)

type (
	teacherDashboard struct {
		Announcements []announcement.Announcement
		Lessons       int
		Published     *quiz.PublishedQuiz
		Roster        int
	}

	quizBuilder struct {
		Draft     []quiz.PublishedQuestion
		Published *quiz.PublishedQuiz
		Options   []int // option input slots
	}

	teacherResults struct {
		Local    []quiz.ResultRecord
		Assigned []quiz.ResultRecord
	}

	attendanceSheet struct {
		Date    string
		Roster  []string
		Present map[string]bool
		Marked  bool
		Report  attendance.Report
	}
)

func (s *Server) registerTeacher(g *echo.Group) {
	g.GET("", s.teacherDashboard)
	g.POST("/announcements", s.postAnnouncement)
	g.POST("/announcements/delete", s.deleteAnnouncement)

	g.GET("/lessons", s.teacherLessons)
	g.POST("/lessons", s.uploadLesson)
	g.GET("/lessons/raw", s.lessonRaw)

	g.GET("/quiz", s.quizBuilder)
	g.POST("/quiz/questions", s.addDraftQuestion)
	g.POST("/quiz/questions/delete", s.removeDraftQuestion)
	g.POST("/quiz/clear", s.clearDraft)
	g.POST("/quiz/publish", s.publishQuiz)
	g.POST("/quiz/delete", s.deletePublishedQuiz)

	g.GET("/results", s.teacherResults)

	g.GET("/attendance", s.attendanceSheet)
	g.POST("/attendance", s.markAttendance)
	g.POST("/attendance/roster", s.uploadRoster)

	g.POST("/reset", s.resetData)
}

// published returns the published quiz, or nil when there is none.
func (s *Server) published() (*quiz.PublishedQuiz, error) {
	pq, err := s.QuizSvc.Published()
	if err != nil {
		if errors.Cause(err) == quiz.ErrNoPublishedQuiz {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting published quiz")
	}
	return &pq, nil
}

func (s *Server) teacherDashboard(ctx echo.Context) error {
	var data teacherDashboard
	var err error

	if data.Announcements, err = s.AnnouncementSvc.List(); err != nil {
		return errors.Wrap(err, "listing announcements")
	}
	lessons, err := s.LessonSvc.List()
	if err != nil {
		return errors.Wrap(err, "listing lessons")
	}
	data.Lessons = len(lessons)
	if data.Published, err = s.published(); err != nil {
		return err
	}
	roster, err := s.AttendanceSvc.Roster()
	if err != nil {
		return errors.Wrap(err, "getting roster")
	}
	data.Roster = len(roster)

	return render(ctx, http.StatusOK, "teacher_dashboard", "Teacher dashboard", data)
}

func (s *Server) postAnnouncement(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if _, err := s.AnnouncementSvc.Post(data); err != nil {
		return s.redirectOnUserError(ctx, errors.Wrap(err, "posting announcement"), teacherHome)
	}
	return flashRedirect(ctx, flashSuccess, "Announcement posted.", teacherHome)
}

func (s *Server) deleteAnnouncement(ctx echo.Context) error {
	if err := s.AnnouncementSvc.Delete(ctx.FormValue("id")); err != nil {
		return s.redirectOnUserError(ctx, errors.Wrap(err, "deleting announcement"), teacherHome)
	}
	return flashRedirect(ctx, flashSuccess, "Announcement deleted.", teacherHome)
}

func (s *Server) teacherLessons(ctx echo.Context) error {
	lessons, err := s.LessonSvc.List()
	if err != nil {
		return errors.Wrap(err, "listing lessons")
	}
	return render(ctx, http.StatusOK, "teacher_lessons", "Lessons", lessons)
}

func (s *Server) uploadLesson(ctx echo.Context) error {
	fh, err := ctx.FormFile("lesson")
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return flashRedirect(ctx, flashError, "Please choose a .pdf or .txt file.", teacherLessons)
		}
		return errors.Wrap(err, "reading uploaded lesson")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded lesson")
	}
	defer func() { _ = f.Close() }()

	l, err := s.LessonSvc.Upload(fh.Filename, f)
	if err != nil {
		return s.redirectOnUserError(ctx, errors.Wrap(err, "uploading lesson"), teacherLessons)
	}
	return flashRedirect(ctx, flashSuccess, "Uploaded "+l.Name+".", teacherLessons)
}

// lessonRaw streams a lesson file inline, for PDF embedding and downloads.
func (s *Server) lessonRaw(ctx echo.Context) error {
	rc, l, err := s.LessonSvc.Open(ctx.QueryParam("name"))
	if err != nil {
		return errors.Wrap(err, "opening lesson")
	}
	defer func() { _ = rc.Close() }()

	contentType := echo.MIMETextPlainCharsetUTF8
	if l.IsPDF() {
		contentType = "application/pdf"
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+l.Name+`"`)
	return ctx.Stream(http.StatusOK, contentType, rc)
}

func (s *Server) renderQuizBuilder(ctx echo.Context, code int, fldErrs ...map[string]string) error {
	pq, err := s.published()
	if err != nil {
		return err
	}
	data := quizBuilder{
		Draft:     sessionContext(ctx).DraftQuiz,
		Published: pq,
		Options:   make([]int, quiz.PublishedOptions),
	}
	return render(ctx, code, "teacher_quiz", "Quiz builder", data, fldErrs...)
}

func (s *Server) quizBuilder(ctx echo.Context) error {
	return s.renderQuizBuilder(ctx, http.StatusOK)
}

func (s *Server) addDraftQuestion(ctx echo.Context) error {
	var q quiz.PublishedQuestion
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to PublishedQuestion")
	}
	if err := s.QuizSvc.ValidateQuestion(&q); err != nil {
		if fldErrs, ok := fieldErrors(err, s.Translator); ok {
			return s.renderQuizBuilder(ctx, http.StatusBadRequest, fldErrs)
		}
		return errors.Wrap(err, "validating question")
	}

	sc := sessionContext(ctx)
	sc.DraftQuiz = append(sc.DraftQuiz, q)
	return flashRedirect(ctx, flashSuccess, "Question added to the draft.", teacherQuiz)
}

func (s *Server) removeDraftQuestion(ctx echo.Context) error {
	sc := sessionContext(ctx)
	i, err := strconv.Atoi(ctx.FormValue("index"))
	if err != nil || i < 0 || i >= len(sc.DraftQuiz) {
		return flashRedirect(ctx, flashError, quiz.ErrInvalidQuestion.Error(), teacherQuiz)
	}
	sc.DraftQuiz = append(sc.DraftQuiz[:i], sc.DraftQuiz[i+1:]...)
	return flashRedirect(ctx, flashInfo, "Question removed from the draft.", teacherQuiz)
}

func (s *Server) clearDraft(ctx echo.Context) error {
	sessionContext(ctx).DraftQuiz = nil
	return flashRedirect(ctx, flashInfo, "Draft cleared.", teacherQuiz)
}

func (s *Server) publishQuiz(ctx echo.Context) error {
	sc := sessionContext(ctx)
	if len(sc.DraftQuiz) == 0 {
		return flashRedirect(ctx, flashWarning, "Add at least one question before publishing.", teacherQuiz)
	}

	pq, err := s.QuizSvc.Publish(ctx.FormValue("title"), sc.DraftQuiz)
	if err != nil {
		if fldErrs, ok := fieldErrors(err, s.Translator); ok {
			return s.renderQuizBuilder(ctx, http.StatusBadRequest, fldErrs)
		}
		return errors.Wrap(err, "publishing quiz")
	}

	sc.DraftQuiz = nil
	s.Logger.Info("quiz published: " + pq.Title)
	return flashRedirect(ctx, flashSuccess, `Quiz "`+pq.Title+`" published.`, teacherQuiz)
}

func (s *Server) deletePublishedQuiz(ctx echo.Context) error {
	if err := s.QuizSvc.DeletePublished(); err != nil {
		return s.redirectOnUserError(ctx, errors.Wrap(err, "deleting published quiz"), teacherQuiz)
	}
	return flashRedirect(ctx, flashSuccess, "Published quiz deleted.", teacherQuiz)
}

func (s *Server) teacherResults(ctx echo.Context) error {
	var data teacherResults
	var err error
	if data.Local, err = s.QuizSvc.Results(quiz.ResultLocal); err != nil {
		return errors.Wrap(err, "querying local results")
	}
	if data.Assigned, err = s.QuizSvc.Results(quiz.ResultAssigned); err != nil {
		return errors.Wrap(err, "querying assigned results")
	}
	return render(ctx, http.StatusOK, "teacher_results", "Quiz results", data)
}

func (s *Server) attendanceSheet(ctx echo.Context) error {
	day, err := s.AttendanceSvc.Day(ctx.QueryParam("date"))
	if err != nil {
		return s.redirectOnUserError(ctx, errors.Wrap(err, "getting attendance day"), teacherAttendance)
	}
	roster, err := s.AttendanceSvc.Roster()
	if err != nil {
		return errors.Wrap(err, "getting roster")
	}
	report, err := s.AttendanceSvc.Report()
	if err != nil {
		return errors.Wrap(err, "building attendance report")
	}

	data := attendanceSheet{
		Date:    day.Date,
		Roster:  roster,
		Present: make(map[string]bool, len(day.Records)),
		Marked:  len(day.Records) > 0,
		Report:  report,
	}
	for _, rec := range day.Records {
		data.Present[rec.Student] = rec.Status == attendance.StatusPresent
	}
	return render(ctx, http.StatusOK, "teacher_attendance", "Attendance", data)
}

func (s *Server) markAttendance(ctx echo.Context) error {
	params, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "reading form")
	}

	day, err := s.AttendanceSvc.Mark(params.Get("date"), params["present"])
	if err != nil {
		return s.redirectOnUserError(ctx, errors.Wrap(err, "marking attendance"), teacherAttendance)
	}

	present := 0
	for _, rec := range day.Records {
		if rec.Status == attendance.StatusPresent {
			present++
		}
	}
	msg := "Attendance saved for " + day.Date + ": " + strconv.Itoa(present) + "/" + strconv.Itoa(len(day.Records)) + " present."
	return flashRedirect(ctx, flashSuccess, msg, teacherAttendance+"?date="+day.Date)
}

func (s *Server) uploadRoster(ctx echo.Context) error {
	var names []string
	fh, err := ctx.FormFile("roster")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded roster")
		}
		defer func() { _ = f.Close() }()
		names, err = s.AttendanceSvc.UploadRoster(f)
		if err != nil {
			return s.redirectOnUserError(ctx, errors.Wrap(err, "uploading roster"), teacherAttendance)
		}
	case err == http.ErrMissingFile || err == http.ErrNotMultipart: // names typed in the textarea
		names, err = s.AttendanceSvc.UploadRoster(strings.NewReader(ctx.FormValue("names")))
		if err != nil {
			return s.redirectOnUserError(ctx, errors.Wrap(err, "saving roster"), teacherAttendance)
		}
	default:
		return errors.Wrap(err, "reading uploaded roster")
	}
	return flashRedirect(ctx, flashSuccess, "Roster saved with "+strconv.Itoa(len(names))+" students.", teacherAttendance)
}

func (s *Server) resetData(ctx echo.Context) error {
	if err := s.Data.Reset(); err != nil {
		return errors.Wrap(err, "resetting app data")
	}
	s.Logger.Warn("app data reset", contextUser(ctx))
	return flashRedirect(ctx, flashSuccess, "Lessons, quiz results, progress and the published quiz were removed.", teacherHome)
}
