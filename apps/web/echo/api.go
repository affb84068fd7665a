package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/user"
)

const apiPrefix = "/api/"

type (
	LoginResponse struct {
		Token string `json:"token"`
	}

	GenerateRequest struct {
		Text string  `json:"text"`
		Seed *uint64 `json:"seed,omitempty"` // for reproducible quizzes
	}

	GenerateResponse struct {
		Items quiz.Quiz `json:"items"`
	}

	ScoreRequest struct {
		Items   []quiz.Item  `json:"items"`
		Answers quiz.Answers `json:"answers"` // {"0": "option", ...}
	}
)

func (s *Server) registerAPI(g *echo.Group) {
	// un-authed endpoints
	g.POST("/login", s.apiLogin)

	// authed endpoints
	ag := g.Group("", s.jwt.middlewareFunc())
	ag.POST("/quiz/generate", s.apiGenerate)
	ag.POST("/quiz/score", s.apiScore)
	ag.GET("/announcements", s.apiAnnouncements)
	ag.GET("/lessons", s.apiLessons)
	ag.GET("/results", s.apiResults, tokenRoleMiddleware(user.RoleTeacher))
	ag.GET("/attendance", s.apiAttendance, tokenRoleMiddleware(user.RoleTeacher))
}

func (s *Server) apiLogin(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	usr, err := s.UserSvc.Authenticate(creds)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := s.jwt.GenerateToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (s *Server) apiGenerate(ctx echo.Context) error {
	var data GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}

	gen := s.NewGenerator()
	if data.Seed != nil {
		gen = quiz.NewSeededGenerator(*data.Seed)
	}
	items := gen.Generate(data.Text)
	if len(items) == 0 {
		return quiz.ErrNothingToQuiz
	}
	return ctx.JSON(http.StatusOK, GenerateResponse{Items: items})
}

// apiScore grades a quiz held by the client; nothing is recorded.
func (s *Server) apiScore(ctx echo.Context) error {
	var data ScoreRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScoreRequest")
	}
	if len(data.Items) == 0 {
		return quiz.ErrNoActiveQuiz
	}

	res, err := quiz.Score(data.Items, data.Answers)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (s *Server) apiAnnouncements(ctx echo.Context) error {
	anns, err := s.AnnouncementSvc.List()
	if err != nil {
		return errors.Wrap(err, "listing announcements")
	}
	return ctx.JSON(http.StatusOK, nonNil(anns))
}

func (s *Server) apiLessons(ctx echo.Context) error {
	lessons, err := s.LessonSvc.List()
	if err != nil {
		return errors.Wrap(err, "listing lessons")
	}
	return ctx.JSON(http.StatusOK, nonNil(lessons))
}

func (s *Server) apiResults(ctx echo.Context) error {
	kind := quiz.ResultKind(ctx.QueryParam("kind"))
	switch kind {
	case "":
		kind = quiz.ResultLocal
	case quiz.ResultLocal, quiz.ResultAssigned:
	default:
		return errBadKind
	}

	recs, err := s.QuizSvc.Results(kind)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	return ctx.JSON(http.StatusOK, nonNil(recs))
}

func (s *Server) apiAttendance(ctx echo.Context) error {
	report, err := s.AttendanceSvc.Report()
	if err != nil {
		return errors.Wrap(err, "building attendance report")
	}
	return ctx.JSON(http.StatusOK, nonNil(report.Summaries))
}

// nonNil makes empty lists marshal as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
