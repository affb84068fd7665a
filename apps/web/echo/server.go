package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/announcement"
	"github.com/trezcool/elimu/core/attendance"
	"github.com/trezcool/elimu/core/lesson"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/user"
)

type (
	// DataResetter wipes lessons, local results, progress and the published quiz.
	DataResetter interface {
		Reset() error
	}

	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc         *user.Service
		QuizSvc         *quiz.Service
		LessonSvc       *lesson.Service
		AnnouncementSvc *announcement.Service
		AttendanceSvc   *attendance.Service
		Data            DataResetter

		// NewGenerator returns the quiz generator of one request; defaults to a time-seeded one.
		NewGenerator func() *quiz.Generator
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		store    *sessions.FilesystemStore
		jwt      jwtConfig
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	if deps.NewGenerator == nil {
		deps.NewGenerator = func() *quiz.Generator { return quiz.NewGenerator(nil) }
	}

	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		store:      newSessionStore(deps.Conf, filepath.Join(deps.Conf.DataDir, "sessions")),
		jwt:        newJWTConfig(deps.Conf),
		shutdown:   make(chan os.Signal, 1),
		errors:     make(chan error, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.Conf
	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Logger.SetLevel(log.INFO)
	if conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	}

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.BodyLimit(conf.Server.MaxUploadSize))
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN", // lesson PDFs are embedded from the same origin
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.signalShutdown)
	s.app.Renderer = newTemplateRenderer()

	s.registerAPI(s.app.Group("/api/v1"))

	ui := s.app.Group("", middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:" + csrfField,
		CookieName:     csrfCookie,
		CookiePath:     "/",
		CookieHTTPOnly: true,
	}), s.sessionMiddleware)

	ui.GET("", s.home)
	ui.POST("/theme", s.setTheme)
	s.registerAuth(ui)
	s.registerTeacher(ui.Group("/teacher", requireRole(user.RoleTeacher)))
	s.registerStudent(ui.Group("/student", requireRole(user.RoleStudent)))
	s.registerParent(ui.Group("/parent", requireRole(user.RoleParent)))
}

func (s *Server) Start() {
	if err := s.app.Start(s.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Shutdown stops accepting requests and waits for the outstanding ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	sc := sessionContext(ctx)
	if !sc.LoggedIn() {
		return ctx.Redirect(http.StatusSeeOther, "/login")
	}
	return ctx.Redirect(http.StatusSeeOther, dashboardPath(sc.Role))
}

func dashboardPath(role user.Role) string {
	return "/" + string(role)
}
