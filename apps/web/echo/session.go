package echoweb

import (
	"encoding/gob"
	"net/http"
	"os"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/user"
)

const (
	sessionName       = "elimu_session"
	sessionContextKey = "elimu.session"
	sessionValueKey   = "ctx"

	ThemeLight = "light"
	ThemeDark  = "dark"
)

const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashError   = "error"
)

// SessionContext is everything remembered about one browser session.
type SessionContext struct {
	Identity string // username
	Name     string
	Role     user.Role
	Theme    string

	LocalQuiz quiz.Session // generated from lesson text

	AssignedTitle     string // of the published quiz the answers belong to
	AssignedAnswers   quiz.Answers
	AssignedSubmitted bool
	AssignedResult    quiz.Result

	DraftQuiz []quiz.PublishedQuestion // teacher quiz builder

	Flashes []Flash
}

type Flash struct {
	Kind    string
	Message string
}

func init() {
	gob.Register(&SessionContext{})
}

func (sc *SessionContext) LoggedIn() bool { return sc.Identity != "" }
func (sc *SessionContext) Dark() bool     { return sc.Theme == ThemeDark }

// Login replaces the session with a fresh one for usr, keeping the theme.
func (sc *SessionContext) Login(usr user.User) {
	*sc = SessionContext{
		Identity: usr.Username,
		Name:     usr.DisplayName(),
		Role:     usr.Role,
		Theme:    sc.Theme,
		Flashes:  sc.Flashes,
	}
}

func (sc *SessionContext) Logout() {
	sc.Login(user.User{})
}

func (sc *SessionContext) AddFlash(kind, msg string) {
	sc.Flashes = append(sc.Flashes, Flash{Kind: kind, Message: msg})
}

// PopFlashes returns and clears the pending flashes.
func (sc *SessionContext) PopFlashes() []Flash {
	flashes := sc.Flashes
	sc.Flashes = nil
	return flashes
}

// ResetAssigned forgets the answers to the published quiz.
func (sc *SessionContext) ResetAssigned() {
	sc.AssignedTitle = ""
	sc.AssignedAnswers = nil
	sc.AssignedSubmitted = false
	sc.AssignedResult = quiz.Result{}
}

func newSessionStore(conf *core.Config, dir string) *sessions.FilesystemStore {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		panic(errors.Wrap(err, "creating sessions dir"))
	}
	store := sessions.NewFilesystemStore(dir, []byte(conf.SecretKey))
	store.MaxLength(1 << 20) // generated quizzes do not fit the 4KB default
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   conf.Server.SessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// sessionMiddleware loads the SessionContext of the request into the echo.Context.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		// a session that cannot be decoded (e.g. after a key change) is replaced by a new one
		sess, _ := s.store.Get(ctx.Request(), sessionName)
		sc, ok := sess.Values[sessionValueKey].(*SessionContext)
		if !ok {
			sc = &SessionContext{Theme: ThemeLight}
		}
		ctx.Set(sessionContextKey, sess)
		ctx.Set(sessionValueKey, sc)
		return next(ctx)
	}
}

func sessionContext(ctx echo.Context) *SessionContext {
	if sc, ok := ctx.Get(sessionValueKey).(*SessionContext); ok {
		return sc
	}
	return &SessionContext{Theme: ThemeLight}
}

// saveSession persists the SessionContext; call it before writing the response.
func saveSession(ctx echo.Context) error {
	sess, ok := ctx.Get(sessionContextKey).(*sessions.Session)
	if !ok {
		return nil
	}
	sess.Values[sessionValueKey] = sessionContext(ctx)
	return errors.Wrap(sess.Save(ctx.Request(), ctx.Response()), "saving session")
}

// renewSession expires the stored session and moves the SessionContext to a session with a new ID.
// Called whenever the identity changes, so that a session ID known before login is worthless after.
func (s *Server) renewSession(ctx echo.Context) error {
	if old, ok := ctx.Get(sessionContextKey).(*sessions.Session); ok && !old.IsNew {
		old.Options.MaxAge = -1
		if err := old.Save(ctx.Request(), ctx.Response()); err != nil {
			return errors.Wrap(err, "expiring session")
		}
	}

	sess := sessions.NewSession(s.store, sessionName)
	opts := *s.store.Options
	sess.Options = &opts
	sess.IsNew = true
	ctx.Set(sessionContextKey, sess)
	return nil
}

// redirect saves the session and redirects (303) to path.
func redirect(ctx echo.Context, path string) error {
	if err := saveSession(ctx); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, path)
}

// flashRedirect adds a flash message, then redirects to path.
func flashRedirect(ctx echo.Context, kind, msg, path string) error {
	sessionContext(ctx).AddFlash(kind, msg)
	return redirect(ctx, path)
}

func (s *Server) setTheme(ctx echo.Context) error {
	sc := sessionContext(ctx)
	switch theme := ctx.FormValue("theme"); theme {
	case ThemeLight, ThemeDark:
		sc.Theme = theme
	default:
		return errBadTheme
	}
	back := "/"
	if sc.LoggedIn() {
		back = dashboardPath(sc.Role)
	}
	if next := ctx.FormValue("next"); isLocalPath(next) {
		back = next
	}
	return redirect(ctx, back)
}

// isLocalPath reports whether p is a same-site absolute path.
func isLocalPath(p string) bool {
	return len(p) > 0 && p[0] == '/' && (len(p) == 1 || (p[1] != '/' && p[1] != '\\'))
}
