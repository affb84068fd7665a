package echoweb

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

const jwtContextKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string    `json:"username,omitempty"`
	Name     string    `json:"name,omitempty"`
	Role     user.Role `json:"role,omitempty"`
}

type jwtConfig struct {
	middleware.JWTConfig
	issuer     string
	expiration time.Duration
}

func newJWTConfig(conf *core.Config) jwtConfig {
	return jwtConfig{
		JWTConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    jwtContextKey,
			Claims:        new(Claims),
		},
		issuer:     conf.AppName,
		expiration: conf.Server.JWTExpirationDelta,
	}
}

func (jc jwtConfig) middlewareFunc() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(jc.JWTConfig)
}

func (jc jwtConfig) userClaims(usr user.User) *Claims {
	now := core.NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    jc.issuer,
			Subject:   usr.ID,
			ExpiresAt: now.Add(jc.expiration).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: usr.Username,
		Name:     usr.DisplayName(),
		Role:     usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (jc jwtConfig) GenerateToken(usr user.User) (string, error) {
	method := jwt.GetSigningMethod(jc.SigningMethod)
	token := jwt.NewWithClaims(method, jc.userClaims(usr))

	ss, err := token.SignedString(jc.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// tokenRoleMiddleware only lets API requests whose token carries one of roles through.
func tokenRoleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// requireRole redirects anonymous visitors to the login page and forbids other roles.
func requireRole(role user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sc := sessionContext(ctx)
			if !sc.LoggedIn() {
				return ctx.Redirect(http.StatusSeeOther, "/login")
			}
			if sc.Role != role {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

type authForm struct {
	Roles []user.Role
}

var loginForm = authForm{Roles: user.Roles}

func (s *Server) registerAuth(g *echo.Group) {
	g.GET("/login", s.loginPage)
	g.POST("/login", s.login)
	g.GET("/register", s.registerPage)
	g.POST("/register", s.register)
	g.POST("/logout", s.logout)
}

func (s *Server) loginPage(ctx echo.Context) error {
	if sc := sessionContext(ctx); sc.LoggedIn() {
		return ctx.Redirect(http.StatusSeeOther, dashboardPath(sc.Role))
	}
	return render(ctx, http.StatusOK, "login", "Log in", loginForm)
}

func (s *Server) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	usr, err := s.UserSvc.Authenticate(creds)
	if err != nil {
		if fldErrs, ok := fieldErrors(err, s.Translator); ok {
			return render(ctx, http.StatusBadRequest, "login", "Log in", loginForm, fldErrs)
		}
		if errors.Cause(err) == user.ErrInvalidCredentials {
			fldErrs := map[string]string{"": err.Error()}
			return render(ctx, http.StatusUnauthorized, "login", "Log in", loginForm, fldErrs)
		}
		return errors.Wrap(err, "authenticating")
	}

	if err := s.renewSession(ctx); err != nil {
		return err
	}
	sessionContext(ctx).Login(usr)
	s.Logger.Info("login", usr)
	return flashRedirect(ctx, flashSuccess, "Welcome, "+usr.DisplayName()+"!", dashboardPath(usr.Role))
}

func (s *Server) registerPage(ctx echo.Context) error {
	return render(ctx, http.StatusOK, "register", "Create an account", loginForm)
}

func (s *Server) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := s.UserSvc.Register(data)
	if err != nil {
		if fldErrs, ok := fieldErrors(err, s.Translator); ok {
			return render(ctx, http.StatusBadRequest, "register", "Create an account", loginForm, fldErrs)
		}
		return errors.Wrap(err, "registering user")
	}

	s.Logger.Info("user registered", usr)
	msg := usr.Role.Title() + " account created. Please log in."
	return flashRedirect(ctx, flashSuccess, msg, "/login")
}

func (s *Server) logout(ctx echo.Context) error {
	if err := s.renewSession(ctx); err != nil {
		return err
	}
	sessionContext(ctx).Logout()
	return flashRedirect(ctx, flashInfo, "You have been logged out.", "/login")
}
