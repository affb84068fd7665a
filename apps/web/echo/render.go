package echoweb

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/quiz"
)

const (
	csrfField   = "csrf_token"
	csrfCookie  = "elimu_csrf"
	csrfCtxKey  = "csrf" // echo's default CSRFConfig.ContextKey
	baseTmpl    = "_base.gohtml"
	tmplPattern = "templates/*.gohtml"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// page is the data every template receives.
type page struct {
	Title   string
	Session *SessionContext
	CSRF    string
	Path    string
	Flashes []Flash
	Errors  map[string]string // field -> message
	Form    map[string]string // submitted values to redisplay
	Data    interface{}
}

// templateRenderer holds one template set per page, each parsed with the base layout.
type templateRenderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"percent": func(rate float64) string { return fmt.Sprintf("%.0f%%", rate*100) },
	"kb":      func(kb float64) string { return fmt.Sprintf("%.1f KB", kb) },
	"inc":     func(i int) int { return i + 1 },
	"answer": func(answers quiz.Answers, i int) string {
		return answers[i]
	},
	"blank": func(s string) template.HTML {
		return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), quiz.BlankMarker,
			`<span class="blank">`+quiz.BlankMarker+`</span>`))
	},
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}

func newTemplateRenderer() *templateRenderer {
	fps, err := fs.Glob(templateFS, tmplPattern)
	if err != nil {
		panic(errors.Wrap(err, "listing templates"))
	}

	r := &templateRenderer{pages: make(map[string]*template.Template, len(fps))}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, path.Ext(fname))
		r.pages[name] = template.Must(
			template.New(fname).Funcs(templateFuncs).ParseFS(templateFS, path.Join("templates", baseTmpl), fp),
		)
	}
	return r
}

// Render implements echo.Renderer.
func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, baseTmpl, data)
}

// render saves the session, then renders the page `name` with its common data.
func render(ctx echo.Context, code int, name, title string, data interface{}, fieldErrs ...map[string]string) error {
	sc := sessionContext(ctx)
	p := page{
		Title:   title,
		Session: sc,
		Path:    ctx.Request().URL.Path,
		Flashes: sc.PopFlashes(),
		Data:    data,
	}
	if token, ok := ctx.Get(csrfCtxKey).(string); ok {
		p.CSRF = token
	}
	if len(fieldErrs) > 0 {
		p.Errors = fieldErrs[0]
	}
	if err := ctx.Request().ParseForm(); err == nil && len(ctx.Request().PostForm) > 0 {
		p.Form = make(map[string]string, len(ctx.Request().PostForm))
		for k := range ctx.Request().PostForm {
			if !strings.Contains(k, "password") && k != csrfField {
				p.Form[k] = ctx.Request().PostForm.Get(k)
			}
		}
	}
	if err := saveSession(ctx); err != nil {
		return err
	}
	return ctx.Render(code, name, p)
}
