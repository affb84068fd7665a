package echoweb

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/trezcool/elimu/apps/container"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/user"
	testutil "github.com/trezcool/elimu/tests"
)

const testSeed = 7

type testApp struct {
	c   *container.Container
	srv *Server
	ts  *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	c := testutil.NewContainer(t)
	srv := NewServer(ServerDeps{
		Conf:            c.Conf,
		Logger:          c.Logger,
		Validate:        c.Validate,
		Translator:      c.Translator,
		UserSvc:         c.UserSvc,
		QuizSvc:         c.QuizSvc,
		LessonSvc:       c.LessonSvc,
		AnnouncementSvc: c.AnnouncementSvc,
		AttendanceSvc:   c.AttendanceSvc,
		Data:            c.DB,
		NewGenerator:    func() *quiz.Generator { return quiz.NewSeededGenerator(testSeed) },
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &testApp{c: c, srv: srv, ts: ts}
}

// testClient is one browser: it keeps cookies and follows redirects.
type testClient struct {
	t    *testing.T
	base *url.URL
	http *http.Client
}

func (app *testApp) newClient(t *testing.T) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() failed: %v", err)
	}
	base, _ := url.Parse(app.ts.URL)
	return &testClient{t: t, base: base, http: &http.Client{Jar: jar}}
}

type response struct {
	code int
	path string // after redirects
	body string
}

func (tc *testClient) do(req *http.Request) response {
	tc.t.Helper()
	resp, err := tc.http.Do(req)
	if err != nil {
		tc.t.Fatalf("%s %s failed: %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tc.t.Fatalf("reading body failed: %v", err)
	}
	return response{code: resp.StatusCode, path: resp.Request.URL.Path, body: string(body)}
}

func (tc *testClient) get(path string) response {
	tc.t.Helper()
	req, err := http.NewRequest(http.MethodGet, tc.base.String()+path, nil)
	if err != nil {
		tc.t.Fatal(err)
	}
	return tc.do(req)
}

func (tc *testClient) csrfToken() string {
	for _, cookie := range tc.http.Jar.Cookies(tc.base) {
		if cookie.Name == csrfCookie {
			return cookie.Value
		}
	}
	tc.get("/login") // sets the cookie
	for _, cookie := range tc.http.Jar.Cookies(tc.base) {
		if cookie.Name == csrfCookie {
			return cookie.Value
		}
	}
	tc.t.Fatal("no csrf cookie")
	return ""
}

func (tc *testClient) post(path string, form url.Values) response {
	tc.t.Helper()
	if form == nil {
		form = make(url.Values)
	}
	form.Set(csrfField, tc.csrfToken())
	req, err := http.NewRequest(http.MethodPost, tc.base.String()+path, strings.NewReader(form.Encode()))
	if err != nil {
		tc.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return tc.do(req)
}

func (tc *testClient) upload(path, field, filename string, content []byte, form url.Values) response {
	tc.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField(csrfField, tc.csrfToken())
	for k, vs := range form {
		for _, v := range vs {
			_ = w.WriteField(k, v)
		}
	}
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		tc.t.Fatal(err)
	}
	_, _ = fw.Write(content)
	_ = w.Close()

	req, err := http.NewRequest(http.MethodPost, tc.base.String()+path, &body)
	if err != nil {
		tc.t.Fatal(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return tc.do(req)
}

func (tc *testClient) login(role user.Role, uname string) response {
	tc.t.Helper()
	return tc.post("/login", url.Values{
		"role":     {string(role)},
		"username": {uname},
		"password": {testutil.DefaultPassword},
	})
}

// loggedIn creates an account and returns a client logged into it.
func (app *testApp) loggedIn(t *testing.T, role user.Role, uname, name string) (*testClient, user.User) {
	t.Helper()
	usr := testutil.CreateUser(t, app.c.UserSvc, role, uname, name, "")
	tc := app.newClient(t)
	if resp := tc.login(role, uname); resp.path != dashboardPath(role) {
		t.Fatalf("login(%s) landed on %s (%d): %s", uname, resp.path, resp.code, resp.body)
	}
	return tc, usr
}

func checkResponse(t *testing.T, resp response, wantCode int, wantPath string, wantBody ...string) {
	t.Helper()
	if resp.code != wantCode {
		t.Errorf("code = %v; want %v", resp.code, wantCode)
	}
	if wantPath != "" && resp.path != wantPath {
		t.Errorf("path = %v; want %v", resp.path, wantPath)
	}
	for _, want := range wantBody {
		if !strings.Contains(resp.body, want) {
			t.Errorf("body does not contain %q:\n%s", want, resp.body)
		}
	}
}

// API helpers

func newAuthRequest(method, path, token string, data ...interface{}) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		_ = json.NewEncoder(&body).Encode(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := app.srv.jwt.GenerateToken(usr)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	return token
}
