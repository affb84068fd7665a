package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/apps/container"
	"github.com/trezcool/elimu/core/lesson"
	"github.com/trezcool/elimu/core/user"
	testutil "github.com/trezcool/elimu/tests"
)

func setup(t *testing.T) (*commandLine, *container.Container, *bytes.Buffer) {
	c := testutil.NewContainer(t)
	out := new(bytes.Buffer)

	// start CLI
	return &commandLine{
		usrSvc:     c.UserSvc,
		data:       c.DB,
		translator: c.Translator,
		out:        out,
	}, c, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type passwords struct {
	pwd, confirm string
}

func mockPasswords(tt cliTest) {
	var calls int
	readPasswordFunc = func(fd int) ([]byte, error) {
		calls++
		pwds, ok := tt.extra.(passwords)
		if !ok {
			return nil, nil
		}
		if calls%2 == 1 {
			return []byte(pwds.pwd), nil
		}
		return []byte(pwds.confirm), nil
	}
}

func runTest(t *testing.T, cli *commandLine, tt cliTest) error {
	t.Helper()
	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || !strings.Contains(cli.explain(err), tt.wantErrStr) {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	return err
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"resetdata", "-lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = runTest(t, cli, tt)
		})
	}
	assert.Contains(t, out.String(), "adduser -role ROLE -username USERNAME")
}

func Test_commandLine_addUser(t *testing.T) {
	cli, c, out := setup(t)
	good := passwords{pwd: testutil.DefaultPassword, confirm: testutil.DefaultPassword}

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no role", args: []string{"adduser", "-username", "amina"}, wantErr: errHelp},
		{name: "bad role", args: []string{"adduser", "-role", "admin", "-username", "amina"}, extra: good, wantErrStr: `invalid role "admin"`},
		{name: "no password", args: []string{"adduser", "-role", "student", "-username", "amina"}, wantErr: errHelp},
		{
			name:    "passwords mismatch",
			args:    []string{"adduser", "-role", "student", "-username", "amina"},
			extra:   passwords{pwd: testutil.DefaultPassword, confirm: "lol"},
			wantErr: errPasswordsMismatch,
		},
		{
			name:       "weak password",
			args:       []string{"adduser", "-role", "student", "-username", "amina"},
			extra:      passwords{pwd: "lol", confirm: "lol"},
			wantErrStr: "password:",
		},
		{
			name:       "bad email",
			args:       []string{"adduser", "-role", "student", "-username", "amina", "-email", "lol"},
			extra:      good,
			wantErrStr: "email:",
		},
		{
			name:  "create",
			args:  []string{"adduser", "-role", "Student", "-username", "Amina", "-name", "Amina Wanjiru", "-email", "amina@test.ke"},
			extra: good,
		},
		{
			name:       "username taken",
			args:       []string{"adduser", "-role", "student", "-username", "amina"},
			extra:      good,
			wantErrStr: "username: a user with this username already exists",
		},
		{name: "same username, other role", args: []string{"adduser", "-role", "parent", "-username", "amina"}, extra: good},
	}
	for _, tt := range tests {
		mockPasswords(tt)
		t.Run(tt.name, func(t *testing.T) {
			_ = runTest(t, cli, tt)
		})
	}

	usr, err := c.UserSvc.Authenticate(user.Credentials{Role: user.RoleStudent, Username: "amina", Password: testutil.DefaultPassword})
	if assert.NoError(t, err) {
		assert.Equal(t, "Amina Wanjiru", usr.Name)
		assert.Equal(t, "amina@test.ke", usr.Email)
	}
	_, err = c.UserSvc.Get(user.RoleParent, "amina")
	assert.NoError(t, err)
	assert.Contains(t, out.String(), `Student account "amina" created.`)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, c, _ := setup(t)
	usr := testutil.CreateUser(t, c.UserSvc, user.RoleTeacher, "mwalimu", "", "")
	newPwd := "Another-Horse-43"

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-role", "teacher", "-username", "lol"}, wantErr: errHelp},
		{
			name:    "user not found",
			args:    []string{"resetpassword", "-role", "teacher", "-username", "lol"},
			extra:   passwords{pwd: newPwd, confirm: newPwd},
			wantErr: user.ErrNotFound,
		},
		{
			name:    "wrong role",
			args:    []string{"resetpassword", "-role", "student", "-username", usr.Username},
			extra:   passwords{pwd: newPwd, confirm: newPwd},
			wantErr: user.ErrNotFound,
		},
		{
			name:       "password like the username",
			args:       []string{"resetpassword", "-role", "teacher", "-username", usr.Username},
			extra:      passwords{pwd: "Mwalimu-123", confirm: "Mwalimu-123"},
			wantErrStr: "password:",
		},
		{
			name:  "reset",
			args:  []string{"resetpassword", "-role", "teacher", "-username", "MWALIMU"},
			extra: passwords{pwd: newPwd, confirm: newPwd},
		},
	}
	for _, tt := range tests {
		mockPasswords(tt)
		t.Run(tt.name, func(t *testing.T) {
			_ = runTest(t, cli, tt)
		})
	}

	creds := user.Credentials{Role: user.RoleTeacher, Username: usr.Username, Password: testutil.DefaultPassword}
	_, err := c.UserSvc.Authenticate(creds)
	assert.Equal(t, user.ErrInvalidCredentials, err)
	creds.Password = newPwd
	_, err = c.UserSvc.Authenticate(creds)
	assert.NoError(t, err)
}

func Test_commandLine_linkParent(t *testing.T) {
	cli, c, out := setup(t)
	testutil.CreateUser(t, c.UserSvc, user.RoleParent, "mama_amina", "", "")
	testutil.CreateUser(t, c.UserSvc, user.RoleStudent, "amina", "", "")

	tests := []cliTest{
		{name: "no args", args: []string{"linkparent"}, wantErr: errHelp},
		{name: "no student", args: []string{"linkparent", "-parent", "mama_amina"}, wantErr: errHelp},
		{name: "parent not found", args: []string{"linkparent", "-parent", "lol", "-student", "amina"}, wantErr: user.ErrNotFound},
		{name: "student not found", args: []string{"linkparent", "-parent", "mama_amina", "-student", "lol"}, wantErrStr: "student: student not found"},
		{name: "link", args: []string{"linkparent", "-parent", "mama_amina", "-student", "amina"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = runTest(t, cli, tt)
		})
	}

	parent, err := c.UserSvc.Get(user.RoleParent, "mama_amina")
	if assert.NoError(t, err) {
		assert.Equal(t, "amina", parent.LinkedStudent)
	}
	assert.Contains(t, out.String(), `Parent "mama_amina" linked to student "amina".`)
}

func Test_commandLine_resetData(t *testing.T) {
	cli, c, _ := setup(t)
	usr := testutil.CreateUser(t, c.UserSvc, user.RoleStudent, "amina", "", "")

	_, err := c.LessonSvc.Upload("Plants.txt", strings.NewReader("Plants grow."))
	assert.NoError(t, err)

	_ = runTest(t, cli, cliTest{args: []string{"resetdata"}})

	lessons, err := c.LessonSvc.List()
	assert.NoError(t, err)
	assert.Empty(t, lessons)
	_, _, err = c.LessonSvc.ReadText("Plants.txt")
	assert.Equal(t, lesson.ErrNotFound, err)

	// accounts survive
	_, err = c.UserSvc.Get(user.RoleStudent, usr.Username)
	assert.NoError(t, err)
}
