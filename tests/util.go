// Package testutil builds throwaway apps rooted in a temp data dir.
package testutil

import (
	"io"
	"log"
	"testing"

	"github.com/trezcool/elimu/apps/container"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
)

// DefaultPassword passes the password policy for every account CreateUser makes.
const DefaultPassword = "Correct-Horse-42"

// NewLogger returns a logger that discards everything.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// NewContainer wires every service on a fresh data dir, with the synchronous mail mock.
func NewContainer(t *testing.T) *container.Container {
	t.Helper()
	conf := core.NewTestConfig(t.TempDir())
	logger := NewLogger(conf)
	emailsvc.ClearSentMessages()

	c, err := container.New(conf, logger, emailsvc.NewConsoleServiceMock(conf, logger))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	return c
}

// CreateUser registers an account with DefaultPassword unless pwd is given.
func CreateUser(t *testing.T, svc *user.Service, role user.Role, uname, name, email string, pwd ...string) user.User {
	t.Helper()
	password := DefaultPassword
	if len(pwd) > 0 {
		password = pwd[0]
	}
	usr, err := svc.Register(user.NewUser{
		Role:            role,
		Username:        uname,
		Name:            name,
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
