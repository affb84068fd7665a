package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/elimu/core"
)

// Role of an account. Usernames are unique per role.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

var Roles = []Role{RoleTeacher, RoleStudent, RoleParent}

// ParseRole maps a case-insensitive role name to a Role.
func ParseRole(s string) (Role, error) {
	role := Role(core.CleanString(s, true /* lower */))
	switch role {
	case RoleTeacher, RoleStudent, RoleParent:
		return role, nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// Title is the display name of the role.
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

type User struct {
	ID            string    `json:"id"`
	Role          Role      `json:"role"`
	Username      string    `json:"username"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  []byte    `json:"-"`
	LinkedStudent string    `json:"linked_student,omitempty"` // parents only
	CreatedAt     time.Time `json:"created_at"`               // UTC
	LastLogin     time.Time `json:"last_login"`               // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// DisplayName is the name if set, else the username.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Address returns the mail address of the user, if any.
func (u User) Address() (mail.Address, bool) {
	if u.Email == "" {
		return mail.Address{}, false
	}
	return mail.Address{Name: u.DisplayName(), Address: u.Email}, true
}

func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }
func (u User) IsParent() bool  { return u.Role == RoleParent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Role            Role   `json:"role" form:"role" validate:"required,role"`
	Username        string `json:"username" form:"username" validate:"required,min=3,max=32,alphanum_"`
	Name            string `json:"name" form:"name" validate:"max=100"`
	Email           string `json:"email" form:"email" validate:"omitempty,email"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Clean() {
	nu.Role = Role(core.CleanString(string(nu.Role), true /* lower */))
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
}

// ResetUserPassword sets a new password on an existing account.
type ResetUserPassword struct {
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required,eqfield=Password"`

	// attributes the password must not resemble
	usr User
}

// Credentials identify a login attempt.
type Credentials struct {
	Role     Role   `json:"role" form:"role" validate:"required,role"`
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (c *Credentials) Clean() {
	c.Role = Role(core.CleanString(string(c.Role), true /* lower */))
	c.Username = core.CleanString(c.Username, true /* lower */)
}
