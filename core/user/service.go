package user

import (
	"errors"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/elimu/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotParent          = errors.New("only parent accounts can be linked to a student")
)

var nowFunc = func() time.Time { return core.NowFunc().UTC() } // mockable

type (
	Repository interface {
		// CreateUser returns ErrUsernameExists when the username is taken for the role.
		CreateUser(usr User) (User, error)
		// GetUser returns ErrNotFound when no user matches.
		GetUser(role Role, username string) (User, error)
		QueryUsers(role Role) ([]User, error)
		UpdateUser(usr User) (User, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Register validates nu and creates the account.
func (svc *Service) Register(nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}

	usr := User{
		ID:        uuid.New().String(),
		Role:      nu.Role,
		Username:  nu.Username,
		Name:      nu.Name,
		Email:     nu.Email,
		CreatedAt: nowFunc(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.CreateUser(usr)
	if err == ErrUsernameExists {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
	}
	return usr, err
}

// Authenticate checks the credentials and records the login time.
// Unknown users and wrong passwords both return ErrInvalidCredentials.
func (svc *Service) Authenticate(creds Credentials) (User, error) {
	creds.Clean()
	if err := svc.validate.Struct(creds); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.GetUser(creds.Role, creds.Username)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}

	usr.LastLogin = nowFunc()
	return svc.repo.UpdateUser(usr)
}

func (svc *Service) Get(role Role, username string) (User, error) {
	return svc.repo.GetUser(role, core.CleanString(username, true /* lower */))
}

func (svc *Service) QueryByRole(role Role) ([]User, error) {
	return svc.repo.QueryUsers(role)
}

// LinkStudent links the parent account to an existing student.
func (svc *Service) LinkStudent(parentUname, studentUname string) (User, error) {
	parent, err := svc.Get(RoleParent, parentUname)
	if err != nil {
		return User{}, err
	}
	student, err := svc.Get(RoleStudent, studentUname)
	if err != nil {
		if err == ErrNotFound {
			return User{}, core.NewValidationError(nil, core.FieldError{Field: "student", Error: "student not found"})
		}
		return User{}, err
	}
	parent.LinkedStudent = student.Username
	return svc.repo.UpdateUser(parent)
}

// LinkedStudent returns the student linked to the parent.
func (svc *Service) LinkedStudent(parent User) (User, error) {
	if !parent.IsParent() {
		return User{}, ErrNotParent
	}
	if parent.LinkedStudent == "" {
		return User{}, ErrNotFound
	}
	return svc.Get(RoleStudent, parent.LinkedStudent)
}

// ResetPassword applies the password policy to rp and sets the new password.
func (svc *Service) ResetPassword(role Role, username string, rp ResetUserPassword) error {
	usr, err := svc.Get(role, username)
	if err != nil {
		return err
	}
	rp.usr = usr
	if err := svc.validate.Struct(rp); err != nil {
		return err
	}
	if err := usr.SetPassword(rp.Password); err != nil {
		return err
	}
	_, err = svc.repo.UpdateUser(usr)
	return err
}

// Addresses returns the mail addresses of every user of the given roles that has an email.
func (svc *Service) Addresses(roles ...Role) ([]mail.Address, error) {
	var addrs []mail.Address
	for _, role := range roles {
		users, err := svc.repo.QueryUsers(role)
		if err != nil {
			return nil, err
		}
		for _, usr := range users {
			if addr, ok := usr.Address(); ok {
				addrs = append(addrs, addr)
			}
		}
	}
	return addrs, nil
}
