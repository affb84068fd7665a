package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp              = errors.New("help provided")
	errPasswordsMismatch = errors.New("passwords do not match")
)

type dataResetter interface {
	Reset() error
}

type commandLine struct {
	usrSvc     *user.Service
	data       dataResetter
	translator ut.Translator
	out        io.Writer // defaults to os.Stdout
}

func (cli *commandLine) stdout() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

func (cli *commandLine) printUsage() {
	w := cli.stdout()
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  adduser -role ROLE -username USERNAME [-name NAME] [-email EMAIL] - create an account")
	fmt.Fprintln(w, "  resetpassword -role ROLE -username USERNAME - reset an account's password")
	fmt.Fprintln(w, "  linkparent -parent USERNAME -student USERNAME - link a parent account to a student")
	fmt.Fprintln(w, "  resetdata - remove lessons, quiz results, progress and the published quiz")
	fmt.Fprintln(w, "Passwords are prompted. ROLE is one of teacher, student, parent.")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserRole := addUserCmd.String("role", "", "The account role: teacher, student or parent.")
	addUserUname := addUserCmd.String("username", "", "The account username. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The display name.")
	addUserEmail := addUserCmd.String("email", "", "The email address, used for announcement notifications.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordRole := resetPasswordCmd.String("role", "", "The account role: teacher, student or parent.")
	resetPasswordUname := resetPasswordCmd.String("username", "", "The account username. The password will be prompted next.")

	linkParentCmd := flag.NewFlagSet("linkparent", flag.ContinueOnError)
	linkParentParent := linkParentCmd.String("parent", "", "The parent's username.")
	linkParentStudent := linkParentCmd.String("student", "", "The student's username.")

	resetDataCmd := flag.NewFlagSet("resetdata", flag.ContinueOnError)

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, linkParentCmd, resetDataCmd} {
		fs.SetOutput(cli.stdout())
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserRole == "" || *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		role, err := user.ParseRole(*addUserRole)
		if err != nil {
			return err
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				addUserCmd.Usage()
			}
			return err
		}
		return cli.addUser(user.NewUser{
			Role:            role,
			Username:        *addUserUname,
			Name:            *addUserName,
			Email:           *addUserEmail,
			Password:        pwd,
			PasswordConfirm: pwd,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordRole == "" || *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		role, err := user.ParseRole(*resetPasswordRole)
		if err != nil {
			return err
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				resetPasswordCmd.Usage()
			}
			return err
		}
		return cli.resetPassword(role, *resetPasswordUname, pwd)

	case "linkparent":
		if err := linkParentCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *linkParentParent == "" || *linkParentStudent == "" {
			linkParentCmd.Usage()
			return errHelp
		}
		return cli.linkParent(*linkParentParent, *linkParentStudent)

	case "resetdata":
		if err := resetDataCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.resetData()

	default:
		cli.printUsage()
		return errHelp
	}
}

// promptPassword reads the password twice without echo.
func (cli *commandLine) promptPassword() (string, error) {
	w := cli.stdout()
	fmt.Fprint(w, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}

	fmt.Fprint(w, "Confirm password:")
	confirm, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	if string(confirm) != string(pwd) {
		return "", errPasswordsMismatch
	}
	return string(pwd), nil
}

// explain turns validation errors into one readable line per field.
func (cli *commandLine) explain(err error) string {
	var msgs []string
	switch origErr := pkgerrors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, vErr := range origErr {
			msg := vErr.Error()
			if cli.translator != nil {
				msg = vErr.Translate(cli.translator)
			}
			msgs = append(msgs, strings.ToLower(vErr.Field())+": "+msg)
		}
	case *core.ValidationError:
		for _, fErr := range origErr.Fields {
			msgs = append(msgs, fErr.Field+": "+fErr.Error)
		}
	}
	if len(msgs) == 0 {
		return err.Error()
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "\n")
}
