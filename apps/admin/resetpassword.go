package main

import (
	"fmt"

	"github.com/trezcool/elimu/core/user"
)

func (cli *commandLine) resetPassword(role user.Role, uname, pwd string) error {
	err := cli.usrSvc.ResetPassword(role, uname, user.ResetUserPassword{Password: pwd, PasswordConfirm: pwd})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout(), "Password of %s %q updated.\n", role, uname)
	return nil
}
