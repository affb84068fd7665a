package main

import (
	"fmt"

	"github.com/trezcool/elimu/core/user"
)

func (cli *commandLine) addUser(nu user.NewUser) error {
	usr, err := cli.usrSvc.Register(nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout(), "%s account %q created.\n", usr.Role.Title(), usr.Username)
	return nil
}
