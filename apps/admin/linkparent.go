package main

import "fmt"

func (cli *commandLine) linkParent(parentUname, studentUname string) error {
	parent, err := cli.usrSvc.LinkStudent(parentUname, studentUname)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout(), "Parent %q linked to student %q.\n", parent.Username, parent.LinkedStudent)
	return nil
}

func (cli *commandLine) resetData() error {
	if err := cli.data.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(cli.stdout(), "Lessons, quiz results, progress and the published quiz were removed.")
	return nil
}
