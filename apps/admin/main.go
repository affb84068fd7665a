package main

import (
	"fmt"
	"os"

	"github.com/trezcool/elimu/apps/container"
	"github.com/trezcool/elimu/core"
)

func main() {
	conf := core.NewConfig()
	logger := container.NewLogger(conf, "ADMIN : ")

	c, err := container.New(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up services: %v", err), err)
	}

	cli := commandLine{
		usrSvc:     c.UserSvc,
		data:       c.DB,
		translator: c.Translator,
	}
	err = cli.run(os.Args)
	logger.Close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", cli.explain(err))
		}
		os.Exit(1)
	}
}
