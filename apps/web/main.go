package main

import (
	"context"
	"fmt"

	"github.com/trezcool/elimu/apps/container"
	echoweb "github.com/trezcool/elimu/apps/web/echo"
	"github.com/trezcool/elimu/core"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := container.NewLogger(conf, "WEB : ")
	defer logger.Close()

	c, err := container.New(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up services: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q, data dir %q", conf.Build, c.DB.Dir()))
	defer logger.Info("Application stopped")

	server := echoweb.NewServer(echoweb.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        c.Validate,
		Translator:      c.Translator,
		UserSvc:         c.UserSvc,
		QuizSvc:         c.QuizSvc,
		LessonSvc:       c.LessonSvc,
		AnnouncementSvc: c.AnnouncementSvc,
		AttendanceSvc:   c.AttendanceSvc,
		Data:            c.DB,
	})

	// =========================================================================
	// Start Web Service

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
