// Package container wires the flat-file storage and the core services together.
package container

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/announcement"
	"github.com/trezcool/elimu/core/attendance"
	"github.com/trezcool/elimu/core/lesson"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
	"github.com/trezcool/elimu/storage/flatfile"
)

type Container struct {
	Conf       *core.Config
	Logger     core.Logger
	DB         *flatfile.DB
	MailSvc    core.EmailService
	Validate   *validator.Validate
	Translator ut.Translator

	UserSvc         *user.Service
	QuizSvc         *quiz.Service
	LessonSvc       *lesson.Service
	AnnouncementSvc *announcement.Service
	AttendanceSvc   *attendance.Service
}

// NewLogger returns the app logger; prefix names the process in the logs (e.g. "WEB : ").
func NewLogger(conf *core.Config, prefix string) *logsvc.RollbarLogger {
	stdLogger := log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)
	quiz.RegisterValidators(validate, translator)
	return validate, translator
}

// New opens the data dir of conf and builds every service on top of it.
// mailSvc defaults to the one picked by emailsvc.New.
func New(conf *core.Config, logger core.Logger, mailSvc ...core.EmailService) (*Container, error) {
	db, err := flatfile.OpenConfig(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening data dir")
	}

	c := &Container{Conf: conf, Logger: logger, DB: db}
	if len(mailSvc) > 0 && mailSvc[0] != nil {
		c.MailSvc = mailSvc[0]
	} else {
		c.MailSvc = emailsvc.New(conf, logger)
	}
	c.Validate, c.Translator = NewValidator()

	quizRepo := flatfile.NewQuizRepository(db)
	lessonRepo := flatfile.NewLessonRepository(db)

	c.UserSvc = user.NewService(flatfile.NewUserRepository(db), c.Validate)
	c.QuizSvc = quiz.NewService(quizRepo, quizRepo, c.Validate)
	c.LessonSvc = lesson.NewService(lessonRepo, lessonRepo)
	c.AnnouncementSvc = announcement.NewService(
		flatfile.NewAnnouncementRepository(db), c.UserSvc, c.MailSvc, conf, c.Validate, logger,
	)
	c.AttendanceSvc = attendance.NewService(flatfile.NewAttendanceRepository(db))
	return c, nil
}
