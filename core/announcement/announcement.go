package announcement

import (
	"errors"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

var ErrNotFound = errors.New("announcement not found")

type (
	Announcement struct {
		ID        string `json:"id"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"` // core.TimestampLayout
	}

	NewAnnouncement struct {
		Message string `json:"message" form:"message" validate:"required,max=5000"`
	}

	Repository interface {
		// CreateAnnouncement stores ann ahead of every existing announcement.
		CreateAnnouncement(ann Announcement) error
		// QueryAnnouncements returns announcements newest first.
		QueryAnnouncements() ([]Announcement, error)
		// DeleteAnnouncement returns ErrNotFound when id is unknown.
		DeleteAnnouncement(id string) error
	}

	// AddressBook resolves the recipients of a notification.
	AddressBook interface {
		Addresses(roles ...user.Role) ([]mail.Address, error)
	}

	Service struct {
		repo     Repository
		book     AddressBook
		mailSvc  core.EmailService
		conf     *core.Config
		validate *validator.Validate
		log      core.Logger
	}
)

func NewService(
	repo Repository,
	book AddressBook,
	mailSvc core.EmailService,
	conf *core.Config,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{repo: repo, book: book, mailSvc: mailSvc, conf: conf, validate: validate, log: logger}
}

// Post stores the announcement and emails it to every student and parent with an address.
func (svc *Service) Post(na NewAnnouncement) (Announcement, error) {
	na.Message = core.CleanString(na.Message)
	if err := svc.validate.Struct(na); err != nil {
		return Announcement{}, err
	}

	ann := Announcement{
		ID:        uuid.New().String(),
		Message:   na.Message,
		Timestamp: core.Timestamp(),
	}
	if err := svc.repo.CreateAnnouncement(ann); err != nil {
		return Announcement{}, err
	}
	svc.notify(ann)
	return ann, nil
}

func (svc *Service) notify(ann Announcement) {
	recipients, err := svc.book.Addresses(user.RoleStudent, user.RoleParent)
	if err != nil {
		svc.log.Error("announcement.notify: "+err.Error(), err)
		return
	}
	if len(recipients) == 0 {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		Bcc:          recipients,
		Subject:      "New announcement from " + svc.conf.AppName,
		TemplateName: "announcement",
		TemplateData: map[string]interface{}{
			"AppName":   svc.conf.AppName,
			"Message":   ann.Message,
			"Timestamp": ann.Timestamp,
		},
	})
}

func (svc *Service) List() ([]Announcement, error) {
	return svc.repo.QueryAnnouncements()
}

func (svc *Service) Delete(id string) error {
	return svc.repo.DeleteAnnouncement(id)
}
