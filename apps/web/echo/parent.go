package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/announcement"
	"github.com/trezcool/elimu/core/user"
)

const parentHome = "/parent"

type parentDashboard struct {
	Linked        bool
	Progress      progress
	Announcements []announcement.Announcement
}

func (s *Server) registerParent(g *echo.Group) {
	g.GET("", s.parentDashboard)
	g.POST("/link", s.linkStudent)
}

func (s *Server) parentDashboard(ctx echo.Context) error {
	parent, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	var data parentDashboard
	if data.Announcements, err = s.AnnouncementSvc.List(); err != nil {
		return errors.Wrap(err, "listing announcements")
	}

	student, err := s.UserSvc.LinkedStudent(parent)
	switch errors.Cause(err) {
	case nil:
		data.Linked = true
		if data.Progress, err = s.progressOf(student); err != nil {
			return err
		}
	case user.ErrNotFound: // not linked yet, or the student account is gone
	default:
		return errors.Wrap(err, "getting linked student")
	}
	return render(ctx, http.StatusOK, "parent_dashboard", "Parent dashboard", data)
}

func (s *Server) linkStudent(ctx echo.Context) error {
	parent, err := s.UserSvc.LinkStudent(sessionContext(ctx).Identity, ctx.FormValue("student"))
	if err != nil {
		return s.redirectOnUserError(ctx, errors.Wrap(err, "linking student"), parentHome)
	}
	return flashRedirect(ctx, flashSuccess, "Linked to student "+parent.LinkedStudent+".", parentHome)
}
