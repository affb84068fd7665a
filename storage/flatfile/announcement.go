package flatfile

import (
	"github.com/trezcool/elimu/core/announcement"
)

type announcementRepository struct {
	db *DB
}

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) load() ([]announcement.Announcement, error) {
	var anns []announcement.Announcement
	if _, err := repo.db.readJSON(announcementsFile, &anns); err != nil {
		return nil, err
	}
	return anns, nil
}

func (repo *announcementRepository) CreateAnnouncement(ann announcement.Announcement) error {
	l := repo.db.lock(announcementsFile)
	l.Lock()
	defer l.Unlock()

	anns, err := repo.load()
	if err != nil {
		return err
	}
	return repo.db.writeJSON(announcementsFile, append([]announcement.Announcement{ann}, anns...))
}

func (repo *announcementRepository) QueryAnnouncements() ([]announcement.Announcement, error) {
	l := repo.db.lock(announcementsFile)
	l.RLock()
	defer l.RUnlock()
	return repo.load()
}

func (repo *announcementRepository) DeleteAnnouncement(id string) error {
	l := repo.db.lock(announcementsFile)
	l.Lock()
	defer l.Unlock()

	anns, err := repo.load()
	if err != nil {
		return err
	}
	for i, ann := range anns {
		if ann.ID == id {
			return repo.db.writeJSON(announcementsFile, append(anns[:i], anns[i+1:]...))
		}
	}
	return announcement.ErrNotFound
}
