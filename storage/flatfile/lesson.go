package flatfile

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/lesson"
)

var progressHeader = []string{"Student Name", "Lesson Name", "Date"}

var (
	_ lesson.Store              = (*LessonRepository)(nil)
	_ lesson.ProgressRepository = (*LessonRepository)(nil)
)

type LessonRepository struct {
	db *DB
}

// NewLessonRepository returns the store of lesson files (under content/) and of student progress.
func NewLessonRepository(db *DB) *LessonRepository {
	return &LessonRepository{db: db}
}

func (repo *LessonRepository) contentPath(name string) string {
	return filepath.Join(repo.db.path(contentDir), filepath.Base(name))
}

func (repo *LessonRepository) SaveLesson(name string, r io.Reader) (lesson.Lesson, error) {
	l := repo.db.lock(contentDir)
	l.Lock()
	defer l.Unlock()

	dir := repo.db.path(contentDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "creating content dir")
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "saving lesson")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return lesson.Lesson{}, errors.Wrap(err, "saving lesson")
	}
	if err := tmp.Close(); err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "saving lesson")
	}
	path := repo.contentPath(name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "saving lesson")
	}
	info, err := os.Stat(path)
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "saving lesson")
	}
	return toLesson(info), nil
}

func (repo *LessonRepository) QueryLessons() ([]lesson.Lesson, error) {
	l := repo.db.lock(contentDir)
	l.RLock()
	defer l.RUnlock()

	entries, err := os.ReadDir(repo.db.path(contentDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "listing lessons")
	}
	lessons := make([]lesson.Lesson, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // removed meanwhile
		}
		lessons = append(lessons, toLesson(info))
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].Name < lessons[j].Name })
	return lessons, nil
}

func (repo *LessonRepository) OpenLesson(name string) (io.ReadCloser, lesson.Lesson, error) {
	l := repo.db.lock(contentDir)
	l.RLock()
	defer l.RUnlock()

	if name == "" || name != filepath.Base(name) || name[0] == '.' {
		return nil, lesson.Lesson{}, lesson.ErrNotFound
	}
	f, err := os.Open(repo.contentPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lesson.Lesson{}, lesson.ErrNotFound
		}
		return nil, lesson.Lesson{}, errors.Wrap(err, "opening lesson")
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return nil, lesson.Lesson{}, lesson.ErrNotFound
	}
	return f, toLesson(info), nil
}

func (repo *LessonRepository) AppendCompletion(c lesson.Completion) error {
	return repo.db.appendCSV(progressFile, progressHeader, []string{c.Student, c.Lesson, c.Date})
}

func (repo *LessonRepository) QueryCompletions() ([]lesson.Completion, error) {
	l := repo.db.lock(progressFile)
	l.RLock()
	defer l.RUnlock()

	rows, err := repo.db.readCSV(progressFile, progressHeader)
	if err != nil {
		return nil, err
	}
	done := make([]lesson.Completion, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		done = append(done, lesson.Completion{Student: row[0], Lesson: row[1], Date: row[2]})
	}
	return done, nil
}

func toLesson(info os.FileInfo) lesson.Lesson {
	return lesson.Lesson{Name: info.Name(), Size: info.Size(), ModTime: info.ModTime().UTC()}
}
