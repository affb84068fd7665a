package flatfile

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

// file names, relative to the data dir
const (
	announcementsFile     = "announcements.json"
	publishedQuizFile     = "custom_quiz.json"
	lessonMetadataFile    = "lesson_metadata.json"
	quizResultsFile       = "quiz_results.csv"
	customQuizResultsFile = "custom_quiz_results.csv"
	progressFile          = "student_progress.csv"
	rosterFile            = "roster.csv"
	attendanceFile        = "attendance.csv"
	contentDir            = "content"
)

// DB is a directory of JSON and CSV files.
// Each file is guarded by its own lock; writes of whole JSON documents go through a temp file and a rename.
type DB struct {
	dir string

	mutex sync.Mutex
	locks map[string]*sync.RWMutex
}

// Open prepares the data dir (and its content dir) for use.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(filepath.Join(dir, contentDir), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating data dir")
	}
	return &DB{dir: dir, locks: make(map[string]*sync.RWMutex)}, nil
}

// OpenConfig opens the data dir of conf.
func OpenConfig(conf *core.Config) (*DB, error) {
	return Open(conf.DataDir)
}

func (db *DB) Dir() string { return db.dir }

func (db *DB) path(name string) string {
	return filepath.Join(db.dir, name)
}

func (db *DB) lock(name string) *sync.RWMutex {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	l, ok := db.locks[name]
	if !ok {
		l = new(sync.RWMutex)
		db.locks[name] = l
	}
	return l
}

// readJSON decodes file name into v; it reports false when the file does not exist.
// The caller holds the lock.
func (db *DB) readJSON(name string, v interface{}) (bool, error) {
	data, err := os.ReadFile(db.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "reading %s", name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrapf(err, "decoding %s", name)
	}
	return true, nil
}

// writeJSON replaces file name with the indented encoding of v. The caller holds the lock.
func (db *DB) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", name)
	}
	tmp, err := os.CreateTemp(db.dir, name+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	if err := os.Rename(tmp.Name(), db.path(name)); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	return nil
}

// appendCSV appends rows to file name, writing header first when the file is new or empty.
func (db *DB) appendCSV(name string, header []string, rows ...[]string) error {
	l := db.lock(name)
	l.Lock()
	defer l.Unlock()

	f, err := os.OpenFile(db.path(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening %s", name)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrapf(err, "opening %s", name)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 && header != nil {
		if err := w.Write(header); err != nil {
			return errors.Wrapf(err, "writing %s", name)
		}
	}
	if err := w.WriteAll(rows); err != nil { // flushes
		return errors.Wrapf(err, "writing %s", name)
	}
	return nil
}

// readCSV returns every row of file name, without the header row when it equals header.
// A missing file has no rows. The caller holds the lock.
func (db *DB) readCSV(name string, header []string) ([][]string, error) {
	f, err := os.Open(db.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "opening %s", name)
	}
	defer func() { _ = f.Close() }()

	rdr := csv.NewReader(f)
	rdr.FieldsPerRecord = -1
	var rows [][]string
	for first := true; ; first = false {
		row, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", name)
		}
		if first && isHeader(row, header) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeCSV replaces file name with header and rows. The caller holds the lock.
func (db *DB) writeCSV(name string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(db.dir, name+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if header != nil {
		_ = w.Write(header)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	if err := os.Rename(tmp.Name(), db.path(name)); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	return nil
}

func isHeader(row, header []string) bool {
	if len(header) == 0 || len(row) != len(header) {
		return false
	}
	for i := range row {
		if row[i] != header[i] {
			return false
		}
	}
	return true
}

// Reset removes lessons, local quiz results, progress, lesson metadata and the published quiz.
// Accounts, announcements, assigned quiz results, the roster and attendance are kept.
func (db *DB) Reset() error {
	for _, name := range []string{contentDir, quizResultsFile, progressFile, lessonMetadataFile, publishedQuizFile} {
		l := db.lock(name)
		l.Lock()
		err := os.RemoveAll(db.path(name))
		l.Unlock()
		if err != nil {
			return errors.Wrapf(err, "removing %s", name)
		}
	}
	if err := os.MkdirAll(db.path(contentDir), 0o755); err != nil {
		return errors.Wrap(err, "creating content dir")
	}
	return nil
}
