package flatfile

import (
	"github.com/trezcool/elimu/core/attendance"
)

var (
	rosterHeader     = []string{attendance.RosterHeader}
	attendanceHeader = []string{"Date", "Student Name", "Status"}
)

type attendanceRepository struct {
	db *DB
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) SaveRoster(names []string) error {
	l := repo.db.lock(rosterFile)
	l.Lock()
	defer l.Unlock()

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name})
	}
	return repo.db.writeCSV(rosterFile, rosterHeader, rows)
}

func (repo *attendanceRepository) GetRoster() ([]string, error) {
	l := repo.db.lock(rosterFile)
	l.RLock()
	defer l.RUnlock()

	rows, err := repo.db.readCSV(rosterFile, rosterHeader)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 && row[0] != "" {
			names = append(names, row[0])
		}
	}
	return names, nil
}

func (repo *attendanceRepository) ReplaceDay(date string, recs []attendance.Record) error {
	l := repo.db.lock(attendanceFile)
	l.Lock()
	defer l.Unlock()

	rows, err := repo.db.readCSV(attendanceFile, attendanceHeader)
	if err != nil {
		return err
	}
	kept := make([][]string, 0, len(rows)+len(recs))
	for _, row := range rows {
		if len(row) >= 3 && row[0] != date {
			kept = append(kept, row)
		}
	}
	for _, rec := range recs {
		kept = append(kept, []string{rec.Date, rec.Student, string(rec.Status)})
	}
	return repo.db.writeCSV(attendanceFile, attendanceHeader, kept)
}

func (repo *attendanceRepository) QueryRecords() ([]attendance.Record, error) {
	l := repo.db.lock(attendanceFile)
	l.RLock()
	defer l.RUnlock()

	rows, err := repo.db.readCSV(attendanceFile, attendanceHeader)
	if err != nil {
		return nil, err
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		recs = append(recs, attendance.Record{Date: row[0], Student: row[1], Status: attendance.Status(row[2])})
	}
	return recs, nil
}
