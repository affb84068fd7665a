package attendance

import (
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/elimu/core"
)

// RosterHeader is the optional header of an uploaded roster.
const RosterHeader = "Student Name"

var (
	ErrEmptyRoster = errors.New("the roster has no students")
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
	ErrFutureDate  = errors.New("attendance cannot be marked for a future date")
)

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

type (
	Record struct {
		Date    string `json:"date"` // core.DateLayout
		Student string `json:"student_name"`
		Status  Status `json:"status"`
	}

	Summary struct {
		Student string  `json:"student_name"`
		Present int     `json:"present"`
		Absent  int     `json:"absent"`
		Rate    float64 `json:"rate"` // present / marked days, in [0, 1]
	}

	// Day is the attendance of one date, in roster order.
	Day struct {
		Date    string
		Records []Record
	}

	Report struct {
		Summaries []Summary
		Days      []Day // newest first
	}

	Repository interface {
		SaveRoster(names []string) error
		GetRoster() ([]string, error)
		// ReplaceDay drops every record of date and stores recs.
		ReplaceDay(date string, recs []Record) error
		QueryRecords() ([]Record, error)
	}

	Service struct {
		repo Repository
	}
)

func (s Summary) Days() int { return s.Present + s.Absent }

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ParseRoster reads one student name per line (first CSV column).
// A leading "Student Name" header, blank names and duplicates are dropped.
func ParseRoster(r io.Reader) ([]string, error) {
	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1
	rdr.TrimLeadingSpace = true

	var names []string
	seen := make(map[string]struct{})
	for first := true; ; first = false {
		row, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		name := core.CleanString(strings.TrimPrefix(row[0], "\ufeff"))
		if name == "" || (first && strings.EqualFold(name, RosterHeader)) {
			continue
		}
		if _, ok := seen[strings.ToLower(name)]; ok {
			continue
		}
		seen[strings.ToLower(name)] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// UploadRoster replaces the roster with the names read from r.
func (svc *Service) UploadRoster(r io.Reader) ([]string, error) {
	names, err := ParseRoster(r)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrEmptyRoster
	}
	return names, svc.repo.SaveRoster(names)
}

func (svc *Service) Roster() ([]string, error) {
	return svc.repo.GetRoster()
}

// ParseDate validates a YYYY-MM-DD date; empty means today.
func ParseDate(date string) (string, error) {
	today := core.NowFunc().Format(core.DateLayout)
	date = core.CleanString(date)
	if date == "" {
		return today, nil
	}
	d, err := time.Parse(core.DateLayout, date)
	if err != nil {
		return "", ErrInvalidDate
	}
	if date = d.Format(core.DateLayout); date > today {
		return "", ErrFutureDate
	}
	return date, nil
}

// Mark records every roster student as present (if listed in present) or absent on date,
// replacing what was previously marked for that date. Names not on the roster are ignored.
func (svc *Service) Mark(date string, present []string) (Day, error) {
	date, err := ParseDate(date)
	if err != nil {
		return Day{}, err
	}
	roster, err := svc.repo.GetRoster()
	if err != nil {
		return Day{}, err
	}
	if len(roster) == 0 {
		return Day{}, ErrEmptyRoster
	}

	isPresent := make(map[string]bool, len(present))
	for _, name := range present {
		isPresent[core.CleanString(name)] = true
	}
	day := Day{Date: date, Records: make([]Record, 0, len(roster))}
	for _, name := range roster {
		status := StatusAbsent
		if isPresent[name] {
			status = StatusPresent
		}
		day.Records = append(day.Records, Record{Date: date, Student: name, Status: status})
	}
	return day, svc.repo.ReplaceDay(date, day.Records)
}

// Day returns what was marked on date.
func (svc *Service) Day(date string) (Day, error) {
	date, err := ParseDate(date)
	if err != nil {
		return Day{}, err
	}
	recs, err := svc.repo.QueryRecords()
	if err != nil {
		return Day{}, err
	}
	day := Day{Date: date}
	for _, rec := range recs {
		if rec.Date == date {
			day.Records = append(day.Records, rec)
		}
	}
	return day, nil
}

// Report aggregates every record per student (roster order first, then by name) and per date.
func (svc *Service) Report() (Report, error) {
	roster, err := svc.repo.GetRoster()
	if err != nil {
		return Report{}, err
	}
	recs, err := svc.repo.QueryRecords()
	if err != nil {
		return Report{}, err
	}
	return buildReport(roster, recs), nil
}

// SummaryFor returns the summary of one student; ok is false when nothing was marked for them.
func (svc *Service) SummaryFor(student string) (Summary, bool, error) {
	recs, err := svc.repo.QueryRecords()
	if err != nil {
		return Summary{}, false, err
	}
	for _, s := range buildReport(nil, recs).Summaries {
		if strings.EqualFold(s.Student, student) {
			return s, true, nil
		}
	}
	return Summary{Student: student}, false, nil
}

func buildReport(roster []string, recs []Record) Report {
	summaries := make(map[string]*Summary)
	order := make([]string, 0, len(roster))
	for _, name := range roster {
		summaries[name] = &Summary{Student: name}
		order = append(order, name)
	}
	var extra []string
	days := make(map[string]*Day)

	for _, rec := range recs {
		s, ok := summaries[rec.Student]
		if !ok {
			s = &Summary{Student: rec.Student}
			summaries[rec.Student] = s
			extra = append(extra, rec.Student)
		}
		switch rec.Status {
		case StatusPresent:
			s.Present++
		case StatusAbsent:
			s.Absent++
		}

		d, ok := days[rec.Date]
		if !ok {
			d = &Day{Date: rec.Date}
			days[rec.Date] = d
		}
		d.Records = append(d.Records, rec)
	}
	sort.Strings(extra)
	order = append(order, extra...)

	var report Report
	for _, name := range order {
		s := summaries[name]
		if n := s.Days(); n > 0 {
			s.Rate = float64(s.Present) / float64(n)
		}
		report.Summaries = append(report.Summaries, *s)
	}
	for _, d := range days {
		report.Days = append(report.Days, *d)
	}
	sort.Slice(report.Days, func(i, j int) bool { return report.Days[i].Date > report.Days[j].Date })
	return report
}
