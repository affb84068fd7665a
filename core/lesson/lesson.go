package lesson

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/trezcool/elimu/core"
)

const (
	ExtPDF  = ".pdf"
	ExtText = ".txt"
)

var (
	ErrNotFound        = errors.New("lesson not found")
	ErrUnsupportedType = errors.New("only .pdf and .txt lessons are supported")
	ErrInvalidName     = errors.New("invalid lesson file name")
	ErrNotText         = errors.New("only text lessons can be read inline")
	ErrNotUTF8         = errors.New("lesson is not valid UTF-8 text")
)

type (
	Lesson struct {
		Name    string    `json:"name"`
		Size    int64     `json:"size"`
		ModTime time.Time `json:"mod_time"`
	}

	// Completion records a student marking a lesson done.
	Completion struct {
		Student string `json:"student_name"`
		Lesson  string `json:"lesson_name"`
		Date    string `json:"date"` // core.TimestampLayout
	}

	// Store holds lesson files.
	Store interface {
		SaveLesson(name string, r io.Reader) (Lesson, error)
		// QueryLessons returns lessons sorted by name.
		QueryLessons() ([]Lesson, error)
		// OpenLesson returns ErrNotFound when name is unknown.
		OpenLesson(name string) (io.ReadCloser, Lesson, error)
	}

	ProgressRepository interface {
		AppendCompletion(c Completion) error
		QueryCompletions() ([]Completion, error)
	}

	Service struct {
		store    Store
		progress ProgressRepository
	}
)

func (l Lesson) Ext() string     { return strings.ToLower(filepath.Ext(l.Name)) }
func (l Lesson) IsText() bool    { return l.Ext() == ExtText }
func (l Lesson) IsPDF() bool     { return l.Ext() == ExtPDF }
func (l Lesson) Title() string   { return strings.TrimSuffix(l.Name, filepath.Ext(l.Name)) }
func (l Lesson) SizeKB() float64 { return float64(l.Size) / 1024 }

func NewService(store Store, progress ProgressRepository) *Service {
	return &Service{store: store, progress: progress}
}

// SanitizeName reduces an uploaded file name to a safe base name.
// Path components are dropped and characters outside letters, digits, `.`, `-`, `_` and space
// become `_`.
func SanitizeName(filename string) (string, error) {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_', r == ' ':
			return r
		}
		return '_'
	}, name)
	name = core.CleanString(name)
	if name == "" || name == "." || name == ".." || strings.TrimSuffix(name, filepath.Ext(name)) == "" {
		return "", ErrInvalidName
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ExtPDF, ExtText:
		return name, nil
	}
	return "", ErrUnsupportedType
}

// Upload stores the file under its sanitised name, replacing any lesson of the same name.
func (svc *Service) Upload(filename string, r io.Reader) (Lesson, error) {
	name, err := SanitizeName(filename)
	if err != nil {
		return Lesson{}, err
	}
	return svc.store.SaveLesson(name, r)
}

func (svc *Service) List() ([]Lesson, error) {
	return svc.store.QueryLessons()
}

// Open returns the raw lesson file; the caller closes it.
func (svc *Service) Open(name string) (io.ReadCloser, Lesson, error) {
	return svc.store.OpenLesson(name)
}

// ReadText returns the content of a text lesson.
func (svc *Service) ReadText(name string) (Lesson, string, error) {
	rc, l, err := svc.store.OpenLesson(name)
	if err != nil {
		return Lesson{}, "", err
	}
	defer func() { _ = rc.Close() }()

	if !l.IsText() {
		return l, "", ErrNotText
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		return l, "", err
	}
	if !utf8.Valid(data) {
		return l, "", ErrNotUTF8
	}
	return l, string(data), nil
}

// MarkDone records that student completed the lesson. Marking it again is a no-op.
func (svc *Service) MarkDone(student, name string) (Completion, error) {
	rc, l, err := svc.store.OpenLesson(name)
	if err != nil {
		return Completion{}, err
	}
	_ = rc.Close()

	done, err := svc.Completed(student)
	if err != nil {
		return Completion{}, err
	}
	for _, c := range done {
		if c.Lesson == l.Name {
			return c, nil
		}
	}

	c := Completion{Student: student, Lesson: l.Name, Date: core.Timestamp()}
	return c, svc.progress.AppendCompletion(c)
}

// Completed returns the lessons student marked done, oldest first.
func (svc *Service) Completed(student string) ([]Completion, error) {
	all, err := svc.progress.QueryCompletions()
	if err != nil {
		return nil, err
	}
	var done []Completion
	for _, c := range all {
		if c.Student == student {
			done = append(done, c)
		}
	}
	return done, nil
}
