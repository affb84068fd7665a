package flatfile

import (
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/quiz"
)

var (
	quizResultsHeader       = []string{"Student Name", "Lesson Name", "Score", "Date"}
	customQuizResultsHeader = []string{"Student Name", "Quiz Title", "Score", "Date"}
)

func resultsFile(kind quiz.ResultKind) (string, []string) {
	if kind == quiz.ResultAssigned {
		return customQuizResultsFile, customQuizResultsHeader
	}
	return quizResultsFile, quizResultsHeader
}

var (
	_ quiz.ResultRepository    = (*QuizRepository)(nil)
	_ quiz.PublishedRepository = (*QuizRepository)(nil)
)

type QuizRepository struct {
	db *DB
}

// NewQuizRepository returns the store of result logs and of the published quiz.
func NewQuizRepository(db *DB) *QuizRepository {
	return &QuizRepository{db: db}
}

func (repo *QuizRepository) AppendResult(kind quiz.ResultKind, rec quiz.ResultRecord) error {
	name, header := resultsFile(kind)
	return repo.db.appendCSV(name, header, []string{rec.Identity, rec.Label, rec.Score, rec.Date})
}

func (repo *QuizRepository) QueryResults(kind quiz.ResultKind) ([]quiz.ResultRecord, error) {
	name, header := resultsFile(kind)
	l := repo.db.lock(name)
	l.RLock()
	defer l.RUnlock()

	rows, err := repo.db.readCSV(name, header)
	if err != nil {
		return nil, err
	}
	recs := make([]quiz.ResultRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		recs = append(recs, quiz.ResultRecord{Identity: row[0], Label: row[1], Score: row[2], Date: row[3]})
	}
	return recs, nil
}

func (repo *QuizRepository) SavePublishedQuiz(pq quiz.PublishedQuiz) error {
	l := repo.db.lock(publishedQuizFile)
	l.Lock()
	defer l.Unlock()
	return repo.db.writeJSON(publishedQuizFile, pq)
}

func (repo *QuizRepository) GetPublishedQuiz() (quiz.PublishedQuiz, error) {
	l := repo.db.lock(publishedQuizFile)
	l.RLock()
	defer l.RUnlock()

	var pq quiz.PublishedQuiz
	ok, err := repo.db.readJSON(publishedQuizFile, &pq)
	if err != nil {
		return quiz.PublishedQuiz{}, err
	}
	if !ok {
		return quiz.PublishedQuiz{}, quiz.ErrNoPublishedQuiz
	}
	return pq, nil
}

func (repo *QuizRepository) DeletePublishedQuiz() error {
	l := repo.db.lock(publishedQuizFile)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(repo.db.path(publishedQuizFile)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing published quiz")
	}
	return nil
}
